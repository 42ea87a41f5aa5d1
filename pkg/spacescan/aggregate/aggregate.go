// Package aggregate keeps the bounded list of largest directories and the
// file extension histogram for a scan session.
package aggregate

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// Aggregator collects directory records and extension counts.
// It is safe for concurrent use; Finalize may be called while offers continue.
type Aggregator struct {
	mu        sync.Mutex
	threshold uint64
	capacity  int
	top       []types.DirectoryRecord // size desc, ties in discovery order
	hist      map[string]int64
	files     int64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithThreshold overrides the admission gate (default types.LargeDirThreshold).
func WithThreshold(n uint64) Option {
	return func(a *Aggregator) { a.threshold = n }
}

// WithCapacity overrides the list size (default types.TopK). Values below 1 are ignored.
func WithCapacity(k int) Option {
	return func(a *Aggregator) {
		if k > 0 {
			a.capacity = k
		}
	}
}

// New creates an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		threshold: types.LargeDirThreshold,
		capacity:  types.TopK,
		hist:      make(map[string]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.top = make([]types.DirectoryRecord, 0, a.capacity)
	return a
}

// Offer submits a directory record. Records below the threshold are ignored.
// When the list is full the smallest entry is evicted only if rec is strictly
// larger. It reports whether rec was retained.
func (a *Aggregator) Offer(rec types.DirectoryRecord) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rec.Size < a.threshold {
		return false
	}
	if len(a.top) == a.capacity && rec.Size <= a.top[len(a.top)-1].Size {
		return false
	}

	// Insert after every entry of equal or larger size.
	i := sort.Search(len(a.top), func(i int) bool {
		return a.top[i].Size < rec.Size
	})

	if len(a.top) == a.capacity {
		a.top = a.top[:len(a.top)-1]
	}
	a.top = append(a.top, types.DirectoryRecord{})
	copy(a.top[i+1:], a.top[i:])
	a.top[i] = rec
	return true
}

// RecordExtension counts one file with the given extension. The extension is
// lowercased; the empty string stands for files without one.
func (a *Aggregator) RecordExtension(ext string) {
	ext = strings.ToLower(ext)
	a.mu.Lock()
	a.hist[ext]++
	a.files++
	a.mu.Unlock()
}

// Files returns the number of extensions recorded so far.
func (a *Aggregator) Files() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.files
}

// Len returns the current number of retained directories.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.top)
}

// Finalize returns copies of the ranked directories (largest first) and the
// histogram. It does not change the aggregator's state.
func (a *Aggregator) Finalize() ([]types.DirectoryRecord, map[string]int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dirs := make([]types.DirectoryRecord, len(a.top))
	copy(dirs, a.top)

	hist := make(map[string]int64, len(a.hist))
	for k, v := range a.hist {
		hist[k] = v
	}
	return dirs, hist
}

// Extension returns the lowercase extension of a file name, including the
// dot. Leading dots do not start an extension, so ".bashrc" has none.
func Extension(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	return strings.ToLower(filepath.Ext(base))
}
