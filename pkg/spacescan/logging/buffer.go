package logging

import "sync"

// DefaultBufferSize is the number of entries kept when no size is given.
const DefaultBufferSize = 200

// LogBuffer keeps the most recent entries in a fixed-size ring. Older entries
// are overwritten; Dropped reports how many were lost that way.
type LogBuffer struct {
	mu      sync.RWMutex
	ring    []Entry
	next    int
	full    bool
	dropped int64
}

// NewLogBuffer creates a buffer holding up to size entries.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{ring: make([]Entry, size)}
}

// Add appends an entry, overwriting the oldest one when full.
func (b *LogBuffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.full {
		b.dropped++
	}
	b.ring[b.next] = e
	b.next = (b.next + 1) % len(b.ring)
	if b.next == 0 {
		b.full = true
	}
}

// Len returns the number of entries held.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenLocked()
}

func (b *LogBuffer) lenLocked() int {
	if b.full {
		return len(b.ring)
	}
	return b.next
}

// Dropped returns how many entries were overwritten.
func (b *LogBuffer) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Entries returns a copy of all held entries, oldest first.
func (b *LogBuffer) Entries() []Entry {
	return b.Last(-1)
}

// Last returns up to n of the newest entries, oldest first.
// A negative n returns everything.
func (b *LogBuffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.lenLocked()
	if n < 0 || n > count {
		n = count
	}

	out := make([]Entry, n)
	start := b.next - n
	if start < 0 {
		start += len(b.ring)
	}
	for i := 0; i < n; i++ {
		out[i] = b.ring[(start+i)%len(b.ring)]
	}
	return out
}
