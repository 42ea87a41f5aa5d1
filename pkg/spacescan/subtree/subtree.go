// Package subtree measures the full recursive size of a directory.
//
// The engine only ever sums a directory's immediate files. Measure is the
// separate, opt-in answer for callers who want a whole-subtree total, and
// walks in parallel with fastwalk.
package subtree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
)

// Totals is the recursive size of one root.
type Totals struct {
	Root    string        `json:"root" yaml:"root"`
	Bytes   uint64        `json:"bytes" yaml:"bytes"`
	Files   int64         `json:"files" yaml:"files"`
	Dirs    int64         `json:"dirs" yaml:"dirs"`
	Pruned  int64         `json:"pruned" yaml:"pruned"`
	Errors  int64         `json:"errors" yaml:"errors"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

type counters struct {
	bytes  atomic.Uint64
	files  atomic.Int64
	dirs   atomic.Int64
	pruned atomic.Int64
	errors atomic.Int64
}

// Measure walks root and returns its recursive totals. Directories matched
// by m are skipped with everything below them; the root itself is never
// pruned. Symbolic links are counted as files and not followed. workers <= 0
// uses fastwalk's default.
//
// When ctx is cancelled the walk stops and the partial totals are returned
// along with ctx.Err().
func Measure(ctx context.Context, root string, m *exclude.Matcher, workers int) (Totals, error) {
	log := logging.Get("subtree")
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return Totals{Root: root}, fmt.Errorf("resolving %s: %w", root, err)
	}

	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: workers,
	}

	var c counters
	walkErr := fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			c.errors.Add(1)
			log.Debug("walk error", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != abs && m.ShouldPrune(path) {
				c.pruned.Add(1)
				return fastwalk.SkipDir
			}
			c.dirs.Add(1)
			return nil
		}

		c.files.Add(1)
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			c.errors.Add(1)
			return nil
		}
		if size := info.Size(); size > 0 {
			c.bytes.Add(uint64(size))
		}
		return nil
	})

	t := Totals{
		Root:    abs,
		Bytes:   c.bytes.Load(),
		Files:   c.files.Load(),
		Dirs:    c.dirs.Load(),
		Pruned:  c.pruned.Load(),
		Errors:  c.errors.Load(),
		Elapsed: time.Since(start),
	}

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return t, walkErr
		}
		return t, fmt.Errorf("measuring %s: %w", abs, walkErr)
	}

	log.Debug("measured", "root", abs, "bytes", t.Bytes, "files", t.Files, "dirs", t.Dirs)
	return t, nil
}

// MeasureAll measures each root in order. It stops at the first error and
// returns the totals gathered so far, including the partial totals of a
// cancelled root.
func MeasureAll(ctx context.Context, roots []string, m *exclude.Matcher, workers int) ([]Totals, error) {
	out := make([]Totals, 0, len(roots))
	for _, root := range roots {
		t, err := Measure(ctx, root, m, workers)
		if err != nil {
			if ctx.Err() != nil {
				out = append(out, t)
			}
			return out, err
		}
		out = append(out, t)
	}
	return out, nil
}
