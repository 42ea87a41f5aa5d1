// Package scanner walks one volume directory by directory, summing the sizes
// of the files directly inside each directory.
//
// The walk uses an explicit work list on a single goroutine so that a
// cancellation request is observed after every directory and deep trees
// cannot exhaust the stack.
package scanner

import (
	"io/fs"
	"os"

	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// Lister reads directories. The default reads the real filesystem; tests
// substitute failures or synthetic trees.
type Lister interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
}

type osLister struct{}

func (osLister) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (osLister) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }

// OSLister reads the local filesystem.
var OSLister Lister = osLister{}

// Sink receives large directories and file extensions as they are found.
// *aggregate.Aggregator satisfies it.
type Sink interface {
	Offer(types.DirectoryRecord) bool
	RecordExtension(ext string)
}

// Options configures a Traverser.
type Options struct {
	// Matcher prunes child directories before descent. Nil prunes nothing.
	Matcher *exclude.Matcher

	// Sink receives large directories and extensions. Nil discards them.
	Sink Sink

	// Lister reads directories. Nil means OSLister.
	Lister Lister

	// Threshold is the immediate-file size at which a directory is offered
	// to the Sink. Zero means types.LargeDirThreshold.
	Threshold uint64

	// OneFilesystem stops the walk at mount points below the volume root.
	OneFilesystem bool
}

// DefaultOptions returns options with the built-in exclusion rules.
func DefaultOptions() Options {
	return Options{
		Matcher:       exclude.Default(),
		Lister:        OSLister,
		Threshold:     types.LargeDirThreshold,
		OneFilesystem: true,
	}
}

// Validate fills zero values with defaults.
func (o *Options) Validate() error {
	if o.Lister == nil {
		o.Lister = OSLister
	}
	if o.Threshold == 0 {
		o.Threshold = types.LargeDirThreshold
	}
	return nil
}
