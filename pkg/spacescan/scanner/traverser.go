package scanner

import (
	"io/fs"
	"path/filepath"

	"github.com/jamesainslie/spacescan/pkg/spacescan/aggregate"
	"github.com/jamesainslie/spacescan/pkg/spacescan/cancel"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// Visit describes one directory after its immediate files were counted.
type Visit struct {
	// Path is the directory's absolute path.
	Path string

	// Bytes is the sum of the regular files directly inside the directory.
	Bytes uint64

	// Files is the number of non-directory entries counted.
	Files int

	// Pruned lists child directories skipped by exclusion rules or because
	// they live on another filesystem.
	Pruned []string

	// Err is set when the directory could not be read. Such a directory
	// counts as empty.
	Err error
}

// Traverser walks volumes. A Traverser may be reused for several walks but
// not concurrently.
type Traverser struct {
	opts Options
	log  *logging.Logger
}

// New creates a Traverser. Zero options are replaced by defaults.
func New(opts Options) *Traverser {
	_ = opts.Validate()
	return &Traverser{
		opts: opts,
		log:  logging.Get("scanner"),
	}
}

// Walk visits every directory of vol that is not pruned, calling onDirectory
// once per directory. The token is checked after each directory; a set
// token ends the walk with OutcomeCancelled.
func (t *Traverser) Walk(vol types.Volume, onDirectory func(Visit), token *cancel.Token) types.Outcome {
	if token.Cancelled() {
		return types.OutcomeCancelled
	}

	root := vol.Mountpoint
	var rootDev uint64
	checkDev := false
	if t.opts.OneFilesystem {
		if info, err := t.opts.Lister.Stat(root); err == nil {
			rootDev, checkDev = deviceOf(info)
		}
	}

	// Depth-first; children are pushed in reverse so siblings are visited in
	// directory order.
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visit, children := t.visit(dir, rootDev, checkDev)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}

		if onDirectory != nil {
			onDirectory(visit)
		}

		if token.Cancelled() {
			t.log.Debug("walk cancelled", "volume", root, "at", dir)
			return types.OutcomeCancelled
		}
	}
	return types.OutcomeCompleted
}

// visit counts dir's immediate files and returns the children to descend into.
func (t *Traverser) visit(dir string, rootDev uint64, checkDev bool) (Visit, []string) {
	v := Visit{Path: dir}

	entries, err := t.opts.Lister.ReadDir(dir)
	if err != nil {
		t.log.Warn("cannot read directory", "path", dir, "error", err)
		v.Err = err
		// os.ReadDir may return a partial listing; an unreadable directory
		// contributes nothing.
		return v, nil
	}

	var children []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		if e.IsDir() {
			if t.opts.Matcher.ShouldPrune(path) {
				v.Pruned = append(v.Pruned, path)
				continue
			}
			if checkDev && t.otherDevice(e, rootDev) {
				v.Pruned = append(v.Pruned, path)
				continue
			}
			children = append(children, path)
			continue
		}

		var size uint64
		if e.Type().IsRegular() {
			info, err := e.Info()
			if err != nil {
				// Removed between listing and stat.
				t.log.Debug("skipping file", "path", path, "error", err)
				continue
			}
			if info.Size() > 0 {
				size = uint64(info.Size())
			}
		}

		v.Files++
		v.Bytes += size
		if t.opts.Sink != nil {
			t.opts.Sink.RecordExtension(aggregate.Extension(e.Name()))
		}
	}

	if t.opts.Sink != nil && v.Bytes >= t.opts.Threshold {
		t.opts.Sink.Offer(types.DirectoryRecord{Size: v.Bytes, Path: dir})
	}
	return v, children
}

func (t *Traverser) otherDevice(e fs.DirEntry, rootDev uint64) bool {
	info, err := e.Info()
	if err != nil {
		return false
	}
	dev, ok := deviceOf(info)
	return ok && dev != rootDev
}
