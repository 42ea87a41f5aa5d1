package subtree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
)

func writeFile(t *testing.T, path string, size int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
}

func TestMeasure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 1000)
	writeFile(t, filepath.Join(root, "sub", "b.bin"), 2000)
	writeFile(t, filepath.Join(root, "sub", "deep", "c.bin"), 3000)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	got, err := Measure(context.Background(), root, exclude.Default(), 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(6000), got.Bytes)
	assert.Equal(t, int64(3), got.Files)
	// root, sub, sub/deep, empty
	assert.Equal(t, int64(4), got.Dirs)
	assert.Equal(t, int64(0), got.Pruned)
	assert.True(t, filepath.IsAbs(got.Root))
}

func TestMeasurePrunes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.bin"), 100)
	writeFile(t, filepath.Join(root, "skipme", "b.bin"), 5000)
	writeFile(t, filepath.Join(root, "skipme", "inner", "c.bin"), 5000)

	m, err := exclude.New([]string{"*/skipme"})
	require.NoError(t, err)

	got, err := Measure(context.Background(), root, m, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), got.Bytes)
	assert.Equal(t, int64(1), got.Files)
	assert.Equal(t, int64(1), got.Pruned)
}

func TestMeasureRootNeverPruned(t *testing.T) {
	root := filepath.Join(t.TempDir(), "skipme")
	writeFile(t, filepath.Join(root, "a.bin"), 10)

	m, err := exclude.New([]string{"*/skipme"})
	require.NoError(t, err)

	got, err := Measure(context.Background(), root, m, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Bytes)
}

func TestMeasureSymlinkCountedNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "huge.bin"), 1<<20)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link")))

	got, err := Measure(context.Background(), root, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Bytes)
	assert.Equal(t, int64(1), got.Files)
}

func TestMeasureCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Measure(ctx, root, nil, 1)
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
}

func TestMeasureMissingRoot(t *testing.T) {
	_, err := Measure(context.Background(), filepath.Join(t.TempDir(), "absent"), nil, 1)
	assert.Error(t, err)
}

func TestMeasureAll(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeFile(t, filepath.Join(a, "x"), 10)
	writeFile(t, filepath.Join(b, "y"), 20)

	got, err := MeasureAll(context.Background(), []string{a, b}, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(10), got[0].Bytes)
	assert.Equal(t, uint64(20), got[1].Bytes)

	got, err = MeasureAll(context.Background(), []string{a, filepath.Join(b, "absent"), b}, nil, 0)
	assert.Error(t, err)
	assert.Len(t, got, 1)
}
