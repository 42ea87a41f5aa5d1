package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

func sampleResult() types.Result {
	return types.Result{
		LargeDirectories: []types.DirectoryRecord{
			{Size: 150 * types.MiB, Path: "/data/big"},
			{Size: 2 * types.GiB, Path: "/data/bigger"},
		},
		FileTypes: map[string]int64{".txt": 3, "": 1},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	doc := Build(sampleResult(), now)

	if doc.Timestamp != "2024-06-15T10:30:00Z" {
		t.Errorf("Timestamp = %q", doc.Timestamp)
	}
	if len(doc.LargeDirectories) != 2 {
		t.Fatalf("LargeDirectories = %d, want 2", len(doc.LargeDirectories))
	}
	if got := doc.LargeDirectories[0]; got.Size != "150.00 MB" || got.Path != "/data/big" {
		t.Errorf("first record = %+v", got)
	}
	if got := doc.LargeDirectories[1].Size; got != "2.00 GB" {
		t.Errorf("second size = %q", got)
	}
	if doc.FileTypes[".txt"] != 3 || doc.FileTypes[""] != 1 {
		t.Errorf("FileTypes = %v", doc.FileTypes)
	}

	ts, err := doc.Time()
	if err != nil || !ts.Equal(now) {
		t.Errorf("Time() = %v, %v", ts, err)
	}
}

func TestBuildEmptyResult(t *testing.T) {
	t.Parallel()

	doc := Build(types.Result{}, time.Now())
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["large_directories"]) != "[]" {
		t.Errorf("large_directories = %s, want []", raw["large_directories"])
	}
	if string(raw["file_types"]) != "{}" {
		t.Errorf("file_types = %s, want {}", raw["file_types"])
	}
}

func TestNewArchiveEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := NewArchive("", false); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestArchive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.Local)
	doc := Build(sampleResult(), now)

	t.Run("save plain json", func(t *testing.T) {
		t.Parallel()
		a, _ := NewArchive(filepath.Join(t.TempDir(), "reports"), false)

		path, err := a.Save(doc, now)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if filepath.Base(path) != "large_dirs_log_20240615_103000.json" {
			t.Errorf("path = %s", path)
		}
		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp file left behind")
		}

		loaded, err := a.Load("large_dirs_log_20240615_103000")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Timestamp != doc.Timestamp || len(loaded.LargeDirectories) != 2 {
			t.Errorf("loaded = %+v", loaded)
		}
	})

	t.Run("save compressed removes json", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		a, _ := NewArchive(dir, true)

		path, err := a.Save(doc, now)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if filepath.Ext(path) != ".zip" {
			t.Fatalf("path = %s, want .zip", path)
		}
		if _, err := os.Stat(filepath.Join(dir, "large_dirs_log_20240615_103000.json")); !os.IsNotExist(err) {
			t.Error("json should be removed after compression")
		}

		zr, err := zip.OpenReader(path)
		if err != nil {
			t.Fatalf("OpenReader: %v", err)
		}
		defer zr.Close()
		if len(zr.File) != 1 || zr.File[0].Name != "large_dirs_log_20240615_103000.json" {
			t.Errorf("archive members = %v", zr.File)
		}

		loaded, err := a.Load(filepath.Base(path))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.FileTypes[".txt"] != 3 {
			t.Errorf("FileTypes = %v", loaded.FileTypes)
		}
	})

	t.Run("same second gets a suffix", func(t *testing.T) {
		t.Parallel()
		a, _ := NewArchive(t.TempDir(), false)

		first, err := a.Save(doc, now)
		if err != nil {
			t.Fatal(err)
		}
		second, err := a.Save(doc, now)
		if err != nil {
			t.Fatal(err)
		}
		if first == second {
			t.Fatal("second save overwrote the first")
		}
		if filepath.Base(second) != "large_dirs_log_20240615_103000_2.json" {
			t.Errorf("second = %s", second)
		}

		entries, err := a.List(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Errorf("List = %d entries, want 2", len(entries))
		}
	})

	t.Run("load missing", func(t *testing.T) {
		t.Parallel()
		a, _ := NewArchive(t.TempDir(), false)

		_, err := a.Load("large_dirs_log_20000101_000000")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestArchiveList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, _ := NewArchive(dir, false)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	doc := Build(types.Result{}, base)

	for i := 0; i < 3; i++ {
		if _, err := a.Save(doc, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := a.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List = %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Time.After(entries[i-1].Time) {
			t.Error("entries not sorted newest first")
		}
	}
	if entries[0].Name != "large_dirs_log_20240101_140000" {
		t.Errorf("newest = %s", entries[0].Name)
	}

	limited, err := a.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) = %d entries", len(limited))
	}
}

func TestArchiveListMissingDir(t *testing.T) {
	t.Parallel()

	a, _ := NewArchive(filepath.Join(t.TempDir(), "absent"), false)
	entries, err := a.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v", entries)
	}
}

func TestArchiveCleanup(t *testing.T) {
	t.Parallel()

	a, _ := NewArchive(t.TempDir(), true)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.Local)
	doc := Build(types.Result{}, now)

	for _, age := range []int{1, 10, 40, 90} {
		if _, err := a.Save(doc, now.AddDate(0, 0, -age)); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := a.Cleanup(30, now)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	entries, _ := a.List(0)
	if len(entries) != 2 {
		t.Errorf("remaining = %d, want 2", len(entries))
	}

	removed, err = a.Cleanup(0, now)
	if err != nil || removed != 0 {
		t.Errorf("Cleanup(0) = %d, %v", removed, err)
	}
}
