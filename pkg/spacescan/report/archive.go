package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
)

const (
	filePrefix = "large_dirs_log_"
	nameLayout = "20060102_150405"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Entry describes a saved report.
type Entry struct {
	Name       string    `json:"name" yaml:"name"`
	Path       string    `json:"path" yaml:"path"`
	Time       time.Time `json:"time" yaml:"time"`
	Size       int64     `json:"size" yaml:"size"`
	Compressed bool      `json:"compressed" yaml:"compressed"`
}

// Archive stores reports in a directory.
type Archive struct {
	dir      string
	compress bool
	mu       sync.Mutex
	log      *logging.Logger
}

// NewArchive returns an Archive rooted at dir. The directory is created on
// the first Save.
func NewArchive(dir string, compress bool) (*Archive, error) {
	if dir == "" {
		return nil, errors.New("report directory cannot be empty")
	}
	return &Archive{dir: dir, compress: compress, log: logging.Get("report")}, nil
}

// Dir returns the archive directory.
func (a *Archive) Dir() string { return a.dir }

// FileName returns the report stem for a time, e.g. large_dirs_log_20240615_103000.
func FileName(t time.Time) string {
	return filePrefix + t.Format(nameLayout)
}

// Save writes doc as <stem>.json. With compression enabled the json is
// packed into <stem>.zip and removed. It returns the path of the saved file.
func (a *Archive) Save(doc Document, now time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	stem := a.uniqueStem(FileName(now))
	jsonPath := filepath.Join(a.dir, stem+".json")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := writeAtomic(jsonPath, data); err != nil {
		return "", err
	}

	if !a.compress {
		a.log.Info("report saved", "path", jsonPath)
		return jsonPath, nil
	}

	zipPath := filepath.Join(a.dir, stem+".zip")
	if err := zipFile(zipPath, jsonPath, now); err != nil {
		return "", err
	}
	if err := os.Remove(jsonPath); err != nil {
		return "", fmt.Errorf("removing uncompressed report: %w", err)
	}
	a.log.Info("report saved", "path", zipPath)
	return zipPath, nil
}

// uniqueStem appends a counter when a report with the same second exists.
func (a *Archive) uniqueStem(stem string) string {
	candidate := stem
	for i := 2; ; i++ {
		if !exists(filepath.Join(a.dir, candidate+".json")) && !exists(filepath.Join(a.dir, candidate+".zip")) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", stem, i)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func zipFile(zipPath, srcPath string, modified time.Time) (err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer src.Close()

	tmp := zipPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
		}
	}()

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(srcPath),
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("adding report to archive: %w", err)
	}
	if _, err = io.Copy(w, src); err != nil {
		return fmt.Errorf("compressing report: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err = os.Rename(tmp, zipPath); err != nil {
		return fmt.Errorf("renaming archive: %w", err)
	}
	return nil
}

// List returns saved reports, newest first. A limit of zero or less
// returns all of them.
func (a *Archive) List(limit int) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	files, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		e, ok := a.entryFor(f)
		if ok {
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Time.Equal(entries[j].Time) {
			return entries[i].Name > entries[j].Name
		}
		return entries[i].Time.After(entries[j].Time)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (a *Archive) entryFor(f os.DirEntry) (Entry, bool) {
	name := f.Name()
	if f.IsDir() || !strings.HasPrefix(name, filePrefix) {
		return Entry{}, false
	}
	ext := filepath.Ext(name)
	if ext != ".json" && ext != ".zip" {
		return Entry{}, false
	}

	stem := strings.TrimSuffix(name, ext)
	stamp := strings.TrimPrefix(stem, filePrefix)
	if len(stamp) < len(nameLayout) {
		return Entry{}, false
	}
	t, err := time.ParseInLocation(nameLayout, stamp[:len(nameLayout)], time.Local)
	if err != nil {
		return Entry{}, false
	}

	info, err := f.Info()
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Name:       stem,
		Path:       filepath.Join(a.dir, name),
		Time:       t,
		Size:       info.Size(),
		Compressed: ext == ".zip",
	}, true
}

// Load reads a report by name. The name may carry the .json or .zip
// extension or none.
func (a *Archive) Load(name string) (Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stem := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(name), ".json"), ".zip")

	if data, err := os.ReadFile(filepath.Join(a.dir, stem+".json")); err == nil {
		return decode(data)
	}

	zr, err := zip.OpenReader(filepath.Join(a.dir, stem+".zip"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, stem)
		}
		return Document{}, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != stem+".json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Document{}, fmt.Errorf("reading archive: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return Document{}, fmt.Errorf("reading archive: %w", err)
		}
		return decode(data)
	}
	return Document{}, fmt.Errorf("%w: %s has no document", ErrNotFound, stem)
}

func decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding report: %w", err)
	}
	return doc, nil
}

// Cleanup removes reports older than retentionDays and returns how many were
// removed. Zero or negative retention keeps everything.
func (a *Archive) Cleanup(retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	entries, err := a.List(0)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if !e.Time.Before(cutoff) {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			a.log.Warn("cannot remove old report", "path", e.Path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
