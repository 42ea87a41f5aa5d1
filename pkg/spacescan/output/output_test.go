package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/spacescan/pkg/spacescan/history"
	"github.com/jamesainslie/spacescan/pkg/spacescan/report"
	"github.com/jamesainslie/spacescan/pkg/spacescan/subtree"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

func sampleResult() *Result {
	finished := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	return &Result{
		Scan: types.Result{
			ID: "0b7e1c52-8d0f-4f6c-9a4e-3f0a1d2b7c11",
			LargeDirectories: []types.DirectoryRecord{
				{Size: 2 * types.GiB, Path: "/home/user/videos"},
				{Size: 150 * types.MiB, Path: "/var/cache/apt"},
			},
			FileTypes:    map[string]int64{".mp4": 12, ".deb": 40, "": 3},
			Volumes:      []string{"/"},
			StartedAt:    finished.Add(-time.Minute),
			FinishedAt:   finished,
			ScannedBytes: 5 * types.GiB,
			DirsScanned:  1200,
			FilesScanned: 9000,
			Elapsed:      time.Minute,
		},
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "yaml"}, Available())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Get("xml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter")
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func() Formatter { return &PlainFormatter{} })
	r.Register("x", func() Formatter { return &JSONFormatter{} })

	f, err := r.Get("x")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)
	assert.Equal(t, []string{"x"}, r.Available())
}

func TestSortedTypes(t *testing.T) {
	hist := map[string]int64{".a": 1, ".b": 5, ".c": 5, "": 2}

	got := SortedTypes(hist, 0)
	require.Len(t, got, 4)
	assert.Equal(t, TypeCount{Ext: ".b", Count: 5}, got[0])
	assert.Equal(t, TypeCount{Ext: ".c", Count: 5}, got[1])
	assert.Equal(t, TypeCount{Ext: "", Count: 2}, got[2])

	assert.Len(t, SortedTypes(hist, 2), 2)
	assert.Empty(t, SortedTypes(nil, 0))
}

func TestExtLabel(t *testing.T) {
	assert.Equal(t, "(none)", ExtLabel(""))
	assert.Equal(t, ".go", ExtLabel(".go"))
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleResult()))

	sections := strings.Split(strings.TrimSpace(buf.String()), "\n\n")
	require.Len(t, sections, 2)

	dirs := strings.Split(sections[0], "\n")
	require.Len(t, dirs, 3)
	assert.True(t, strings.HasPrefix(dirs[0], "SIZE"))
	assert.Contains(t, dirs[1], "2.00 GB")
	assert.Contains(t, dirs[1], "/home/user/videos")
	assert.Contains(t, dirs[2], "150.00 MB")

	exts := strings.Split(sections[1], "\n")
	require.Len(t, exts, 4)
	assert.True(t, strings.HasPrefix(exts[0], "EXT"))
	assert.True(t, strings.HasPrefix(exts[1], ".deb"))
	assert.True(t, strings.HasPrefix(exts[3], "(none)"))
}

func TestPlainFormatterTypeLimit(t *testing.T) {
	r := sampleResult()
	r.TypeLimit = 1

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, r))
	assert.NotContains(t, buf.String(), ".mp4")
	assert.Contains(t, buf.String(), ".deb")
}

func TestPrettyFormatter(t *testing.T) {
	r := sampleResult()
	r.ReportPath = "/tmp/large_dirs_log_20240615_103000.zip"
	r.Warnings = []string{"history disabled"}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Largest directories")
	assert.Contains(t, out, "/home/user/videos")
	assert.Contains(t, out, "2.00 GB")
	assert.Contains(t, out, "File types")
	assert.Contains(t, out, ".deb")
	assert.Contains(t, out, "large_dirs_log_20240615_103000.zip")
	assert.Contains(t, out, "history disabled")
	assert.NotContains(t, out, "cancelled")
}

func TestPrettyFormatterCancelledAndEmpty(t *testing.T) {
	r := &Result{Scan: types.Result{Outcome: types.OutcomeCancelled, Volumes: []string{"/"}}}

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "No large directories found")
	assert.Contains(t, out, "Scan cancelled")
	assert.NotContains(t, out, "File types")
}

func TestJSONFormatterWritesDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleResult()))

	var doc struct {
		Timestamp        string           `json:"timestamp"`
		LargeDirectories []map[string]any `json:"large_directories"`
		FileTypes        map[string]int64 `json:"file_types"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2024-06-15T10:30:00Z", doc.Timestamp)
	require.Len(t, doc.LargeDirectories, 2)
	assert.Equal(t, "2.00 GB", doc.LargeDirectories[0]["size"])
	assert.Equal(t, "/home/user/videos", doc.LargeDirectories[0]["path"])
	assert.Equal(t, int64(40), doc.FileTypes[".deb"])
}

func TestJSONFormatterTimestampOverride(t *testing.T) {
	r := sampleResult()
	r.Timestamp = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), `"timestamp": "2030-01-01T00:00:00Z"`)
}

func TestYAMLFormatter(t *testing.T) {
	r := sampleResult()
	r.ReportPath = "/tmp/report.json"

	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, r))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "2024-06-15T10:30:00Z", out["timestamp"])
	assert.Len(t, out["large_directories"], 2)

	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", stats["outcome"])
	assert.Equal(t, 9000, stats["files_scanned"])
	assert.Equal(t, "/tmp/report.json", stats["report_path"])
}

func TestWriteVolumes(t *testing.T) {
	vols := []types.Volume{
		{Mountpoint: "/", FSType: "ext4", Device: "/dev/sda1", TotalBytes: 100 * types.GiB, FreeBytes: 40 * types.GiB, Usable: true},
		{Mountpoint: "/mnt/broken", FSType: "xfs"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVolumes(&buf, vols, "plain"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "MOUNTPOINT"))
	assert.Contains(t, lines[1], "100 GiB")
	assert.Contains(t, lines[1], "60 GiB")
	assert.Contains(t, lines[2], "?")

	buf.Reset()
	require.NoError(t, WriteVolumes(&buf, vols, "json"))
	var decoded []types.Volume
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, vols, decoded)

	assert.Error(t, WriteVolumes(&buf, vols, "xml"))
}

func TestWriteTotals(t *testing.T) {
	totals := []subtree.Totals{{Root: "/srv", Bytes: 3 * types.MiB, Files: 4, Dirs: 2}}

	var buf bytes.Buffer
	require.NoError(t, WriteTotals(&buf, totals, "pretty"))
	assert.Contains(t, buf.String(), "3.0 MiB")
	assert.Contains(t, buf.String(), "/srv")

	buf.Reset()
	require.NoError(t, WriteTotals(&buf, totals, "yaml"))
	assert.Contains(t, buf.String(), "root: /srv")
}

func TestWriteHistory(t *testing.T) {
	started := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	e := &history.Entry{
		ID:           "0123456789abcdef",
		StartedAt:    started,
		FinishedAt:   started.Add(2 * time.Minute),
		Volumes:      []string{"/", "/home"},
		Outcome:      "completed",
		ScannedBytes: types.GiB,
		LargeDirs:    3,
		Top:          []types.DirectoryRecord{{Size: 200 * types.MiB, Path: "/opt"}},
		ArchivePath:  "/data/report.zip",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, []*history.Entry{e}, "plain"))
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "2m 0s")
	assert.Contains(t, out, "/,/home")

	buf.Reset()
	require.NoError(t, WriteHistoryEntry(&buf, e, "plain"))
	out = buf.String()
	assert.Contains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "/data/report.zip")
	assert.Contains(t, out, "200.00 MB")
}

func TestWriteReports(t *testing.T) {
	entries := []report.Entry{
		{Name: "large_dirs_log_20240615_103000.zip", Time: time.Date(2024, 6, 15, 10, 30, 0, 0, time.Local), Size: 2048, Compressed: true},
		{Name: "large_dirs_log_20240614_080000.json", Time: time.Date(2024, 6, 14, 8, 0, 0, 0, time.Local), Size: 512},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, entries, "plain"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SAVED"))
	assert.Contains(t, lines[1], "2024-06-15 10:30:00")
	assert.Contains(t, lines[1], "2.0 KiB")
	assert.Contains(t, lines[2], "large_dirs_log_20240614_080000.json")

	buf.Reset()
	require.NoError(t, WriteReports(&buf, entries, "json"))
	var decoded []report.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
	assert.True(t, decoded[0].Compressed)

	assert.Error(t, WriteReports(&buf, entries, "xml"))
}

func TestWriteDocument(t *testing.T) {
	doc := report.Document{
		Timestamp:        "2024-06-15T10:30:00Z",
		LargeDirectories: []report.Record{{Size: "2.00 GB", Path: "/home/user/videos"}},
		FileTypes:        map[string]int64{".mp4": 4, "": 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc, "plain"))
	out := buf.String()
	assert.Contains(t, out, "Report from 2024-06-15T10:30:00Z")
	assert.Contains(t, out, "2.00 GB  /home/user/videos")
	assert.Contains(t, out, "(none)")
	assert.Less(t, strings.Index(out, ".mp4"), strings.Index(out, "(none)"))

	buf.Reset()
	require.NoError(t, WriteDocument(&buf, doc, "json"))
	var decoded report.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc, decoded)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
