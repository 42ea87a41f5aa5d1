// Package types provides the core data types shared by the spacescan engine
// and its collaborators: volumes, directory records, progress snapshots and
// final scan results, along with helpers for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB uint64 = 1024
	MiB uint64 = 1024 * KiB
	GiB uint64 = 1024 * MiB
	TiB uint64 = 1024 * GiB
)

// LargeDirThreshold is the immediate-file size at which a directory is
// considered large and becomes a top-K candidate.
const LargeDirThreshold = 100 * MiB

// TopK is the number of large directories retained for reporting.
const TopK = 100

// Volume is a mounted storage unit as seen at scan start.
type Volume struct {
	// Mountpoint is the root path of the volume (e.g. "/", "C:\").
	Mountpoint string `json:"mountpoint" yaml:"mountpoint"`

	// Device is the backing device or source, when known.
	Device string `json:"device,omitempty" yaml:"device,omitempty"`

	// FSType is the filesystem type reported by the OS. Empty when unknown.
	FSType string `json:"fs_type,omitempty" yaml:"fs_type,omitempty"`

	// TotalBytes is the capacity of the volume. Zero when it could not be queried.
	TotalBytes uint64 `json:"total_bytes" yaml:"total_bytes"`

	// FreeBytes is the space available to unprivileged users.
	FreeBytes uint64 `json:"free_bytes" yaml:"free_bytes"`

	// Usable is false when the capacity query failed. Such volumes can still
	// be selected but do not contribute to the progress denominator.
	Usable bool `json:"usable" yaml:"usable"`
}

// UsedBytes returns bytes used on this volume.
func (v Volume) UsedBytes() uint64 {
	if v.FreeBytes > v.TotalBytes {
		return 0
	}
	return v.TotalBytes - v.FreeBytes
}

// DirectoryRecord is the immediate-file size of one directory.
// Subdirectory contents are never included.
type DirectoryRecord struct {
	Size uint64 `json:"size" yaml:"size"`
	Path string `json:"path" yaml:"path"`
}

// ProgressSnapshot is an immutable view of scan progress handed to a Reporter.
type ProgressSnapshot struct {
	// Percent is the completed share of the target bytes, 0-100.
	Percent int

	// ETA is the estimated wall-clock completion time. Nil when it cannot be
	// computed (nothing scanned yet, or unknown total).
	ETA *time.Time

	// CurrentVolume is the mountpoint being walked.
	CurrentVolume string

	// Status is a human-readable status line.
	Status string

	// ScannedBytes is the cumulative immediate-file size seen so far.
	ScannedBytes uint64

	// TotalBytes is the sum of capacities of the selected usable volumes.
	TotalBytes uint64

	// DirsScanned is the number of directories visited so far.
	DirsScanned int64

	// FilesScanned is the number of files counted so far.
	FilesScanned int64

	// Elapsed is the time since the session started.
	Elapsed time.Duration
}

// HasETA reports whether the snapshot carries an ETA.
func (p ProgressSnapshot) HasETA() bool {
	return p.ETA != nil
}

// Outcome is the terminal state of a scan session.
type Outcome int

const (
	// OutcomeCompleted means every selected volume was fully walked.
	OutcomeCompleted Outcome = iota
	// OutcomeCancelled means a stop request ended the walk early.
	OutcomeCancelled
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ScanError represents an error encountered during scanning.
// It pairs a path with the error message for debugging and reporting.
type ScanError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// Result is the final output of a scan session, delivered exactly once.
type Result struct {
	// ID identifies the session.
	ID string `json:"id" yaml:"id"`

	// LargeDirectories holds at most TopK records sorted descending by size.
	LargeDirectories []DirectoryRecord `json:"large_directories" yaml:"large_directories"`

	// FileTypes maps lowercase extensions (with the dot) to occurrence counts.
	FileTypes map[string]int64 `json:"file_types" yaml:"file_types"`

	// Volumes are the mountpoints that were walked or attempted.
	Volumes []string `json:"volumes" yaml:"volumes"`

	Outcome      Outcome       `json:"outcome" yaml:"outcome"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time     `json:"finished_at" yaml:"finished_at"`
	ScannedBytes uint64        `json:"scanned_bytes" yaml:"scanned_bytes"`
	TotalBytes   uint64        `json:"total_bytes" yaml:"total_bytes"`
	DirsScanned  int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	FilesScanned int64         `json:"files_scanned" yaml:"files_scanned"`
	ErrorCount   int64         `json:"error_count" yaml:"error_count"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Cancelled reports whether the session ended because of a stop request.
func (r Result) Cancelled() bool {
	return r.Outcome == OutcomeCancelled
}

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string such as "100MiB", "2 GB" or
// "512". IEC suffixes (KiB, MiB...) are powers of 1024, SI suffixes (KB, MB...)
// are powers of 1000, following go-humanize.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return n, nil
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count the way scan reports expect it: the value
// is divided by 1024 until it drops below 1024 (or TB is reached) and printed
// with two decimals, e.g. "150.00 MB".
func FormatSize(bytes uint64) string {
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}

// HumanBytes formats a byte count with IEC units for logs and terminal output.
func HumanBytes(bytes uint64) string {
	return humanize.IBytes(bytes)
}
