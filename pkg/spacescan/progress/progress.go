// Package progress turns scanned byte counts into percentages and a linear
// estimate of when the scan will finish.
package progress

import (
	"fmt"
	"math"
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// ETAFormat is the clock format used for the ETA in status lines.
const ETAFormat = "15:04:05"

// Estimator builds progress snapshots. The zero value uses the wall clock.
type Estimator struct {
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// New returns an Estimator using the wall clock.
func New() *Estimator {
	return &Estimator{}
}

// Percent returns floor(scanned/total*100) clamped to [0,100].
// An unknown total (zero) yields 0.
func Percent(scanned, total uint64) int {
	if total == 0 {
		return 0
	}
	p := math.Floor(float64(scanned) / float64(total) * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}

// Remaining extrapolates the time left from the fraction done so far.
// ok is false when scanned or total is zero.
func Remaining(scanned, total uint64, elapsed time.Duration) (remaining time.Duration, ok bool) {
	if scanned == 0 || total == 0 {
		return 0, false
	}
	fraction := float64(scanned) / float64(total)
	estimatedTotal := float64(elapsed) / fraction
	left := estimatedTotal - float64(elapsed)
	if left < 0 {
		left = 0
	}
	if left > math.MaxInt64 {
		left = math.MaxInt64
	}
	return time.Duration(left), true
}

// Estimate builds a snapshot for the given counters. The status line names
// the volume and, when an ETA exists, the percentage and clock time.
func (e *Estimator) Estimate(scanned, total uint64, elapsed time.Duration, volume string) types.ProgressSnapshot {
	snap := types.ProgressSnapshot{
		Percent:       Percent(scanned, total),
		CurrentVolume: volume,
		ScannedBytes:  scanned,
		TotalBytes:    total,
		Elapsed:       elapsed,
	}

	remaining, ok := Remaining(scanned, total, elapsed)
	if !ok {
		snap.Status = Status(volume, snap.Percent, nil)
		return snap
	}

	eta := e.now().Add(remaining)
	snap.ETA = &eta
	snap.Status = Status(volume, snap.Percent, snap.ETA)
	return snap
}

// Status renders the status line for a volume. Without an ETA only the
// scanning indicator is shown.
func Status(volume string, percent int, eta *time.Time) string {
	if eta == nil {
		return fmt.Sprintf("Scanning %s...", volume)
	}
	return fmt.Sprintf("Scanning %s... %d%% complete. ETA: %s", volume, percent, eta.Format(ETAFormat))
}

func (e *Estimator) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
