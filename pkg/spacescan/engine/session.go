package engine

import (
	"fmt"
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/aggregate"
	"github.com/jamesainslie/spacescan/pkg/spacescan/cancel"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/progress"
	"github.com/jamesainslie/spacescan/pkg/spacescan/scanner"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// session is the state of one scan. Everything except token is owned by the
// worker goroutine.
type session struct {
	id       string
	opts     Options
	log      *logging.Logger
	reporter Reporter
	volumes  []types.Volume
	total    uint64
	token    *cancel.Token
	unbind   func() bool
	done     chan struct{}

	start       time.Time
	scanned     uint64
	dirs        int64
	files       int64
	errors      int64
	volumesDone int
	percent     int
	lastEmit    time.Time
	estimator   *progress.Estimator
}

// walk scans every volume in order and returns the finalized result.
func (s *session) walk() types.Result {
	s.start = s.opts.Now()
	s.estimator = &progress.Estimator{Now: s.opts.Now}

	agg := aggregate.New(aggregate.WithThreshold(s.opts.Threshold), aggregate.WithCapacity(s.opts.TopK))
	tr := scanner.New(scanner.Options{
		Matcher:       s.opts.Matcher,
		Sink:          agg,
		Lister:        s.opts.Lister,
		Threshold:     s.opts.Threshold,
		OneFilesystem: s.opts.OneFilesystem,
	})

	outcome := types.OutcomeCompleted
	current := s.volumes[0].Mountpoint
	for _, vol := range s.volumes {
		if s.token.Cancelled() {
			outcome = types.OutcomeCancelled
			break
		}

		current = vol.Mountpoint
		s.reporter.OnTitleChange("Scanning " + vol.Mountpoint)
		s.log.Debug("walking volume", "session", s.id, "volume", vol.Mountpoint)

		res := tr.Walk(vol, func(v scanner.Visit) { s.onDirectory(vol.Mountpoint, v) }, s.token)
		if res == types.OutcomeCancelled {
			outcome = types.OutcomeCancelled
			break
		}

		s.volumesDone++
		snap := s.emit(vol.Mountpoint)
		s.reporter.OnLogLine(snap.Status)
	}

	// A stop that arrives after the last directory still ends the session
	// as cancelled.
	if s.token.Cancelled() {
		outcome = types.OutcomeCancelled
	}

	finished := s.opts.Now()
	s.emitFinal(current, outcome, finished)

	dirs, hist := agg.Finalize()
	mountpoints := make([]string, len(s.volumes))
	for i, v := range s.volumes {
		mountpoints[i] = v.Mountpoint
	}

	return types.Result{
		ID:               s.id,
		LargeDirectories: dirs,
		FileTypes:        hist,
		Volumes:          mountpoints,
		Outcome:          outcome,
		StartedAt:        s.start,
		FinishedAt:       finished,
		ScannedBytes:     s.scanned,
		TotalBytes:       s.total,
		DirsScanned:      s.dirs,
		FilesScanned:     s.files,
		ErrorCount:       s.errors,
		Elapsed:          finished.Sub(s.start),
	}
}

func (s *session) onDirectory(mountpoint string, v scanner.Visit) {
	s.dirs++
	s.files += int64(v.Files)
	s.scanned += v.Bytes

	s.reporter.OnLogLine("Scanning: " + v.Path)
	if v.Err != nil {
		s.errors++
		s.reporter.OnLogLine(fmt.Sprintf("Error reading %s: %v", v.Path, v.Err))
	}

	if s.opts.ProgressInterval == 0 || s.opts.Now().Sub(s.lastEmit) >= s.opts.ProgressInterval {
		s.emit(mountpoint)
	}
}

// snapshot builds a progress value. The percentage never goes backwards and
// is at least the share of volumes already finished.
func (s *session) snapshot(mountpoint string, now time.Time) types.ProgressSnapshot {
	elapsed := now.Sub(s.start)
	snap := s.estimator.Estimate(s.scanned, s.total, elapsed, mountpoint)

	percent := snap.Percent
	if byVolume := s.volumesDone * 100 / len(s.volumes); byVolume > percent {
		percent = byVolume
	}
	if s.percent > percent {
		percent = s.percent
	}
	if percent != snap.Percent {
		snap.Percent = percent
		snap.Status = progress.Status(mountpoint, percent, snap.ETA)
	}

	snap.DirsScanned = s.dirs
	snap.FilesScanned = s.files
	return snap
}

func (s *session) emit(mountpoint string) types.ProgressSnapshot {
	now := s.opts.Now()
	snap := s.snapshot(mountpoint, now)
	s.percent = snap.Percent
	s.lastEmit = now

	s.reporter.OnProgress(snap)
	return snap
}

// emitFinal sends the last snapshot of the session. A completed session
// reports 100 percent.
func (s *session) emitFinal(mountpoint string, outcome types.Outcome, now time.Time) {
	snap := s.snapshot(mountpoint, now)
	if snap.ETA != nil {
		eta := now
		snap.ETA = &eta
	}

	switch outcome {
	case types.OutcomeCompleted:
		snap.Percent = 100
		snap.Status = fmt.Sprintf("Scan complete: %d directories, %d files, %s",
			s.dirs, s.files, types.FormatSize(s.scanned))
	default:
		snap.Status = fmt.Sprintf("Scan cancelled after %d directories", s.dirs)
	}

	s.percent = snap.Percent
	s.reporter.OnProgress(snap)
	s.reporter.OnLogLine(snap.Status)
}
