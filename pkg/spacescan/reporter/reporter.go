// Package reporter provides engine.Reporter implementations: fan-out,
// callback, logging and channel delivery.
package reporter

import (
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/engine"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// Multi forwards every call to each reporter in order.
type Multi []engine.Reporter

var _ engine.Reporter = Multi(nil)

// OnProgress implements engine.Reporter.
func (m Multi) OnProgress(p types.ProgressSnapshot) {
	for _, r := range m {
		r.OnProgress(p)
	}
}

// OnLogLine implements engine.Reporter.
func (m Multi) OnLogLine(line string) {
	for _, r := range m {
		r.OnLogLine(line)
	}
}

// OnTitleChange implements engine.Reporter.
func (m Multi) OnTitleChange(title string) {
	for _, r := range m {
		r.OnTitleChange(title)
	}
}

// OnComplete implements engine.Reporter.
func (m Multi) OnComplete(res types.Result) {
	for _, r := range m {
		r.OnComplete(res)
	}
}

// Funcs adapts plain functions to engine.Reporter. Nil fields are skipped.
type Funcs struct {
	Progress func(types.ProgressSnapshot)
	LogLine  func(string)
	Title    func(string)
	Complete func(types.Result)
}

var _ engine.Reporter = Funcs{}

// OnProgress implements engine.Reporter.
func (f Funcs) OnProgress(p types.ProgressSnapshot) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

// OnLogLine implements engine.Reporter.
func (f Funcs) OnLogLine(line string) {
	if f.LogLine != nil {
		f.LogLine(line)
	}
}

// OnTitleChange implements engine.Reporter.
func (f Funcs) OnTitleChange(title string) {
	if f.Title != nil {
		f.Title(title)
	}
}

// OnComplete implements engine.Reporter.
func (f Funcs) OnComplete(res types.Result) {
	if f.Complete != nil {
		f.Complete(res)
	}
}

// Log writes session events to the "scan" component logger. Trace lines and
// progress go to debug so they only appear in verbose log files.
type Log struct {
	log *logging.Logger
}

var _ engine.Reporter = (*Log)(nil)

// NewLog returns a Log reporter.
func NewLog() *Log {
	return &Log{log: logging.Get("scan")}
}

// OnProgress implements engine.Reporter.
func (l *Log) OnProgress(p types.ProgressSnapshot) {
	args := []interface{}{"percent", p.Percent, "volume", p.CurrentVolume, "scanned", types.HumanBytes(p.ScannedBytes)}
	if p.HasETA() {
		args = append(args, "eta", p.ETA.Format(time.TimeOnly))
	}
	l.log.Debug("progress", args...)
}

// OnLogLine implements engine.Reporter.
func (l *Log) OnLogLine(line string) {
	l.log.Debug(line)
}

// OnTitleChange implements engine.Reporter.
func (l *Log) OnTitleChange(title string) {
	l.log.Info(title)
}

// OnComplete implements engine.Reporter.
func (l *Log) OnComplete(res types.Result) {
	l.log.Info("scan "+res.Outcome.String(),
		"session", res.ID,
		"large_dirs", len(res.LargeDirectories),
		"file_types", len(res.FileTypes),
		"errors", res.ErrorCount,
	)
}
