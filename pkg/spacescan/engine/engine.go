// Package engine runs scan sessions: it resolves the selected volumes, walks
// them on a single background goroutine and reports progress, trace lines
// and the final result through a Reporter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/spacescan/pkg/spacescan/cancel"
	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/scanner"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
	"github.com/jamesainslie/spacescan/pkg/spacescan/volume"
)

// Reporter receives session events. All calls for one session come from the
// same goroutine, in order: OnComplete is the last call and happens exactly
// once. Values passed in are copies the receiver may keep.
type Reporter interface {
	OnProgress(types.ProgressSnapshot)
	OnLogLine(line string)
	OnTitleChange(title string)
	OnComplete(types.Result)
}

// Catalog is the volume source used by the Orchestrator.
// *volume.Catalog satisfies it.
type Catalog interface {
	List() ([]types.Volume, error)
	CapacityOf(mountpoints []string) uint64
}

// Errors returned by Start.
var (
	ErrAlreadyScanning = errors.New("a scan is already running")
	ErrEmptySelection  = errors.New("no volumes selected")
	ErrNoVolumes       = errors.New("no scannable volumes")
)

// State is the Orchestrator's lifecycle state.
type State int

// Lifecycle states. Completed and Cancelled are held only while the final
// result is being delivered.
const (
	StateIdle State = iota
	StateScanning
	StateCompleted
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Options configures an Orchestrator.
type Options struct {
	// Catalog lists volumes. Nil uses the operating system catalog.
	Catalog Catalog

	// Matcher holds the exclusion rules. Nil uses the built-in rules.
	Matcher *exclude.Matcher

	// Lister reads directories. Nil reads the local filesystem.
	Lister scanner.Lister

	// Threshold is the large-directory gate. Zero means 100 MiB.
	Threshold uint64

	// TopK bounds the large-directory list. Zero means 100.
	TopK int

	// OneFilesystem keeps each walk on its volume's device.
	OneFilesystem bool

	// ProgressInterval throttles progress events. Zero emits one per directory.
	ProgressInterval time.Duration

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{
		Threshold:        types.LargeDirThreshold,
		TopK:             types.TopK,
		OneFilesystem:    true,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Validate fills zero values with defaults.
func (o *Options) Validate() error {
	if o.Catalog == nil {
		o.Catalog = volume.New()
	}
	if o.Matcher == nil {
		o.Matcher = exclude.Default()
	}
	if o.Threshold == 0 {
		o.Threshold = types.LargeDirThreshold
	}
	if o.TopK <= 0 {
		o.TopK = types.TopK
	}
	if o.ProgressInterval < 0 {
		o.ProgressInterval = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}

// Orchestrator runs at most one scan session at a time.
type Orchestrator struct {
	opts Options
	log  *logging.Logger

	mu      sync.Mutex
	state   State
	current *session
}

// New creates an idle Orchestrator.
func New(opts Options) *Orchestrator {
	_ = opts.Validate()
	return &Orchestrator{
		opts: opts,
		log:  logging.Get("engine"),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start begins scanning the volumes whose mountpoints are listed in
// selection and returns the session id. It returns without waiting for the
// walk. Unknown mountpoints are ignored.
//
// Start fails without emitting events when a session is active or the
// selection is empty. When no selected volume can be resolved it emits one
// log line through r and returns ErrNoVolumes. The Orchestrator stays idle
// on every error.
func (o *Orchestrator) Start(selection []string, r Reporter) (string, error) {
	s, err := o.start(context.Background(), selection, r)
	if err != nil {
		return "", err
	}
	return s.id, nil
}

// Run is Start followed by waiting for the result. The session is stopped
// when ctx is done.
func (o *Orchestrator) Run(ctx context.Context, selection []string, r Reporter) (string, error) {
	s, err := o.start(ctx, selection, r)
	if err != nil {
		return "", err
	}
	<-s.done
	return s.id, nil
}

func (o *Orchestrator) start(ctx context.Context, selection []string, r Reporter) (*session, error) {
	if err := o.precheck(selection); err != nil {
		return nil, err
	}

	// Unlocked: List may be slow and r may call back into o.
	vols, err := o.resolve(selection)
	if err != nil {
		r.OnLogLine("Unable to start scan: " + err.Error())
		return nil, err
	}

	mountpoints := make([]string, len(vols))
	for i, v := range vols {
		mountpoints[i] = v.Mountpoint
	}

	s := &session{
		id:       uuid.NewString(),
		opts:     o.opts,
		log:      o.log,
		reporter: r,
		volumes:  vols,
		total:    o.opts.Catalog.CapacityOf(mountpoints),
		token:    cancel.New(),
		done:     make(chan struct{}),
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return nil, ErrAlreadyScanning
	}
	// An already finished context must cancel before the first directory.
	if ctx.Err() != nil {
		s.token.Cancel()
	} else if ctx.Done() != nil {
		s.unbind = s.token.Bind(ctx)
	}
	o.current = s
	o.state = StateScanning
	o.mu.Unlock()

	o.log.Info("scan started", "session", s.id, "volumes", mountpoints, "total", types.HumanBytes(s.total))

	go o.run(s)
	return s, nil
}

func (o *Orchestrator) precheck(selection []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return ErrAlreadyScanning
	}
	if len(selection) == 0 {
		return ErrEmptySelection
	}
	return nil
}

// resolve lists the volumes and keeps the selected ones. Errors wrap
// ErrNoVolumes.
func (o *Orchestrator) resolve(selection []string) ([]types.Volume, error) {
	all, err := o.opts.Catalog.List()
	if err != nil {
		o.log.Error("volume enumeration failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNoVolumes, err)
	}
	vols := volume.Select(all, selection)
	if len(vols) == 0 {
		o.log.Warn("no selected volume recognised", "selection", selection)
		return nil, fmt.Errorf("%w: none of the selected volumes is available", ErrNoVolumes)
	}
	return vols, nil
}

// Stop asks the active session to end at its next directory boundary. It
// reports whether a session was running.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateScanning || o.current == nil {
		return false
	}
	if o.current.token.Cancel() {
		o.log.Info("stop requested", "session", o.current.id)
	}
	return true
}

// Wait blocks until the active session has delivered its result. It
// returns immediately when idle.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	s := o.current
	o.mu.Unlock()
	if s != nil {
		<-s.done
	}
}

func (o *Orchestrator) run(s *session) {
	result := s.walk()
	if s.unbind != nil {
		s.unbind()
	}

	o.mu.Lock()
	if result.Cancelled() {
		o.state = StateCancelled
	} else {
		o.state = StateCompleted
	}
	o.mu.Unlock()

	o.log.Info("scan finished",
		"session", s.id,
		"outcome", result.Outcome,
		"dirs", result.DirsScanned,
		"files", result.FilesScanned,
		"scanned", types.HumanBytes(result.ScannedBytes),
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	s.reporter.OnComplete(result)

	o.mu.Lock()
	o.state = StateIdle
	o.current = nil
	o.mu.Unlock()
	close(s.done)
}
