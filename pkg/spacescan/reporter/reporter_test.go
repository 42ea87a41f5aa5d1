package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/spacescan/pkg/spacescan/engine"
	"github.com/jamesainslie/spacescan/pkg/spacescan/exclude"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

func TestMulti_ForwardsInOrder(t *testing.T) {
	var calls []string
	tag := func(name string) Funcs {
		return Funcs{
			Progress: func(types.ProgressSnapshot) { calls = append(calls, name+":progress") },
			LogLine:  func(string) { calls = append(calls, name+":log") },
			Title:    func(string) { calls = append(calls, name+":title") },
			Complete: func(types.Result) { calls = append(calls, name+":complete") },
		}
	}

	m := Multi{tag("a"), tag("b")}
	m.OnTitleChange("t")
	m.OnLogLine("l")
	m.OnProgress(types.ProgressSnapshot{})
	m.OnComplete(types.Result{})

	assert.Equal(t, []string{
		"a:title", "b:title",
		"a:log", "b:log",
		"a:progress", "b:progress",
		"a:complete", "b:complete",
	}, calls)
}

func TestFuncs_NilFieldsAreSkipped(t *testing.T) {
	var f Funcs
	assert.NotPanics(t, func() {
		f.OnProgress(types.ProgressSnapshot{})
		f.OnLogLine("x")
		f.OnTitleChange("x")
		f.OnComplete(types.Result{})
	})
}

func TestLog_DoesNotPanic(t *testing.T) {
	l := NewLog()
	assert.NotPanics(t, func() {
		l.OnTitleChange("Scanning /")
		l.OnLogLine("Scanning: /etc")
		l.OnProgress(types.ProgressSnapshot{Percent: 10})
		l.OnComplete(types.Result{ID: "x"})
	})
}

func TestLog_ProgressIncludesETAWhenKnown(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "spacescan.log")
	require.NoError(t, logging.Init(logging.Config{Level: "debug", Path: logPath}))
	t.Cleanup(func() { _ = logging.Close() })

	eta := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	l := NewLog()
	l.OnProgress(types.ProgressSnapshot{Percent: 10, CurrentVolume: "/a"})
	l.OnProgress(types.ProgressSnapshot{Percent: 20, CurrentVolume: "/b", ETA: &eta})
	require.NoError(t, logging.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "eta=")
	assert.Contains(t, lines[1], "eta=15:04:05")
}

func drain(t *testing.T, c *Channel) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatal("channel was not closed")
			return nil
		}
	}
}

func TestChannel_NeverBlocksProducer(t *testing.T) {
	c := NewChannel()

	const lines = 10000
	done := make(chan struct{})
	go func() {
		for i := 0; i < lines; i++ {
			c.OnLogLine(fmt.Sprintf("line %d", i))
		}
		c.OnComplete(types.Result{ID: "s1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer blocked without a consumer")
	}

	events := drain(t, c)
	require.Len(t, events, lines+1)
	for i := 0; i < lines; i++ {
		require.Equal(t, fmt.Sprintf("line %d", i), events[i].Text)
	}
	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, "s1", last.Result.ID)
}

func TestChannel_IgnoresCallsAfterComplete(t *testing.T) {
	c := NewChannel()
	c.OnComplete(types.Result{})
	c.OnProgress(types.ProgressSnapshot{Percent: 50})

	events := drain(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, EventComplete, events[0].Type)
}

func TestChannel_Close(t *testing.T) {
	c := NewChannel()
	c.OnLogLine("Unable to start scan")
	c.Close()

	events := drain(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, EventLogLine, events[0].Type)
	assert.Equal(t, 0, c.Pending())
}

type staticCatalog struct{ root string }

func (s staticCatalog) List() ([]types.Volume, error) {
	return []types.Volume{{Mountpoint: s.root, Usable: true}}, nil
}

func (s staticCatalog) CapacityOf([]string) uint64 { return types.GiB }

func TestChannel_WithEngine(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a", "b", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, d, "f.txt"), []byte("data"), 0o644))
	}

	o := engine.New(engine.Options{Catalog: staticCatalog{root}, Matcher: exclude.Default()})
	c := NewChannel()
	_, err := o.Start([]string{root}, c)
	require.NoError(t, err)

	events := drain(t, c)
	require.NotEmpty(t, events)

	var logs, progress, titles, completes int
	for _, e := range events {
		switch e.Type {
		case EventLogLine:
			logs++
		case EventProgress:
			progress++
		case EventTitle:
			titles++
		case EventComplete:
			completes++
			assert.Equal(t, int64(3), e.Result.FileTypes[".txt"])
		}
	}
	assert.Equal(t, 1, completes)
	assert.Equal(t, 1, titles)
	assert.GreaterOrEqual(t, logs, 4, "one trace line per directory")
	assert.NotZero(t, progress)
	assert.Equal(t, EventComplete, events[len(events)-1].Type)
}

func TestEvent_Deliver(t *testing.T) {
	var got []string
	r := Funcs{
		Progress: func(p types.ProgressSnapshot) { got = append(got, fmt.Sprintf("progress %d", p.Percent)) },
		LogLine:  func(s string) { got = append(got, "log "+s) },
		Title:    func(s string) { got = append(got, "title "+s) },
		Complete: func(res types.Result) { got = append(got, "complete "+res.ID) },
	}

	c := NewChannel()
	c.OnTitleChange("Scanning /")
	c.OnProgress(types.ProgressSnapshot{Percent: 40})
	c.OnLogLine("Scanning: /usr")
	c.OnComplete(types.Result{ID: "s1"})

	for e := range c.Events() {
		e.Deliver(r)
	}
	assert.Equal(t, []string{"title Scanning /", "progress 40", "log Scanning: /usr", "complete s1"}, got)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "progress", EventProgress.String())
	assert.Equal(t, "log", EventLogLine.String())
	assert.Equal(t, "title", EventTitle.String())
	assert.Equal(t, "complete", EventComplete.String())
	assert.Equal(t, "unknown", EventType(9).String())
}
