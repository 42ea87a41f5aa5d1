package reporter

import (
	"sync"

	"github.com/jamesainslie/spacescan/pkg/spacescan/engine"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// EventType identifies which Reporter call produced an Event.
type EventType int

// Event types, one per Reporter method.
const (
	EventProgress EventType = iota
	EventLogLine
	EventTitle
	EventComplete
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventLogLine:
		return "log"
	case EventTitle:
		return "title"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one Reporter call. Only the field matching Type is set.
type Event struct {
	Type     EventType
	Progress types.ProgressSnapshot
	Text     string
	Result   types.Result
}

// Deliver replays the event on r.
func (e Event) Deliver(r engine.Reporter) {
	switch e.Type {
	case EventProgress:
		r.OnProgress(e.Progress)
	case EventLogLine:
		r.OnLogLine(e.Text)
	case EventTitle:
		r.OnTitleChange(e.Text)
	case EventComplete:
		r.OnComplete(e.Result)
	}
}

// Channel turns Reporter calls into Events on a channel. Calls never block:
// events queue without bound until the consumer reads them, so no log line
// is dropped. The channel is closed after the OnComplete event.
type Channel struct {
	mu     sync.Mutex
	ready  *sync.Cond
	queue  []Event
	closed bool
	out    chan Event
}

var _ engine.Reporter = (*Channel)(nil)

// NewChannel starts the delivery goroutine and returns the reporter.
func NewChannel() *Channel {
	c := &Channel{out: make(chan Event)}
	c.ready = sync.NewCond(&c.mu)
	go c.pump()
	return c
}

// Events returns the delivery channel.
func (c *Channel) Events() <-chan Event {
	return c.out
}

// Pending returns the number of queued events not yet received.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// OnProgress implements engine.Reporter.
func (c *Channel) OnProgress(p types.ProgressSnapshot) {
	c.push(Event{Type: EventProgress, Progress: p}, false)
}

// OnLogLine implements engine.Reporter.
func (c *Channel) OnLogLine(line string) {
	c.push(Event{Type: EventLogLine, Text: line}, false)
}

// OnTitleChange implements engine.Reporter.
func (c *Channel) OnTitleChange(title string) {
	c.push(Event{Type: EventTitle, Text: title}, false)
}

// OnComplete implements engine.Reporter.
func (c *Channel) OnComplete(res types.Result) {
	c.push(Event{Type: EventComplete, Result: res}, true)
}

// Close ends delivery after the queued events without a result, for
// sessions that failed to start.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.ready.Signal()
}

func (c *Channel) push(e Event, last bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, e)
	if last {
		c.closed = true
	}
	c.mu.Unlock()
	c.ready.Signal()
}

func (c *Channel) pump() {
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.ready.Wait()
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			close(c.out)
			return
		}
		e := c.queue[0]
		c.queue[0] = Event{}
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.out <- e
	}
}
