package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"

	"github.com/jamesainslie/spacescan/pkg/spacescan/engine"
	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/output"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

const (
	errorLinePrefix = "Error reading "
	consoleLines    = 500
	barWidth        = 30
)

// console renders engine events on a terminal: a redrawn progress bar on a
// tty, plain status lines otherwise. Trace lines are kept in a ring buffer
// and printed only in verbose mode.
type console struct {
	mu sync.Mutex

	w       io.Writer
	tty     bool
	quiet   bool
	verbose bool
	logPath string
	now     func() time.Time

	bar       progress.Model
	lines     *logging.LogBuffer
	errors    int64
	last      types.ProgressSnapshot
	hasLast   bool
	drawn     bool
	printedAt int
}

var _ engine.Reporter = (*console)(nil)

func newConsole(w io.Writer, tty, quiet, verbose bool) *console {
	return &console{
		w:         w,
		tty:       tty,
		quiet:     quiet,
		verbose:   verbose,
		now:       time.Now,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		lines:     logging.NewLogBuffer(consoleLines),
		printedAt: -1,
	}
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// OnProgress implements engine.Reporter.
func (c *console) OnProgress(p types.ProgressSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = p
	c.hasLast = true
	if c.quiet {
		return
	}
	if c.tty {
		c.draw()
		return
	}
	if p.Percent != c.printedAt {
		c.printedAt = p.Percent
		fmt.Fprintln(c.w, p.Status)
	}
}

// OnLogLine implements engine.Reporter.
func (c *console) OnLogLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	level := logging.LevelInfo
	if strings.HasPrefix(line, errorLinePrefix) || strings.HasPrefix(line, "Unable to start") {
		level = logging.LevelWarn
		if strings.HasPrefix(line, errorLinePrefix) {
			c.errors++
		}
	}
	c.lines.Add(logging.Entry{Time: c.now(), Level: level, Component: "scan", Message: line})

	if c.verbose && !c.quiet {
		c.println(output.MutedStyle.Render(line))
	}
}

// OnTitleChange implements engine.Reporter.
func (c *console) OnTitleChange(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet {
		return
	}
	c.println(output.TitleStyle.Render(title))
}

// OnComplete implements engine.Reporter.
func (c *console) OnComplete(res types.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet {
		return
	}
	c.clear()
	if c.hasLast {
		style := output.SuccessStyle
		if res.Cancelled() {
			style = output.WarningStyle
		}
		fmt.Fprintln(c.w, style.Render(c.last.Status))
	}
}

// Notice prints a message between progress redraws.
func (c *console) Notice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet {
		return
	}
	c.println(output.WarningStyle.Render(msg))
}

// Warnings returns the most recent unreadable-directory lines, at most
// limit of them, followed by a count of the rest.
func (c *console) Warnings(limit int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var warns []string
	for _, e := range c.lines.Entries() {
		if e.Level == logging.LevelWarn {
			warns = append(warns, e.Message)
		}
	}
	if limit > 0 && len(warns) > limit {
		warns = warns[len(warns)-limit:]
	}

	var shown int64
	for _, w := range warns {
		if strings.HasPrefix(w, errorLinePrefix) {
			shown++
		}
	}
	if rest := c.errors - shown; rest > 0 {
		msg := fmt.Sprintf("... and %d more unreadable directories", rest)
		if c.logPath != "" {
			msg += " (see " + c.logPath + ")"
		}
		warns = append(warns, msg)
	}
	return warns
}

// Dropped returns how many trace lines fell out of the buffer.
func (c *console) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines.Dropped()
}

// Lines returns the buffered trace lines, oldest first.
func (c *console) Lines() []logging.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines.Entries()
}

func (c *console) draw() {
	p := c.last
	line := c.bar.ViewAs(float64(p.Percent)/100) + "  " + output.MutedStyle.Render(p.Status)
	fmt.Fprint(c.w, "\r\x1b[2K"+line)
	c.drawn = true
}

func (c *console) clear() {
	if c.tty && c.drawn {
		fmt.Fprint(c.w, "\r\x1b[2K")
		c.drawn = false
	}
}

// println prints a full line without tearing the progress bar.
func (c *console) println(s string) {
	redraw := c.tty && c.drawn
	c.clear()
	fmt.Fprintln(c.w, s)
	if redraw && c.hasLast {
		c.draw()
	}
}
