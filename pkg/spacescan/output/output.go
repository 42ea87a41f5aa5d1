// Package output renders scan results for the terminal and for scripts.
//
// Formatters are registered by name and selected at runtime:
//
//	f, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, &output.Result{Scan: res}); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// DefaultTypeLimit is how many extensions the table formatters show.
const DefaultTypeLimit = 15

// Result is what formatters render.
type Result struct {
	// Scan is the engine result.
	Scan types.Result

	// Timestamp stamps the json document. Zero means Scan.FinishedAt.
	Timestamp time.Time

	// ReportPath is where the report was saved, if it was.
	ReportPath string

	// TypeLimit caps the extension rows in table output. Zero means
	// DefaultTypeLimit, negative means all.
	TypeLimit int

	// Warnings are shown after the tables.
	Warnings []string
}

// stamp returns the document timestamp.
func (r *Result) stamp() time.Time {
	if !r.Timestamp.IsZero() {
		return r.Timestamp
	}
	return r.Scan.FinishedAt
}

func (r *Result) typeLimit() int {
	if r.TypeLimit == 0 {
		return DefaultTypeLimit
	}
	return r.TypeLimit
}

// TypeCount is one row of the extension histogram.
type TypeCount struct {
	Ext   string `json:"ext" yaml:"ext"`
	Count int64  `json:"count" yaml:"count"`
}

// SortedTypes orders the histogram by count descending, then extension.
// A limit of zero or less returns every row.
func SortedTypes(hist map[string]int64, limit int) []TypeCount {
	rows := make([]TypeCount, 0, len(hist))
	for ext, n := range hist {
		rows = append(rows, TypeCount{Ext: ext, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Ext < rows[j].Ext
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// ExtLabel renders an extension for display; files without one show as
// "(none)".
func ExtLabel(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logging.Get("output").Debug("unknown formatter requested", "name", name)
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered formatter names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
