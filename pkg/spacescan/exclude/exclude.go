// Package exclude decides which directory subtrees are skipped during a scan.
//
// Rules are glob patterns matched against a directory's full absolute path.
// A '*' matches any run of characters including path separators, so
// "*:/Windows" matches "C:\Windows" on any drive letter. Backslashes are
// normalised to forward slashes on both the path and the pattern before
// matching.
package exclude

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
)

// BuiltinRules are the OS and vendor maintained paths that are never scanned.
var BuiltinRules = []string{
	// Windows system and vendor driver folders.
	`*:\$Recycle.Bin`,
	`*:\Windows.old`,
	`*:\Windows`,
	`*:\AMD`,
	`*:\Intel`,
	`*:\ProgramData\Microsoft`,

	// Unix pseudo filesystems.
	"/proc",
	"/sys",
	"/dev",

	// macOS firmlinked data volume and swap files.
	"/System/Volumes",
	"/private/var/vm",
}

// Matcher evaluates exclusion rules against directory paths.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	rules           []rule
	caseInsensitive bool
}

type rule struct {
	pattern string
	g       glob.Glob
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCaseInsensitive overrides the platform default for case folding.
func WithCaseInsensitive(ci bool) Option {
	return func(m *Matcher) {
		m.caseInsensitive = ci
	}
}

// DefaultCaseInsensitive reports whether paths on this platform are usually
// case-insensitive.
func DefaultCaseInsensitive() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// New builds a Matcher from the built-in rules plus extra patterns.
// Extra patterns come from configuration and are fixed for the Matcher's
// lifetime. An invalid pattern is an error.
func New(extra []string, opts ...Option) (*Matcher, error) {
	m := &Matcher{caseInsensitive: DefaultCaseInsensitive()}
	for _, opt := range opts {
		opt(m)
	}

	patterns := make([]string, 0, len(BuiltinRules)+len(extra))
	patterns = append(patterns, BuiltinRules...)
	patterns = append(patterns, extra...)

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		g, err := glob.Compile(m.normalize(p))
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}
		m.rules = append(m.rules, rule{pattern: p, g: g})
	}

	return m, nil
}

// Default returns a Matcher holding only the built-in rules.
func Default(opts ...Option) *Matcher {
	m, err := New(nil, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// ShouldPrune reports whether the directory at path, and everything below it,
// must be skipped.
func (m *Matcher) ShouldPrune(path string) bool {
	_, ok := m.Match(path)
	return ok
}

// Match returns the first rule matching path.
func (m *Matcher) Match(path string) (string, bool) {
	if m == nil || path == "" {
		return "", false
	}
	p := m.normalize(path)
	for _, r := range m.rules {
		if r.g.Match(p) {
			return r.pattern, true
		}
	}
	return "", false
}

// Patterns returns the rule patterns in evaluation order.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.pattern
	}
	return out
}

// CaseInsensitive reports whether matching folds case.
func (m *Matcher) CaseInsensitive() bool {
	return m.caseInsensitive
}

func (m *Matcher) normalize(s string) string {
	s = strings.ReplaceAll(s, `\`, "/")
	if m.caseInsensitive {
		s = strings.ToLower(s)
	}
	return s
}
