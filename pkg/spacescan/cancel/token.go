// Package cancel provides the cooperative stop signal observed by the
// traverser between directories.
package cancel

import (
	"context"
	"sync/atomic"
)

// Token is a one-way stop flag. Once set it never resets; a new scan needs a
// new Token. Setting and reading are safe from different goroutines.
type Token struct {
	set atomic.Bool
}

// New returns an unset token.
func New() *Token {
	return &Token{}
}

// Cancel sets the token. It reports whether this call was the one that set it.
func (t *Token) Cancel() bool {
	return t.set.CompareAndSwap(false, true)
}

// Cancelled reports whether the token has been set. It never blocks.
// A nil Token is never cancelled.
func (t *Token) Cancelled() bool {
	return t != nil && t.set.Load()
}

// Bind sets the token when ctx is done. The returned function detaches the
// binding and reports whether it stopped the pending cancellation.
func (t *Token) Bind(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		t.Cancel()
	})
}
