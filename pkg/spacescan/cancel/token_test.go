package cancel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_StartsUnset(t *testing.T) {
	tok := New()
	assert.False(t, tok.Cancelled())
}

func TestToken_CancelIsOneWay(t *testing.T) {
	tok := New()

	assert.True(t, tok.Cancel(), "first Cancel should set the token")
	assert.True(t, tok.Cancelled())

	assert.False(t, tok.Cancel(), "second Cancel should be a no-op")
	assert.True(t, tok.Cancelled())
}

func TestToken_ConcurrentWriterAndReader(t *testing.T) {
	tok := New()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for !tok.Cancelled() {
		}
	}()
	go func() {
		defer wg.Done()
		tok.Cancel()
	}()
	wg.Wait()

	assert.True(t, tok.Cancelled())
}

func TestToken_BindCancelsOnContextDone(t *testing.T) {
	tok := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer tok.Bind(ctx)()

	cancel()

	require.Eventually(t, tok.Cancelled, time.Second, time.Millisecond)
}

func TestToken_BindDetach(t *testing.T) {
	tok := New()
	ctx, cancel := context.WithCancel(context.Background())

	stop := tok.Bind(ctx)
	assert.True(t, stop(), "detaching before ctx is done should stop the callback")

	cancel()
	time.Sleep(10 * time.Millisecond)
	assert.False(t, tok.Cancelled())
}
