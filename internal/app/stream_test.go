package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pool-sniper/internal/chain"
	"pool-sniper/internal/domain"
)

// scriptedFeed returns the scripted errors in order, then blocks until cancelled.
type scriptedFeed struct {
	errs  []error
	calls int
}

func (f *scriptedFeed) Consume(ctx context.Context, _ chain.Handler) error {
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	<-ctx.Done()
	return ctx.Err()
}

func noopHandler(context.Context, chain.RawEvent) {}

func transportErr() error {
	return fmt.Errorf("%w: read feed: connection reset", domain.ErrTransport)
}

func TestRunFeed_NoReconnectReturnsTransportError(t *testing.T) {
	feed := &scriptedFeed{errs: []error{transportErr()}}

	err := RunFeed(context.Background(), feed, noopHandler, ReconnectPolicy{}, quietLogger())
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 1, feed.calls)
}

func TestRunFeed_ReconnectsOnTransportError(t *testing.T) {
	feed := &scriptedFeed{errs: []error{transportErr(), transportErr()}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- RunFeed(ctx, feed, noopHandler, ReconnectPolicy{Enabled: true, Delay: time.Millisecond}, quietLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("RunFeed did not return after cancellation")
	}
	assert.Equal(t, 3, feed.calls)
}

func TestRunFeed_OtherErrorsAreFinal(t *testing.T) {
	boom := errors.New("bad filter")
	feed := &scriptedFeed{errs: []error{boom}}

	err := RunFeed(context.Background(), feed, noopHandler, ReconnectPolicy{Enabled: true}, quietLogger())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, feed.calls)
}
