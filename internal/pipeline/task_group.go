package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrSaturated is returned by Go when max in-flight tasks are running.
	ErrSaturated = errors.New("task group saturated")
	// ErrClosed is returned by Go after Shutdown started.
	ErrClosed = errors.New("task group closed")
	// ErrGraceExceeded is returned by Shutdown when tasks outlive the grace period.
	ErrGraceExceeded = errors.New("shutdown grace period exceeded")
)

// TaskGroup runs per-pool tasks detached from the stream context. Go never
// blocks; Shutdown drains the group.
type TaskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	sem    *semaphore.Weighted

	mu     sync.Mutex
	closed bool
}

// NewTaskGroup creates a group running at most maxInFlight tasks at once.
// Zero means unbounded.
func NewTaskGroup(maxInFlight int) *TaskGroup {
	ctx, cancel := context.WithCancel(context.Background())
	g := &TaskGroup{ctx: ctx, cancel: cancel}
	if maxInFlight > 0 {
		g.sem = semaphore.NewWeighted(int64(maxInFlight))
	}
	return g
}

// Go starts task in a new goroutine. The task context is cancelled only when
// Shutdown runs out of grace.
func (g *TaskGroup) Go(task func(ctx context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if g.sem != nil && !g.sem.TryAcquire(1) {
		return ErrSaturated
	}

	g.group.Go(func() error {
		if g.sem != nil {
			defer g.sem.Release(1)
		}
		task(g.ctx)
		return nil
	})
	return nil
}

// Shutdown stops accepting tasks and waits up to grace for running ones.
// When grace elapses the task context is cancelled and ErrGraceExceeded is
// returned without waiting further.
func (g *TaskGroup) Shutdown(grace time.Duration) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.group.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		g.cancel()
		return nil
	case <-timer.C:
		g.cancel()
		return ErrGraceExceeded
	}
}
