package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"pool-sniper/internal/domain"
)

// Race runs attempt for every candidate concurrently and returns the first
// success; the other attempts see a cancelled context. When every attempt
// fails the errors are joined.
func Race[T any](ctx context.Context, candidates []T, attempt func(ctx context.Context, c T) (Result, error)) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: no backends", domain.ErrDispatch)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		winner Result
		won    bool

		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	for _, c := range candidates {
		g.Go(func() error {
			res, err := attempt(ctx, c)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			once.Do(func() {
				winner = res
				won = true
				cancel()
			})
			return nil
		})
	}
	g.Wait()

	if won {
		return winner, nil
	}
	return Result{}, errors.Join(errs...)
}

// RaceSend sends req through every sender and keeps the first success.
func RaceSend(ctx context.Context, senders []Sender, req SendRequest) (Result, error) {
	return Race(ctx, senders, func(ctx context.Context, s Sender) (Result, error) {
		return s.Send(ctx, req)
	})
}

// RaceSubmit submits tx through every submitter and keeps the first success.
func RaceSubmit(ctx context.Context, submitters []Submitter, tx *solana.Transaction) (Result, error) {
	return Race(ctx, submitters, func(ctx context.Context, s Submitter) (Result, error) {
		return s.Submit(ctx, tx)
	})
}
