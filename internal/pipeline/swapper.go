// Package pipeline wires detection to swap execution.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/meteora"
	"pool-sniper/internal/observability"
	"pool-sniper/internal/sender"
	"pool-sniper/internal/storage"
	"pool-sniper/internal/txbuilder"
)

const journalTimeout = 5 * time.Second

// PoolResolver reads pool state.
type PoolResolver interface {
	Resolve(ctx context.Context, pool solana.PublicKey) (*meteora.PoolState, error)
}

// SwapBuilder compiles the pool-vault swap.
type SwapBuilder interface {
	BuildVaultSwap(ctx context.Context, pool solana.PublicKey, state *meteora.PoolState, userMint solana.PublicKey, amounts txbuilder.VaultSwapAmounts) (*solana.Transaction, error)
}

// Dispatcher submits a signed transaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, tx *solana.Transaction) (sender.Result, error)
}

// Swapper executes the resolve, build and dispatch steps for one pool and
// records the outcome.
type Swapper struct {
	resolver   PoolResolver
	builder    SwapBuilder
	dispatcher Dispatcher
	amounts    txbuilder.VaultSwapAmounts

	journal  storage.AttemptStore
	reporter observability.Reporter
	log      logrus.FieldLogger
	timeout  time.Duration
	clock    func() time.Time
}

// NewSwapper creates a swapper with a no-op reporter and no journal.
func NewSwapper(resolver PoolResolver, builder SwapBuilder, dispatcher Dispatcher, amounts txbuilder.VaultSwapAmounts, log logrus.FieldLogger) *Swapper {
	return &Swapper{
		resolver:   resolver,
		builder:    builder,
		dispatcher: dispatcher,
		amounts:    amounts,
		reporter:   observability.Nop{},
		log:        log,
		clock:      time.Now,
	}
}

// WithJournal records every terminal attempt in journal.
func (s *Swapper) WithJournal(journal storage.AttemptStore) *Swapper {
	s.journal = journal
	return s
}

// WithReporter sets the metrics reporter.
func (s *Swapper) WithReporter(reporter observability.Reporter) *Swapper {
	s.reporter = reporter
	return s
}

// WithTimeout bounds a whole attempt.
func (s *Swapper) WithTimeout(timeout time.Duration) *Swapper {
	s.timeout = timeout
	return s
}

// WithClock sets a custom clock function.
func (s *Swapper) WithClock(clock func() time.Time) *Swapper {
	s.clock = clock
	return s
}

// Execute swaps against a claimed pool. Failures are logged, journaled and
// counted; the returned attempt is always terminal.
func (s *Swapper) Execute(ctx context.Context, ev domain.PoolEvent) *domain.SwapAttempt {
	attempt := s.newAttempt(ev)
	log := s.log.WithFields(logrus.Fields{"pool": attempt.Pool, "attempt": attempt.AttemptID})

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	attempt.Stage = domain.StageResolving
	state, err := s.resolver.Resolve(ctx, ev.Pool)
	if err != nil {
		return s.fail(ctx, log, attempt, err)
	}

	tx, err := s.builder.BuildVaultSwap(ctx, ev.Pool, state, ev.TokenA, s.amounts)
	if err != nil {
		return s.fail(ctx, log, attempt, err)
	}
	attempt.Stage = domain.StageBuilt
	log.Debug("Swap built")

	res, err := s.dispatcher.Dispatch(ctx, tx)
	if err != nil {
		var dispatchErr *sender.DispatchError
		if errors.As(err, &dispatchErr) {
			attempt.Backend = dispatchErr.Backend
		}
		return s.fail(ctx, log, attempt, err)
	}

	s.reporter.DispatchObserved(res.Backend, res.Latency)
	attempt.Stage = domain.StageDispatched
	if res.Confirmed {
		attempt.Stage = domain.StageConfirmed
	}
	attempt.Status = domain.AttemptSucceeded
	attempt.Backend = res.Backend
	attempt.Signature = res.Signature.String()
	attempt.FinishedAt = s.clock()

	s.reporter.SwapSucceeded(res.Backend)
	log.WithFields(logrus.Fields{
		"backend":   res.Backend,
		"signature": attempt.Signature,
		"stage":     attempt.Stage,
		"latency":   res.Latency,
	}).Info("Swap dispatched")

	s.record(ctx, log, attempt)
	return attempt
}

// Skip records a claimed pool that is not traded.
func (s *Swapper) Skip(ctx context.Context, ev domain.PoolEvent) *domain.SwapAttempt {
	attempt := s.newAttempt(ev)
	attempt.Status = domain.AttemptSkipped
	attempt.FinishedAt = s.clock()

	log := s.log.WithFields(logrus.Fields{"pool": attempt.Pool, "attempt": attempt.AttemptID})
	log.WithFields(logrus.Fields{"token_a": attempt.TokenA, "token_b": attempt.TokenB}).Info("Pool skipped: no wrapped SOL side")

	s.record(ctx, log, attempt)
	return attempt
}

// Reject records a claimed pool that could not be scheduled.
func (s *Swapper) Reject(ctx context.Context, ev domain.PoolEvent, cause error) *domain.SwapAttempt {
	attempt := s.newAttempt(ev)
	log := s.log.WithFields(logrus.Fields{"pool": attempt.Pool, "attempt": attempt.AttemptID})
	return s.fail(ctx, log, attempt, cause)
}

func (s *Swapper) newAttempt(ev domain.PoolEvent) *domain.SwapAttempt {
	detectedAt := ev.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = s.clock()
	}
	return &domain.SwapAttempt{
		AttemptID:       uuid.NewString(),
		Pool:            ev.Pool.String(),
		TokenA:          ev.TokenA.String(),
		TokenB:          ev.TokenB.String(),
		SourceSignature: ev.Signature.String(),
		Slot:            ev.Slot,
		Stage:           domain.StageClaimed,
		DetectedAt:      detectedAt,
	}
}

func (s *Swapper) fail(ctx context.Context, log logrus.FieldLogger, attempt *domain.SwapAttempt, err error) *domain.SwapAttempt {
	attempt.Status = domain.AttemptFailed
	attempt.Error = err.Error()
	attempt.FinishedAt = s.clock()

	s.reporter.SwapFailed(attempt.Stage)
	log.WithFields(logrus.Fields{
		"stage":   attempt.Stage,
		"backend": attempt.Backend,
		"error":   err,
	}).Error("Swap failed")

	s.record(ctx, log, attempt)
	return attempt
}

func (s *Swapper) record(ctx context.Context, log logrus.FieldLogger, attempt *domain.SwapAttempt) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := s.journal.Insert(ctx, attempt); err != nil {
		log.WithError(err).Warn("Failed to journal attempt")
	}
}
