// Package bench drives repeated swaps and relay submissions to measure
// end-to-end latency outside the detection path.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pool-sniper/internal/meteora"
	"pool-sniper/internal/sender"
	"pool-sniper/internal/txbuilder"
)

// PoolResolver reads pool state.
type PoolResolver interface {
	Resolve(ctx context.Context, pool solana.PublicKey) (*meteora.PoolState, error)
}

// SwapTarget is the pool the swap mode trades against.
type SwapTarget struct {
	Pool   solana.PublicKey
	TokenA solana.PublicKey
}

// RelayTarget names the bonding-curve accounts the relay mode buys through.
type RelayTarget struct {
	Token                  solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
}

// Outcome is one submission.
type Outcome struct {
	Index     int
	Backend   string
	Signature solana.Signature
	Latency   time.Duration
	Err       error
}

// SwapReport summarises a swap run.
type SwapReport struct {
	Outcomes  []Outcome
	Elapsed   time.Duration
	Succeeded int
	Failed    int
}

// BackendStats aggregates relay latencies of one backend.
type BackendStats struct {
	Backend   string
	Attempts  int
	Succeeded int
	Failed    int
	Min       time.Duration
	Max       time.Duration
	Mean      time.Duration
}

// RaceBackend labels race rounds no sender won.
const RaceBackend = "race"

// RelayReport summarises a relay run.
type RelayReport struct {
	Outcomes []Outcome
	Backends []BackendStats
	Elapsed  time.Duration
}

// Runner executes bench runs.
type Runner struct {
	resolver  PoolResolver
	builder   *txbuilder.Builder
	hashes    txbuilder.BlockhashSource
	submitter sender.Submitter
	senders   []sender.Sender
	amounts   txbuilder.VaultSwapAmounts
	log       logrus.FieldLogger
}

// NewRunner creates a runner. submitter serves the swap mode, senders the
// relay mode; either may be empty when its mode is not used.
func NewRunner(resolver PoolResolver, builder *txbuilder.Builder, hashes txbuilder.BlockhashSource, submitter sender.Submitter, senders []sender.Sender, amounts txbuilder.VaultSwapAmounts, log logrus.FieldLogger) *Runner {
	return &Runner{
		resolver:  resolver,
		builder:   builder,
		hashes:    hashes,
		submitter: submitter,
		senders:   senders,
		amounts:   amounts,
		log:       log,
	}
}

// RunSwaps launches repeats concurrent resolve, build and submit sequences
// against target and waits for all of them.
func (r *Runner) RunSwaps(ctx context.Context, target SwapTarget, repeats int) (*SwapReport, error) {
	if repeats <= 0 {
		return nil, fmt.Errorf("repeats must be positive, got %d", repeats)
	}
	if r.submitter == nil {
		return nil, errors.New("swap mode requires a submitter")
	}

	outcomes := make([]Outcome, repeats)
	start := time.Now()

	var g errgroup.Group
	for i := 0; i < repeats; i++ {
		g.Go(func() error {
			outcomes[i] = r.swapOnce(ctx, i, target)
			return nil
		})
	}
	g.Wait()

	report := &SwapReport{Outcomes: outcomes, Elapsed: time.Since(start)}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	r.log.WithFields(logrus.Fields{
		"succeeded":  report.Succeeded,
		"failed":     report.Failed,
		"elapsed_ms": report.Elapsed.Milliseconds(),
	}).Infof("All %d swaps completed in %d ms", repeats, report.Elapsed.Milliseconds())

	return report, nil
}

func (r *Runner) swapOnce(ctx context.Context, i int, target SwapTarget) Outcome {
	outcome := Outcome{Index: i, Backend: r.submitter.Name()}
	log := r.log.WithField("swap", i)
	start := time.Now()

	state, err := r.resolver.Resolve(ctx, target.Pool)
	if err == nil {
		var tx *solana.Transaction
		tx, err = r.builder.BuildVaultSwap(ctx, target.Pool, state, target.TokenA, r.amounts)
		if err == nil {
			var res sender.Result
			res, err = r.submitter.Submit(ctx, tx)
			outcome.Signature = res.Signature
		}
	}
	outcome.Latency = time.Since(start)
	outcome.Err = err

	if err != nil {
		log.WithError(err).Error("Swap failed")
	} else {
		log.WithFields(logrus.Fields{
			"signature":  outcome.Signature.String(),
			"latency_ms": outcome.Latency.Milliseconds(),
		}).Info("Swap complete")
	}
	return outcome
}

// RunRelays sends the bonding-curve buy through every sender once per round.
// Each round fetches a fresh blockhash; all senders run concurrently and
// every result is kept.
func (r *Runner) RunRelays(ctx context.Context, target RelayTarget, rounds int) (*RelayReport, error) {
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	if len(r.senders) == 0 {
		return nil, errors.New("relay mode requires at least one sender")
	}

	report := &RelayReport{}
	start := time.Now()

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		blockhash, err := r.hashes.LatestBlockhash(ctx)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		req := sender.SendRequest{
			Blockhash:              blockhash,
			Token:                  target.Token,
			BondingCurve:           target.BondingCurve,
			AssociatedBondingCurve: target.AssociatedBondingCurve,
		}

		results := make([]Outcome, len(r.senders))
		var g errgroup.Group
		for i, s := range r.senders {
			g.Go(func() error {
				sendStart := time.Now()
				res, err := s.Send(ctx, req)
				results[i] = Outcome{
					Index:     round,
					Backend:   s.Name(),
					Signature: res.Signature,
					Latency:   time.Since(sendStart),
					Err:       err,
				}
				return nil
			})
		}
		g.Wait()

		for _, o := range results {
			entry := r.log.WithFields(logrus.Fields{
				"round":      round,
				"backend":    o.Backend,
				"latency_ms": o.Latency.Milliseconds(),
			})
			if o.Err != nil {
				entry.WithError(o.Err).Warn("Relay submission failed")
			} else {
				entry.WithField("signature", o.Signature.String()).Info("Relay submission accepted")
			}
		}
		report.Outcomes = append(report.Outcomes, results...)
	}

	report.Elapsed = time.Since(start)
	report.Backends = summarize(report.Outcomes)
	for _, s := range report.Backends {
		r.log.WithFields(logrus.Fields{
			"backend":   s.Backend,
			"succeeded": s.Succeeded,
			"failed":    s.Failed,
			"min_ms":    s.Min.Milliseconds(),
			"mean_ms":   s.Mean.Milliseconds(),
			"max_ms":    s.Max.Milliseconds(),
		}).Info("Relay latency")
	}
	return report, nil
}

// RaceRelays races the bonding-curve buy across all senders once per round
// and keeps only the winner. A round where every sender fails is recorded
// under RaceBackend.
func (r *Runner) RaceRelays(ctx context.Context, target RelayTarget, rounds int) (*RelayReport, error) {
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	if len(r.senders) == 0 {
		return nil, errors.New("relay race requires at least one sender")
	}

	report := &RelayReport{}
	start := time.Now()

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		blockhash, err := r.hashes.LatestBlockhash(ctx)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}

		roundStart := time.Now()
		res, err := sender.RaceSend(ctx, r.senders, sender.SendRequest{
			Blockhash:              blockhash,
			Token:                  target.Token,
			BondingCurve:           target.BondingCurve,
			AssociatedBondingCurve: target.AssociatedBondingCurve,
		})
		o := Outcome{Index: round, Backend: res.Backend, Signature: res.Signature, Latency: time.Since(roundStart), Err: err}
		if err != nil {
			o.Backend = RaceBackend
		}

		entry := r.log.WithFields(logrus.Fields{
			"round":      round,
			"backend":    o.Backend,
			"latency_ms": o.Latency.Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("Relay race lost by every sender")
		} else {
			entry.WithField("signature", o.Signature.String()).Info("Relay race won")
		}
		report.Outcomes = append(report.Outcomes, o)
	}

	report.Elapsed = time.Since(start)
	report.Backends = summarize(report.Outcomes)
	return report, nil
}

// summarize aggregates outcomes per backend, sorted by backend name.
// Latency figures cover successful submissions only.
func summarize(outcomes []Outcome) []BackendStats {
	byBackend := make(map[string]*BackendStats)
	totals := make(map[string]time.Duration)

	for _, o := range outcomes {
		s, ok := byBackend[o.Backend]
		if !ok {
			s = &BackendStats{Backend: o.Backend}
			byBackend[o.Backend] = s
		}
		s.Attempts++
		if o.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		totals[o.Backend] += o.Latency
		if s.Min == 0 || o.Latency < s.Min {
			s.Min = o.Latency
		}
		if o.Latency > s.Max {
			s.Max = o.Latency
		}
	}

	stats := make([]BackendStats, 0, len(byBackend))
	for name, s := range byBackend {
		if s.Succeeded > 0 {
			s.Mean = totals[name] / time.Duration(s.Succeeded)
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Backend < stats[j].Backend })
	return stats
}
