package pipeline

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/chain"
	"pool-sniper/internal/discovery"
	"pool-sniper/internal/domain"
	"pool-sniper/internal/observability"
)

// Detector turns extracted instructions into pool events.
type Detector interface {
	Detect(instructions []discovery.Instruction) []domain.PoolEvent
}

// Claimer is the dedup gate.
type Claimer interface {
	TryClaim(ctx context.Context, pool solana.PublicKey) (bool, error)
}

// Controller handles feed messages: it extracts and detects pool creations,
// claims each pool once and schedules the swap.
type Controller struct {
	detector Detector
	claims   Claimer
	swapper  *Swapper
	tasks    *TaskGroup
	reporter observability.Reporter
	log      logrus.FieldLogger

	quoteMint solana.PublicKey
}

// NewController creates a controller trading only pools with a wrapped SOL side.
func NewController(detector Detector, claims Claimer, swapper *Swapper, tasks *TaskGroup, log logrus.FieldLogger) *Controller {
	return &Controller{
		detector:  detector,
		claims:    claims,
		swapper:   swapper,
		tasks:     tasks,
		reporter:  observability.Nop{},
		log:       log,
		quoteMint: domain.WrappedSOLMint,
	}
}

// WithReporter sets the metrics reporter.
func (c *Controller) WithReporter(reporter observability.Reporter) *Controller {
	c.reporter = reporter
	return c
}

// HandleTransaction is a chain.Handler. It returns once the pool is claimed
// and the swap scheduled; the swap itself runs on the task group.
func (c *Controller) HandleTransaction(ctx context.Context, ev chain.RawEvent) {
	if ev.Failed() {
		return
	}

	instructions, err := discovery.ExtractInstructions(ev.Transaction, ev.Meta)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"signature": ev.Signature.String(),
			"slot":      ev.Slot,
			"error":     err,
		}).Debug("Skipping undecodable transaction")
		return
	}

	for _, pe := range c.detector.Detect(instructions) {
		pe.Signature = ev.Signature
		pe.Slot = ev.Slot
		c.handlePool(ctx, pe)
	}
}

func (c *Controller) handlePool(ctx context.Context, ev domain.PoolEvent) {
	log := c.log.WithFields(logrus.Fields{
		"pool":      ev.Pool.String(),
		"signature": ev.Signature.String(),
		"slot":      ev.Slot,
	})

	claimed, err := c.claims.TryClaim(ctx, ev.Pool)
	if err != nil {
		log.WithError(err).Error("Claim failed, pool ignored")
		return
	}
	if !claimed {
		log.Debug("Pool already claimed")
		return
	}

	c.reporter.PoolDetected()
	log.WithFields(logrus.Fields{
		"token_a": ev.TokenA.String(),
		"token_b": ev.TokenB.String(),
	}).Info("New pool detected")

	if !ev.HasMint(c.quoteMint) {
		c.swapper.Skip(ctx, ev)
		return
	}

	if err := c.tasks.Go(func(taskCtx context.Context) {
		c.swapper.Execute(taskCtx, ev)
	}); err != nil {
		c.swapper.Reject(ctx, ev, err)
	}
}
