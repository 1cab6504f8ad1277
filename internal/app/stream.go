package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"pool-sniper/internal/chain"
)

// ReconnectPolicy controls what RunFeed does after a transport failure.
type ReconnectPolicy struct {
	Enabled bool
	Delay   time.Duration
}

// RunFeed consumes feed until ctx is cancelled. With reconnects enabled a
// transport failure is logged and the feed is consumed again after Delay;
// otherwise the failure is returned. Any other error is returned as is.
func RunFeed(ctx context.Context, feed chain.TransactionFeed, handler chain.Handler, policy ReconnectPolicy, log logrus.FieldLogger) error {
	for attempt := 1; ; attempt++ {
		err := feed.Consume(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !policy.Enabled || !chain.IsTransportError(err) {
			return err
		}

		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   policy.Delay.String(),
		}).Warn("Transaction feed dropped, reconnecting")

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
