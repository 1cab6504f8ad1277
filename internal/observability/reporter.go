// Package observability reports pipeline counters and serves them to Prometheus.
package observability

import (
	"time"

	"pool-sniper/internal/domain"
)

// Reporter receives pipeline events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	PoolDetected()
	SwapSucceeded(backend string)
	SwapFailed(stage domain.Stage)
	DispatchObserved(backend string, latency time.Duration)
	StreamMessage(decoded bool)
}

// Nop discards every event.
type Nop struct{}

var _ Reporter = Nop{}

func (Nop) PoolDetected() {}
func (Nop) SwapSucceeded(string) {}
func (Nop) SwapFailed(domain.Stage) {}
func (Nop) DispatchObserved(string, time.Duration) {}
func (Nop) StreamMessage(bool) {}
