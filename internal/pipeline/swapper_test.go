package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/sender"
)

type fixedDispatcher struct {
	result sender.Result
	err    error
}

func (d fixedDispatcher) Dispatch(_ context.Context, tx *solana.Transaction) (sender.Result, error) {
	if d.err != nil {
		return sender.Result{}, d.err
	}
	res := d.result
	res.Signature = tx.Signatures[0]
	return res, nil
}

func TestSwapper_RelayAcceptedStopsAtDispatched(t *testing.T) {
	h := newHarness(t, 0, fixedDispatcher{result: sender.Result{Backend: "bloxroute", Latency: time.Millisecond}})
	pool, token := newKey(), newKey()
	h.addPool(t, pool, domain.WrappedSOLMint, token)

	attempt := h.controller.swapper.Execute(context.Background(), domain.PoolEvent{Pool: pool, TokenA: token, TokenB: domain.WrappedSOLMint})
	assert.Equal(t, domain.AttemptSucceeded, attempt.Status)
	assert.Equal(t, domain.StageDispatched, attempt.Stage)
	assert.Equal(t, "bloxroute", attempt.Backend)
	assert.NotEmpty(t, attempt.AttemptID)
	assert.False(t, attempt.FinishedAt.Before(attempt.DetectedAt))
}

func TestSwapper_DispatchRejected(t *testing.T) {
	rejected := &sender.DispatchError{Backend: "nextblock", StatusCode: 500, Body: "rate limited"}
	h := newHarness(t, 0, fixedDispatcher{err: rejected})
	pool := newKey()
	h.addPool(t, pool, domain.WrappedSOLMint, newKey())

	attempt := h.controller.swapper.Execute(context.Background(), domain.PoolEvent{Pool: pool, TokenA: newKey(), TokenB: domain.WrappedSOLMint})
	assert.Equal(t, domain.AttemptFailed, attempt.Status)
	assert.Equal(t, domain.StageBuilt, attempt.Stage)
	assert.Equal(t, "nextblock", attempt.Backend)
	assert.Contains(t, attempt.Error, "rate limited")
	assert.Empty(t, attempt.Signature)

	stored, err := h.journal.GetByID(context.Background(), attempt.AttemptID)
	assert.NoError(t, err)
	assert.Equal(t, attempt.Error, stored.Error)
}
