package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/chain"
	"pool-sniper/internal/domain"
)

// DirectName is the backend name of the RPC submission path.
const DirectName = "rpc"

// Direct submits through the cluster RPC and waits for confirmation.
type Direct struct {
	ledger  chain.Ledger
	timeout time.Duration
}

var _ Submitter = (*Direct)(nil)

// NewDirect creates an RPC submitter. timeout bounds submit plus confirmation;
// zero leaves it to the ledger client.
func NewDirect(ledger chain.Ledger, timeout time.Duration) *Direct {
	return &Direct{ledger: ledger, timeout: timeout}
}

// Name returns the backend name.
func (d *Direct) Name() string {
	return DirectName
}

// Submit sends tx and blocks until it is confirmed.
func (d *Direct) Submit(ctx context.Context, tx *solana.Transaction) (Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	sig, err := d.ledger.SubmitAndConfirm(ctx, tx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", DirectName, err)
	}
	if sig == (solana.Signature{}) {
		return Result{}, fmt.Errorf("%w: %s returned no signature", domain.ErrDispatch, DirectName)
	}

	return Result{
		Backend:   DirectName,
		Signature: sig,
		Confirmed: true,
		Latency:   time.Since(start),
	}, nil
}
