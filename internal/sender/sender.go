// Package sender submits signed transactions through relay endpoints or the
// cluster RPC, one backend at a time or racing several.
package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/domain"
)

// Result is a successful submission.
type Result struct {
	Backend   string
	Signature solana.Signature
	// Confirmed is true when the backend waited for cluster confirmation.
	Confirmed bool
	Latency   time.Duration
}

// SendRequest names the accounts of a bonding-curve buy.
type SendRequest struct {
	Blockhash              solana.Hash
	Token                  solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
}

// Sender builds a buy with its own tip policy and submits it.
type Sender interface {
	Name() string
	Send(ctx context.Context, req SendRequest) (Result, error)
}

// Submitter submits an already signed transaction.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, tx *solana.Transaction) (Result, error)
}

// DispatchError is a non-2xx relay response.
type DispatchError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// Unwrap makes DispatchError match domain.ErrDispatch.
func (e *DispatchError) Unwrap() error {
	return domain.ErrDispatch
}
