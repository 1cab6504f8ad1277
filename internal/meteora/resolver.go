package meteora

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/chain"
)

// Resolver fetches pool accounts from the ledger.
type Resolver struct {
	ledger chain.Ledger
}

// NewResolver creates a resolver reading through ledger.
func NewResolver(ledger chain.Ledger) *Resolver {
	return &Resolver{ledger: ledger}
}

// Resolve performs one point read of pool and decodes it. Errors wrap
// domain.ErrNotFound, domain.ErrDecode or domain.ErrTransport.
func (r *Resolver) Resolve(ctx context.Context, pool solana.PublicKey) (*PoolState, error) {
	data, err := r.ledger.GetAccount(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("resolve pool %s: %w", pool, err)
	}

	state, err := DecodePoolState(data)
	if err != nil {
		return nil, fmt.Errorf("resolve pool %s: %w", pool, err)
	}
	return state, nil
}
