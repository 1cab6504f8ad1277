package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/storage"
)

// ClaimGate lets each pool through at most once.
type ClaimGate struct {
	store storage.ClaimStore
	now   func() time.Time
}

// NewClaimGate creates a gate backed by store.
func NewClaimGate(store storage.ClaimStore) *ClaimGate {
	return &ClaimGate{store: store, now: time.Now}
}

// TryClaim returns true exactly once per pool. On a store error the pool is
// reported as not claimed so it can never trigger twice.
func (g *ClaimGate) TryClaim(ctx context.Context, pool solana.PublicKey) (bool, error) {
	claimed, err := g.store.Claim(ctx, pool.String(), g.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("claim pool %s: %w", pool, err)
	}
	return claimed, nil
}
