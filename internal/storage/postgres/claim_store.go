package postgres

import (
	"context"
	"fmt"

	"pool-sniper/internal/storage"
)

// ClaimStore implements storage.ClaimStore on the pool_claims table. The
// primary key makes the claim atomic across processes sharing the database.
type ClaimStore struct {
	pool *Pool
}

// NewClaimStore creates a new ClaimStore.
func NewClaimStore(pool *Pool) *ClaimStore {
	return &ClaimStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

// Claim inserts pool unless present. Only the inserting caller gets true.
func (s *ClaimStore) Claim(ctx context.Context, pool string, claimedAt int64) (bool, error) {
	if pool == "" {
		return false, storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO pool_claims (pool, claimed_at)
		VALUES ($1, $2)
		ON CONFLICT (pool) DO NOTHING
	`, pool, claimedAt)
	if err != nil {
		return false, fmt.Errorf("claim pool: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IsClaimed reports whether pool has been claimed.
func (s *ClaimStore) IsClaimed(ctx context.Context, pool string) (bool, error) {
	var claimed bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pool_claims WHERE pool = $1)`, pool).Scan(&claimed)
	if err != nil {
		return false, fmt.Errorf("check claim: %w", err)
	}
	return claimed, nil
}
