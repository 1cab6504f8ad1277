package memory

import (
	"context"
	"sync"

	"pool-sniper/internal/storage"
)

// ClaimStore is an in-memory implementation of storage.ClaimStore.
// It lives for the process and is never pruned.
type ClaimStore struct {
	claims sync.Map // pool -> claimed_at (unix ms)
}

// NewClaimStore creates a new in-memory claim store.
func NewClaimStore() *ClaimStore {
	return &ClaimStore{}
}

// Claim records pool if absent in a single atomic step.
func (s *ClaimStore) Claim(_ context.Context, pool string, claimedAt int64) (bool, error) {
	if pool == "" {
		return false, storage.ErrInvalidInput
	}
	_, loaded := s.claims.LoadOrStore(pool, claimedAt)
	return !loaded, nil
}

// IsClaimed reports whether pool has been claimed.
func (s *ClaimStore) IsClaimed(_ context.Context, pool string) (bool, error) {
	_, ok := s.claims.Load(pool)
	return ok, nil
}

// Verify interface compliance at compile time.
var _ storage.ClaimStore = (*ClaimStore)(nil)
