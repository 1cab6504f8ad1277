package storage

import (
	"context"

	"pool-sniper/internal/domain"
)

// ClaimStore records which pools have already triggered a reaction.
type ClaimStore interface {
	// Claim atomically records pool if absent. Returns true for exactly one
	// caller per pool; every later call returns false.
	Claim(ctx context.Context, pool string, claimedAt int64) (bool, error)

	// IsClaimed reports whether pool has been claimed.
	IsClaimed(ctx context.Context, pool string) (bool, error)
}

// AttemptStore provides access to the swap attempt journal.
type AttemptStore interface {
	// Insert adds a terminal attempt record. Returns ErrDuplicateKey if attempt_id exists.
	Insert(ctx context.Context, a *domain.SwapAttempt) error

	// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, attemptID string) (*domain.SwapAttempt, error)

	// GetByPool retrieves all attempts for a pool, ordered by detected_at ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.SwapAttempt, error)

	// GetByTimeRange retrieves attempts detected within [start, end] (unix ms, inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SwapAttempt, error)
}
