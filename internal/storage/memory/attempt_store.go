package memory

import (
	"context"
	"sort"
	"sync"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/storage"
)

// AttemptStore is an in-memory implementation of storage.AttemptStore.
type AttemptStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapAttempt // keyed by attempt_id
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		data: make(map[string]*domain.SwapAttempt),
	}
}

// Insert adds a new attempt. Returns ErrDuplicateKey if attempt_id exists.
func (s *AttemptStore) Insert(_ context.Context, a *domain.SwapAttempt) error {
	if a == nil || a.AttemptID == "" || a.Pool == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AttemptID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	attemptCopy := *a
	s.data[a.AttemptID] = &attemptCopy
	return nil
}

// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
func (s *AttemptStore) GetByID(_ context.Context, attemptID string) (*domain.SwapAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[attemptID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	attemptCopy := *a
	return &attemptCopy, nil
}

// GetByPool retrieves all attempts for a pool.
func (s *AttemptStore) GetByPool(_ context.Context, pool string) ([]*domain.SwapAttempt, error) {
	return s.filter(func(a *domain.SwapAttempt) bool { return a.Pool == pool }), nil
}

// GetByTimeRange retrieves attempts detected within [start, end] (inclusive).
func (s *AttemptStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SwapAttempt, error) {
	return s.filter(func(a *domain.SwapAttempt) bool {
		ms := a.DetectedAt.UnixMilli()
		return ms >= start && ms <= end
	}), nil
}

// All returns every stored attempt ordered by detected_at.
func (s *AttemptStore) All() []*domain.SwapAttempt {
	return s.filter(func(*domain.SwapAttempt) bool { return true })
}

func (s *AttemptStore) filter(keep func(*domain.SwapAttempt) bool) []*domain.SwapAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapAttempt
	for _, a := range s.data {
		if keep(a) {
			attemptCopy := *a
			result = append(result, &attemptCopy)
		}
	}

	// Sort by detected_at ASC, attempt_id for ties
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DetectedAt.Equal(result[j].DetectedAt) {
			return result[i].DetectedAt.Before(result[j].DetectedAt)
		}
		return result[i].AttemptID < result[j].AttemptID
	})

	return result
}

// Verify interface compliance at compile time.
var _ storage.AttemptStore = (*AttemptStore)(nil)
