package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/storage"
)

// AttemptStore implements storage.AttemptStore using PostgreSQL.
type AttemptStore struct {
	pool *Pool
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(pool *Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AttemptStore = (*AttemptStore)(nil)

const attemptColumns = `
	attempt_id, pool, token_a, token_b, source_signature, slot,
	stage, status, backend, signature, error,
	detected_at, finished_at
`

// Insert adds a terminal attempt. Returns ErrDuplicateKey if attempt_id exists.
func (s *AttemptStore) Insert(ctx context.Context, a *domain.SwapAttempt) error {
	if a == nil || a.AttemptID == "" || a.Pool == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO swap_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		a.AttemptID, a.Pool, a.TokenA, a.TokenB, a.SourceSignature, int64(a.Slot),
		string(a.Stage), string(a.Status), a.Backend, a.Signature, a.Error,
		a.DetectedAt.UnixMilli(), a.FinishedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap attempt: %w", err)
	}
	return nil
}

// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
func (s *AttemptStore) GetByID(ctx context.Context, attemptID string) (*domain.SwapAttempt, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM swap_attempts WHERE attempt_id = $1`, attemptID)

	a, err := scanAttempt(row)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get swap attempt: %w", err)
	}
	return a, nil
}

// GetByPool retrieves all attempts for a pool ordered by detected_at.
func (s *AttemptStore) GetByPool(ctx context.Context, pool string) ([]*domain.SwapAttempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM swap_attempts
		WHERE pool = $1
		ORDER BY detected_at ASC, attempt_id ASC`, pool)
	if err != nil {
		return nil, fmt.Errorf("query by pool: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// GetByTimeRange retrieves attempts detected within [start, end] unix ms.
func (s *AttemptStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SwapAttempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM swap_attempts
		WHERE detected_at >= $1 AND detected_at <= $2
		ORDER BY detected_at ASC, attempt_id ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func scanAttempt(row pgx.Row) (*domain.SwapAttempt, error) {
	var (
		a                      domain.SwapAttempt
		slot                   int64
		stage, status          string
		detectedAt, finishedAt int64
	)
	err := row.Scan(
		&a.AttemptID, &a.Pool, &a.TokenA, &a.TokenB, &a.SourceSignature, &slot,
		&stage, &status, &a.Backend, &a.Signature, &a.Error,
		&detectedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Slot = uint64(slot)
	a.Stage = domain.Stage(stage)
	a.Status = domain.AttemptStatus(status)
	a.DetectedAt = time.UnixMilli(detectedAt)
	a.FinishedAt = time.UnixMilli(finishedAt)
	return &a, nil
}

func scanAttempts(rows pgx.Rows) ([]*domain.SwapAttempt, error) {
	var attempts []*domain.SwapAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap attempts: %w", err)
	}
	return attempts, nil
}
