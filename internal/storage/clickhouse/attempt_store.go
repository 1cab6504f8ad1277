package clickhouse

import (
	"context"
	"fmt"
	"time"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/storage"
)

// AttemptStore implements storage.AttemptStore on a ReplacingMergeTree table.
// The engine does not enforce uniqueness, so Insert checks for the key first.
type AttemptStore struct {
	conn *Conn
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(conn *Conn) *AttemptStore {
	return &AttemptStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AttemptStore = (*AttemptStore)(nil)

const selectAttempts = `
	SELECT
		attempt_id, pool, token_a, token_b, source_signature, slot,
		stage, status, backend, signature, error,
		detected_at_ms, finished_at_ms
	FROM swap_attempts FINAL
`

// Insert adds a terminal attempt. Returns ErrDuplicateKey if attempt_id exists.
func (s *AttemptStore) Insert(ctx context.Context, a *domain.SwapAttempt) error {
	if a == nil || a.AttemptID == "" || a.Pool == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, a.AttemptID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO swap_attempts (
			attempt_id, pool, token_a, token_b, source_signature, slot,
			stage, status, backend, signature, error,
			detected_at_ms, finished_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.AttemptID, a.Pool, a.TokenA, a.TokenB, a.SourceSignature, a.Slot,
		string(a.Stage), string(a.Status), a.Backend, a.Signature, a.Error,
		a.DetectedAt.UnixMilli(), a.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert swap attempt: %w", err)
	}
	return nil
}

// GetByID retrieves an attempt by its ID. Returns ErrNotFound if not exists.
func (s *AttemptStore) GetByID(ctx context.Context, attemptID string) (*domain.SwapAttempt, error) {
	rows, err := s.conn.Query(ctx, selectAttempts+` WHERE attempt_id = ? LIMIT 1`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query by id: %w", err)
	}
	defer rows.Close()

	attempts, err := scanAttempts(rows)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, storage.ErrNotFound
	}
	return attempts[0], nil
}

// GetByPool retrieves all attempts for a pool ordered by detection time.
func (s *AttemptStore) GetByPool(ctx context.Context, pool string) ([]*domain.SwapAttempt, error) {
	rows, err := s.conn.Query(ctx, selectAttempts+`
		WHERE pool = ?
		ORDER BY detected_at_ms ASC, attempt_id ASC
	`, pool)
	if err != nil {
		return nil, fmt.Errorf("query by pool: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// GetByTimeRange retrieves attempts detected within [start, end] unix ms.
func (s *AttemptStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SwapAttempt, error) {
	rows, err := s.conn.Query(ctx, selectAttempts+`
		WHERE detected_at_ms >= ? AND detected_at_ms <= ?
		ORDER BY detected_at_ms ASC, attempt_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func (s *AttemptStore) exists(ctx context.Context, attemptID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM swap_attempts FINAL WHERE attempt_id = ?`, attemptID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanner needs.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanAttempts(rows chRows) ([]*domain.SwapAttempt, error) {
	var attempts []*domain.SwapAttempt

	for rows.Next() {
		var (
			a                      domain.SwapAttempt
			stage, status          string
			detectedAt, finishedAt int64
		)
		err := rows.Scan(
			&a.AttemptID, &a.Pool, &a.TokenA, &a.TokenB, &a.SourceSignature, &a.Slot,
			&stage, &status, &a.Backend, &a.Signature, &a.Error,
			&detectedAt, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		a.Stage = domain.Stage(stage)
		a.Status = domain.AttemptStatus(status)
		a.DetectedAt = time.UnixMilli(detectedAt)
		a.FinishedAt = time.UnixMilli(finishedAt)
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}

	return attempts, nil
}
