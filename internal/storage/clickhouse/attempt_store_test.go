package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/storage"
)

func testAttempt(id, pool string, detectedAt time.Time) *domain.SwapAttempt {
	return &domain.SwapAttempt{
		AttemptID:       id,
		Pool:            pool,
		TokenA:          "tokenA",
		TokenB:          domain.WrappedSOLMint.String(),
		SourceSignature: "src-" + id,
		Slot:            250_000_000,
		Stage:           domain.StageBuilt,
		Status:          domain.AttemptFailed,
		Backend:         "nextblock",
		Error:           "nextblock: status 500: rate limited",
		DetectedAt:      detectedAt,
		FinishedAt:      detectedAt.Add(80 * time.Millisecond),
	}
}

func TestAttemptStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAttemptStore(conn)
	ctx := context.Background()
	now := time.UnixMilli(1704067200000)

	want := testAttempt("a1", "pool1", now)
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, want.Pool, got.Pool)
	assert.Equal(t, want.Slot, got.Slot)
	assert.Equal(t, domain.StageBuilt, got.Stage)
	assert.Equal(t, domain.AttemptFailed, got.Status)
	assert.Equal(t, want.Error, got.Error)
	assert.Equal(t, 80*time.Millisecond, got.Duration())

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAttemptStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAttemptStore(conn)
	ctx := context.Background()
	now := time.UnixMilli(1704067200000)

	require.NoError(t, store.Insert(ctx, testAttempt("a1", "pool1", now)))
	assert.ErrorIs(t, store.Insert(ctx, testAttempt("a1", "pool1", now)), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Insert(ctx, &domain.SwapAttempt{}), storage.ErrInvalidInput)
}

func TestAttemptStore_Queries(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAttemptStore(conn)
	ctx := context.Background()
	base := time.UnixMilli(1704067200000)

	require.NoError(t, store.Insert(ctx, testAttempt("a3", "pool1", base.Add(2*time.Second))))
	require.NoError(t, store.Insert(ctx, testAttempt("a1", "pool1", base)))
	require.NoError(t, store.Insert(ctx, testAttempt("a2", "pool2", base.Add(time.Second))))

	byPool, err := store.GetByPool(ctx, "pool1")
	require.NoError(t, err)
	require.Len(t, byPool, 2)
	assert.Equal(t, "a1", byPool[0].AttemptID)
	assert.Equal(t, "a3", byPool[1].AttemptID)

	inRange, err := store.GetByTimeRange(ctx, base.UnixMilli(), base.Add(time.Second).UnixMilli())
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "a1", inRange[0].AttemptID)
	assert.Equal(t, "a2", inRange[1].AttemptID)
}
