package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"pool-sniper/internal/storage"
)

func TestClaimStore_ClaimOnce(t *testing.T) {
	store := NewClaimStore()
	ctx := context.Background()

	ok, err := store.Claim(ctx, "pool1", 1)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !ok {
		t.Fatal("first claim should succeed")
	}

	ok, err = store.Claim(ctx, "pool1", 2)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if ok {
		t.Error("second claim should fail")
	}

	claimed, _ := store.IsClaimed(ctx, "pool1")
	if !claimed {
		t.Error("pool1 should be claimed")
	}
	claimed, _ = store.IsClaimed(ctx, "pool2")
	if claimed {
		t.Error("pool2 should not be claimed")
	}
}

func TestClaimStore_EmptyPool(t *testing.T) {
	store := NewClaimStore()

	_, err := store.Claim(context.Background(), "", 1)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClaimStore_ConcurrentClaimants(t *testing.T) {
	store := NewClaimStore()
	ctx := context.Background()

	const pools = 16
	const claimants = 64

	var wins [pools]atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for c := 0; c < claimants; c++ {
		for p := 0; p < pools; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				<-start
				ok, err := store.Claim(ctx, fmt.Sprintf("pool-%d", p), 1)
				if err != nil {
					t.Errorf("Claim failed: %v", err)
					return
				}
				if ok {
					wins[p].Add(1)
				}
			}(p)
		}
	}

	close(start)
	wg.Wait()

	for p := range wins {
		if got := wins[p].Load(); got != 1 {
			t.Errorf("pool-%d claimed %d times, want 1", p, got)
		}
	}
}
