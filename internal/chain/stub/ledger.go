package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/chain"
	"pool-sniper/internal/domain"
)

// Ledger implements chain.Ledger for testing.
type Ledger struct {
	mu sync.Mutex

	Accounts  map[solana.PublicKey][]byte
	Blockhash solana.Hash

	// SubmitErr, when set, is returned by SubmitAndConfirm.
	SubmitErr error
	Submitted []*solana.Transaction

	AccountReads   int
	BlockhashReads int
}

var _ chain.Ledger = (*Ledger)(nil)

// NewLedger creates a new stub ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Accounts: make(map[solana.PublicKey][]byte),
	}
}

// SetAccount stores account data.
func (l *Ledger) SetAccount(address solana.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Accounts[address] = data
}

// GetAccount returns stored account data or domain.ErrNotFound.
func (l *Ledger) GetAccount(_ context.Context, address solana.PublicKey) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.AccountReads++
	data, ok := l.Accounts[address]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", address, domain.ErrNotFound)
	}
	return data, nil
}

// LatestBlockhash returns the configured blockhash.
func (l *Ledger) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.BlockhashReads++
	return l.Blockhash, nil
}

// SubmitAndConfirm records tx and returns its first signature.
func (l *Ledger) SubmitAndConfirm(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.SubmitErr != nil {
		return solana.Signature{}, l.SubmitErr
	}
	l.Submitted = append(l.Submitted, tx)
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, nil
	}
	return tx.Signatures[0], nil
}

// SubmittedCount returns the number of submitted transactions.
func (l *Ledger) SubmittedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Submitted)
}
