package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Ledger defines the point queries and submission path used against the
// cluster RPC.
type Ledger interface {
	// GetAccount returns raw account data. Returns an error wrapping
	// domain.ErrNotFound when the account does not exist.
	GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)

	// LatestBlockhash returns a recent blockhash for message compilation.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// SubmitAndConfirm sends a signed transaction and waits until it is
	// confirmed or fails on-chain.
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}
