package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// WrappedSOLMint is the SPL mint of wrapped native SOL.
var WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// PoolEvent is a detected pool creation.
type PoolEvent struct {
	Pool   solana.PublicKey
	TokenA solana.PublicKey
	TokenB solana.PublicKey

	// Source transaction that carried the pool-init instruction.
	Signature solana.Signature
	Slot      uint64

	DetectedAt time.Time
}

// HasMint reports whether either side of the pool is mint.
func (e PoolEvent) HasMint(mint solana.PublicKey) bool {
	return e.TokenA.Equals(mint) || e.TokenB.Equals(mint)
}
