package txbuilder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"pool-sniper/internal/domain"
)

// TransactionConfig is the operator policy shared by every build.
type TransactionConfig struct {
	Signer solana.PrivateKey

	// ComputeUnitLimit and ComputeUnitPrice (micro-lamports) are emitted only when non-zero.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	TipLamports  uint64
	BuyAmount    uint64
	MinAmountOut uint64
}

// Validate checks that the config can sign transactions.
func (c TransactionConfig) Validate() error {
	if len(c.Signer) != 64 {
		return fmt.Errorf("%w: signer key must be 64 bytes, got %d", domain.ErrBuild, len(c.Signer))
	}
	return nil
}

// TipPolicy decides whether a tip transfer is prepended to a buy.
type TipPolicy struct {
	Inject  bool
	Account solana.PublicKey
}

// NoTip never injects a tip.
var NoTip = TipPolicy{}

// VaultSwapAmounts are the arguments of the pool-vault swap.
type VaultSwapAmounts struct {
	AmountIn uint64
	MinOut   uint64
}
