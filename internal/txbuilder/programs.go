package txbuilder

import "github.com/gagliardetto/solana-go"

// Bonding-curve program used by the buy template.
var (
	PumpProgramID      = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpGlobal         = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	PumpFeeRecipient   = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	PumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// VaultProgramID receives the pool-vault swap.
var VaultProgramID = solana.MustPublicKeyFromBase58("VaUxxjEnqCVAGKXxkWb6rcm54WBo7Mgb6bhFbp5Rm6p")

// DefaultTipAccount receives tips for relays that require one.
var DefaultTipAccount = solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY")

// buySelector is the little-endian u64 16927863322537952870.
var buySelector = [8]byte{0x66, 0x06, 0x3d, 0x12, 0x01, 0xda, 0xeb, 0xea}

const vaultSwapDiscriminator byte = 1

// createIdempotent is the associated token account instruction that
// succeeds when the account already exists.
const createIdempotent byte = 1

// maxTransactionSize is the largest serialized transaction a packet carries.
const maxTransactionSize = 1232
