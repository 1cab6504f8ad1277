package txbuilder

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"

	"pool-sniper/internal/domain"
	"pool-sniper/internal/meteora"
)

// BlockhashSource provides recent blockhashes.
type BlockhashSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder assembles and signs outbound transactions.
type Builder struct {
	cfg    TransactionConfig
	owner  solana.PublicKey
	hashes BlockhashSource
}

// NewBuilder creates a builder. hashes is only needed by BuildVaultSwap.
func NewBuilder(cfg TransactionConfig, hashes BlockhashSource) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		cfg:    cfg,
		owner:  cfg.Signer.PublicKey(),
		hashes: hashes,
	}, nil
}

// Owner returns the signing wallet.
func (b *Builder) Owner() solana.PublicKey {
	return b.owner
}

// BuildBuy assembles the bonding-curve buy: compute budget, optional tip,
// idempotent ATA creation, then the buy instruction. The message is v0.
func (b *Builder) BuildBuy(policy TipPolicy, blockhash solana.Hash, mint, bondingCurve, associatedBondingCurve solana.PublicKey) (*solana.Transaction, error) {
	instructions, err := b.prelude()
	if err != nil {
		return nil, err
	}

	if policy.Inject && b.cfg.TipLamports > 0 {
		tipAccount := policy.Account
		if tipAccount.IsZero() {
			tipAccount = DefaultTipAccount
		}
		tip, err := system.NewTransferInstruction(b.cfg.TipLamports, b.owner, tipAccount).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("%w: tip instruction: %w", domain.ErrBuild, err)
		}
		instructions = append(instructions, tip)
	}

	ata, createATA, err := b.associatedAccount(mint)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, createATA)

	data := make([]byte, 0, 24)
	data = append(data, buySelector[:]...)
	data = binary.LittleEndian.AppendUint64(data, b.cfg.MinAmountOut)
	data = binary.LittleEndian.AppendUint64(data, b.cfg.BuyAmount)

	instructions = append(instructions, solana.NewInstruction(PumpProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(PumpGlobal, false, false),
		solana.NewAccountMeta(PumpFeeRecipient, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(bondingCurve, true, false),
		solana.NewAccountMeta(associatedBondingCurve, true, false),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(b.owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		solana.NewAccountMeta(PumpEventAuthority, false, false),
		solana.NewAccountMeta(PumpProgramID, false, false),
	}, data))

	return b.compile(instructions, blockhash)
}

// BuildVaultSwap fetches a fresh blockhash and compiles the pool-vault swap.
func (b *Builder) BuildVaultSwap(ctx context.Context, pool solana.PublicKey, state *meteora.PoolState, userMint solana.PublicKey, amounts VaultSwapAmounts) (*solana.Transaction, error) {
	if b.hashes == nil {
		return nil, fmt.Errorf("%w: no blockhash source", domain.ErrBuild)
	}
	blockhash, err := b.hashes.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	return b.CompileVaultSwap(pool, state, userMint, amounts, blockhash)
}

// CompileVaultSwap assembles the pool-vault swap against blockhash:
// compute budget, idempotent ATA creation for userMint, then the swap with
// eleven accounts drawn from state. The message is v0 without lookup tables.
func (b *Builder) CompileVaultSwap(pool solana.PublicKey, state *meteora.PoolState, userMint solana.PublicKey, amounts VaultSwapAmounts, blockhash solana.Hash) (*solana.Transaction, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil pool state", domain.ErrBuild)
	}

	instructions, err := b.prelude()
	if err != nil {
		return nil, err
	}

	ata, createATA, err := b.associatedAccount(userMint)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, createATA)

	data := make([]byte, 0, 17)
	data = append(data, vaultSwapDiscriminator)
	data = binary.LittleEndian.AppendUint64(data, amounts.AmountIn)
	data = binary.LittleEndian.AppendUint64(data, amounts.MinOut)

	instructions = append(instructions, solana.NewInstruction(VaultProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(pool, false, false),
		solana.NewAccountMeta(state.AVault, true, false),
		solana.NewAccountMeta(state.BVault, true, false),
		solana.NewAccountMeta(state.TokenAMint, true, false),
		solana.NewAccountMeta(state.TokenBMint, true, false),
		solana.NewAccountMeta(state.AVaultLP, true, false),
		solana.NewAccountMeta(state.BVaultLP, true, false),
		solana.NewAccountMeta(state.ProtocolTokenAFee, false, false),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(b.owner, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, data))

	return b.compile(instructions, blockhash)
}

// prelude returns the compute budget directives, each only when configured.
func (b *Builder) prelude() ([]solana.Instruction, error) {
	instructions := make([]solana.Instruction, 0, 6)
	if b.cfg.ComputeUnitLimit > 0 {
		ix, err := computebudget.NewSetComputeUnitLimitInstruction(b.cfg.ComputeUnitLimit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("%w: compute unit limit instruction: %w", domain.ErrBuild, err)
		}
		instructions = append(instructions, ix)
	}
	if b.cfg.ComputeUnitPrice > 0 {
		ix, err := computebudget.NewSetComputeUnitPriceInstruction(b.cfg.ComputeUnitPrice).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("%w: compute unit price instruction: %w", domain.ErrBuild, err)
		}
		instructions = append(instructions, ix)
	}
	return instructions, nil
}

// associatedAccount derives the owner's token account for mint and the
// instruction that creates it if missing.
func (b *Builder) associatedAccount(mint solana.PublicKey) (solana.PublicKey, solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(b.owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("%w: associated token address for %s: %w", domain.ErrBuild, mint, err)
	}

	ix := solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(b.owner, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(b.owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}, []byte{createIdempotent})

	return ata, ix, nil
}

func (b *Builder) compile(instructions []solana.Instruction, blockhash solana.Hash) (*solana.Transaction, error) {
	if blockhash == (solana.Hash{}) {
		return nil, fmt.Errorf("%w: missing recent blockhash", domain.ErrBuild)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(b.owner))
	if err != nil {
		return nil, fmt.Errorf("%w: compile message: %w", domain.ErrBuild, err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)

	signer := b.cfg.Signer
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(b.owner) {
			return &signer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: sign: %w", domain.ErrBuild, err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", domain.ErrBuild, err)
	}
	if len(raw) > maxTransactionSize {
		return nil, fmt.Errorf("%w: transaction is %d bytes, limit %d", domain.ErrBuild, len(raw), maxTransactionSize)
	}

	return tx, nil
}
