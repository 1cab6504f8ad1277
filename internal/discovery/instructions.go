package discovery

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"pool-sniper/internal/domain"
)

// AccountRef is a resolved instruction account.
type AccountRef struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a top-level or inner instruction with its program id and
// accounts resolved against the transaction's key table.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []AccountRef
	Data      []byte

	// Outer is the index of the top-level instruction this one belongs to.
	Outer int
	// Inner is true for instructions recorded in the metadata's inner groups.
	Inner bool
}

// keyTable is the combined static + loaded account key table of a transaction.
type keyTable struct {
	keys         solana.PublicKeySlice
	header       solana.MessageHeader
	static       int
	loadedWrites int
}

func newKeyTable(tx *solana.Transaction, meta *rpc.TransactionMeta) keyTable {
	keys := make(solana.PublicKeySlice, 0,
		len(tx.Message.AccountKeys)+len(meta.LoadedAddresses.Writable)+len(meta.LoadedAddresses.ReadOnly))
	keys = append(keys, tx.Message.AccountKeys...)
	keys = append(keys, meta.LoadedAddresses.Writable...)
	keys = append(keys, meta.LoadedAddresses.ReadOnly...)

	return keyTable{
		keys:         keys,
		header:       tx.Message.Header,
		static:       len(tx.Message.AccountKeys),
		loadedWrites: len(meta.LoadedAddresses.Writable),
	}
}

func (k keyTable) resolve(idx uint16) (AccountRef, error) {
	i := int(idx)
	if i >= len(k.keys) {
		return AccountRef{}, fmt.Errorf("%w: account index %d out of range (%d keys)", domain.ErrDecode, i, len(k.keys))
	}

	ref := AccountRef{PublicKey: k.keys[i]}
	if i < k.static {
		signers := int(k.header.NumRequiredSignatures)
		ref.IsSigner = i < signers
		if ref.IsSigner {
			ref.IsWritable = i < signers-int(k.header.NumReadonlySignedAccounts)
		} else {
			ref.IsWritable = i < k.static-int(k.header.NumReadonlyUnsignedAccounts)
		}
		return ref, nil
	}

	ref.IsWritable = i < k.static+k.loadedWrites
	return ref, nil
}

func (k keyTable) instruction(ci solana.CompiledInstruction, outer int, inner bool) (Instruction, error) {
	program, err := k.resolve(ci.ProgramIDIndex)
	if err != nil {
		return Instruction{}, fmt.Errorf("program id: %w", err)
	}

	accounts := make([]AccountRef, 0, len(ci.Accounts))
	for _, idx := range ci.Accounts {
		ref, err := k.resolve(idx)
		if err != nil {
			return Instruction{}, err
		}
		accounts = append(accounts, ref)
	}

	return Instruction{
		ProgramID: program.PublicKey,
		Accounts:  accounts,
		Data:      []byte(ci.Data),
		Outer:     outer,
		Inner:     inner,
	}, nil
}

// fromRPCInstruction converts an inner instruction as reported in the
// transaction metadata into its message form.
func fromRPCInstruction(ci rpc.CompiledInstruction) solana.CompiledInstruction {
	return solana.CompiledInstruction{
		ProgramIDIndex: ci.ProgramIDIndex,
		Accounts:       ci.Accounts,
		Data:           ci.Data,
	}
}

// ExtractInstructions returns every instruction the transaction executed in
// execution order: each top-level instruction followed by its inner (CPI)
// instructions. Returns an error wrapping domain.ErrDecode when the metadata
// is missing or references accounts or instructions that do not exist.
func ExtractInstructions(tx *solana.Transaction, meta *rpc.TransactionMeta) ([]Instruction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", domain.ErrDecode)
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: nil transaction meta", domain.ErrDecode)
	}

	keys := newKeyTable(tx, meta)
	outer := tx.Message.Instructions

	innerByIndex := make(map[int][]solana.CompiledInstruction, len(meta.InnerInstructions))
	for _, group := range meta.InnerInstructions {
		idx := int(group.Index)
		if idx >= len(outer) {
			return nil, fmt.Errorf("%w: inner group for missing instruction %d", domain.ErrDecode, idx)
		}
		for _, ci := range group.Instructions {
			innerByIndex[idx] = append(innerByIndex[idx], fromRPCInstruction(ci))
		}
	}

	result := make([]Instruction, 0, len(outer))
	for i, ci := range outer {
		ix, err := keys.instruction(ci, i, false)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		result = append(result, ix)

		for j, inner := range innerByIndex[i] {
			ix, err := keys.instruction(inner, i, true)
			if err != nil {
				return nil, fmt.Errorf("instruction %d inner %d: %w", i, j, err)
			}
			result = append(result, ix)
		}
	}

	return result, nil
}
