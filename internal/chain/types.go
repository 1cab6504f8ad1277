package chain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RawEvent is one transaction delivered by the feed together with its
// execution metadata. It is handled once and never persisted.
type RawEvent struct {
	Signature   solana.Signature
	Slot        uint64
	Transaction *solana.Transaction
	Meta        *rpc.TransactionMeta
}

// Failed reports whether the transaction failed on-chain.
func (e RawEvent) Failed() bool {
	return e.Meta != nil && e.Meta.Err != nil
}
