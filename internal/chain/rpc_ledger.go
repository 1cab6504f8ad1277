package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"pool-sniper/internal/domain"
)

// Default configuration values.
const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// RPCLedger implements Ledger on top of the solana-go JSON-RPC client.
type RPCLedger struct {
	client         *rpc.Client
	commitment     rpc.CommitmentType
	skipPreflight  bool
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

var _ Ledger = (*RPCLedger)(nil)

// LedgerOption configures RPCLedger.
type LedgerOption func(*RPCLedger)

// WithCommitment sets the commitment for reads and confirmation.
func WithCommitment(c rpc.CommitmentType) LedgerOption {
	return func(l *RPCLedger) {
		l.commitment = c
	}
}

// WithSkipPreflight disables simulation before submission.
func WithSkipPreflight(skip bool) LedgerOption {
	return func(l *RPCLedger) {
		l.skipPreflight = skip
	}
}

// WithConfirmTimeout bounds SubmitAndConfirm.
func WithConfirmTimeout(d time.Duration) LedgerOption {
	return func(l *RPCLedger) {
		l.confirmTimeout = d
	}
}

// WithPollInterval sets the signature status polling interval.
func WithPollInterval(d time.Duration) LedgerOption {
	return func(l *RPCLedger) {
		l.pollInterval = d
	}
}

// NewRPCLedger creates a ledger client for endpoint.
func NewRPCLedger(endpoint string, opts ...LedgerOption) *RPCLedger {
	l := &RPCLedger{
		client:         rpc.New(endpoint),
		commitment:     rpc.CommitmentConfirmed,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetAccount returns the account data at address.
func (l *RPCLedger) GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	out, err := l.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: l.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", address, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get account %s: %w", domain.ErrTransport, address, err)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, fmt.Errorf("account %s: %w", address, domain.ErrNotFound)
	}
	return out.Value.Data.GetBinary(), nil
}

// LatestBlockhash returns the most recent blockhash at the configured commitment.
func (l *RPCLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := l.client.GetLatestBlockhash(ctx, l.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("%w: latest blockhash: %w", domain.ErrTransport, err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("%w: latest blockhash: empty response", domain.ErrTransport)
	}
	return out.Value.Blockhash, nil
}

// SubmitAndConfirm sends tx and polls its status until it reaches the
// configured commitment, fails on-chain, or the confirm timeout expires.
func (l *RPCLedger) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := l.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       l.skipPreflight,
		PreflightCommitment: l.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: send transaction: %w", domain.ErrDispatch, err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return sig, fmt.Errorf("%w: confirm %s: %w", domain.ErrTransport, sig, ctx.Err())
		case <-ticker.C:
		}

		out, err := l.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			// Transient; keep polling until the deadline.
			continue
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}

		status := out.Value[0]
		if status.Err != nil {
			return sig, fmt.Errorf("%w: transaction %s failed on-chain: %v", domain.ErrDispatch, sig, status.Err)
		}
		if reached(status.ConfirmationStatus, l.commitment) {
			return sig, nil
		}
	}
}

// reached reports whether status satisfies the wanted commitment.
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}
