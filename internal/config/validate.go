package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"pool-sniper/internal/sender"
	"pool-sniper/internal/txbuilder"
)

const (
	lamportsPerSOL   = 1_000_000_000
	tokenBaseUnits   = 1_000_000
	privateKeyLength = 64
)

// Validate checks the parts of the config every binary needs.
func (c *Config) Validate() error {
	var errs []error

	if c.RPC.Endpoint == "" {
		errs = append(errs, errors.New("rpc.endpoint is required"))
	}
	if _, err := c.PrivateKey(); err != nil {
		errs = append(errs, err)
	}
	if _, err := solana.PublicKeyFromBase58(c.Programs.MeteoraAMM); err != nil {
		errs = append(errs, fmt.Errorf("programs.meteora_amm: %w", err))
	}

	for _, v := range []struct {
		name  string
		value float64
		units float64
	}{
		{"transaction.tip_sol", c.Transaction.TipSOL, lamportsPerSOL},
		{"transaction.buy_amount_sol", c.Transaction.BuyAmountSOL, lamportsPerSOL},
		{"transaction.min_amount_out", c.Transaction.MinAmountOut, tokenBaseUnits},
	} {
		switch {
		case v.value < 0 || math.IsNaN(v.value) || math.IsInf(v.value, 0):
			errs = append(errs, fmt.Errorf("%s must be a non-negative number", v.name))
		case math.Round(v.value*v.units) >= math.MaxUint64:
			// base units must fit in a uint64
			errs = append(errs, fmt.Errorf("%s must be below %g", v.name, math.MaxUint64/v.units))
		}
	}

	names := make(map[string]bool, len(c.Dispatch.Senders))
	for i, s := range c.Dispatch.Senders {
		switch s.Kind {
		case KindBloxroute, KindNextBlock, KindRelay:
		default:
			errs = append(errs, fmt.Errorf("dispatch.senders[%d]: unknown kind %q", i, s.Kind))
		}
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("dispatch.senders[%d]: url is required", i))
		}
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("dispatch.senders[%d]: duplicate name %q", i, s.Name))
		}
		names[s.Name] = true
		if s.TipAccount != "" {
			if _, err := solana.PublicKeyFromBase58(s.TipAccount); err != nil {
				errs = append(errs, fmt.Errorf("dispatch.senders[%d].tip_account: %w", i, err))
			}
		}
	}

	switch c.Dispatch.Mode {
	case sender.ModeDirect:
	case sender.ModeRace:
		if len(c.Dispatch.Senders) == 0 {
			errs = append(errs, errors.New("dispatch.mode race requires at least one sender"))
		}
	default:
		if !names[c.Dispatch.Mode] {
			errs = append(errs, fmt.Errorf("dispatch.mode %q names no configured sender", c.Dispatch.Mode))
		}
	}

	switch c.Claims.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("claims.backend postgres requires postgres.dsn"))
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("claims.backend redis requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("claims.backend: unknown backend %q", c.Claims.Backend))
	}

	switch c.Journal.Backend {
	case BackendNone, BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("journal.backend postgres requires postgres.dsn"))
		}
	case BackendClickHouse:
		if c.ClickHouse.DSN == "" {
			errs = append(errs, errors.New("journal.backend clickhouse requires clickhouse.dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("journal.backend: unknown backend %q", c.Journal.Backend))
	}

	if c.Pipeline.MaxInFlight < 0 {
		errs = append(errs, errors.New("pipeline.max_in_flight must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateSniper additionally checks the stream settings.
func (c *Config) ValidateSniper() error {
	err := c.Validate()
	if c.Stream.Endpoint == "" {
		err = errors.Join(err, errors.New("stream.endpoint is required"))
	}
	return err
}

// ValidateBench additionally checks the bench target accounts.
func (c *Config) ValidateBench() error {
	err := c.Validate()
	if c.Bench.Repeats <= 0 {
		err = errors.Join(err, errors.New("bench.repeats must be positive"))
	}

	var keys map[string]string
	switch c.Bench.Mode {
	case BenchSwap:
		keys = map[string]string{"bench.pool": c.Bench.Pool, "bench.token_a": c.Bench.TokenA}
	case BenchRelay, BenchRelayRace:
		if len(c.Dispatch.Senders) == 0 {
			err = errors.Join(err, fmt.Errorf("bench.mode %s requires at least one sender", c.Bench.Mode))
		}
		keys = map[string]string{
			"bench.token":                    c.Bench.Token,
			"bench.bonding_curve":            c.Bench.BondingCurve,
			"bench.associated_bonding_curve": c.Bench.AssociatedBondingCurve,
		}
	default:
		return errors.Join(err, fmt.Errorf("bench.mode: unknown mode %q", c.Bench.Mode))
	}
	for name, value := range keys {
		if _, keyErr := solana.PublicKeyFromBase58(value); keyErr != nil {
			err = errors.Join(err, fmt.Errorf("%s: %w", name, keyErr))
		}
	}
	return err
}

// PrivateKey decodes the wallet key.
func (c *Config) PrivateKey() (solana.PrivateKey, error) {
	if c.Wallet.PrivateKey == "" {
		return nil, errors.New("wallet.private_key is required")
	}
	raw, err := base58.Decode(c.Wallet.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("wallet.private_key: %w", err)
	}
	if len(raw) != privateKeyLength {
		return nil, fmt.Errorf("wallet.private_key: expected %d bytes, got %d", privateKeyLength, len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// BuilderConfig converts the transaction settings to base units.
func (c *Config) BuilderConfig() (txbuilder.TransactionConfig, error) {
	key, err := c.PrivateKey()
	if err != nil {
		return txbuilder.TransactionConfig{}, err
	}
	return txbuilder.TransactionConfig{
		Signer:           key,
		ComputeUnitLimit: c.Transaction.ComputeUnitLimit,
		ComputeUnitPrice: c.Transaction.ComputeUnitPrice,
		TipLamports:      SOLToLamports(c.Transaction.TipSOL),
		BuyAmount:        SOLToLamports(c.Transaction.BuyAmountSOL),
		MinAmountOut:     uint64(math.Round(c.Transaction.MinAmountOut * tokenBaseUnits)),
	}, nil
}

// VaultSwapAmounts returns the Template B amounts.
func (c *Config) VaultSwapAmounts() txbuilder.VaultSwapAmounts {
	return txbuilder.VaultSwapAmounts{AmountIn: c.VaultSwap.AmountIn, MinOut: c.VaultSwap.MinOut}
}

// TipPolicy returns the tip policy of a sender.
func (s SenderConfig) TipPolicy() txbuilder.TipPolicy {
	policy := txbuilder.TipPolicy{Inject: s.InjectTip}
	if s.TipAccount != "" {
		policy.Account = solana.MustPublicKeyFromBase58(s.TipAccount)
	}
	return policy
}

// SOLToLamports converts SOL to lamports, rounding to the nearest lamport.
func SOLToLamports(sol float64) uint64 {
	return uint64(math.Round(sol * lamportsPerSOL))
}
