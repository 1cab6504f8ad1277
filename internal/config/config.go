// Package config loads the operator configuration for the sniper and bench binaries.
package config

import (
	"time"
)

// Sender kinds.
const (
	KindBloxroute = "bloxroute"
	KindNextBlock = "nextblock"
	KindRelay     = "relay"
)

// Backends for claims and the attempt journal.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	BackendClickHouse = "clickhouse"
)

// Bench modes.
const (
	BenchSwap      = "swap"
	BenchRelay     = "relay"
	BenchRelayRace = "relay-race"
)

// Config is the root configuration document.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Stream      StreamConfig      `yaml:"stream"`
	RPC         RPCConfig         `yaml:"rpc"`
	Programs    ProgramsConfig    `yaml:"programs"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Transaction TransactionConfig `yaml:"transaction"`
	VaultSwap   VaultSwapConfig   `yaml:"vault_swap"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Claims      ClaimsConfig      `yaml:"claims"`
	Journal     JournalConfig     `yaml:"journal"`
	Postgres    DatabaseConfig    `yaml:"postgres"`
	ClickHouse  DatabaseConfig    `yaml:"clickhouse"`
	Redis       RedisConfig       `yaml:"redis"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Shutdown    ShutdownConfig    `yaml:"shutdown"`
	Bench       BenchConfig       `yaml:"bench"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StreamConfig configures the transaction feed.
type StreamConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	AuthHeader     string        `yaml:"auth_header"`
	AuthToken      string        `yaml:"auth_token"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`

	// Reconnect restarts the feed after a transport failure.
	Reconnect      bool          `yaml:"reconnect"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type RPCConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Commitment     string        `yaml:"commitment"`
	SkipPreflight  bool          `yaml:"skip_preflight"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

type ProgramsConfig struct {
	MeteoraAMM string `yaml:"meteora_amm"`
}

type WalletConfig struct {
	// PrivateKey is the base58 encoded 64-byte keypair.
	PrivateKey string `yaml:"private_key"`
}

// TransactionConfig holds swap amounts in operator units: SOL for tip and buy
// amount, whole tokens (six decimals) for the minimum out.
type TransactionConfig struct {
	ComputeUnitLimit uint32  `yaml:"compute_unit_limit"`
	ComputeUnitPrice uint64  `yaml:"compute_unit_price"`
	TipSOL           float64 `yaml:"tip_sol"`
	BuyAmountSOL     float64 `yaml:"buy_amount_sol"`
	MinAmountOut     float64 `yaml:"min_amount_out"`
}

type VaultSwapConfig struct {
	AmountIn uint64 `yaml:"amount_in"`
	MinOut   uint64 `yaml:"min_out"`
}

type DispatchConfig struct {
	// Mode is direct, race or the name of one sender.
	Mode           string         `yaml:"mode"`
	AttemptTimeout time.Duration  `yaml:"attempt_timeout"`
	Senders        []SenderConfig `yaml:"senders"`
}

// SenderConfig describes one relay backend.
type SenderConfig struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	URL        string `yaml:"url"`
	AuthToken  string `yaml:"auth_token"`
	InjectTip  bool   `yaml:"inject_tip"`
	TipAccount string `yaml:"tip_account"`
}

type ClaimsConfig struct {
	Backend string `yaml:"backend"`
}

type JournalConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type PipelineConfig struct {
	// MaxInFlight bounds concurrent swaps; zero means unbounded.
	MaxInFlight int           `yaml:"max_in_flight"`
	SwapTimeout time.Duration `yaml:"swap_timeout"`
}

type ShutdownConfig struct {
	Grace time.Duration `yaml:"grace"`
}

// BenchConfig drives the repeated-swap harness.
type BenchConfig struct {
	Mode    string `yaml:"mode"`
	Repeats int    `yaml:"repeats"`

	// swap mode
	Pool   string `yaml:"pool"`
	TokenA string `yaml:"token_a"`

	// relay mode
	Token                  string `yaml:"token"`
	BondingCurve           string `yaml:"bonding_curve"`
	AssociatedBondingCurve string `yaml:"associated_bonding_curve"`
}
