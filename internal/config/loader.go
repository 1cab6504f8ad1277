package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"pool-sniper/internal/discovery"
	"pool-sniper/internal/observability"
	"pool-sniper/internal/sender"
)

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Stream: StreamConfig{
			AuthHeader:     "x-token",
			ConnectTimeout: 15 * time.Second,
			ReadTimeout:    60 * time.Second,
			PingInterval:   30 * time.Second,
			ReconnectDelay: 2 * time.Second,
		},
		RPC: RPCConfig{
			Commitment:     "confirmed",
			ConfirmTimeout: 30 * time.Second,
			PollInterval:   500 * time.Millisecond,
		},
		Programs:  ProgramsConfig{MeteoraAMM: discovery.MeteoraAMMProgramID.String()},
		VaultSwap: VaultSwapConfig{AmountIn: 100_000_000, MinOut: 1},
		Dispatch: DispatchConfig{
			Mode:           sender.ModeRace,
			AttemptTimeout: sender.DefaultAttemptTimeout,
		},
		Claims:   ClaimsConfig{Backend: BackendMemory},
		Journal:  JournalConfig{Backend: BackendNone},
		Redis:    RedisConfig{KeyPrefix: "sniper:claim:"},
		Metrics:  MetricsConfig{Enabled: true, Addr: observability.DefaultAddr},
		Pipeline: PipelineConfig{SwapTimeout: 30 * time.Second},
		Shutdown: ShutdownConfig{Grace: 30 * time.Second},
		Bench:    BenchConfig{Mode: BenchSwap, Repeats: 1},
	}
}

// Load reads a YAML configuration file on top of Defaults. A .env file in the
// working directory is loaded first when present, and ${VAR} references in
// the YAML are expanded from the environment. The result is not validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Defaults()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	for i := range cfg.Dispatch.Senders {
		s := &cfg.Dispatch.Senders[i]
		if s.Kind == "" {
			s.Kind = KindRelay
		}
		if s.Name == "" {
			s.Name = s.Kind
		}
	}

	return &cfg, nil
}
