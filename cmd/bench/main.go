package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/app"
	"pool-sniper/internal/bench"
	"pool-sniper/internal/config"
	"pool-sniper/internal/logging"
	"pool-sniper/internal/meteora"
	"pool-sniper/internal/sender"
	"pool-sniper/internal/txbuilder"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	mode := flag.String("mode", "", "Bench mode: swap, relay or relay-race (overrides bench.mode)")
	repeats := flag.Int("repeats", 0, "Swaps or relay rounds to run (overrides bench.repeats)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Bench.Mode = *mode
	}
	if *repeats > 0 {
		cfg.Bench.Repeats = *repeats
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateBench(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Bench failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	ledger := app.NewLedger(cfg)

	builderCfg, err := cfg.BuilderConfig()
	if err != nil {
		return err
	}
	builder, err := txbuilder.NewBuilder(builderCfg, ledger)
	if err != nil {
		return fmt.Errorf("create builder: %w", err)
	}

	relays, err := app.NewRelays(cfg, builder)
	if err != nil {
		return err
	}
	senders := make([]sender.Sender, len(relays))
	for i, r := range relays {
		senders[i] = r
	}

	runner := bench.NewRunner(
		meteora.NewResolver(ledger),
		builder,
		ledger,
		sender.NewDirect(ledger, cfg.RPC.ConfirmTimeout),
		senders,
		cfg.VaultSwapAmounts(),
		log,
	)

	log.WithFields(logrus.Fields{
		"mode":    cfg.Bench.Mode,
		"repeats": cfg.Bench.Repeats,
		"wallet":  builder.Owner().String(),
	}).Info("Bench started")

	switch cfg.Bench.Mode {
	case config.BenchSwap:
		report, err := runner.RunSwaps(ctx, bench.SwapTarget{
			Pool:   solana.MustPublicKeyFromBase58(cfg.Bench.Pool),
			TokenA: solana.MustPublicKeyFromBase58(cfg.Bench.TokenA),
		}, cfg.Bench.Repeats)
		if err != nil {
			return err
		}
		if report.Succeeded == 0 {
			return fmt.Errorf("all %d swaps failed", report.Failed)
		}
		return nil

	case config.BenchRelay, config.BenchRelayRace:
		target := bench.RelayTarget{
			Token:                  solana.MustPublicKeyFromBase58(cfg.Bench.Token),
			BondingCurve:           solana.MustPublicKeyFromBase58(cfg.Bench.BondingCurve),
			AssociatedBondingCurve: solana.MustPublicKeyFromBase58(cfg.Bench.AssociatedBondingCurve),
		}
		if cfg.Bench.Mode == config.BenchRelayRace {
			_, err := runner.RaceRelays(ctx, target, cfg.Bench.Repeats)
			return err
		}
		_, err := runner.RunRelays(ctx, target, cfg.Bench.Repeats)
		return err

	default:
		return fmt.Errorf("unknown bench mode %q", cfg.Bench.Mode)
	}
}
