package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/app"
	"pool-sniper/internal/chain"
	"pool-sniper/internal/config"
	"pool-sniper/internal/discovery"
	"pool-sniper/internal/logging"
	"pool-sniper/internal/meteora"
	"pool-sniper/internal/observability"
	"pool-sniper/internal/pipeline"
	"pool-sniper/internal/txbuilder"
)

// forceExitSlack is added to the shutdown grace before the process gives up
// on a clean exit.
const forceExitSlack = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateSniper(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		sig := <-sigCh
		log.Infof("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			log.Warnf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(cfg.Shutdown.Grace + forceExitSlack):
			log.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)
	close(done)
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Sniper stopped")
	}
	log.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var reporter observability.Reporter = observability.Nop{}
	if cfg.Metrics.Enabled {
		reporter = observability.NewMetrics(observability.DefaultNamespace, reg)
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr, reg, log); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

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
	dispatcher, err := app.NewDispatcher(cfg, ledger, relays)
	if err != nil {
		return err
	}

	programID, err := solana.PublicKeyFromBase58(cfg.Programs.MeteoraAMM)
	if err != nil {
		return fmt.Errorf("programs.meteora_amm: %w", err)
	}

	swapper := pipeline.NewSwapper(meteora.NewResolver(ledger), builder, dispatcher, cfg.VaultSwapAmounts(), log).
		WithJournal(stores.Journal).
		WithReporter(reporter).
		WithTimeout(cfg.Pipeline.SwapTimeout)
	tasks := pipeline.NewTaskGroup(cfg.Pipeline.MaxInFlight)
	detector := discovery.NewPoolDetector(programID, discovery.InitializePermissionlessPool)
	controller := pipeline.NewController(
		detector,
		discovery.NewClaimGate(stores.Claims),
		swapper,
		tasks,
		log,
	).WithReporter(reporter)

	feed := chain.NewWSFeed(app.FeedConfig(cfg), log, reporter)

	log.WithFields(logrus.Fields{
		"wallet":    builder.Owner().String(),
		"program":   detector.ProgramID().String(),
		"dispatch":  dispatcher.Mode(),
		"targets":   dispatcher.Targets(),
		"in_flight": cfg.Pipeline.MaxInFlight,
	}).Info("Sniper started")

	streamErr := app.RunFeed(ctx, feed, controller.HandleTransaction, app.ReconnectPolicy{
		Enabled: cfg.Stream.Reconnect,
		Delay:   cfg.Stream.ReconnectDelay,
	}, log)
	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		log.WithError(streamErr).Error("Transaction feed stopped")
	}

	log.WithField("grace", cfg.Shutdown.Grace.String()).Info("Draining in-flight swaps")
	if err := tasks.Shutdown(cfg.Shutdown.Grace); err != nil {
		log.WithError(err).Warn("In-flight swaps cancelled")
	}

	return streamErr
}
