// Package app turns a validated config into the components the binaries run.
package app

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"pool-sniper/internal/chain"
	"pool-sniper/internal/config"
	"pool-sniper/internal/sender"
	"pool-sniper/internal/storage"
	chstore "pool-sniper/internal/storage/clickhouse"
	"pool-sniper/internal/storage/memory"
	"pool-sniper/internal/storage/migrations"
	pgstore "pool-sniper/internal/storage/postgres"
	redisstore "pool-sniper/internal/storage/redis"
	"pool-sniper/internal/txbuilder"
)

// Stores holds the claim store and the optional journal. Journal is nil when
// journaling is disabled.
type Stores struct {
	Claims  storage.ClaimStore
	Journal storage.AttemptStore

	closers []func()
}

// Close releases every backend connection in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStores connects the configured claim and journal backends. Postgres is
// migrated once and shared when both use it.
func OpenStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Stores, error) {
	s := &Stores{}
	var pg *pgstore.Pool

	postgres := func() (*pgstore.Pool, error) {
		if pg != nil {
			return pg, nil
		}
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if len(applied) > 0 {
			log.WithField("migrations", applied).Info("Applied postgres migrations")
		}
		pg = pool
		return pg, nil
	}

	switch cfg.Claims.Backend {
	case config.BackendMemory:
		s.Claims = memory.NewClaimStore()
	case config.BackendPostgres:
		pool, err := postgres()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Claims = pgstore.NewClaimStore(pool)
	case config.BackendRedis:
		client, err := redisstore.New(ctx, redisstore.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { client.Close() })
		s.Claims = redisstore.NewClaimStore(client, cfg.Redis.KeyPrefix)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown claims backend %q", cfg.Claims.Backend)
	}

	switch cfg.Journal.Backend {
	case config.BackendNone:
	case config.BackendMemory:
		s.Journal = memory.NewAttemptStore()
	case config.BackendPostgres:
		pool, err := postgres()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Journal = pgstore.NewAttemptStore(pool)
	case config.BackendClickHouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Journal = chstore.NewAttemptStore(conn)
	default:
		s.Close()
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}

	log.WithFields(logrus.Fields{
		"claims":  cfg.Claims.Backend,
		"journal": cfg.Journal.Backend,
	}).Info("Storage ready")

	return s, nil
}

// NewLedger creates the RPC ledger client.
func NewLedger(cfg *config.Config) *chain.RPCLedger {
	return chain.NewRPCLedger(cfg.RPC.Endpoint,
		chain.WithCommitment(rpc.CommitmentType(cfg.RPC.Commitment)),
		chain.WithSkipPreflight(cfg.RPC.SkipPreflight),
		chain.WithConfirmTimeout(cfg.RPC.ConfirmTimeout),
		chain.WithPollInterval(cfg.RPC.PollInterval),
	)
}

// NewRelays creates one relay per configured sender, in config order. Every
// relay carries its configured name, tip policy and the dispatch attempt timeout.
func NewRelays(cfg *config.Config, builder *txbuilder.Builder, opts ...sender.RelayOption) ([]*sender.Relay, error) {
	relays := make([]*sender.Relay, 0, len(cfg.Dispatch.Senders))
	for _, s := range cfg.Dispatch.Senders {
		relayOpts := append([]sender.RelayOption{
			sender.WithName(s.Name),
			sender.WithTimeout(cfg.Dispatch.AttemptTimeout),
			sender.WithTipPolicy(s.TipPolicy()),
		}, opts...)

		var relay *sender.Relay
		switch s.Kind {
		case config.KindBloxroute:
			relay = sender.NewBloxroute(s.URL, s.AuthToken, builder, relayOpts...)
		case config.KindNextBlock:
			relay = sender.NewNextBlock(s.URL, s.AuthToken, builder, relayOpts...)
		case config.KindRelay:
			relay = sender.NewRelay(sender.RelayConfig{Name: s.Name, URL: s.URL, AuthToken: s.AuthToken}, builder, relayOpts...)
		default:
			return nil, fmt.Errorf("sender %q: unknown kind %q", s.Name, s.Kind)
		}
		relays = append(relays, relay)
	}
	return relays, nil
}

// NewDispatcher builds the configured dispatch strategy over relays and the
// direct ledger path.
func NewDispatcher(cfg *config.Config, ledger chain.Ledger, relays []*sender.Relay) (*sender.Dispatcher, error) {
	submitters := make([]sender.Submitter, len(relays))
	for i, r := range relays {
		submitters[i] = r
	}
	return sender.NewDispatcher(cfg.Dispatch.Mode, sender.NewDirect(ledger, cfg.RPC.ConfirmTimeout), submitters)
}

// FeedConfig derives the websocket feed settings. The subscription includes
// only transactions touching the target program.
func FeedConfig(cfg *config.Config) chain.WSFeedConfig {
	feed := chain.DefaultWSFeedConfig()
	feed.Endpoint = cfg.Stream.Endpoint
	feed.AuthToken = cfg.Stream.AuthToken
	if cfg.Stream.AuthHeader != "" {
		feed.AuthHeader = cfg.Stream.AuthHeader
	}
	if cfg.Stream.ConnectTimeout > 0 {
		feed.ConnectTimeout = cfg.Stream.ConnectTimeout
	}
	if cfg.Stream.ReadTimeout > 0 {
		feed.ReadTimeout = cfg.Stream.ReadTimeout
	}
	if cfg.Stream.PingInterval > 0 {
		feed.PingInterval = cfg.Stream.PingInterval
	}
	feed.Filter = chain.TransactionFilter{AccountInclude: []string{cfg.Programs.MeteoraAMM}}
	return feed
}
