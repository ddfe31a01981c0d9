package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/feedsync"
	"github.com/dietbet/nfl-betting-platform/internal/scores"
	sharedcache "github.com/dietbet/nfl-betting-platform/internal/shared/cache"
	"github.com/dietbet/nfl-betting-platform/internal/shared/config"
	"github.com/dietbet/nfl-betting-platform/internal/shared/db"
	"github.com/dietbet/nfl-betting-platform/internal/shared/kafka"
	"github.com/dietbet/nfl-betting-platform/internal/shared/logger"
	"github.com/dietbet/nfl-betting-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres (event store)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis (snapshot de placar ao vivo)
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic event_settlement)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettlement)
	defer writer.Close()

	// Métricas Prometheus do pipeline de ingest
	polls := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_sync_polls_total", Help: "polls executados"})
	terminal := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_sync_terminal_events_total", Help: "eventos que viraram terminais"})
	prometheus.MustRegister(polls, terminal)

	store := eventstore.NewPostgres(pg, cfg.BettingCutoff)
	liveScores := scores.New(rdb, 2*time.Minute)
	signaler := feedsync.NewKafkaSignaler(writer)
	sync := feedsync.NewSynchronizer(log, store, liveScores, countingSettler{signaler, terminal})

	client := feedsync.NewClient(cfg.FeedBaseURL)
	poller := &feedsync.Poller{
		Log:      log,
		Client:   client,
		Sync:     sync,
		Interval: cfg.FeedPollInterval,
		OnPoll:   func() { polls.Inc() },
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Stream push opcional; o poller continua sendo a fonte de verdade
	if cfg.FeedWSURL != "" {
		stream := &feedsync.Stream{URL: cfg.FeedWSURL, Log: log, Sync: sync}
		go stream.Run(ctx)
	}

	log.Info("feed-sync-worker started", zap.Duration("interval", cfg.FeedPollInterval))
	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("poller stopped with error", zap.Error(err))
	}
	log.Info("feed-sync-worker stopped")
}

// countingSettler incrementa a métrica de eventos terminais antes de publicar
type countingSettler struct {
	inner    feedsync.Settler
	terminal prometheus.Counter
}

func (c countingSettler) SignalSettlement(ctx context.Context, ev eventstore.Event) error {
	if err := c.inner.SignalSettlement(ctx, ev); err != nil {
		return err
	}
	c.terminal.Inc()
	return nil
}
