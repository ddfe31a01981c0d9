package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/settlement"
	"github.com/dietbet/nfl-betting-platform/internal/settlement-worker/consumer"
	"github.com/dietbet/nfl-betting-platform/internal/shared/config"
	"github.com/dietbet/nfl-betting-platform/internal/shared/db"
	"github.com/dietbet/nfl-betting-platform/internal/shared/kafka"
	"github.com/dietbet/nfl-betting-platform/internal/shared/logger"
	"github.com/dietbet/nfl-betting-platform/internal/shared/metrics"
	"github.com/dietbet/nfl-betting-platform/internal/storage"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka: consumer group do worker + writer da DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventSettlement, "settlement-worker")
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventSettlementDLQ)
	defer dlq.Close()

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_signals_consumed_total", Help: "sinais consumidos"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_settled_total", Help: "apostas liquidadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	runner := storage.NewPgRunner(pg)
	led := ledger.NewPostgres(pg, cfg.StartingBalanceCents)
	events := eventstore.NewPostgres(pg, cfg.BettingCutoff)
	ws := wagers.NewPostgres(pg)
	engine := settlement.NewEngine(log, runner, led, events, ws)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Engine:     engine,
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnSettled:  func(n int) { settled.Add(float64(n)) },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
