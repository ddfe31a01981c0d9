package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	bhttp "github.com/dietbet/nfl-betting-platform/internal/bet-service/http"
	"github.com/dietbet/nfl-betting-platform/internal/betting"
	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/scores"
	sharedcache "github.com/dietbet/nfl-betting-platform/internal/shared/cache"
	"github.com/dietbet/nfl-betting-platform/internal/shared/config"
	"github.com/dietbet/nfl-betting-platform/internal/shared/db"
	"github.com/dietbet/nfl-betting-platform/internal/shared/logger"
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

	// Postgres
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

	// deps
	runner := storage.NewPgRunner(pg)
	led := ledger.NewPostgres(pg, cfg.StartingBalanceCents)
	events := eventstore.NewPostgres(pg, cfg.BettingCutoff)
	ws := wagers.NewPostgres(pg)
	liveScores := scores.New(rdb, 2*time.Minute)

	svc := betting.NewService(log, runner, led, events, ws, betting.Params{
		Cutoff:           cfg.BettingCutoff,
		MinStakeCents:    cfg.MinStakeCents,
		PayoutMultiplier: cfg.PayoutMultiplier,
		WagersPerPage:    cfg.WagersPerPage,
	})

	// HTTP público
	api := &bhttp.API{Log: log, Betting: svc, Scores: liveScores, Cutoff: cfg.BettingCutoff}
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("bet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
