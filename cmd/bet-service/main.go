package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	bhttp "github.com/radieske/season-betting/internal/bet-service/http"
	"github.com/radieske/season-betting/internal/bet-service/odds"
	"github.com/radieske/season-betting/internal/bet-service/placement"
	kpub "github.com/radieske/season-betting/internal/bet-service/producer"
	"github.com/radieske/season-betting/internal/bet-service/repo"
	"github.com/radieske/season-betting/internal/feed/ws"
	"github.com/radieske/season-betting/internal/settlement"
	"github.com/radieske/season-betting/internal/settlement/pubsub"
	"github.com/radieske/season-betting/internal/settlement/scheduler"
	"github.com/radieske/season-betting/internal/shared/cache"
	"github.com/radieske/season-betting/internal/shared/config"
	"github.com/radieske/season-betting/internal/shared/kafka"
	"github.com/radieske/season-betting/internal/shared/logger"
	"github.com/radieske/season-betting/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := repo.Open(ctx, log, cfg)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	defer closeStore()

	// Redis: cache de odds e Pub/Sub do feed /ws. Sem REDIS_ADDR ambos ficam desligados.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		log.Info("redis connected")
	}

	placementMetrics := metrics.NewPlacement(prometheus.DefaultRegisterer)
	settlementMetrics := metrics.NewSettlement(prometheus.DefaultRegisterer)

	// colocação
	var checker placement.OddsChecker
	var oddsCache *odds.Cache
	if rdb != nil {
		oddsCache = odds.NewCache(rdb, 6*time.Hour)
		checker = oddsCache
	}
	placer := placement.NewService(log, store, checker, placement.Hooks{
		OnPlaced:   placementMetrics.Placed,
		OnRejected: placementMetrics.Rejected,
	})

	// liquidação sob demanda (admin) e após registrar resultado
	engine := newEngine(log, cfg, store, settlementMetrics)
	if brokers := kafka.Brokers(cfg.KafkaBrokers); len(brokers) > 0 {
		settledW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
		defer settledW.Close()
		finalizedW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameFinalized)
		defer finalizedW.Close()

		publ := kpub.NewKafkaPublisher(settledW, finalizedW)
		engine.Notifiers = append(engine.Notifiers, publ)
		engine.Games = publ
		log.Info("kafka writers ready", zap.String("settled", cfg.TopicWagerSettled), zap.String("finalized", cfg.TopicGameFinalized))
	}

	api := &bhttp.API{
		Log:         log,
		Placer:      placer,
		Reader:      store,
		Settler:     engine,
		AdminSecret: cfg.AdminSecret,
	}
	if rdb != nil {
		engine.Notifiers = append(engine.Notifiers, pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel))
		api.Odds = oddsCache

		hub := ws.NewHub(log, func(*http.Request) bool { return true })
		ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)
		api.WS = http.HandlerFunc(hub.HandleWS)
	}
	if cfg.AdminSecret == "" {
		log.Warn("ADMIN_SECRET not set; /v1/admin disabled")
	}

	// em memória o worker não enxerga este store: a passada periódica roda aqui
	runnerDone := make(chan struct{})
	if cfg.Storage == "memory" {
		runner := newPassRunner(log, cfg, engine)
		go func() {
			defer close(runnerDone)
			runner.Run(ctx)
		}()
		log.Info("in-process settlement runner started", zap.Duration("interval", cfg.Settlement.Interval))
	} else {
		close(runnerDone)
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})

	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr), zap.String("storage", cfg.Storage))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(sctx)
	_ = metricsSrv.Shutdown(sctx)
	<-runnerDone
}

// newPassRunner devolve reservas expiradas e liquida, a cada intervalo
func newPassRunner(log *zap.Logger, cfg config.Config, engine *settlement.Engine) *scheduler.Runner {
	return scheduler.NewRunner(log, "settlement-pass", cfg.Settlement.Interval, func(ctx context.Context) error {
		if _, err := engine.RecoverStaleClaims(ctx); err != nil {
			log.Warn("stale claim recovery failed", zap.Error(err))
		}
		_, err := engine.RunPass(ctx)
		return err
	})
}

func newEngine(log *zap.Logger, cfg config.Config, store settlement.Store, m *metrics.Settlement) *settlement.Engine {
	e := settlement.New(log, store)
	e.BatchSize = cfg.Settlement.BatchSize
	e.StaleClaimAfter = cfg.Settlement.StaleClaimAfter
	e.OnResolved = m.Resolved
	e.OnContended = m.Contended
	e.OnPending = m.Pending
	e.OnRecovered = m.Recovered
	e.OnError = m.Error
	e.OnPass = m.PassDuration
	return e
}
