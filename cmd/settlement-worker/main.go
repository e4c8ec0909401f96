package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	kpub "github.com/radieske/season-betting/internal/bet-service/producer"
	"github.com/radieske/season-betting/internal/bet-service/repo"
	"github.com/radieske/season-betting/internal/settlement"
	"github.com/radieske/season-betting/internal/settlement/consumer"
	"github.com/radieske/season-betting/internal/settlement/pubsub"
	"github.com/radieske/season-betting/internal/settlement/scheduler"
	"github.com/radieske/season-betting/internal/shared/cache"
	"github.com/radieske/season-betting/internal/shared/config"
	"github.com/radieske/season-betting/internal/shared/kafka"
	"github.com/radieske/season-betting/internal/shared/logger"
	"github.com/radieske/season-betting/internal/shared/metrics"
	"github.com/radieske/season-betting/pkg/contracts/events"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := repo.Open(ctx, log, cfg)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	defer closeStore()

	m := metrics.NewSettlement(prometheus.DefaultRegisterer)
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_game_events_consumed_total", Help: "mensagens game_finalized consumidas"})
	prometheus.MustRegister(consumed)

	engine := settlement.New(log, store)
	engine.BatchSize = cfg.Settlement.BatchSize
	engine.StaleClaimAfter = cfg.Settlement.StaleClaimAfter
	engine.OnResolved = m.Resolved
	engine.OnContended = m.Contended
	engine.OnPending = m.Pending
	engine.OnRecovered = m.Recovered
	engine.OnError = m.Error
	engine.OnPass = m.PassDuration

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		engine.Notifiers = append(engine.Notifiers, pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel))
	}

	// passada periódica: primeiro devolve reservas expiradas, depois liquida
	runner := scheduler.NewRunner(log, "settlement-pass", cfg.Settlement.Interval, func(ctx context.Context) error {
		if _, err := engine.RecoverStaleClaims(ctx); err != nil {
			log.Warn("stale claim recovery failed", zap.Error(err))
		}
		_, err := engine.RunPass(ctx)
		return err
	})

	var wg sync.WaitGroup
	if len(kafka.Brokers(cfg.KafkaBrokers)) > 0 {
		settledW := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
		defer settledW.Close()
		engine.Notifiers = append(engine.Notifiers, kpub.NewKafkaPublisher(settledW, nil))

		// consumer group próprio: cada worker liquida a partida assim que ela fecha
		reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameFinalized, "settlement-worker")
		defer reader.Close()

		proc := &consumer.GameFinalizedProcessor{
			Log:    log,
			Reader: reader,
			Handle: func(ctx context.Context, ev events.GameFinalized) error {
				_, err := engine.SettleGame(ctx, ev.GameID)
				if err != nil {
					runner.Trigger()
				}
				return err
			},
			OnConsumed: consumed.Inc,
			OnError:    func(stage string) { m.Error("consume_" + stage) },
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("game_finalized consumer stopped", zap.Error(err))
			}
		}()
		log.Info("game_finalized consumer started", zap.String("topic", cfg.TopicGameFinalized))
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, store.Ping)

	log.Info("settlement-worker started",
		zap.Duration("interval", cfg.Settlement.Interval),
		zap.Duration("stale_after", cfg.Settlement.StaleClaimAfter),
		zap.Int("batch_size", cfg.Settlement.BatchSize),
	)
	runner.Run(ctx)
	wg.Wait()

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = metricsSrv.Shutdown(sctx)
	log.Info("settlement-worker stopped")
}
