// Command normalizer runs S2: the alert.raw to alert.normalized worker.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/cache"
	"github.com/hive-corporation/sentryline/pkg/config"
	"github.com/hive-corporation/sentryline/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hive-corporation/sentryline/internal/normalizer"
	"github.com/hive-corporation/sentryline/internal/store"
)

const stageName = "normalizer"

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("normalizer: failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	redisCache, err := cache.New(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("normalizer: failed to connect to redis: %v", err)
	}
	defer redisCache.Close()

	alertStore := store.NewAlertStore(dbPool)

	kafka, err := broker.NewKafkaBroker(broker.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		ClientID:      "sentryline-normalizer",
	})
	if err != nil {
		log.Fatalf("normalizer: failed to connect to broker: %v", err)
	}
	defer kafka.Close()

	metrics.Init()

	dedupWindow := time.Duration(cfg.DedupWindowSeconds) * time.Second
	svc := normalizer.NewService(redisCache, alertStore, kafka, dedupWindow)

	go metrics.ServeHTTP(cfg.MetricsAddr)

	go func() {
		handler := metrics.Instrument(stageName, svc.HandleRaw)
		if err := kafka.Consume(ctx, []string{broker.TopicIngested}, handler); err != nil && ctx.Err() == nil {
			log.Fatalf("normalizer: consume loop exited: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("normalizer: shutting down")
	cancel()
}
