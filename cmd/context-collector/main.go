// Command context-collector runs S3: alert.normalized to alert.enriched.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/cache"
	"github.com/hive-corporation/sentryline/pkg/config"
	"github.com/hive-corporation/sentryline/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hive-corporation/sentryline/internal/contextcollector"
	"github.com/hive-corporation/sentryline/internal/contextcollector/providers"
	"github.com/hive-corporation/sentryline/internal/store"
)

const stageName = "context-collector"

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("%s: failed to connect to database: %v", stageName, err)
	}
	defer dbPool.Close()

	redisCache, err := cache.New(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("%s: failed to connect to redis: %v", stageName, err)
	}
	defer redisCache.Close()

	contextStore := store.NewContextStore(dbPool)

	kafka, err := broker.NewKafkaBroker(broker.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		ClientID:      "sentryline-context-collector",
	})
	if err != nil {
		log.Fatalf("%s: failed to connect to broker: %v", stageName, err)
	}
	defer kafka.Close()

	metrics.Init()

	svc := contextcollector.NewService(
		providers.NewGeoIPProvider(),
		providers.NewCMDBProvider(nil),
		providers.NewDirectoryProvider(nil),
		redisCache,
		contextStore,
		kafka,
		cfg.ContextCollectorTimeout,
	)

	go metrics.ServeHTTP(cfg.MetricsAddr)

	go func() {
		handler := metrics.Instrument(stageName, svc.HandleNormalized)
		if err := kafka.Consume(ctx, []string{broker.TopicNormalized}, handler); err != nil && ctx.Err() == nil {
			log.Fatalf("%s: consume loop exited: %v", stageName, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("%s: shutting down", stageName)
	cancel()
}
