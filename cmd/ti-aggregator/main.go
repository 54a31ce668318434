// Command ti-aggregator runs S4: alert.contextualized to alert.threat-scored.
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

	"github.com/hive-corporation/sentryline/internal/store"
	"github.com/hive-corporation/sentryline/internal/tiaggregator"
	"github.com/hive-corporation/sentryline/internal/tiaggregator/sources"
)

const stageName = "ti-aggregator"

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

	tiStore := store.NewThreatIntelStore(dbPool)

	kafka, err := broker.NewKafkaBroker(broker.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		ClientID:      "sentryline-ti-aggregator",
	})
	if err != nil {
		log.Fatalf("%s: failed to connect to broker: %v", stageName, err)
	}
	defer kafka.Close()

	metrics.Init()

	resilientCfg := sources.ResilientConfig{
		EnableCircuitBreaker: cfg.CircuitBreakerEnabled,
		MaxFailures:          cfg.CircuitBreakerMaxFails,
		CircuitTimeout:       cfg.CircuitBreakerTimeout,
		MaxRetries:           cfg.RetryMaxAttempts,
		InitialInterval:      time.Duration(cfg.RetryInitialIntervalMS) * time.Millisecond,
		MaxInterval:          time.Duration(cfg.RetryMaxIntervalMS) * time.Millisecond,
	}

	srcs := []sources.ThreatSource{
		sources.NewVirusTotalSource(os.Getenv("VIRUSTOTAL_API_KEY"), resilientCfg),
		sources.NewOTXSource(os.Getenv("OTX_API_KEY"), resilientCfg),
		sources.NewAbuseCHSource(resilientCfg),
	}

	svc := tiaggregator.NewService(srcs, redisCache, tiStore, kafka, 10*time.Second, cfg.TICacheTTL)

	go metrics.ServeHTTP(cfg.MetricsAddr)

	go func() {
		handler := metrics.Instrument(stageName, svc.HandleEnriched)
		if err := kafka.Consume(ctx, []string{broker.TopicContextual}, handler); err != nil && ctx.Err() == nil {
			log.Fatalf("%s: consume loop exited: %v", stageName, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("%s: shutting down", stageName)
	cancel()
}
