// Command triage-agent runs S5: alert.threat-scored to alert.result.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/hive-corporation/sentryline/pkg/config"
	"github.com/hive-corporation/sentryline/pkg/exporter"
	"github.com/hive-corporation/sentryline/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hive-corporation/sentryline/internal/store"
	"github.com/hive-corporation/sentryline/internal/tiaggregator/sources"
	"github.com/hive-corporation/sentryline/internal/triageagent"
	"github.com/hive-corporation/sentryline/internal/triageagent/llmclient"
	"github.com/hive-corporation/sentryline/pkg/notifier"
)

const stageName = "triage-agent"

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("%s: failed to connect to database: %v", stageName, err)
	}
	defer dbPool.Close()

	triageStore := store.NewTriageStore(dbPool)

	kafka, err := broker.NewKafkaBroker(broker.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		ClientID:      "sentryline-triage-agent",
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

	llmChain := &llmclient.Chain{
		Router: llmclient.NewRouterClient(cfg.LLMRouterURL, resilientCfg),
	}
	if cfg.AnthropicAPIKey != "" {
		llmChain.Direct = llmclient.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}

	similarity := triageagent.NewHTTPSimilarityClient(cfg.SimilaritySearchURL, cfg.SimilaritySearchTimeout)

	svc := triageagent.NewService(llmChain, similarity, triageStore, kafka)
	if cfg.SlackBotToken != "" {
		svc = svc.WithNotifier(notifier.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, cfg.SlackMentionTeam))
	}

	adminRouter := mux.NewRouter()
	adminRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	exporter.NewHandler(triageStore).Register(adminRouter)
	go func() {
		log.Printf("%s: admin server listening on %s", stageName, cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, adminRouter); err != nil {
			log.Printf("%s: admin server stopped: %v", stageName, err)
		}
	}()

	go func() {
		handler := metrics.Instrument(stageName, svc.HandleThreatScored)
		if err := kafka.Consume(ctx, []string{broker.TopicThreatScored}, handler); err != nil && ctx.Err() == nil {
			log.Fatalf("%s: consume loop exited: %v", stageName, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("%s: shutting down", stageName)
	cancel()
}
