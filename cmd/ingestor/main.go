// Command ingestor runs S1: the HTTP-facing alert intake service.
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
	"github.com/hive-corporation/sentryline/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hive-corporation/sentryline/internal/ingestor"
	"github.com/hive-corporation/sentryline/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dbPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("ingestor: failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := store.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("ingestor: failed to run migrations: %v", err)
	}

	alertStore := store.NewAlertStore(dbPool)

	kafka, err := broker.NewKafkaBroker(broker.Config{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		ClientID:      "sentryline-ingestor",
	})
	if err != nil {
		log.Fatalf("ingestor: failed to connect to broker: %v", err)
	}
	defer kafka.Close()

	metrics.Init()

	svc := ingestor.NewService(alertStore, kafka, cfg.DedupWindowSeconds, cfg.MaxClockSkew, cfg.MaxAlertAge)
	limiter := ingestor.NewRateLimiter(100, 20)

	pruneCtx, cancelPrune := context.WithCancel(ctx)
	defer cancelPrune()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				limiter.Prune()
			}
		}
	}()

	router := mux.NewRouter()
	h := ingestor.NewHandler(svc, limiter, dbPool, kafka)
	h.Register(router.PathPrefix("/").Subrouter())
	router.Use(loggingMiddleware)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	reconCtx, cancelRecon := context.WithCancel(ctx)
	defer cancelRecon()
	reconciler := ingestor.NewReconciler(alertStore, kafka, 30*time.Second, 2*time.Minute)
	go reconciler.Run(reconCtx)

	go func() {
		log.Printf("ingestor: listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ingestor: server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("ingestor: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("ingestor: forced shutdown: %v", err)
	}
	log.Println("ingestor: stopped gracefully")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
