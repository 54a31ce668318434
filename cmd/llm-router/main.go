// Command llm-router runs the LLM Router leaf service (§4.6).
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
	"github.com/hive-corporation/sentryline/pkg/config"
	"github.com/hive-corporation/sentryline/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hive-corporation/sentryline/internal/llmrouter"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	svc := llmrouter.NewService(llmrouter.DefaultRegistry())

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		svc.ProbeAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				svc.ProbeAll(ctx)
			}
		}
	}()

	router := mux.NewRouter()
	h := llmrouter.NewHandler(svc)
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("llm-router: server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("llm-router: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
