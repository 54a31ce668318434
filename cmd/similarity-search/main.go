// Command similarity-search runs the Similarity Search leaf service (§4.7).
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

	"github.com/hive-corporation/sentryline/internal/similarity"
)

func main() {
	cfg := config.Load()

	metrics.Init()

	svc := similarity.NewService(similarity.NewHashEmbedder(), similarity.NewInMemoryStore())

	router := mux.NewRouter()
	h := similarity.NewHandler(svc)
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("similarity-search: server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("similarity-search: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
