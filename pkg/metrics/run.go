package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/hive-corporation/sentryline/pkg/broker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Instrument wraps a broker.Handler with stage message/duration/error
// recording, shared by every consumer-side cmd/ main so the
// bookkeeping isn't hand-rolled per stage.
func Instrument(stage string, handle broker.Handler) broker.Handler {
	return func(ctx context.Context, msg broker.Message) error {
		timer := StartStageTimer(stage)
		defer timer.ObserveDuration()

		err := handle(ctx, msg)
		if err != nil {
			RecordMessage(stage, "error")
			RecordError(stage, "processing")
			return err
		}
		RecordMessage(stage, "ok")
		return nil
	}
}

// ServeHTTP starts a /metrics endpoint and blocks, logging (not
// fatally exiting) if the listener stops.
func ServeHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("metrics: listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics: server stopped: %v", err)
	}
}
