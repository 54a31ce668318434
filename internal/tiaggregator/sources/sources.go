package sources

import (
	"context"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// ThreatSource is the capability interface §4.4 aggregates over, one
// point-lookup per (ioc, ioc_type) rather than the teacher's bulk
// FetchIOCS feed-pull — the aggregator needs a per-alert verdict, not
// a periodic corpus refresh.
type ThreatSource interface {
	Name() string
	Weight() float64
	Query(ctx context.Context, iocType models.IOCType, value string) (Result, error)
}

// Result is one source's verdict on a single indicator.
type Result struct {
	Detected bool
	Score    float64 // 0-100, source-local scale already normalized
	Raw      map[string]any
}
