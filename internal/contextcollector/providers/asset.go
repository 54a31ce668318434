package providers

import (
	"context"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// CMDBProvider is a mock-friendly in-memory stand-in for a real CMDB
// lookup, seeded at construction with whatever fixed asset records
// the deployment knows about; unknown assets get a conservative default.
type CMDBProvider struct {
	assets map[string]models.AssetContext
}

func NewCMDBProvider(seed map[string]models.AssetContext) *CMDBProvider {
	if seed == nil {
		seed = map[string]models.AssetContext{}
	}
	return &CMDBProvider{assets: seed}
}

func (p *CMDBProvider) Name() string { return "cmdb" }

func (p *CMDBProvider) Lookup(ctx context.Context, assetID string) (models.AssetContext, error) {
	if assetID == "" {
		return models.AssetContext{}, fmt.Errorf("cmdb: empty asset_id")
	}
	if ac, ok := p.assets[assetID]; ok {
		return ac, nil
	}
	return models.AssetContext{
		AssetType:    "unknown",
		Criticality:  models.CriticalityUnknown,
		Environment:  "unknown",
	}, nil
}
