package models

import "time"

// ContextType is the closed set of §4.3 sub-collectors.
type ContextType string

const (
	ContextNetwork ContextType = "network"
	ContextAsset   ContextType = "asset"
	ContextUser    ContextType = "user"
)

// EnrichmentStatus flags a partial or timed-out sub-collector result, §4.3.
type EnrichmentStatus string

const (
	EnrichmentOK      EnrichmentStatus = "ok"
	EnrichmentPartial EnrichmentStatus = "partial"
)

// EnrichmentContext is 1..3 rows per alert, one per context kind, §3.
type EnrichmentContext struct {
	AlertID     string           `json:"alert_id"`
	ContextType ContextType      `json:"context_type"`
	Source      string           `json:"source"`
	Status      EnrichmentStatus `json:"status"`
	Data        map[string]any   `json:"data,omitempty"`
	CollectedAt time.Time        `json:"collected_at"`
	TTLHint     time.Duration    `json:"ttl_hint"`
}

// NetworkContext is the §4.3 network sub-collector's output shape.
type NetworkContext struct {
	IsInternal bool   `json:"is_internal"`
	Subnet24   string `json:"subnet_24,omitempty"`
	Country    string `json:"country,omitempty"`
	ASN        string `json:"asn,omitempty"`
	Reputation int    `json:"reputation,omitempty"`
}

// AssetCriticality is the closed set used by both §4.3 asset context
// and the §4.5 risk-scoring asset-criticality component.
type AssetCriticality string

const (
	CriticalityCritical AssetCriticality = "critical"
	CriticalityHigh     AssetCriticality = "high"
	CriticalityMedium   AssetCriticality = "medium"
	CriticalityLow      AssetCriticality = "low"
	CriticalityUnknown  AssetCriticality = "unknown"
)

// AssetContext is the §4.3 asset sub-collector's output shape.
type AssetContext struct {
	AssetType      string           `json:"asset_type"`
	Criticality    AssetCriticality `json:"criticality"`
	Owner          string           `json:"owner"`
	BusinessUnit   string           `json:"business_unit"`
	Environment    string           `json:"environment"`
	Vulnerabilities []string        `json:"vulnerabilities,omitempty"`
}

// UserContext is the §4.3 user sub-collector's output shape.
type UserContext struct {
	Department     string `json:"department"`
	Title          string `json:"title"`
	Manager        string `json:"manager"`
	PrivilegeLevel string `json:"privilege_level"`
	LastLoginAt    time.Time `json:"last_login_at,omitempty"`
	AccountStatus  string `json:"account_status"`
}
