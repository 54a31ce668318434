// Package providers holds the pluggable capability interfaces for
// each §4.3 sub-collector, the same "abstract capability + mock-friendly
// concrete implementation" shape as the teacher's ports.ThreatProvider.
package providers

import (
	"context"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// NetworkProvider resolves GeoIP/ASN/reputation data for an IP.
type NetworkProvider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (models.NetworkContext, error)
}

// AssetProvider resolves CMDB-style asset metadata.
type AssetProvider interface {
	Name() string
	Lookup(ctx context.Context, assetID string) (models.AssetContext, error)
}

// UserProvider resolves directory-service (LDAP/AD-style) user metadata.
type UserProvider interface {
	Name() string
	Lookup(ctx context.Context, userID string) (models.UserContext, error)
}
