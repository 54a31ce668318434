package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// internalCIDRs are the RFC1918 ranges plus loopback. Operator-configured
// extra internal ranges are held per provider in
// GeoIPProvider.additionalInternal and checked alongside these.
var internalCIDRs = mustParseCIDRs("10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "127.0.0.0/8")

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(c); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// GeoIPProvider is a mock-friendly stand-in for a real MaxMind/GeoIP2
// lookup: deterministic derivation from the IP itself rather than a
// network call, so the pipeline is runnable without a vendor database.
type GeoIPProvider struct {
	additionalInternal []*net.IPNet
}

func NewGeoIPProvider(additionalInternalCIDRs ...string) *GeoIPProvider {
	return &GeoIPProvider{additionalInternal: mustParseCIDRs(additionalInternalCIDRs...)}
}

func (p *GeoIPProvider) Name() string { return "geoip" }

func (p *GeoIPProvider) Lookup(ctx context.Context, ip string) (models.NetworkContext, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return models.NetworkContext{}, fmt.Errorf("geoip: invalid IP %q", ip)
	}

	internal := isInternal(parsed, p.additionalInternal)

	nc := models.NetworkContext{IsInternal: internal}
	if v4 := parsed.To4(); v4 != nil {
		nc.Subnet24 = fmt.Sprintf("%d.%d.%d.0/24", v4[0], v4[1], v4[2])
	}

	if !internal {
		nc.Country, nc.ASN, nc.Reputation = derive(ip)
	}

	return nc, nil
}

func isInternal(ip net.IP, extra []*net.IPNet) bool {
	for _, n := range internalCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	for _, n := range extra {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// derive produces a stable, IP-seeded country/ASN/reputation triple.
// A real deployment swaps this provider for one backed by a vendor
// GeoIP database; this one keeps the pipeline runnable without it.
func derive(ip string) (country, asn string, reputation int) {
	sum := sha256.Sum256([]byte(ip))
	n := binary.BigEndian.Uint32(sum[:4])

	countries := []string{"US", "DE", "CN", "RU", "BR", "NL", "FR", "GB", "IN", "VN"}
	country = countries[n%uint32(len(countries))]
	asn = fmt.Sprintf("AS%d", 10000+n%50000)
	reputation = int(n % 101)
	return
}
