package models

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

// urlRe is a rough RFC-3986 match, per §4.2 ("URLs (RFC-3986 rough match)").
var urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// domainRe matches a bare hostname-looking token (no scheme).
var domainRe = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)

var hashRe = regexp.MustCompile(`\b[a-fA-F0-9]{32}\b|\b[a-fA-F0-9]{40}\b|\b[a-fA-F0-9]{64}\b`)

// ipv4Re and ipv6Re bound the net.ParseIP scan so we don't call it on
// every token in long free text.
var ipv4Re = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
var ipv6Re = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){2,7}[0-9a-fA-F]{0,4}\b`)

// ExtractIOCs scans the alert's typed fields and free-text description
// for IOCs, in the teacher's ExtractIOCComponents style: typed fields
// first (authoritative), then a free-text sweep, deduplicated.
func ExtractIOCs(a *Alert, includeNonMeaningfulIPs bool) []IOC {
	var out []IOC

	if a.SourceIP != "" && (includeNonMeaningfulIPs || isMeaningfulIP(a.SourceIP)) {
		out = append(out, IOC{Value: a.SourceIP, Type: IOCIPAddress})
	}
	if a.TargetIP != "" && (includeNonMeaningfulIPs || isMeaningfulIP(a.TargetIP)) {
		out = append(out, IOC{Value: a.TargetIP, Type: IOCIPAddress})
	}
	if a.FileHash != "" {
		out = append(out, IOC{Value: a.FileHash, Type: IOCFileHash})
	}
	if a.URL != "" {
		out = append(out, IOC{Value: a.URL, Type: IOCURL})
		out = append(out, extractURLComponents(a.URL, includeNonMeaningfulIPs)...)
	}

	out = append(out, scanFreeText(a.Description, includeNonMeaningfulIPs)...)

	return DedupIOCs(out)
}

func scanFreeText(text string, includeNonMeaningfulIPs bool) []IOC {
	var out []IOC

	for _, u := range urlRe.FindAllString(text, -1) {
		out = append(out, IOC{Value: u, Type: IOCURL})
		out = append(out, extractURLComponents(u, includeNonMeaningfulIPs)...)
	}

	for _, h := range hashRe.FindAllString(text, -1) {
		out = append(out, IOC{Value: h, Type: IOCFileHash})
	}

	for _, ip := range ipv4Re.FindAllString(text, -1) {
		if net.ParseIP(ip) != nil && (includeNonMeaningfulIPs || isMeaningfulIP(ip)) {
			out = append(out, IOC{Value: ip, Type: IOCIPAddress})
		}
	}
	for _, ip := range ipv6Re.FindAllString(text, -1) {
		if parsed := net.ParseIP(ip); parsed != nil && parsed.To4() == nil &&
			(includeNonMeaningfulIPs || isMeaningfulIP(ip)) {
			out = append(out, IOC{Value: ip, Type: IOCIPAddress})
		}
	}

	// Only treat bare-domain tokens as IOCs when they weren't already
	// captured as the host portion of a URL above.
	urlHosts := make(map[string]bool)
	for _, u := range urlRe.FindAllString(text, -1) {
		if parsed, err := url.Parse(u); err == nil {
			urlHosts[parsed.Hostname()] = true
		}
	}
	for _, d := range domainRe.FindAllString(text, -1) {
		if urlHosts[d] || net.ParseIP(d) != nil {
			continue
		}
		out = append(out, IOC{Value: strings.ToLower(d), Type: IOCDomain})
	}

	return out
}

// extractURLComponents mirrors the teacher's domain.ExtractIOCComponents:
// pull the IP or domain host out of a URL as a second IOC.
func extractURLComponents(value string, includeNonMeaningfulIPs bool) []IOC {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return nil
	}
	host := u.Hostname()
	if host == "" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil {
		if includeNonMeaningfulIPs || isMeaningfulIP(host) {
			return []IOC{{Value: host, Type: IOCIPAddress}}
		}
		return nil
	}
	return []IOC{{Value: strings.ToLower(host), Type: IOCDomain}}
}

// rfc1918 and other non-routable/loopback ranges that are not
// meaningful as standalone threat-intel IOCs (§4.2: "reject
// private/loopback when not meaningful").
var nonMeaningfulNets = mustParseCIDRs(
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	"127.0.0.0/8", "169.254.0.0/16", "::1/128", "fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func isMeaningfulIP(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return false
	}
	if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
		return false
	}
	for _, n := range nonMeaningfulNets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}
