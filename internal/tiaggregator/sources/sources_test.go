package sources

import (
	"testing"

	"github.com/hive-corporation/sentryline/pkg/models"
)

func TestVTPath(t *testing.T) {
	tests := []struct {
		name    string
		iocType models.IOCType
		value   string
		want    string
		wantErr bool
	}{
		{"ip", models.IOCIPAddress, "1.2.3.4", "/ip_addresses/1.2.3.4", false},
		{"domain", models.IOCDomain, "evil.example", "/domains/evil.example", false},
		{"hash", models.IOCFileHash, "deadbeef", "/files/deadbeef", false},
		{"unsupported", models.IOCType("cve"), "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vtPath(tt.iocType, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("vtPath(%v) error = %v, wantErr %v", tt.iocType, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("vtPath(%v) = %q, want %q", tt.iocType, got, tt.want)
			}
		})
	}
}

func TestOTXSegment(t *testing.T) {
	tests := []struct {
		iocType models.IOCType
		want    string
		wantErr bool
	}{
		{models.IOCIPAddress, "IPv4", false},
		{models.IOCDomain, "domain", false},
		{models.IOCFileHash, "file", false},
		{models.IOCURL, "url", false},
		{models.IOCType("cve"), "", true},
	}

	for _, tt := range tests {
		got, err := otxSegment(tt.iocType)
		if (err != nil) != tt.wantErr {
			t.Fatalf("otxSegment(%v) error = %v, wantErr %v", tt.iocType, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("otxSegment(%v) = %q, want %q", tt.iocType, got, tt.want)
		}
	}
}
