package enrichment

import (
	"strings"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
)

// GeoResolver maps a client IP to an approximate location. Implementations
// must be safe for concurrent use.
type GeoResolver interface {
	Resolve(ipAddress string) *v1.GeoInfo
}

// MockGeoResolver is a placeholder for a real geo-IP service. Loopback and
// private-range addresses resolve to a fixed location; everything else to
// Unknown/Unknown. Swap in a real resolver behind the same interface.
type MockGeoResolver struct{}

func (MockGeoResolver) Resolve(ipAddress string) *v1.GeoInfo {
	if strings.HasPrefix(ipAddress, "127.") ||
		strings.HasPrefix(ipAddress, "192.168.") ||
		ipAddress == "::1" {
		return &v1.GeoInfo{
			Country: "Netherlands",
			City:    "Amsterdam",
		}
	}

	return &v1.GeoInfo{
		Country: "Unknown",
		City:    "Unknown",
	}
}
