// Package enrichment derives server-side metadata for accepted events:
// receipt time, browser details from the User-Agent header, and a geo
// location for the client IP. Enrichment is pure and total; a field that
// cannot be derived is omitted, never an error.
package enrichment

import (
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
)

// Timestamp acceptance window. Both bounds are inclusive: an event timed
// exactly at the boundary moment is accepted.
const (
	// MaxFutureSkew absorbs client clock skew ahead of server time.
	MaxFutureSkew = 5 * time.Minute
	MaxPastAge    = 30 * 24 * time.Hour
)

// Enricher builds the metadata envelope for accepted events.
type Enricher struct {
	geo   GeoResolver
	nowFn func() time.Time
}

// NewEnricher creates an Enricher using the given geo resolver.
func NewEnricher(geo GeoResolver) *Enricher {
	return &Enricher{
		geo:   geo,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock. For tests.
func (e *Enricher) SetNowFunc(nowFn func() time.Time) {
	e.nowFn = nowFn
}

// Enrich maps a validated event plus request context into the metadata
// envelope. ReceivedAt is always set. A user agent that cannot be parsed
// degrades to "no browser info" rather than failing the request.
func (e *Enricher) Enrich(event v1.Event, ipAddress, userAgent string) v1.EnrichedMetadata {
	meta := v1.EnrichedMetadata{
		ReceivedAt: e.nowFn().UTC().Format(time.RFC3339),
		IPAddress:  ipAddress,
	}

	if userAgent != "" {
		if browser := parseBrowser(userAgent); browser != nil {
			meta.Browser = browser
		} else {
			slog.Warn("Failed to parse user agent", "user_agent", userAgent)
		}
	}

	if ipAddress != "" {
		meta.Geo = e.geo.Resolve(ipAddress)
	}

	slog.Debug("Event enriched",
		"event_type", event.Type(),
		"has_geo", meta.Geo != nil,
		"has_browser", meta.Browser != nil)

	return meta
}

// ValidateTimestamp reports whether an event timestamp falls inside the
// acceptance window [now-30d, now+5m]. It returns false rather than an
// error for out-of-range values.
func (e *Enricher) ValidateTimestamp(ts time.Time) bool {
	now := e.nowFn()

	if ts.After(now.Add(MaxFutureSkew)) {
		return false
	}
	if ts.Before(now.Add(-MaxPastAge)) {
		return false
	}
	return true
}

// parseBrowser extracts name/version/os from a raw User-Agent string.
// Returns nil when the string yields no recognizable browser.
func parseBrowser(raw string) *v1.BrowserInfo {
	ua := useragent.Parse(raw)
	if ua.Name == "" {
		return nil
	}
	return &v1.BrowserInfo{
		Name:    ua.Name,
		Version: ua.Version,
		OS:      ua.OS,
	}
}
