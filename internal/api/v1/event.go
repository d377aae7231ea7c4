package v1

import (
	"time"
)

// Recognized eventType discriminants. Every inbound payload must carry
// exactly one of these; anything else is rejected before variant decoding.
const (
	EventTypePageView = "pageView"
	EventTypeClick    = "click"
	EventTypeCustom   = "custom"
)

// KnownEventTypes lists the accepted discriminants in a stable order.
var KnownEventTypes = []string{EventTypePageView, EventTypeClick, EventTypeCustom}

// Event is the tagged union over the three accepted payload shapes.
// Concrete variants are PageViewEvent, ClickEvent and CustomEvent; the
// discriminant is the eventType field of the shared envelope.
type Event interface {
	// Type returns the eventType discriminant of the variant.
	Type() string

	// Envelope returns the fields common to every variant.
	Envelope() EventCommon

	// OccurredAt returns the client-supplied event time, parsed and
	// normalized to UTC. Only valid after successful parsing.
	OccurredAt() time.Time
}

// EventCommon holds the envelope fields shared by every variant.
type EventCommon struct {
	EventType string `json:"eventType"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId"`

	// occurredAt caches the parsed Timestamp. Populated by ParseEvent.
	occurredAt time.Time
}

func (c EventCommon) Type() string          { return c.EventType }
func (c EventCommon) Envelope() EventCommon { return c }
func (c EventCommon) OccurredAt() time.Time { return c.occurredAt }

// Page describes the page a pageView event was recorded on.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Referrer string `json:"referrer,omitempty"`
}

// Device carries optional client device details of a pageView event.
type Device struct {
	UserAgent        string `json:"userAgent,omitempty"`
	ScreenResolution string `json:"screenResolution,omitempty"`
}

// PageViewEvent records a page being viewed.
type PageViewEvent struct {
	EventCommon
	Page   Page    `json:"page"`
	Device *Device `json:"device,omitempty"`
}

// Position is a pair of non-negative viewport coordinates. Pointers
// distinguish absent coordinates from a legitimate 0.
type Position struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// Element describes the DOM element a click event targeted.
type Element struct {
	ID       string    `json:"id,omitempty"`
	Text     string    `json:"text,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// ClickPage is the reduced page reference carried by click events.
type ClickPage struct {
	URL string `json:"url"`
}

// ClickEvent records an element being clicked.
type ClickEvent struct {
	EventCommon
	Element Element    `json:"element"`
	Page    *ClickPage `json:"page,omitempty"`
}

// CustomEvent records an application-defined event with free-form properties.
type CustomEvent struct {
	EventCommon
	EventName  string         `json:"eventName"`
	Properties map[string]any `json:"properties,omitempty"`
}

// BrowserInfo is derived from the User-Agent header during enrichment.
type BrowserInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	OS      string `json:"os,omitempty"`
}

// GeoInfo is derived from the client IP during enrichment.
type GeoInfo struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// EnrichedMetadata is the server-side metadata envelope attached to an
// accepted event. ReceivedAt is always set; the rest is best-effort.
type EnrichedMetadata struct {
	ReceivedAt string       `json:"receivedAt"`
	IPAddress  string       `json:"ipAddress,omitempty"`
	Browser    *BrowserInfo `json:"browser,omitempty"`
	Geo        *GeoInfo     `json:"geo,omitempty"`
}

// StoredEvent is the immutable persisted form of an accepted event.
// The store owns ID, CreatedAt and UpdatedAt; there is no update path.
type StoredEvent struct {
	ID           string            `json:"id"`
	EventType    string            `json:"eventType"`
	UserID       string            `json:"userId,omitempty"`
	SessionID    string            `json:"sessionId,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	RawData      map[string]any    `json:"rawData"`
	EnrichedData *EnrichedMetadata `json:"enrichedData,omitempty"`
	IPAddress    string            `json:"ipAddress,omitempty"`
	UserAgent    string            `json:"userAgent,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// EventQuery is the validated filter + pagination input for event listing.
// Absent filters impose no constraint; all present filters are conjunctive.
type EventQuery struct {
	EventType string
	UserID    string
	SessionID string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Pagination is the window metadata returned alongside a page of results.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// PaginatedResponse couples a page of stored events with its pagination
// metadata. The two are always returned as one unit.
type PaginatedResponse struct {
	Data       []*StoredEvent `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// Statistics is a point-in-time aggregate snapshot over the whole store.
type Statistics struct {
	TotalEvents    int64            `json:"totalEvents"`
	EventsByType   map[string]int64 `json:"eventsByType"`
	UniqueUsers    int64            `json:"uniqueUsers"`
	UniqueSessions int64            `json:"uniqueSessions"`
	Timestamp      string           `json:"timestamp"`
}
