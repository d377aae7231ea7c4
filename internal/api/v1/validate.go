package v1

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Field length limits per the public API contract.
const (
	MaxUserIDLen      = 255
	MaxSessionIDLen   = 255
	MaxPageTitleLen   = 500
	MaxUserAgentLen   = 1000
	MaxElementIDLen   = 255
	MaxElementTextLen = 500
	MaxEventNameLen   = 100
)

var screenResolutionRe = regexp.MustCompile(`^\d+x\d+$`)

// FieldError reports one violated constraint on one input field.
// Field is a dotted path into the JSON payload (e.g. "page.url").
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// ParseEvent decodes an untyped JSON payload into the matching event
// variant and validates it exhaustively. On failure the returned slice
// names every violated constraint, not just the first one. Unrecognized
// extra properties are ignored (lenient-input policy).
func ParseEvent(data []byte) (Event, []FieldError) {
	var probe struct {
		EventType *string `json:"eventType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, []FieldError{{Field: "body", Message: "invalid JSON payload"}}
	}
	if probe.EventType == nil || *probe.EventType == "" {
		return nil, []FieldError{{Field: "eventType", Message: "required"}}
	}

	switch *probe.EventType {
	case EventTypePageView:
		var evt PageViewEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, []FieldError{{Field: "body", Message: "malformed pageView payload"}}
		}
		if errs := evt.validate(); len(errs) > 0 {
			return nil, errs
		}
		return &evt, nil
	case EventTypeClick:
		var evt ClickEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, []FieldError{{Field: "body", Message: "malformed click payload"}}
		}
		if errs := evt.validate(); len(errs) > 0 {
			return nil, errs
		}
		return &evt, nil
	case EventTypeCustom:
		var evt CustomEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, []FieldError{{Field: "body", Message: "malformed custom payload"}}
		}
		if errs := evt.validate(); len(errs) > 0 {
			return nil, errs
		}
		return &evt, nil
	default:
		return nil, []FieldError{{
			Field:   "eventType",
			Message: fmt.Sprintf("unknown event type %q (must be one of pageView, click, custom)", *probe.EventType),
		}}
	}
}

// validateCommon checks the envelope fields shared by every variant and
// caches the parsed timestamp on success.
func (c *EventCommon) validateCommon() []FieldError {
	var errs []FieldError

	if c.Timestamp == "" {
		errs = append(errs, FieldError{"timestamp", "required"})
	} else if ts, err := time.Parse(time.RFC3339, c.Timestamp); err != nil {
		errs = append(errs, FieldError{"timestamp", "must be an ISO-8601 timestamp"})
	} else {
		c.occurredAt = ts.UTC()
	}

	if c.SessionID == "" {
		errs = append(errs, FieldError{"sessionId", "required"})
	} else if len(c.SessionID) > MaxSessionIDLen {
		errs = append(errs, FieldError{"sessionId", fmt.Sprintf("max length %d", MaxSessionIDLen)})
	}

	if len(c.UserID) > MaxUserIDLen {
		errs = append(errs, FieldError{"userId", fmt.Sprintf("max length %d", MaxUserIDLen)})
	}

	return errs
}

func (e *PageViewEvent) validate() []FieldError {
	errs := e.validateCommon()

	if e.Page.URL == "" {
		errs = append(errs, FieldError{"page.url", "required"})
	} else if !isValidURL(e.Page.URL) {
		errs = append(errs, FieldError{"page.url", "must be a valid URL"})
	}

	if e.Page.Title == "" {
		errs = append(errs, FieldError{"page.title", "required"})
	} else if len(e.Page.Title) > MaxPageTitleLen {
		errs = append(errs, FieldError{"page.title", fmt.Sprintf("max length %d", MaxPageTitleLen)})
	}

	if e.Page.Referrer != "" && !isValidURL(e.Page.Referrer) {
		errs = append(errs, FieldError{"page.referrer", "must be a valid URL"})
	}

	if e.Device != nil {
		if len(e.Device.UserAgent) > MaxUserAgentLen {
			errs = append(errs, FieldError{"device.userAgent", fmt.Sprintf("max length %d", MaxUserAgentLen)})
		}
		if e.Device.ScreenResolution != "" && !screenResolutionRe.MatchString(e.Device.ScreenResolution) {
			errs = append(errs, FieldError{"device.screenResolution", `must match "<width>x<height>"`})
		}
	}

	return errs
}

func (e *ClickEvent) validate() []FieldError {
	errs := e.validateCommon()

	if len(e.Element.ID) > MaxElementIDLen {
		errs = append(errs, FieldError{"element.id", fmt.Sprintf("max length %d", MaxElementIDLen)})
	}
	if len(e.Element.Text) > MaxElementTextLen {
		errs = append(errs, FieldError{"element.text", fmt.Sprintf("max length %d", MaxElementTextLen)})
	}

	// A position must carry both coordinates, each non-negative.
	if p := e.Element.Position; p != nil {
		if p.X == nil {
			errs = append(errs, FieldError{"element.position.x", "required"})
		} else if *p.X < 0 {
			errs = append(errs, FieldError{"element.position.x", "must be a non-negative integer"})
		}
		if p.Y == nil {
			errs = append(errs, FieldError{"element.position.y", "required"})
		} else if *p.Y < 0 {
			errs = append(errs, FieldError{"element.position.y", "must be a non-negative integer"})
		}
	}

	if e.Page != nil {
		if e.Page.URL == "" {
			errs = append(errs, FieldError{"page.url", "required"})
		} else if !isValidURL(e.Page.URL) {
			errs = append(errs, FieldError{"page.url", "must be a valid URL"})
		}
	}

	return errs
}

func (e *CustomEvent) validate() []FieldError {
	errs := e.validateCommon()

	if e.EventName == "" {
		errs = append(errs, FieldError{"eventName", "required"})
	} else if len(e.EventName) > MaxEventNameLen {
		errs = append(errs, FieldError{"eventName", fmt.Sprintf("max length %d", MaxEventNameLen)})
	}

	return errs
}

// isValidURL accepts absolute URLs with a scheme and host.
func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
