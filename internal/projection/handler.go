package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	httperr "github.com/collector-lab/event-collector/internal/core/errors"
	"github.com/collector-lab/event-collector/internal/core/query"
	"github.com/collector-lab/event-collector/internal/core/storage"
)

// RegisterRoutes registers all projection API routes on the given router.
// The static statistics route is registered alongside the :id route; gin
// resolves the static segment with priority.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/events", s.ListEventsHandler)
	r.GET("/api/events/statistics", s.StatisticsHandler)
	r.GET("/api/events/:id", s.GetEventHandler)
}

// ListEventsHandler handles GET /api/events.
// Query parameters: eventType, userId, sessionId, startDate, endDate,
// limit, offset — all optional, all filters conjunctive.
func (s *Service) ListEventsHandler(c *gin.Context) {
	q, fieldErrs := bindEventQuery(c)
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, httperr.WithDetails(
			httperr.HttpValidationError, "Invalid query parameters", fieldErrs))
		return
	}

	result, err := s.ListEvents(c.Request.Context(), q)
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.New(
			httperr.HttpStoreError, "Failed to retrieve events"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result.Data,
		"pagination": result.Pagination,
	})
}

// GetEventHandler handles GET /api/events/:id. An unknown id is a normal
// outcome and returns 404, not a server error.
func (s *Service) GetEventHandler(c *gin.Context) {
	id := c.Param("id")

	event, err := s.GetEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Debug("Event not found", "event_id", id)
			c.JSON(http.StatusNotFound, httperr.New(
				httperr.HttpNotFoundError, "Event not found"))
			return
		}
		slog.Error("Failed to retrieve event", "error", err, "event_id", id)
		c.JSON(http.StatusInternalServerError, httperr.New(
			httperr.HttpStoreError, "Failed to retrieve event"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// StatisticsHandler handles GET /api/events/statistics.
func (s *Service) StatisticsHandler(c *gin.Context) {
	stats, err := s.Statistics(c.Request.Context())
	if err != nil {
		slog.Error("Failed to assemble statistics", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.New(
			httperr.HttpStoreError, "Failed to retrieve statistics"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// bindEventQuery parses and validates the listing query parameters,
// collecting every violation. Out-of-range limit/offset values are a
// validation error at this boundary, never silently clamped.
func bindEventQuery(c *gin.Context) (v1.EventQuery, []v1.FieldError) {
	var (
		q    v1.EventQuery
		errs []v1.FieldError
	)

	if raw := c.Query("eventType"); raw != "" {
		if !isKnownEventType(raw) {
			errs = append(errs, v1.FieldError{Field: "eventType", Message: "must be one of pageView, click, custom"})
		} else {
			q.EventType = raw
		}
	}

	if raw := c.Query("userId"); raw != "" {
		if len(raw) > v1.MaxUserIDLen {
			errs = append(errs, v1.FieldError{Field: "userId", Message: "max length 255"})
		} else {
			q.UserID = raw
		}
	}

	if raw := c.Query("sessionId"); raw != "" {
		if len(raw) > v1.MaxSessionIDLen {
			errs = append(errs, v1.FieldError{Field: "sessionId", Message: "max length 255"})
		} else {
			q.SessionID = raw
		}
	}

	if raw := c.Query("startDate"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err != nil {
			errs = append(errs, v1.FieldError{Field: "startDate", Message: "must be an ISO-8601 timestamp"})
		} else {
			utc := ts.UTC()
			q.StartDate = &utc
		}
	}

	if raw := c.Query("endDate"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err != nil {
			errs = append(errs, v1.FieldError{Field: "endDate", Message: "must be an ISO-8601 timestamp"})
		} else {
			utc := ts.UTC()
			q.EndDate = &utc
		}
	}

	q.Limit = query.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > query.MaxLimit {
			errs = append(errs, v1.FieldError{Field: "limit", Message: "must be an integer between 1 and 100"})
		} else {
			q.Limit = n
		}
	}

	q.Offset = query.DefaultOffset
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, v1.FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			q.Offset = n
		}
	}

	return q, errs
}

func isKnownEventType(s string) bool {
	for _, t := range v1.KnownEventTypes {
		if s == t {
			return true
		}
	}
	return false
}
