package ingestion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	httperr "github.com/collector-lab/event-collector/internal/core/errors"
)

const (
	msgReadBodyFailed   = "Failed to read request body"
	msgBodyTooLarge     = "Request body exceeds maximum allowed size"
	msgValidationFailed = "Event validation failed"
	msgInvalidTimestamp = "Event timestamp is invalid or out of acceptable range"
	msgPersistFailed    = "Failed to store event"
)

// ingestionError carries the structured HTTP error shape from a helper back
// to the orchestrator. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// CreateEventHandler handles POST /api/events.
//
// Pipeline per request: read body → validate variant shape → re-check the
// timestamp window → enrich → single atomic insert → 201. Failure exits at
// validation and the timestamp check; persistence failures surface as an
// opaque 500 with no retry.
func (s *Service) CreateEventHandler(c *gin.Context) {
	evt, rawData, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if !s.enricher.ValidateTimestamp(evt.OccurredAt()) {
		slog.Warn("Event timestamp out of acceptable range",
			"event_type", evt.Type(),
			"timestamp", evt.Envelope().Timestamp)
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidTimestampError,
			message:    msgInvalidTimestamp,
		})
		return
	}

	ipAddress := c.ClientIP()
	userAgent := c.Request.UserAgent()
	meta := s.enricher.Enrich(evt, ipAddress, userAgent)

	common := evt.Envelope()
	stored := &v1.StoredEvent{
		EventType:    evt.Type(),
		UserID:       common.UserID,
		SessionID:    common.SessionID,
		Timestamp:    evt.OccurredAt(),
		RawData:      rawData,
		EnrichedData: &meta,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}

	if err := s.persistEvent(c.Request.Context(), stored); err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Event processed",
		"event_id", stored.ID,
		"event_type", stored.EventType,
		"user_id", stored.UserID,
		"session_id", stored.SessionID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":        stored.ID,
			"eventType": stored.EventType,
			"timestamp": stored.Timestamp,
		},
	})
}

// parseEvent reads the size-limited request body and decodes it twice: once
// generically (the rawData payload persisted verbatim) and once into the
// typed variant, collecting every violated constraint.
func (s *Service) parseEvent(c *gin.Context) (v1.Event, map[string]any, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, nil, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	var rawData map[string]any
	if err := json.Unmarshal(bodyBytes, &rawData); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Invalid JSON body",
		}
	}

	evt, fieldErrs := v1.ParseEvent(bodyBytes)
	if len(fieldErrs) > 0 {
		slog.Warn("Event validation failed",
			"violations", len(fieldErrs),
			"payload_size", len(bodyBytes))
		return nil, nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    msgValidationFailed,
			details:    fieldErrs,
		}
	}

	return evt, rawData, nil
}

// persistEvent saves the event to the backing store.
func (s *Service) persistEvent(ctx context.Context, event *v1.StoredEvent) *ingestionError {
	if err := s.store.InsertEvent(ctx, event); err != nil {
		slog.Error("Failed to persist event", "error", err, "event_type", event.EventType)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpStoreError,
			message:    msgPersistFailed,
		}
	}
	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		Error:     err.message,
		ErrorType: err.errorType,
		Details:   err.details,
	})
}
