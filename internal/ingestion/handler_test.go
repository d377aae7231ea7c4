package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	"github.com/collector-lab/event-collector/internal/core/storage/memory"
	"github.com/collector-lab/event-collector/internal/enrichment"
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, store *memory.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enricher := enrichment.NewEnricher(enrichment.MockGeoResolver{})
	enricher.SetNowFunc(func() time.Time { return fixedNow })

	svc := NewService(store, enricher, 1)
	router := gin.New()
	svc.RegisterRoutes(router)
	return router
}

func postEvent(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.RemoteAddr = "127.0.0.1:52000"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func pageViewBody(timestamp time.Time) string {
	return fmt.Sprintf(`{
		"eventType": "pageView",
		"userId": "u1",
		"sessionId": "s1",
		"timestamp": %q,
		"page": {"url": "https://nn.nl/verzekeringen", "title": "Verzekeringen"},
		"device": {"userAgent": "Mozilla/5.0", "screenResolution": "1920x1080"}
	}`, timestamp.Format(time.RFC3339))
}

func TestCreateEvent_Accepted(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store)

	rec := postEvent(router, pageViewBody(fixedNow.Add(-time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID        string    `json:"id"`
			EventType string    `json:"eventType"`
			Timestamp time.Time `json:"timestamp"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data.ID)
	require.Equal(t, v1.EventTypePageView, resp.Data.EventType)
	require.True(t, resp.Data.Timestamp.Equal(fixedNow.Add(-time.Hour)))

	stored, err := store.FindEventByID(context.Background(), resp.Data.ID)
	require.NoError(t, err)
	require.Equal(t, "u1", stored.UserID)
	require.Equal(t, "s1", stored.SessionID)
	require.Equal(t, "127.0.0.1", stored.IPAddress)

	// The raw payload is persisted verbatim, including nested objects.
	page, ok := stored.RawData["page"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "https://nn.nl/verzekeringen", page["url"])

	// Enrichment ran: receive time, browser from the UA header, geo from the IP.
	require.NotNil(t, stored.EnrichedData)
	require.Equal(t, fixedNow.Format(time.RFC3339), stored.EnrichedData.ReceivedAt)
	require.NotNil(t, stored.EnrichedData.Browser)
	require.Equal(t, "Chrome", stored.EnrichedData.Browser.Name)
	require.NotNil(t, stored.EnrichedData.Geo)
	require.Equal(t, "Netherlands", stored.EnrichedData.Geo.Country)
}

func TestCreateEvent_ValidationFailureListsAllViolations(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store)

	// Missing sessionId, bad URL and bad timestamp format in one request.
	body := `{
		"eventType": "pageView",
		"timestamp": "yesterday",
		"page": {"url": "not-a-url"},
		"device": {}
	}`
	rec := postEvent(router, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success   bool            `json:"success"`
		Error     string          `json:"error"`
		ErrorType string          `json:"errorType"`
		Details   []v1.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "validation_failed", resp.ErrorType)

	fields := make([]string, 0, len(resp.Details))
	for _, d := range resp.Details {
		fields = append(fields, d.Field)
	}
	require.Contains(t, fields, "sessionId")
	require.Contains(t, fields, "timestamp")
	require.Contains(t, fields, "page.url")

	require.Zero(t, store.Len())
}

func TestCreateEvent_TimestampOutOfRangeRejected(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store)

	rec := postEvent(router, pageViewBody(fixedNow.Add(10*time.Minute)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		ErrorType string `json:"errorType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "invalid_timestamp", resp.ErrorType)
	require.Zero(t, store.Len())
}

func TestCreateEvent_InvalidJSON(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store)

	rec := postEvent(router, `{"eventType": "pageView",`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		ErrorType string `json:"errorType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "invalid_json", resp.ErrorType)
	require.Zero(t, store.Len())
}

func TestCreateEvent_OversizedBodyRejected(t *testing.T) {
	store := memory.NewStore()
	router := newTestRouter(t, store)

	// Just over the 1MB limit.
	padding := bytes.Repeat([]byte("x"), 1024*1024)
	body := fmt.Sprintf(`{"eventType": "custom", "padding": "%s"}`, padding)

	rec := postEvent(router, body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, store.Len())
}

func TestCreateEvent_StoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	enricher := enrichment.NewEnricher(enrichment.MockGeoResolver{})
	enricher.SetNowFunc(func() time.Time { return fixedNow })

	svc := NewService(&failingStore{Store: memory.NewStore()}, enricher, 1)
	router := gin.New()
	svc.RegisterRoutes(router)

	rec := postEvent(router, pageViewBody(fixedNow.Add(-time.Hour)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		ErrorType string `json:"errorType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "store_error", resp.ErrorType)
}

// failingStore fails every write while delegating reads to the embedded store.
type failingStore struct {
	*memory.Store
}

func (f *failingStore) InsertEvent(ctx context.Context, event *v1.StoredEvent) error {
	return fmt.Errorf("connection refused")
}
