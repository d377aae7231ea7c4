package projection

import (
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
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, store *memory.Store) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(store)
	svc.SetNowFunc(func() time.Time { return fixedNow })

	router := gin.New()
	svc.RegisterRoutes(router)
	return router, svc
}

// seedStore inserts three clicks and two page views with descending ages.
func seedStore(t *testing.T, store *memory.Store) {
	t.Helper()

	events := []*v1.StoredEvent{
		{ID: "click-1", EventType: v1.EventTypeClick, UserID: "u1", SessionID: "s1", Timestamp: fixedNow.Add(-1 * time.Hour)},
		{ID: "click-2", EventType: v1.EventTypeClick, UserID: "u2", SessionID: "s2", Timestamp: fixedNow.Add(-2 * time.Hour)},
		{ID: "click-3", EventType: v1.EventTypeClick, UserID: "u1", SessionID: "s3", Timestamp: fixedNow.Add(-3 * time.Hour)},
		{ID: "view-1", EventType: v1.EventTypePageView, UserID: "u3", SessionID: "s4", Timestamp: fixedNow.Add(-4 * time.Hour)},
		{ID: "view-2", EventType: v1.EventTypePageView, SessionID: "s5", Timestamp: fixedNow.Add(-5 * time.Hour),
			RawData: map[string]any{"page": map[string]any{"url": "https://nn.nl/"}}},
	}
	for _, evt := range events {
		require.NoError(t, store.InsertEvent(context.Background(), evt))
	}
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type listResponse struct {
	Success    bool             `json:"success"`
	Data       []v1.StoredEvent `json:"data"`
	Pagination v1.Pagination    `json:"pagination"`
}

func TestListEvents_FilterByType(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store)
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events?eventType=click&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 3)
	require.Equal(t, 3, resp.Pagination.Total)
	require.Equal(t, 5, resp.Pagination.Limit)
	require.False(t, resp.Pagination.HasMore)

	// Newest first.
	require.Equal(t, "click-1", resp.Data[0].ID)
	require.Equal(t, "click-3", resp.Data[2].ID)
}

func TestListEvents_DefaultsAndPagination(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store)
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	require.Equal(t, 5, resp.Pagination.Total)
	require.Equal(t, 10, resp.Pagination.Limit)
	require.Zero(t, resp.Pagination.Offset)
	require.False(t, resp.Pagination.HasMore)

	rec = get(router, "/api/events?limit=2&offset=2")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, 5, resp.Pagination.Total)
	require.True(t, resp.Pagination.HasMore)
	require.Equal(t, "click-3", resp.Data[0].ID)
	require.Equal(t, "view-1", resp.Data[1].ID)
}

func TestListEvents_TimestampRangeFilter(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store)
	router, _ := newTestRouter(t, store)

	start := fixedNow.Add(-3 * time.Hour).Format(time.RFC3339)
	end := fixedNow.Add(-2 * time.Hour).Format(time.RFC3339)
	rec := get(router, fmt.Sprintf("/api/events?startDate=%s&endDate=%s", start, end))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Bounds are inclusive, so click-2 and click-3 both match.
	require.Len(t, resp.Data, 2)
	require.Equal(t, "click-2", resp.Data[0].ID)
	require.Equal(t, "click-3", resp.Data[1].ID)
}

func TestListEvents_EmptyResult(t *testing.T) {
	store := memory.NewStore()
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events?userId=nobody")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	require.Empty(t, resp.Data)
	require.Zero(t, resp.Pagination.Total)
	require.False(t, resp.Pagination.HasMore)
}

func TestListEvents_InvalidParameters(t *testing.T) {
	store := memory.NewStore()
	router, _ := newTestRouter(t, store)

	tests := []struct {
		name  string
		path  string
		field string
	}{
		{"unknown event type", "/api/events?eventType=scroll", "eventType"},
		{"limit above maximum", "/api/events?limit=500", "limit"},
		{"limit zero", "/api/events?limit=0", "limit"},
		{"negative offset", "/api/events?offset=-1", "offset"},
		{"malformed start date", "/api/events?startDate=yesterday", "startDate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(router, tc.path)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Success bool            `json:"success"`
				Details []v1.FieldError `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.False(t, resp.Success)
			require.Len(t, resp.Details, 1)
			require.Equal(t, tc.field, resp.Details[0].Field)
		})
	}
}

func TestGetEvent(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store)
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events/view-2")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    v1.StoredEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "view-2", resp.Data.ID)
	require.Equal(t, v1.EventTypePageView, resp.Data.EventType)

	page, ok := resp.Data.RawData["page"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "https://nn.nl/", page["url"])
}

func TestGetEvent_NotFound(t *testing.T) {
	store := memory.NewStore()
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		Error     string `json:"error"`
		ErrorType string `json:"errorType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "Event not found", resp.Error)
	require.Equal(t, "not_found", resp.ErrorType)
}

func TestStatistics(t *testing.T) {
	store := memory.NewStore()
	seedStore(t, store)
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events/statistics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    v1.Statistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, int64(5), resp.Data.TotalEvents)
	require.Equal(t, map[string]int64{"click": 3, "pageView": 2}, resp.Data.EventsByType)
	require.Equal(t, int64(3), resp.Data.UniqueUsers) // view-2 has no user id
	require.Equal(t, int64(5), resp.Data.UniqueSessions)
	require.Equal(t, fixedNow.Format(time.RFC3339), resp.Data.Timestamp)

	var sum int64
	for _, n := range resp.Data.EventsByType {
		sum += n
	}
	require.Equal(t, resp.Data.TotalEvents, sum)
}

func TestStatistics_EmptyStore(t *testing.T) {
	store := memory.NewStore()
	router, _ := newTestRouter(t, store)

	rec := get(router, "/api/events/statistics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data v1.Statistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Data.TotalEvents)
	require.NotNil(t, resp.Data.EventsByType)
	require.Empty(t, resp.Data.EventsByType)
}
