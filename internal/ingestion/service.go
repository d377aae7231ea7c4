package ingestion

import (
	"github.com/gin-gonic/gin"

	"github.com/collector-lab/event-collector/internal/core/storage"
	"github.com/collector-lab/event-collector/internal/enrichment"
)

// Service owns the event write path: validate, enrich, persist.
type Service struct {
	store            storage.EventStore
	enricher         *enrichment.Enricher
	maxBodySizeBytes int
}

func NewService(store storage.EventStore, enricher *enrichment.Enricher, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if enricher == nil {
		panic("ingestion: enricher must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		enricher:         enricher,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/events", s.CreateEventHandler)
}
