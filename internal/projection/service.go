// Package projection serves the read paths: filtered event listing,
// lookup by id, and the aggregate statistics snapshot.
package projection

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	"github.com/collector-lab/event-collector/internal/core/query"
	"github.com/collector-lab/event-collector/internal/core/storage"
)

// Service implements the query layer over the event store.
type Service struct {
	store storage.EventStore
	nowFn func() time.Time
}

// NewService creates a new projection service.
func NewService(store storage.EventStore) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	return &Service{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the snapshot clock. For tests.
func (s *Service) SetNowFunc(nowFn func() time.Time) {
	s.nowFn = nowFn
}

// ListEvents translates the validated query into filter clauses, runs the
// paginated scan and shapes the page + pagination metadata as one unit.
func (s *Service) ListEvents(ctx context.Context, q v1.EventQuery) (*v1.PaginatedResponse, error) {
	clauses, page := query.Build(q)

	events, total, err := s.store.FindEvents(ctx, clauses, page)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*v1.StoredEvent{}
	}

	return &v1.PaginatedResponse{
		Data: events,
		Pagination: v1.Pagination{
			Total:   total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: query.HasMore(total, page),
		},
	}, nil
}

// GetEvent returns one event by id; a miss propagates storage.ErrNotFound.
func (s *Service) GetEvent(ctx context.Context, id string) (*v1.StoredEvent, error) {
	return s.store.FindEventByID(ctx, id)
}

// Statistics assembles the aggregate snapshot from four independent
// read-only queries, executed concurrently. If any one fails the whole
// snapshot fails; there are no partial statistics. The snapshot carries a
// single coherent timestamp taken once per request.
func (s *Service) Statistics(ctx context.Context) (*v1.Statistics, error) {
	stats := &v1.Statistics{
		Timestamp: s.nowFn().UTC().Format(time.RFC3339),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.store.CountEvents(gctx, nil)
		if err != nil {
			return err
		}
		stats.TotalEvents = total
		return nil
	})
	g.Go(func() error {
		byType, err := s.store.CountByType(gctx)
		if err != nil {
			return err
		}
		stats.EventsByType = byType
		return nil
	})
	g.Go(func() error {
		users, err := s.store.CountDistinctUsers(gctx)
		if err != nil {
			return err
		}
		stats.UniqueUsers = users
		return nil
	})
	g.Go(func() error {
		sessions, err := s.store.CountDistinctSessions(gctx)
		if err != nil {
			return err
		}
		stats.UniqueSessions = sessions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.EventsByType == nil {
		stats.EventsByType = map[string]int64{}
	}

	slog.Debug("Statistics snapshot assembled",
		"total_events", stats.TotalEvents,
		"unique_users", stats.UniqueUsers,
		"unique_sessions", stats.UniqueSessions)

	return stats, nil
}
