// Package memory provides an in-memory storage.EventStore. It interprets
// the same filter clauses as the Postgres adapter, which keeps the filter
// semantics backend-agnostic and gives handler tests a real store without
// a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	"github.com/collector-lab/event-collector/internal/core/query"
	"github.com/collector-lab/event-collector/internal/core/storage"
)

// Store is an append-only in-memory event store safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []*v1.StoredEvent
	nowFn  func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used for created_at/updated_at. For tests.
func (s *Store) SetNowFunc(nowFn func() time.Time) {
	s.nowFn = nowFn
}

// InsertEvent appends a copy of the event and populates the store-owned
// fields on the caller's record.
func (s *Store) InsertEvent(_ context.Context, event *v1.StoredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := s.nowFn()
	event.CreatedAt = now
	event.UpdatedAt = now

	stored := *event
	s.events = append(s.events, &stored)
	return nil
}

// FindEvents returns the matching page newest-first plus the total count.
func (s *Store) FindEvents(_ context.Context, clauses []query.Clause, page query.Page) ([]*v1.StoredEvent, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(clauses)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := len(matched)
	start := page.Offset
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	out := make([]*v1.StoredEvent, 0, end-start)
	for _, evt := range matched[start:end] {
		copied := *evt
		out = append(out, &copied)
	}
	return out, total, nil
}

// FindEventByID returns a single event or storage.ErrNotFound.
func (s *Store) FindEventByID(_ context.Context, id string) (*v1.StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, evt := range s.events {
		if evt.ID == id {
			copied := *evt
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

// CountEvents returns the number of events matching the clauses.
func (s *Store) CountEvents(_ context.Context, clauses []query.Clause) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(clauses)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// CountByType returns event counts grouped by eventType.
func (s *Store) CountByType(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, evt := range s.events {
		counts[evt.EventType]++
	}
	return counts, nil
}

// CountDistinctUsers counts distinct non-empty user ids.
func (s *Store) CountDistinctUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, evt := range s.events {
		if evt.UserID != "" {
			seen[evt.UserID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// CountDistinctSessions counts distinct non-empty session ids.
func (s *Store) CountDistinctSessions(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, evt := range s.events {
		if evt.SessionID != "" {
			seen[evt.SessionID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// Ping always succeeds; the store lives in-process.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored events. For tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// match is called with the read lock held.
func (s *Store) match(clauses []query.Clause) ([]*v1.StoredEvent, error) {
	var matched []*v1.StoredEvent
	for _, evt := range s.events {
		ok, err := matches(evt, clauses)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, evt)
		}
	}
	return matched, nil
}

// matches evaluates the conjunctive clause list against one event.
func matches(evt *v1.StoredEvent, clauses []query.Clause) (bool, error) {
	for _, c := range clauses {
		switch c.Field {
		case query.FieldEventType, query.FieldUserID, query.FieldSessionID:
			want, ok := c.Value.(string)
			if !ok || c.Op != query.OpEq {
				return false, fmt.Errorf("unsupported clause %s %s", c.Field, c.Op)
			}
			if fieldValue(evt, c.Field) != want {
				return false, nil
			}
		case query.FieldTimestamp:
			bound, ok := c.Value.(time.Time)
			if !ok {
				return false, fmt.Errorf("timestamp clause requires a time.Time value")
			}
			switch c.Op {
			case query.OpGTE:
				if evt.Timestamp.Before(bound) {
					return false, nil
				}
			case query.OpLTE:
				if evt.Timestamp.After(bound) {
					return false, nil
				}
			default:
				return false, fmt.Errorf("unsupported timestamp operator %q", c.Op)
			}
		default:
			return false, fmt.Errorf("unsupported filter field %q", c.Field)
		}
	}
	return true, nil
}

func fieldValue(evt *v1.StoredEvent, f query.Field) string {
	switch f {
	case query.FieldEventType:
		return evt.EventType
	case query.FieldUserID:
		return evt.UserID
	case query.FieldSessionID:
		return evt.SessionID
	}
	return ""
}
