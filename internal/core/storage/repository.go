package storage

import (
	"context"
	"errors"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
	"github.com/collector-lab/event-collector/internal/core/query"
)

// ErrNotFound is returned when no event exists for a requested id.
// An id miss is a normal outcome, not a store failure.
var ErrNotFound = errors.New("event not found")

// EventStore is the durable persistence capability the core depends on.
// Stored events are append-only: there is no update or delete path.
type EventStore interface {
	// InsertEvent persists an event atomically and populates the
	// store-owned fields (ID, CreatedAt, UpdatedAt) on the record.
	InsertEvent(ctx context.Context, event *v1.StoredEvent) error

	// FindEvents returns one page of events matching the conjunctive
	// clauses, newest-first by event timestamp, together with the total
	// matching count.
	FindEvents(ctx context.Context, clauses []query.Clause, page query.Page) ([]*v1.StoredEvent, int, error)

	// FindEventByID returns a single event or ErrNotFound.
	FindEventByID(ctx context.Context, id string) (*v1.StoredEvent, error)

	// CountEvents returns the number of events matching the clauses.
	CountEvents(ctx context.Context, clauses []query.Clause) (int64, error)

	// CountByType returns event counts grouped by eventType.
	CountByType(ctx context.Context) (map[string]int64, error)

	// CountDistinctUsers counts distinct non-null user ids.
	CountDistinctUsers(ctx context.Context) (int64, error)

	// CountDistinctSessions counts distinct non-null session ids.
	CountDistinctSessions(ctx context.Context) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}
