// Package query turns a validated EventQuery into a backend-agnostic
// filter: a conjunctive list of typed clauses plus a pagination window.
// Both the Postgres adapter and the in-memory store interpret the same
// clause list, so filter semantics live here rather than in SQL strings.
package query

import (
	v1 "github.com/collector-lab/event-collector/internal/api/v1"
)

// Field names a stored-event attribute a clause constrains.
type Field string

const (
	FieldEventType Field = "event_type"
	FieldUserID    Field = "user_id"
	FieldSessionID Field = "session_id"
	FieldTimestamp Field = "timestamp"
)

// Op is the comparison a clause applies. Range bounds are inclusive.
type Op string

const (
	OpEq  Op = "eq"
	OpGTE Op = "gte"
	OpLTE Op = "lte"
)

// Clause is one conjunctive constraint over stored events.
type Clause struct {
	Field Field
	Op    Op
	Value interface{}
}

// Pagination window defaults and bounds. Out-of-range values are a
// validation error at the API boundary, never clamped here.
const (
	DefaultLimit  = 10
	MaxLimit      = 100
	DefaultOffset = 0
)

// Page bounds a query's result slice.
type Page struct {
	Limit  int
	Offset int
}

// Build translates a validated EventQuery into filter clauses and a
// pagination window. Absent filter fields produce no clause.
func Build(q v1.EventQuery) ([]Clause, Page) {
	var clauses []Clause

	if q.EventType != "" {
		clauses = append(clauses, Clause{Field: FieldEventType, Op: OpEq, Value: q.EventType})
	}
	if q.UserID != "" {
		clauses = append(clauses, Clause{Field: FieldUserID, Op: OpEq, Value: q.UserID})
	}
	if q.SessionID != "" {
		clauses = append(clauses, Clause{Field: FieldSessionID, Op: OpEq, Value: q.SessionID})
	}
	if q.StartDate != nil {
		clauses = append(clauses, Clause{Field: FieldTimestamp, Op: OpGTE, Value: *q.StartDate})
	}
	if q.EndDate != nil {
		clauses = append(clauses, Clause{Field: FieldTimestamp, Op: OpLTE, Value: *q.EndDate})
	}

	page := Page{Limit: q.Limit, Offset: q.Offset}
	if page.Limit == 0 {
		page.Limit = DefaultLimit
	}

	return clauses, page
}

// HasMore reports whether rows exist beyond the requested window.
// Derived from the total matching count, not from the returned page
// size, so it holds even when the final page is short.
func HasMore(total int, p Page) bool {
	return p.Offset+p.Limit < total
}
