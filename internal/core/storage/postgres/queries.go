package postgres

// Fixed SQL statements for the event store. Filtered scans are assembled
// at runtime from filter clauses, see filter.go.

const (
	// eventColumns is the canonical select list; scanEventRow depends on
	// this order.
	eventColumns = `
		id, event_type, user_id, session_id, timestamp,
		raw_data, enriched_data, ip_address, user_agent,
		created_at, updated_at`

	// queryInsertEvent persists one event. created_at/updated_at are
	// store-assigned via column defaults; RETURNING hands them back so
	// the caller sees the exact persisted record.
	queryInsertEvent = `
		INSERT INTO events (
			id, event_type, user_id, session_id, timestamp,
			raw_data, enriched_data, ip_address, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	queryFindEventByID = `
		SELECT
			id, event_type, user_id, session_id, timestamp,
			raw_data, enriched_data, ip_address, user_agent,
			created_at, updated_at
		FROM events
		WHERE id = $1
	`

	queryCountByType = `
		SELECT event_type, COUNT(*)
		FROM events
		GROUP BY event_type
	`

	queryCountDistinctUsers = `
		SELECT COUNT(DISTINCT user_id)
		FROM events
		WHERE user_id IS NOT NULL
	`

	queryCountDistinctSessions = `
		SELECT COUNT(DISTINCT session_id)
		FROM events
		WHERE session_id IS NOT NULL
	`
)
