package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/collector-lab/event-collector/internal/api/v1"
)

// marshalEventJSON marshals an event's raw payload and enriched metadata
// to JSON for the jsonb columns.
//
// Absent enriched metadata produces nil (SQL NULL) rather than the JSON
// "null" literal.
func marshalEventJSON(event *v1.StoredEvent) (rawJSON, enrichedJSON []byte, err error) {
	rawJSON, err = json.Marshal(event.RawData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal raw data: %w", err)
	}

	if event.EnrichedData != nil {
		enrichedJSON, err = json.Marshal(event.EnrichedData)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal enriched data: %w", err)
		}
	}

	return rawJSON, enrichedJSON, nil
}

// nullString converts an optional field to its nullable column value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans one events row into a StoredEvent. Column order
// must match eventColumns. Compatible with both sql.Row and sql.Rows.
func scanEventRow(row scanner) (*v1.StoredEvent, error) {
	var (
		evt                       v1.StoredEvent
		userID, sessionID, ip, ua sql.NullString
		rawJSON, enrichedJSON     []byte
	)

	err := row.Scan(
		&evt.ID,
		&evt.EventType,
		&userID,
		&sessionID,
		&evt.Timestamp,
		&rawJSON,
		&enrichedJSON,
		&ip,
		&ua,
		&evt.CreatedAt,
		&evt.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.UserID = userID.String
	evt.SessionID = sessionID.String
	evt.IPAddress = ip.String
	evt.UserAgent = ua.String

	if err := json.Unmarshal(rawJSON, &evt.RawData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw data: %w", err)
	}
	if len(enrichedJSON) > 0 {
		if err := json.Unmarshal(enrichedJSON, &evt.EnrichedData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal enriched data: %w", err)
		}
	}

	return &evt, nil
}
