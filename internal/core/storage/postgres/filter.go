package postgres

import (
	"fmt"
	"strings"

	"github.com/collector-lab/event-collector/internal/core/query"
)

// Columns a filter clause may constrain. The clause field names map 1:1
// onto the events table columns.
var clauseColumns = map[query.Field]string{
	query.FieldEventType: "event_type",
	query.FieldUserID:    "user_id",
	query.FieldSessionID: "session_id",
	query.FieldTimestamp: "timestamp",
}

var clauseOperators = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGTE: ">=",
	query.OpLTE: "<=",
}

// buildWhere renders a conjunctive clause list as a parameterized WHERE
// fragment. An empty clause list yields an empty fragment. Placeholders
// start at $1; callers appending LIMIT/OFFSET continue the numbering
// from len(args).
func buildWhere(clauses []query.Clause) (string, []interface{}, error) {
	if len(clauses) == 0 {
		return "", nil, nil
	}

	conditions := make([]string, 0, len(clauses))
	args := make([]interface{}, 0, len(clauses))

	for _, c := range clauses {
		column, ok := clauseColumns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		operator, ok := clauseOperators[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter operator %q", c.Op)
		}
		args = append(args, c.Value)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, operator, len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}
