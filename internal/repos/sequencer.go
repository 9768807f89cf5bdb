package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Prefixes for the two year-scoped numbering spaces.
const (
	OrderNumberPrefix  = "ALM"
	TicketNumberPrefix = "TKT"
)

// NextNumber produces PREFIX-YYYY-NNNNNN where NNNNNN is one past the
// current maximum for that prefix and year, found by scanning existing
// identifiers rather than a counter table. It must run inside the same
// transaction as the insert consuming the number; the UNIQUE index on the
// target column catches concurrent collisions and the caller retries.
func NextNumber(e sqlx.Ext, table, column, prefix string, year int) (string, error) {
	// The numeric part starts right after "PREFIX-YYYY-" (substr is 1-based).
	start := len(prefix) + 7
	q := fmt.Sprintf(
		`SELECT COALESCE(MAX(CAST(substr(%s, %d) AS INTEGER)), 0) FROM %s WHERE %s LIKE ?`,
		column, start, table, column)

	var cur int
	if err := sqlx.Get(e, &cur, q, fmt.Sprintf("%s-%04d-%%", prefix, year)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, cur+1), nil
}
