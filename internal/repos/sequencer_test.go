package repos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/repos"
)

func TestNextNumberScansPerYear(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	num, err := repos.NextNumber(db, "support_tickets", "ticket_number", repos.TicketNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Equal(t, "TKT-2026-000001", num)

	insert := func(number string) {
		t.Helper()
		_, err := db.Exec(`
			INSERT INTO support_tickets(id, ticket_number, user_id, subject)
			SELECT ?, ?, id, 'x' FROM users LIMIT 1`, number, number)
		require.NoError(t, err)
	}
	insert("TKT-2026-000007")
	insert("TKT-2025-000042")

	num, err = repos.NextNumber(db, "support_tickets", "ticket_number", repos.TicketNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Equal(t, "TKT-2026-000008", num, "continues after the year's maximum")

	num, err = repos.NextNumber(db, "support_tickets", "ticket_number", repos.TicketNumberPrefix, 2025)
	require.NoError(t, err)
	assert.Equal(t, "TKT-2025-000043", num, "each year has its own sequence")

	num, err = repos.NextNumber(db, "support_tickets", "ticket_number", repos.TicketNumberPrefix, 2027)
	require.NoError(t, err)
	assert.Equal(t, "TKT-2027-000001", num, "a new year restarts at one")
}
