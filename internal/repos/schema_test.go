package repos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/repos"
)

func TestOrderTotalsCheckedByStore(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	insert := func(id string, subtotal, shipping, tax, discount, total float64) error {
		_, err := db.Exec(`
			INSERT INTO orders(id, order_number, user_id, payment_method,
				subtotal, shipping_amount, tax_amount, discount_amount, total_amount,
				shipping_address_json, billing_address_json)
			SELECT ?, ?, id, 'cod', ?, ?, ?, ?, ?, '{}', '{}' FROM users LIMIT 1`,
			id, "ALM-2026-9"+id, subtotal, shipping, tax, discount, total)
		return err
	}

	require.NoError(t, insert("ok", 100, 20, 5, 0, 125))

	err = insert("bad", 100, 20, 5, 0, 130)
	require.Error(t, err)
	assert.True(t, repos.IsCheckViolation(err), "mismatched total must trip the totals constraint")

	err = insert("neg", 100, 20, 5, 200, -75)
	require.Error(t, err)
	assert.True(t, repos.IsCheckViolation(err))
}
