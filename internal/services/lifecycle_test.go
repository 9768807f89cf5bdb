package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/domain"
	"almira/internal/services"
)

func placeOrder(t *testing.T, e *env, price float64, qty int) (*domain.Order, domain.Principal, *domain.Product) {
	t.Helper()
	cust := e.customer(t)
	prod := e.product(t, "Lifecycle Piece", price, 20)
	o, err := e.checkout(t, cust, "", map[string]int{prod.ID: qty})
	require.NoError(t, err)
	return o, cust, prod
}

func TestTransitionHappyPathStampsTimestamps(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, _, _ := placeOrder(t, e, 1200, 1)

	step := func(status string) *domain.Order {
		t.Helper()
		got, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: status})
		require.NoError(t, err)
		return got
	}

	got := step(domain.OrderConfirmed)
	require.NotNil(t, got.ConfirmedAt)

	step(domain.OrderProcessing)
	got = step(domain.OrderShipped)
	require.NotNil(t, got.ShippedAt)

	got = step(domain.OrderDelivered)
	require.NotNil(t, got.DeliveredAt)

	// The tracking timeline reflects every stamped step.
	events, err := e.Order.Track(admin, o.ID)
	require.NoError(t, err)
	var statuses []string
	for _, ev := range events {
		statuses = append(statuses, ev.Status)
	}
	assert.Equal(t, []string{"placed", "confirmed", "shipped", "delivered"}, statuses)
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, _, _ := placeOrder(t, e, 1200, 1)

	for _, target := range []string{
		domain.OrderShipped,   // skips confirmed/processing
		domain.OrderDelivered, // skips everything
		domain.OrderReturned,  // only from delivered
	} {
		_, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: target})
		assert.ErrorIs(t, err, domain.ErrValidation, "pending -> %s", target)
	}

	// Terminal states accept nothing further.
	_, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderCancelled})
	require.NoError(t, err)
	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderConfirmed})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransitionRequiresAdmin(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, cust, _ := placeOrder(t, e, 1200, 1)

	_, err := e.Lifecycle.Transition(cust, o.ID, services.TransitionInput{Status: domain.OrderConfirmed})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShippingUnpaidNonCODRejected(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Card Paid Chain", 2000, 5)
	require.NoError(t, e.Cart.Add(cust, prod.ID, "", 1))
	o, err := e.Order.Checkout(cust, services.CheckoutInput{
		ShippingAddressID: e.shipTo(t, cust),
		PaymentMethod:     domain.PayCard,
	})
	require.NoError(t, err)

	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderConfirmed})
	require.NoError(t, err)
	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderProcessing})
	require.NoError(t, err)

	// Still pending payment on a card order: shipping is off the table.
	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderShipped})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Once paid it ships fine.
	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{PaymentStatus: domain.PaymentPaid})
	require.NoError(t, err)
	_, err = e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: domain.OrderShipped, TrackingNumber: "AWB123"})
	require.NoError(t, err)

	got, _, err := e.Order.Get(admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "AWB123", got.TrackingNumber)
}

func TestCustomerCancelRestocksAndRefunds(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, cust, prod := placeOrder(t, e, 1500, 2)

	// Mark it paid first so cancellation must also refund.
	_, err := e.Lifecycle.HandlePaymentEvent(o.ID, "pay-001", "success")
	require.NoError(t, err)

	got, err := e.Lifecycle.Cancel(cust, o.ID, "ordered the wrong size")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)
	assert.Equal(t, domain.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, "ordered the wrong size", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)

	qty, err := e.inv.Qty(prod.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, qty, "cancelled stock returns to the shelf")
}

func TestCustomerCannotCancelShippedOrForeignOrders(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, cust, _ := placeOrder(t, e, 1500, 1)

	_, err := e.Lifecycle.Cancel(e.customer(t), o.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, status := range []string{domain.OrderConfirmed, domain.OrderProcessing} {
		_, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: status})
		require.NoError(t, err)
	}
	_, err = e.Lifecycle.Cancel(cust, o.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReturnOnlyWithinWindow(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, cust, prod := placeOrder(t, e, 1500, 1)

	_, err := e.Lifecycle.RequestReturn(cust, o.ID, "broken clasp")
	assert.ErrorIs(t, err, domain.ErrValidation, "not delivered yet")

	for _, status := range []string{domain.OrderConfirmed, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered} {
		_, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: status})
		require.NoError(t, err)
	}

	_, err = e.Lifecycle.RequestReturn(cust, o.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation, "reason required")

	got, err := e.Lifecycle.RequestReturn(cust, o.ID, "broken clasp")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderReturned, got.Status)

	// Returned goods wait for inspection; stock does not move.
	qty, err := e.inv.Qty(prod.ID)
	require.NoError(t, err)
	assert.Equal(t, 19, qty)
}

func TestReturnWindowExpires(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, cust, _ := placeOrder(t, e, 1500, 1)

	for _, status := range []string{domain.OrderConfirmed, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered} {
		_, err := e.Lifecycle.Transition(admin, o.ID, services.TransitionInput{Status: status})
		require.NoError(t, err)
	}
	// Age the delivery past the window.
	old := time.Now().UTC().Add(-8 * 24 * time.Hour).Format(domain.TimeLayout)
	_, err := e.db.Exec(`UPDATE orders SET delivered_at = ? WHERE id = ?`, old, o.ID)
	require.NoError(t, err)

	_, err = e.Lifecycle.RequestReturn(cust, o.ID, "changed my mind")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPaymentWebhookIdempotentAndConfirming(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, _, _ := placeOrder(t, e, 3200, 1)

	got, err := e.Lifecycle.HandlePaymentEvent(o.ID, "pay-abc", "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, domain.OrderConfirmed, got.Status, "successful payment confirms a pending order")

	// Same payment id replayed changes nothing.
	got, err = e.Lifecycle.HandlePaymentEvent(o.ID, "pay-abc", "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)

	var events int
	require.NoError(t, e.db.Get(&events, `SELECT COUNT(*) FROM payment_events WHERE order_id = ?`, o.ID))
	assert.Equal(t, 1, events)

	_, err = e.Lifecycle.HandlePaymentEvent(o.ID, "pay-xyz", "gibberish")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPaymentFailureThenRetry(t *testing.T) {
	e := newEnv(t, memdb(t))
	o, _, _ := placeOrder(t, e, 3200, 1)

	got, err := e.Lifecycle.HandlePaymentEvent(o.ID, "pay-1", "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, domain.OrderPending, got.Status)

	got, err = e.Lifecycle.HandlePaymentEvent(o.ID, "pay-2", "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
}
