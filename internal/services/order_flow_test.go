package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/domain"
	"almira/internal/services"
)

func TestCheckoutAssignsNumberAndTotals(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Plain Band", 100, 10)

	o, err := e.checkout(t, cust, "", map[string]int{prod.ID: 2})
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("ALM-%04d-000001", year), o.OrderNumber)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)

	// 200 subtotal, 99 flat shipping below the free threshold, 18% tax.
	assert.InDelta(t, 200.0, o.Subtotal, 0.001)
	assert.InDelta(t, 99.0, o.ShippingAmount, 0.001)
	assert.InDelta(t, 36.0, o.TaxAmount, 0.001)
	assert.InDelta(t, 335.0, o.TotalAmount, 0.001)

	// Stock was taken at creation and the cart emptied.
	qty, err := e.inv.Qty(prod.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, qty)
	view, err := e.Cart.View(cust)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	// The snapshot lines carry the purchase price.
	_, items, err := e.Order.Get(cust, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Plain Band", items[0].ProductName)
	assert.InDelta(t, 100.0, items[0].UnitPrice, 0.001)
}

func TestCheckoutNumbersAreSequential(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Stud Earrings", 50, 100)

	var numbers []string
	for i := 0; i < 3; i++ {
		o, err := e.checkout(t, cust, "", map[string]int{prod.ID: 1})
		require.NoError(t, err)
		numbers = append(numbers, o.OrderNumber)
	}
	year := time.Now().UTC().Year()
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("ALM-%04d-%06d", year, i+1), n)
	}
}

func TestCheckoutFreeShippingAboveThreshold(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Gold Chain", 3000, 5)

	o, err := e.checkout(t, cust, "", map[string]int{prod.ID: 1})
	require.NoError(t, err)
	assert.Zero(t, o.ShippingAmount)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	_, err := e.Order.Checkout(cust, services.CheckoutInput{
		ShippingAddressID: e.shipTo(t, cust),
		PaymentMethod:     domain.PayCOD,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	scarce := e.product(t, "Limited Pendant", 500, 1)
	plenty := e.product(t, "Silver Ring", 400, 50)

	// Coupon applies and plenty's stock reserves before scarce fails; all of
	// it must roll back.
	cp, err := e.Coupon.Create(admin, services.CouponInput{
		Code:          "ROLLBACK10",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: 10,
		ValidFrom:     "2000-01-01 00:00:00",
		ValidUntil:    "2100-01-01 00:00:00",
	})
	require.NoError(t, err)

	require.NoError(t, e.Cart.Add(cust, plenty.ID, "", 2))
	// Bypass the cart's stock check to exercise the transactional one.
	_, err = e.db.Exec(`INSERT INTO cart_items(user_id, product_id, quantity) VALUES (?,?,?)`,
		cust.ID, scarce.ID, 3)
	require.NoError(t, err)

	_, err = e.Order.Checkout(cust, services.CheckoutInput{
		ShippingAddressID: e.shipTo(t, cust),
		PaymentMethod:     domain.PayCOD,
		CouponCode:        "ROLLBACK10",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// No order, no stock movement, no coupon usage, cart intact.
	var orders int
	require.NoError(t, e.db.Get(&orders, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, orders)

	qty, err := e.inv.Qty(plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, qty)

	var usages int
	require.NoError(t, e.db.Get(&usages, `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ?`, cp.ID))
	assert.Zero(t, usages)
	var usedCount int
	require.NoError(t, e.db.Get(&usedCount, `SELECT used_count FROM coupons WHERE id = ?`, cp.ID))
	assert.Zero(t, usedCount)

	view, err := e.Cart.View(cust)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
}

func TestCheckoutDrainingStockFlipsStatus(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Last Piece Brooch", 750, 2)

	_, err := e.checkout(t, cust, "", map[string]int{prod.ID: 2})
	require.NoError(t, err)

	got, err := e.Catalog.Get(admin, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductOutOfStock, got.Status)
	assert.Zero(t, got.StockQuantity)
}

func TestOrderReadsAreOwnerScoped(t *testing.T) {
	e := newEnv(t, memdb(t))
	owner := e.customer(t)
	other := e.customer(t)
	prod := e.product(t, "Anklet", 900, 5)

	o, err := e.checkout(t, owner, "", map[string]int{prod.ID: 1})
	require.NoError(t, err)

	// A foreign principal gets the same answer as for a missing order.
	_, _, err = e.Order.Get(other, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = e.Order.Get(other, "no-such-order")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = e.Order.Get(owner, o.ID)
	assert.NoError(t, err)
	_, _, err = e.Order.Get(admin, o.ID)
	assert.NoError(t, err)
}

func TestCheckoutVariantPricingAndStock(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	// Seeded ring: sale price 22499, size 8 variant adds 500 with stock 3.
	require.NoError(t, e.Cart.Add(cust, "prd-solitaire-ring", "var-ring-8", 1))
	o, err := e.Order.Checkout(cust, services.CheckoutInput{
		ShippingAddressID: e.shipTo(t, cust),
		PaymentMethod:     domain.PayUPI,
	})
	require.NoError(t, err)
	assert.InDelta(t, 22999.0, o.Subtotal, 0.001)

	vqty, err := e.inv.VariantQty("var-ring-8")
	require.NoError(t, err)
	assert.Equal(t, 2, vqty)
	// The base product's own stock is untouched by a variant sale.
	qty, err := e.inv.Qty("prd-solitaire-ring")
	require.NoError(t, err)
	assert.Equal(t, 12, qty)
}
