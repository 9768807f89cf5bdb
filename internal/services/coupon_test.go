package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almira/internal/domain"
	"almira/internal/services"
)

func f64(v float64) *float64 { return &v }

func TestCouponDiscountMath(t *testing.T) {
	pct := domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: 10, MaxDiscountAmount: f64(200)}
	assert.InDelta(t, 200.0, pct.Discount(5000), 0.001, "cap applies")
	assert.InDelta(t, 150.0, pct.Discount(1500), 0.001)

	fixed := domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: 500}
	assert.InDelta(t, 500.0, fixed.Discount(2000), 0.001)
	assert.InDelta(t, 300.0, fixed.Discount(300), 0.001, "never exceeds subtotal")
}

func TestCheckoutAppliesPercentageCouponWithCap(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Tennis Bracelet", 1000, 10)

	_, err := e.Coupon.Create(admin, services.CouponInput{
		Code:              "SAVE10",
		DiscountType:      domain.DiscountPercentage,
		DiscountValue:     10,
		MinOrderAmount:    500,
		MaxDiscountAmount: f64(200),
		ValidFrom:         "2000-01-01 00:00:00",
		ValidUntil:        "2100-01-01 00:00:00",
	})
	require.NoError(t, err)

	o, err := e.checkout(t, cust, "SAVE10", map[string]int{prod.ID: 2})
	require.NoError(t, err)
	assert.InDelta(t, 2000.0, o.Subtotal, 0.001)
	assert.InDelta(t, 200.0, o.DiscountAmount, 0.001)
	require.NotNil(t, o.CouponCode)
	assert.Equal(t, "SAVE10", *o.CouponCode)
	// 2000 + 0 shipping + 360 tax - 200.
	assert.InDelta(t, 2160.0, o.TotalAmount, 0.001)

	// Default per-user limit is one redemption.
	_, err = e.checkout(t, cust, "SAVE10", map[string]int{prod.ID: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCouponRejections(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)
	prod := e.product(t, "Nose Pin", 200, 50)
	require.NoError(t, e.Cart.Add(cust, prod.ID, "", 1))
	lines, err := e.Cart.View(cust)
	require.NoError(t, err)

	mk := func(in services.CouponInput) {
		t.Helper()
		_, err := e.Coupon.Create(admin, in)
		require.NoError(t, err)
	}
	mk(services.CouponInput{Code: "EXPIRED", DiscountType: domain.DiscountFixed, DiscountValue: 50,
		ValidFrom: "2000-01-01 00:00:00", ValidUntil: "2001-01-01 00:00:00"})
	mk(services.CouponInput{Code: "NOTYET", DiscountType: domain.DiscountFixed, DiscountValue: 50,
		ValidFrom: "2099-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})
	mk(services.CouponInput{Code: "BIGSPEND", DiscountType: domain.DiscountFixed, DiscountValue: 50,
		MinOrderAmount: 10000, ValidFrom: "2000-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})
	mk(services.CouponInput{Code: "SCOPED", DiscountType: domain.DiscountFixed, DiscountValue: 50,
		ApplicableProducts: []string{"some-other-product"},
		ValidFrom:          "2000-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})

	for _, code := range []string{"EXPIRED", "NOTYET", "BIGSPEND", "SCOPED", "NOSUCH"} {
		_, err := e.Coupon.Preview(cust, code, lines.Subtotal, lines.Lines)
		assert.ErrorIs(t, err, domain.ErrValidation, "code %s", code)
	}

	// Deactivated coupons validate like missing ones.
	cp, err := e.Coupon.Create(admin, services.CouponInput{
		Code: "SOON-OFF", DiscountType: domain.DiscountFixed, DiscountValue: 50,
		ValidFrom: "2000-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})
	require.NoError(t, err)
	require.NoError(t, e.Coupon.SetActive(admin, cp.ID, false))
	_, err = e.Coupon.Preview(cust, "SOON-OFF", lines.Subtotal, lines.Lines)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCouponScopedToCategoryMatchesCart(t *testing.T) {
	e := newEnv(t, memdb(t))
	cust := e.customer(t)

	// Seeded ring belongs to cat-rings.
	require.NoError(t, e.Cart.Add(cust, "prd-solitaire-ring", "", 1))
	view, err := e.Cart.View(cust)
	require.NoError(t, err)

	_, err = e.Coupon.Create(admin, services.CouponInput{
		Code: "RINGS5", DiscountType: domain.DiscountPercentage, DiscountValue: 5,
		ApplicableCategories: []string{"cat-rings"},
		ValidFrom:            "2000-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})
	require.NoError(t, err)

	res, err := e.Coupon.Preview(cust, "RINGS5", view.Subtotal, view.Lines)
	require.NoError(t, err)
	assert.Equal(t, "RINGS5", res.Code)
	assert.Greater(t, res.Amount, 0.0)
}

func TestUsedCountTracksUsageRows(t *testing.T) {
	e := newEnv(t, memdb(t))
	prod := e.product(t, "Hoop Earrings", 800, 100)

	_, err := e.Coupon.Create(admin, services.CouponInput{
		Code: "TRACKED", DiscountType: domain.DiscountFixed, DiscountValue: 25,
		ValidFrom: "2000-01-01 00:00:00", ValidUntil: "2100-01-01 00:00:00"})
	require.NoError(t, err)

	var orderIDs []string
	for i := 0; i < 3; i++ {
		cust := e.customer(t)
		o, err := e.checkout(t, cust, "TRACKED", map[string]int{prod.ID: 1})
		require.NoError(t, err)
		orderIDs = append(orderIDs, o.ID)
	}

	check := func(want int) {
		t.Helper()
		var usedCount, usages int
		require.NoError(t, e.db.Get(&usedCount, `SELECT used_count FROM coupons WHERE code = 'TRACKED'`))
		require.NoError(t, e.db.Get(&usages, `SELECT COUNT(*) FROM coupon_usages`))
		assert.Equal(t, want, usedCount)
		assert.Equal(t, want, usages)
	}
	check(3)

	// Cancelling releases the redemption and the counter follows.
	o, err := e.orders.Get(orderIDs[0])
	require.NoError(t, err)
	_, err = e.Lifecycle.Cancel(domain.Principal{ID: o.UserID, Role: domain.RoleCustomer}, o.ID, "changed my mind")
	require.NoError(t, err)
	check(2)
}
