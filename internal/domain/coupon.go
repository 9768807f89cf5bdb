package domain

// Coupon discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID             string   `db:"id"`
	Code           string   `db:"code"`
	Description    string   `db:"description"`
	DiscountType   string   `db:"discount_type"`
	DiscountValue  float64  `db:"discount_value"`
	MinOrderAmount float64  `db:"min_order_amount"`
	// nil means uncapped.
	MaxDiscountAmount *float64 `db:"max_discount_amount"`
	// nil means unlimited.
	UsageLimit        *int `db:"usage_limit"`
	UsageLimitPerUser int  `db:"usage_limit_per_user"`
	// Derived from coupon_usages rows; never written directly.
	UsedCount int    `db:"used_count"`
	IsActive  bool   `db:"is_active"`
	ValidFrom string `db:"valid_from"`
	ValidUntil string `db:"valid_until"`

	ApplicableProductsJSON   string `db:"applicable_products_json"`
	ApplicableCategoriesJSON string `db:"applicable_categories_json"`

	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Discount computes the amount taken off an order with the given subtotal:
// percentage of subtotal or the fixed value, capped by MaxDiscountAmount and
// never exceeding the subtotal itself.
func (c Coupon) Discount(subtotal float64) float64 {
	var d float64
	switch c.DiscountType {
	case DiscountPercentage:
		d = Round2(subtotal * c.DiscountValue / 100)
	default:
		d = c.DiscountValue
	}
	if c.MaxDiscountAmount != nil && d > *c.MaxDiscountAmount {
		d = *c.MaxDiscountAmount
	}
	if d > subtotal {
		d = subtotal
	}
	return Round2(d)
}

// CouponUsage is one redemption. Inserting and deleting these rows is the
// sole driver of Coupon.UsedCount.
type CouponUsage struct {
	ID        string `db:"id"`
	CouponID  string `db:"coupon_id"`
	UserID    string `db:"user_id"`
	OrderID   string `db:"order_id"`
	CreatedAt string `db:"created_at"`
}

type DiscountResult struct {
	CouponID string
	Code     string
	Amount   float64
}
