package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

func (r *CouponRepo) Create(c *domain.Coupon) error {
	_, err := r.db.Exec(`
		INSERT INTO coupons
		  (id, code, description, discount_type, discount_value, min_order_amount,
		   max_discount_amount, usage_limit, usage_limit_per_user, is_active,
		   valid_from, valid_until, applicable_products_json, applicable_categories_json,
		   created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MinOrderAmount,
		c.MaxDiscountAmount, c.UsageLimit, c.UsageLimitPerUser, c.IsActive,
		c.ValidFrom, c.ValidUntil, c.ApplicableProductsJSON, c.ApplicableCategoriesJSON,
		c.CreatedAt, c.UpdatedAt)
	return Translate(err)
}

func (r *CouponRepo) ByCode(e sqlx.Ext, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := sqlx.Get(e, &c, `SELECT * FROM coupons WHERE UPPER(code) = UPPER(?)`, code); err != nil {
		return nil, Translate(err)
	}
	return &c, nil
}

func (r *CouponRepo) List(limit, offset int) ([]domain.Coupon, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []domain.Coupon
	err := r.db.Select(&out, `SELECT * FROM coupons ORDER BY datetime(created_at) DESC LIMIT ? OFFSET ?`, limit, offset)
	return out, Translate(err)
}

func (r *CouponRepo) SetActive(id string, active bool) error {
	res, err := r.db.Exec(`UPDATE coupons SET is_active = ?, updated_at = ? WHERE id = ?`, active, domain.Now(), id)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("coupon %s", id)
	}
	return nil
}

// UserUsageCount counts prior redemptions by one user.
func (r *CouponRepo) UserUsageCount(e sqlx.Ext, couponID, userID string) (int, error) {
	var n int
	err := sqlx.Get(e, &n, `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND user_id = ?`, couponID, userID)
	return n, Translate(err)
}

// UsageCount counts all redemptions; used_count must always equal it.
func (r *CouponRepo) UsageCount(e sqlx.Ext, couponID string) (int, error) {
	var n int
	err := sqlx.Get(e, &n, `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ?`, couponID)
	return n, Translate(err)
}

// RecordUsage inserts the usage row and bumps used_count in one go. The
// increment is guarded by the global limit, so two concurrent redemptions of
// a coupon's last slot cannot both land: the loser sees zero rows affected.
// used_count is never written from anywhere else.
func (r *CouponRepo) RecordUsage(e sqlx.Ext, u *domain.CouponUsage) error {
	res, err := e.Exec(`
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = ?
		WHERE id = ? AND (usage_limit IS NULL OR used_count < usage_limit)
	`, domain.Now(), u.CouponID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Conflictf("coupon usage limit reached")
	}
	_, err = e.Exec(`
		INSERT INTO coupon_usages(id, coupon_id, user_id, order_id, created_at)
		VALUES (?,?,?,?,?)
	`, u.ID, u.CouponID, u.UserID, u.OrderID, u.CreatedAt)
	return Translate(err)
}

// ReleaseUsage removes the redemption for an order and decrements used_count
// with a floor at zero. Runs when a cancelled order gives its coupon back.
func (r *CouponRepo) ReleaseUsage(e sqlx.Ext, couponID, orderID string) error {
	res, err := e.Exec(`DELETE FROM coupon_usages WHERE coupon_id = ? AND order_id = ?`, couponID, orderID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	_, err = e.Exec(`
		UPDATE coupons
		SET used_count = MAX(used_count - 1, 0), updated_at = ?
		WHERE id = ?
	`, domain.Now(), couponID)
	return Translate(err)
}
