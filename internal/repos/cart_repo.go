package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine joins a cart item with the live product for display and
// checkout pricing. Prices are always re-derived here, never stored in the
// cart, so stale carts cannot buy at an old price.
type CartLine struct {
	ProductID   string   `db:"product_id"`
	VariantID   string   `db:"variant_id"`
	ProductName string   `db:"product_name"`
	ProductSKU  string   `db:"product_sku"`
	ImagesJSON  string   `db:"images_json"`
	CategoryID  *string  `db:"category_id"`
	Status      string   `db:"status"`
	BasePrice   float64  `db:"base_price"`
	SalePrice   *float64 `db:"sale_price"`
	VariantName string   `db:"variant_name"`
	VariantAdj  float64  `db:"variant_adj"`
	VariantSKU  string   `db:"variant_sku"`
	Quantity    int      `db:"quantity"`
}

// UnitPrice is the current effective price for the line.
func (l CartLine) UnitPrice() float64 {
	p := l.BasePrice
	if l.SalePrice != nil {
		p = *l.SalePrice
	}
	return p + l.VariantAdj
}

// Upsert adds qty to an existing line or creates one.
func (r *CartRepo) Upsert(userID, productID, variantID string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(user_id, product_id, variant_id, quantity, created_at, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(user_id, product_id, variant_id)
		DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = excluded.updated_at
	`, userID, productID, variantID, qty, domain.Now(), domain.Now())
	return Translate(err)
}

// SetQuantity replaces a line's quantity.
func (r *CartRepo) SetQuantity(userID, productID, variantID string, qty int) error {
	res, err := r.db.Exec(`
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE user_id = ? AND product_id = ? AND variant_id = ?
	`, qty, domain.Now(), userID, productID, variantID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("cart item %s", productID)
	}
	return nil
}

func (r *CartRepo) Remove(userID, productID, variantID string) error {
	_, err := r.db.Exec(`
		DELETE FROM cart_items WHERE user_id = ? AND product_id = ? AND variant_id = ?
	`, userID, productID, variantID)
	return Translate(err)
}

// Lines reads the cart joined with products and variants.
func (r *CartRepo) Lines(e sqlx.Ext, userID string) ([]CartLine, error) {
	var out []CartLine
	err := sqlx.Select(e, &out, `
		SELECT ci.product_id, ci.variant_id, ci.quantity,
		       p.name AS product_name, p.sku AS product_sku, p.images_json,
		       p.category_id, p.status, p.base_price, p.sale_price,
		       COALESCE(v.name, '') AS variant_name,
		       COALESCE(v.price_adjustment, 0) AS variant_adj,
		       COALESCE(v.sku, '') AS variant_sku
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants v ON v.id = ci.variant_id
		WHERE ci.user_id = ?
		ORDER BY datetime(ci.created_at)
	`, userID)
	return out, Translate(err)
}

// Clear empties the cart; checkout calls this inside its transaction.
func (r *CartRepo) Clear(e sqlx.Ext, userID string) error {
	_, err := e.Exec(`DELETE FROM cart_items WHERE user_id = ?`, userID)
	return Translate(err)
}
