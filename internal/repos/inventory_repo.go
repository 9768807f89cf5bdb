package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

// InventoryRepo owns stock counters on products and variants. All mutation
// is by conditional delta updates so concurrent checkouts cannot lose each
// other's writes; CHECK(stock_quantity >= 0) backstops the floor.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Reserve subtracts qty if enough stock exists, against the variant when one
// is named, the product otherwise. The variant path also checks the parent
// product id so a mismatched pair cannot decrement a foreign variant.
func (r *InventoryRepo) Reserve(e sqlx.Ext, productID, variantID string, qty int) error {
	if qty <= 0 {
		return domain.Validationf("quantity must be positive, got %d", qty)
	}
	if variantID != "" {
		res, err := e.Exec(`
			UPDATE product_variants
			SET stock_quantity = stock_quantity - ?
			WHERE id = ? AND product_id = ? AND stock_quantity >= ?
		`, qty, variantID, productID, qty)
		if err != nil {
			return Translate(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: variant %s", domain.ErrInsufficientStock, variantID)
		}
		return nil
	}

	res, err := e.Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
		    status = CASE WHEN stock_quantity - ? = 0 AND status = 'active' THEN 'out_of_stock' ELSE status END,
		    updated_at = ?
		WHERE id = ? AND stock_quantity >= ?
	`, qty, qty, domain.Now(), productID, qty)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, productID)
	}
	return nil
}

// Restock returns qty units, reactivating a product that sold out.
func (r *InventoryRepo) Restock(e sqlx.Ext, productID, variantID string, qty int) error {
	if qty <= 0 {
		return domain.Validationf("quantity must be positive, got %d", qty)
	}
	if variantID != "" {
		_, err := e.Exec(`
			UPDATE product_variants
			SET stock_quantity = stock_quantity + ?
			WHERE id = ? AND product_id = ?
		`, qty, variantID, productID)
		return Translate(err)
	}
	_, err := e.Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
		    status = CASE WHEN status = 'out_of_stock' THEN 'active' ELSE status END,
		    updated_at = ?
		WHERE id = ?
	`, qty, domain.Now(), productID)
	return Translate(err)
}

// Qty returns current product stock.
func (r *InventoryRepo) Qty(productID string) (int, error) {
	var qty int
	if err := r.db.Get(&qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID); err != nil {
		return 0, Translate(err)
	}
	return qty, nil
}

// VariantQty returns current variant stock.
func (r *InventoryRepo) VariantQty(variantID string) (int, error) {
	var qty int
	if err := r.db.Get(&qty, `SELECT stock_quantity FROM product_variants WHERE id = ?`, variantID); err != nil {
		return 0, Translate(err)
	}
	return qty, nil
}

// SetQty sets an absolute stock level (admin restock/correction).
func (r *InventoryRepo) SetQty(productID string, qty int) error {
	if qty < 0 {
		return domain.Validationf("stock cannot be negative, got %d", qty)
	}
	res, err := r.db.Exec(`
		UPDATE products
		SET stock_quantity = ?,
		    status = CASE
		      WHEN ? = 0 AND status = 'active' THEN 'out_of_stock'
		      WHEN ? > 0 AND status = 'out_of_stock' THEN 'active'
		      ELSE status END,
		    updated_at = ?
		WHERE id = ?
	`, qty, qty, qty, domain.Now(), productID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("product %s", productID)
	}
	return nil
}
