package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(p *domain.Product) error {
	_, err := r.db.Exec(`
		INSERT INTO products
		  (id, category_id, name, slug, description, short_description, sku,
		   base_price, sale_price, stock_quantity, status, images_json, tags_json,
		   material, purity, weight_grams, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.CategoryID, p.Name, p.Slug, p.Description, p.ShortDescription, p.SKU,
		p.BasePrice, p.SalePrice, p.StockQuantity, p.Status, p.ImagesJSON, p.TagsJSON,
		p.Material, p.Purity, p.WeightGrams, p.CreatedAt, p.UpdatedAt)
	return Translate(err)
}

// Update rewrites the catalog-owned columns. rating/review_count belong to
// the stats maintainer and stock_quantity to the inventory ledger; neither
// is touched here.
func (r *ProductRepo) Update(p *domain.Product) error {
	res, err := r.db.Exec(`
		UPDATE products
		SET category_id = ?, name = ?, slug = ?, description = ?, short_description = ?,
		    sku = ?, base_price = ?, sale_price = ?, status = ?, images_json = ?,
		    tags_json = ?, material = ?, purity = ?, weight_grams = ?, updated_at = ?
		WHERE id = ?
	`, p.CategoryID, p.Name, p.Slug, p.Description, p.ShortDescription,
		p.SKU, p.BasePrice, p.SalePrice, p.Status, p.ImagesJSON,
		p.TagsJSON, p.Material, p.Purity, p.WeightGrams, p.UpdatedAt,
		p.ID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("product %s", p.ID)
	}
	return nil
}

func (r *ProductRepo) Get(id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.Get(&p, `SELECT * FROM products WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &p, nil
}

func (r *ProductRepo) GetTx(e sqlx.Ext, id string) (*domain.Product, error) {
	var p domain.Product
	if err := sqlx.Get(e, &p, `SELECT * FROM products WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &p, nil
}

func (r *ProductRepo) BySlug(slug string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.Get(&p, `SELECT * FROM products WHERE slug = ?`, slug); err != nil {
		return nil, Translate(err)
	}
	return &p, nil
}

// ListFilter narrows the public and admin listings.
type ListFilter struct {
	CategoryID string
	Status     string
	MinPrice   float64
	MaxPrice   float64
	InStock    bool
	Limit      int
	Offset     int
}

func (r *ProductRepo) List(f ListFilter) ([]domain.Product, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	q := `SELECT * FROM products WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.CategoryID != "" {
		q += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.MinPrice > 0 {
		q += ` AND COALESCE(sale_price, base_price) >= ?`
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q += ` AND COALESCE(sale_price, base_price) <= ?`
		args = append(args, f.MaxPrice)
	}
	if f.InStock {
		q += ` AND stock_quantity > 0`
	}
	q += ` ORDER BY datetime(created_at) DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	var out []domain.Product
	err := r.db.Select(&out, q, args...)
	return out, Translate(err)
}

// Archive retires a product instead of deleting it; order items keep their
// snapshots either way.
func (r *ProductRepo) Archive(id string) error {
	res, err := r.db.Exec(`UPDATE products SET status = 'archived', updated_at = ? WHERE id = ?`, domain.Now(), id)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("product %s", id)
	}
	return nil
}

// Delete removes the row; variants cascade.
func (r *ProductRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("product %s", id)
	}
	return nil
}

// ---------- Variants ----------

func (r *ProductRepo) CreateVariant(v *domain.ProductVariant) error {
	_, err := r.db.Exec(`
		INSERT INTO product_variants(id, product_id, sku, name, price_adjustment, stock_quantity, is_active, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`, v.ID, v.ProductID, v.SKU, v.Name, v.PriceAdjustment, v.StockQuantity, v.IsActive, v.CreatedAt)
	return Translate(err)
}

func (r *ProductRepo) Variants(productID string) ([]domain.ProductVariant, error) {
	var out []domain.ProductVariant
	err := r.db.Select(&out, `SELECT * FROM product_variants WHERE product_id = ? ORDER BY name`, productID)
	return out, Translate(err)
}

func (r *ProductRepo) Variant(e sqlx.Ext, id string) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := sqlx.Get(e, &v, `SELECT * FROM product_variants WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &v, nil
}

// ---------- Categories ----------

func (r *ProductRepo) CreateCategory(c *domain.Category) error {
	_, err := r.db.Exec(`
		INSERT INTO categories(id, name, slug, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?)
	`, c.ID, c.Name, c.Slug, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return Translate(err)
}

func (r *ProductRepo) Categories(activeOnly bool) ([]domain.Category, error) {
	q := `SELECT * FROM categories`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`

	var out []domain.Category
	err := r.db.Select(&out, q)
	return out, Translate(err)
}
