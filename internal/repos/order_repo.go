package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderSummary is the light row used by listings.
type OrderSummary struct {
	ID            string  `db:"id"`
	OrderNumber   string  `db:"order_number"`
	Status        string  `db:"status"`
	PaymentStatus string  `db:"payment_status"`
	TotalAmount   float64 `db:"total_amount"`
	ItemCount     int     `db:"item_count"`
	CreatedAt     string  `db:"created_at"`
}

// Insert writes the order header. Runs inside the checkout transaction so a
// numbering collision or constraint failure rolls back the whole unit.
func (r *OrderRepo) Insert(e sqlx.Ext, o *domain.Order) error {
	_, err := e.Exec(`
	  INSERT INTO orders
	    (id, order_number, user_id, status, payment_status, payment_method,
	     subtotal, shipping_amount, tax_amount, discount_amount, total_amount,
	     coupon_code, shipping_address_json, billing_address_json, notes,
	     created_at, updated_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.Subtotal, o.ShippingAmount, o.TaxAmount, o.DiscountAmount, o.TotalAmount,
		o.CouponCode, o.ShippingAddressJSON, o.BillingAddressJSON, o.Notes,
		o.CreatedAt, o.UpdatedAt)
	return err
}

// InsertItem writes one snapshot line item.
func (r *OrderRepo) InsertItem(e sqlx.Ext, it *domain.OrderItem) error {
	_, err := e.Exec(`
	  INSERT INTO order_items
	    (id, order_id, product_id, variant_id, product_name, product_sku,
	     product_image, variant_name, quantity, unit_price, total_price)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, it.ID, it.OrderID, it.ProductID, it.VariantID, it.ProductName, it.ProductSKU,
		it.ProductImage, it.VariantName, it.Quantity, it.UnitPrice, it.TotalPrice)
	return Translate(err)
}

func (r *OrderRepo) Get(orderID string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT * FROM orders WHERE id = ?`, orderID); err != nil {
		return nil, Translate(err)
	}
	return &o, nil
}

// GetTx reads an order inside a transaction (lifecycle transitions re-read
// state under the write lock).
func (r *OrderRepo) GetTx(e sqlx.Ext, orderID string) (*domain.Order, error) {
	var o domain.Order
	if err := sqlx.Get(e, &o, `SELECT * FROM orders WHERE id = ?`, orderID); err != nil {
		return nil, Translate(err)
	}
	return &o, nil
}

func (r *OrderRepo) Items(orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := r.db.Select(&items, `SELECT * FROM order_items WHERE order_id = ? ORDER BY product_name`, orderID)
	return items, Translate(err)
}

func (r *OrderRepo) ItemsTx(e sqlx.Ext, orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := sqlx.Select(e, &items, `SELECT * FROM order_items WHERE order_id = ?`, orderID)
	return items, Translate(err)
}

func (r *OrderRepo) ListByUser(userID string, limit, offset int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT o.id, o.order_number, o.status, o.payment_status, o.total_amount,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
		       o.created_at
		FROM orders o
		WHERE o.user_id = ?
		ORDER BY datetime(o.created_at) DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	return out, Translate(err)
}

func (r *OrderRepo) ListAll(status string, limit, offset int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := `
		SELECT o.id, o.order_number, o.status, o.payment_status, o.total_amount,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
		       o.created_at
		FROM orders o`
	args := []any{}
	if status != "" {
		q += ` WHERE o.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(o.created_at) DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []OrderSummary
	err := r.db.Select(&out, q, args...)
	return out, Translate(err)
}

// SaveState persists the mutable lifecycle fields. Everything set at
// creation (amounts, snapshots, order number) stays untouched.
func (r *OrderRepo) SaveState(e sqlx.Ext, o *domain.Order) error {
	_, err := e.Exec(`
		UPDATE orders
		SET status = ?, payment_status = ?,
		    tracking_number = ?, tracking_url = ?,
		    cancellation_reason = ?, updated_at = ?,
		    confirmed_at = ?, shipped_at = ?, delivered_at = ?, cancelled_at = ?
		WHERE id = ?
	`, o.Status, o.PaymentStatus,
		o.TrackingNumber, o.TrackingURL,
		o.CancellationReason, o.UpdatedAt,
		o.ConfirmedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt,
		o.ID)
	return Translate(err)
}

// InsertPaymentEvent records a gateway confirmation. The UNIQUE payment_id
// makes replayed webhooks a conflict the lifecycle treats as already done.
func (r *OrderRepo) InsertPaymentEvent(e sqlx.Ext, ev *domain.PaymentEvent) error {
	_, err := e.Exec(`
		INSERT INTO payment_events(id, order_id, payment_id, status, created_at)
		VALUES (?,?,?,?,?)
	`, ev.ID, ev.OrderID, ev.PaymentID, ev.Status, ev.CreatedAt)
	return Translate(err)
}

// HasDeliveredPurchase reports whether the user has a delivered order
// containing the product; feeds the verified-purchase flag on reviews.
func (r *OrderRepo) HasDeliveredPurchase(e sqlx.Ext, userID, productID string) (bool, error) {
	var n int
	err := sqlx.Get(e, &n, `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.status = 'delivered'
	`, userID, productID)
	return n > 0, Translate(err)
}
