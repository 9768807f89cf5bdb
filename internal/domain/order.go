package domain

// Order statuses. The main path runs pending through delivered; cancelled,
// returned and refunded branch off it.
const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderProcessing     = "processing"
	OrderShipped        = "shipped"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
	OrderReturned       = "returned"
	OrderRefunded       = "refunded"
)

// Payment statuses.
const (
	PaymentPending           = "pending"
	PaymentPaid              = "paid"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

// Payment methods.
const (
	PayCOD        = "cod"
	PayCard       = "card"
	PayUPI        = "upi"
	PayNetbanking = "netbanking"
	PayWallet     = "wallet"
)

var orderTransitions = map[string][]string{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderShipped, OrderCancelled},
	OrderShipped:        {OrderOutForDelivery, OrderDelivered},
	OrderOutForDelivery: {OrderDelivered},
	OrderDelivered:      {OrderReturned},
	OrderReturned:       {OrderRefunded},
}

var paymentTransitions = map[string][]string{
	PaymentPending:           {PaymentPaid, PaymentFailed},
	PaymentFailed:            {PaymentPending, PaymentPaid},
	PaymentPaid:              {PaymentRefunded, PaymentPartiallyRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded},
}

func CanTransitionOrder(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to string) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidOrderState is the legal (status, payment_status) matrix. The two axes
// move independently, so combinations the store cannot forbid on its own are
// rejected here:
//   - a failed payment leaves only pending and cancelled reachable;
//   - shipment and delivery require payment, except cash on delivery, where
//     "delivered" with payment still pending is the normal case;
//   - a refunded order must actually carry a refunded payment.
func ValidOrderState(status, payment, method string) error {
	if payment == PaymentFailed && status != OrderPending && status != OrderCancelled {
		return Validationf("order cannot be %s with a failed payment", status)
	}
	switch status {
	case OrderShipped, OrderOutForDelivery, OrderDelivered:
		if payment == PaymentPending && method != PayCOD {
			return Validationf("order cannot be %s before payment on a %s order", status, method)
		}
	case OrderRefunded:
		if payment != PaymentRefunded && payment != PaymentPartiallyRefunded {
			return Validationf("refunded order requires a refunded payment, got %q", payment)
		}
	}
	return nil
}

// OrderAddress is the address snapshot stored on the order at creation time.
// It is deliberately never re-derived from the live address row.
type OrderAddress struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type Order struct {
	ID            string `db:"id"`
	OrderNumber   string `db:"order_number"`
	UserID        string `db:"user_id"`
	Status        string `db:"status"`
	PaymentStatus string `db:"payment_status"`
	PaymentMethod string `db:"payment_method"`

	Subtotal       float64 `db:"subtotal"`
	ShippingAmount float64 `db:"shipping_amount"`
	TaxAmount      float64 `db:"tax_amount"`
	DiscountAmount float64 `db:"discount_amount"`
	TotalAmount    float64 `db:"total_amount"`

	CouponCode *string `db:"coupon_code"`

	ShippingAddressJSON string `db:"shipping_address_json"`
	BillingAddressJSON  string `db:"billing_address_json"`

	TrackingNumber     string `db:"tracking_number"`
	TrackingURL        string `db:"tracking_url"`
	CancellationReason string `db:"cancellation_reason"`
	Notes              string `db:"notes"`

	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
	ConfirmedAt *string `db:"confirmed_at"`
	ShippedAt   *string `db:"shipped_at"`
	DeliveredAt *string `db:"delivered_at"`
	CancelledAt *string `db:"cancelled_at"`
}

// OrderItem carries a snapshot of the product at purchase time so later
// catalog edits do not rewrite order history.
type OrderItem struct {
	ID           string  `db:"id"`
	OrderID      string  `db:"order_id"`
	ProductID    string  `db:"product_id"`
	VariantID    *string `db:"variant_id"`
	ProductName  string  `db:"product_name"`
	ProductSKU   string  `db:"product_sku"`
	ProductImage string  `db:"product_image"`
	VariantName  string  `db:"variant_name"`
	Quantity     int     `db:"quantity"`
	UnitPrice    float64 `db:"unit_price"`
	TotalPrice   float64 `db:"total_price"`
}

type PaymentEvent struct {
	ID        string `db:"id"`
	OrderID   string `db:"order_id"`
	PaymentID string `db:"payment_id"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
}
