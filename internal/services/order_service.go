package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// Pricing rules applied at checkout. Totals are always computed server-side.
const (
	freeShippingThreshold = 2999
	flatShippingFee       = 99
	taxRate               = 0.18
)

// numberAttempts bounds retries when two checkouts race for the same order
// number; the loser of the UNIQUE index re-scans and tries again.
const numberAttempts = 3

type OrderService struct {
	DB      *sqlx.DB
	Carts   *repos.CartRepo
	Inv     *repos.InventoryRepo
	Orders  *repos.OrderRepo
	Addrs   *repos.AddressRepo
	Coupons *CouponService
}

func NewOrderService(db *sqlx.DB, carts *repos.CartRepo, inv *repos.InventoryRepo,
	orders *repos.OrderRepo, addrs *repos.AddressRepo, coupons *CouponService) *OrderService {
	return &OrderService{DB: db, Carts: carts, Inv: inv, Orders: orders, Addrs: addrs, Coupons: coupons}
}

type CheckoutInput struct {
	ShippingAddressID string
	// Empty means "same as shipping".
	BillingAddressID string
	PaymentMethod    string
	CouponCode       string
	Notes            string
}

// Checkout turns the principal's cart into an order. Coupon redemption,
// stock reservation, order number assignment and the order insert are one
// transaction: any failure leaves no partial order, no decremented stock and
// no orphaned coupon usage.
func (s *OrderService) Checkout(p domain.Principal, in CheckoutInput) (*domain.Order, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	switch in.PaymentMethod {
	case domain.PayCOD, domain.PayCard, domain.PayUPI, domain.PayNetbanking, domain.PayWallet:
	default:
		return nil, domain.Validationf("unknown payment method %q", in.PaymentMethod)
	}

	shipping, err := s.addressSnapshot(p.ID, in.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	billing := shipping
	if in.BillingAddressID != "" && in.BillingAddressID != in.ShippingAddressID {
		if billing, err = s.addressSnapshot(p.ID, in.BillingAddressID); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		o, err := s.checkoutOnce(p, in, shipping, billing)
		if err != nil && errors.Is(err, errNumberCollision) {
			lastErr = err
			continue
		}
		return o, err
	}
	return nil, domain.Conflictf("order numbering contention, please retry: %v", lastErr)
}

// errNumberCollision marks a UNIQUE failure on order_number so the caller
// retries instead of surfacing a numbering error to the user.
var errNumberCollision = errors.New("order number collision")

func (s *OrderService) checkoutOnce(p domain.Principal, in CheckoutInput, shipping, billing string) (*domain.Order, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	lines, err := s.Carts.Lines(tx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.Validationf("cart is empty")
	}

	var subtotal float64
	for _, l := range lines {
		if l.Status != domain.ProductActive && l.Status != domain.ProductOutOfStock {
			return nil, domain.Validationf("product %q is no longer available", l.ProductName)
		}
		subtotal += domain.Round2(l.UnitPrice() * float64(l.Quantity))
	}
	subtotal = domain.Round2(subtotal)

	shippingAmount := float64(flatShippingFee)
	if subtotal >= freeShippingThreshold {
		shippingAmount = 0
	}
	taxAmount := domain.Round2(subtotal * taxRate)

	orderID := uuid.NewString()

	// Coupon first: its usage row references the order id and rolls back
	// with everything else.
	var discount float64
	var couponCode *string
	if in.CouponCode != "" {
		res, err := s.Coupons.Apply(tx, in.CouponCode, p.ID, orderID, subtotal, lines)
		if err != nil {
			return nil, err
		}
		discount = res.Amount
		couponCode = &res.Code
	}

	// Reserve stock with conditional decrements; the first line without
	// enough stock aborts the whole unit.
	for _, l := range lines {
		if err := s.Inv.Reserve(tx, l.ProductID, l.VariantID, l.Quantity); err != nil {
			return nil, err
		}
	}

	num, err := repos.NextNumber(tx, "orders", "order_number", repos.OrderNumberPrefix, time.Now().UTC().Year())
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	o := &domain.Order{
		ID:                  orderID,
		OrderNumber:         num,
		UserID:              p.ID,
		Status:              domain.OrderPending,
		PaymentStatus:       domain.PaymentPending,
		PaymentMethod:       in.PaymentMethod,
		Subtotal:            subtotal,
		ShippingAmount:      shippingAmount,
		TaxAmount:           taxAmount,
		DiscountAmount:      discount,
		TotalAmount:         domain.Round2(subtotal + shippingAmount + taxAmount - discount),
		CouponCode:          couponCode,
		ShippingAddressJSON: shipping,
		BillingAddressJSON:  billing,
		Notes:               in.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Orders.Insert(tx, o); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, errNumberCollision
		}
		return nil, repos.Translate(err)
	}

	for _, l := range lines {
		var variantID *string
		if l.VariantID != "" {
			v := l.VariantID
			variantID = &v
		}
		item := &domain.OrderItem{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			ProductID:    l.ProductID,
			VariantID:    variantID,
			ProductName:  l.ProductName,
			ProductSKU:   l.ProductSKU,
			ProductImage: firstImage(l.ImagesJSON),
			VariantName:  l.VariantName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice(),
			TotalPrice:   domain.Round2(l.UnitPrice() * float64(l.Quantity)),
		}
		if err := s.Orders.InsertItem(tx, item); err != nil {
			return nil, err
		}
	}

	if err := s.Carts.Clear(tx, p.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// addressSnapshot copies the address into order-embedded JSON. The snapshot
// never tracks later edits to the live address.
func (s *OrderService) addressSnapshot(userID, addressID string) (string, error) {
	if addressID == "" {
		return "", domain.Validationf("shipping address is required")
	}
	a, err := s.Addrs.Get(addressID, userID)
	if err != nil {
		return "", domain.Validationf("invalid address %s", addressID)
	}
	snap := domain.OrderAddress{
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func firstImage(imagesJSON string) string {
	var imgs []string
	if json.Unmarshal([]byte(imagesJSON), &imgs) == nil && len(imgs) > 0 {
		return imgs[0]
	}
	return ""
}

// Get returns an order with its items. A foreign principal gets not-found,
// never a hint that the order exists.
func (s *OrderService) Get(p domain.Principal, orderID string) (*domain.Order, []domain.OrderItem, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return nil, nil, err
	}
	if !OwnerOrAdmin(p, o.UserID) {
		return nil, nil, domain.ErrNotFound
	}
	items, err := s.Orders.Items(orderID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (s *OrderService) History(p domain.Principal, limit, offset int) ([]repos.OrderSummary, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	return s.Orders.ListByUser(p.ID, limit, offset)
}

func (s *OrderService) ListAll(p domain.Principal, status string, limit, offset int) ([]repos.OrderSummary, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Orders.ListAll(status, limit, offset)
}

// TrackingEvent is one step of the order timeline.
type TrackingEvent struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

// Track builds the tracking timeline from the lifecycle timestamps.
func (s *OrderService) Track(p domain.Principal, orderID string) ([]TrackingEvent, error) {
	o, _, err := s.Get(p, orderID)
	if err != nil {
		return nil, err
	}
	events := []TrackingEvent{{
		Status:      "placed",
		Timestamp:   o.CreatedAt,
		Description: "Order " + o.OrderNumber + " has been placed",
	}}
	add := func(ts *string, status, desc string) {
		if ts != nil {
			events = append(events, TrackingEvent{Status: status, Timestamp: *ts, Description: desc})
		}
	}
	add(o.ConfirmedAt, domain.OrderConfirmed, "Order confirmed and being prepared")
	add(o.ShippedAt, domain.OrderShipped, "Order shipped")
	add(o.DeliveredAt, domain.OrderDelivered, "Order delivered")
	add(o.CancelledAt, domain.OrderCancelled, "Order cancelled")
	return events, nil
}
