package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// returnWindow is how long after delivery a return may be requested.
const returnWindow = 7 * 24 * time.Hour

// LifecycleService owns every order state change after checkout. Transition
// is the single sanctioned mutation path; its side effects (timestamps,
// restock, coupon release) ride the same transaction as the state write.
type LifecycleService struct {
	DB      *sqlx.DB
	Orders  *repos.OrderRepo
	Inv     *repos.InventoryRepo
	Coupons *repos.CouponRepo
}

func NewLifecycleService(db *sqlx.DB, orders *repos.OrderRepo, inv *repos.InventoryRepo, coupons *repos.CouponRepo) *LifecycleService {
	return &LifecycleService{DB: db, Orders: orders, Inv: inv, Coupons: coupons}
}

type TransitionInput struct {
	// Either field may be empty to leave that axis unchanged.
	Status        string
	PaymentStatus string

	TrackingNumber string
	TrackingURL    string
	Reason         string
}

// Transition applies a state change as an admin.
func (s *LifecycleService) Transition(p domain.Principal, orderID string, in TransitionInput) (*domain.Order, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return s.transition(orderID, in)
}

// Cancel lets the owner abandon an order that has not started fulfilment.
// Stock returns to the shelf and the coupon redemption is released.
func (s *LifecycleService) Cancel(p domain.Principal, orderID, reason string) (*domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !OwnerOrAdmin(p, o.UserID) {
		return nil, domain.ErrNotFound
	}
	if !p.IsAdmin() && o.Status != domain.OrderPending && o.Status != domain.OrderConfirmed {
		return nil, domain.Validationf("order cannot be cancelled at this stage")
	}
	if reason == "" {
		reason = "Cancelled by customer"
	}
	return s.transition(orderID, TransitionInput{Status: domain.OrderCancelled, Reason: reason})
}

// RequestReturn flags a delivered order for return, within the window.
func (s *LifecycleService) RequestReturn(p domain.Principal, orderID, reason string) (*domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if !OwnerOrAdmin(p, o.UserID) {
		return nil, domain.ErrNotFound
	}
	if o.Status != domain.OrderDelivered || o.DeliveredAt == nil {
		return nil, domain.Validationf("only delivered orders can be returned")
	}
	delivered, err := domain.ParseTime(*o.DeliveredAt)
	if err == nil && time.Now().UTC().After(delivered.Add(returnWindow)) {
		return nil, domain.Validationf("return window has expired")
	}
	if reason == "" {
		return nil, domain.Validationf("a return reason is required")
	}
	return s.transition(orderID, TransitionInput{Status: domain.OrderReturned, Reason: "Return requested: " + reason})
}

func (s *LifecycleService) transition(orderID string, in TransitionInput) (*domain.Order, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Re-read under the write lock so two admins cannot race each other.
	o, err := s.Orders.GetTx(tx, orderID)
	if err != nil {
		return nil, err
	}

	newStatus := o.Status
	if in.Status != "" && in.Status != o.Status {
		if !domain.CanTransitionOrder(o.Status, in.Status) {
			return nil, domain.Validationf("cannot move order from %s to %s", o.Status, in.Status)
		}
		newStatus = in.Status
	}
	newPayment := o.PaymentStatus
	if in.PaymentStatus != "" && in.PaymentStatus != o.PaymentStatus {
		if !domain.CanTransitionPayment(o.PaymentStatus, in.PaymentStatus) {
			return nil, domain.Validationf("cannot move payment from %s to %s", o.PaymentStatus, in.PaymentStatus)
		}
		newPayment = in.PaymentStatus
	}

	// Cancelling a paid order refunds it in the same step.
	if newStatus == domain.OrderCancelled && newPayment == domain.PaymentPaid {
		newPayment = domain.PaymentRefunded
	}

	if err := domain.ValidOrderState(newStatus, newPayment, o.PaymentMethod); err != nil {
		return nil, err
	}

	now := domain.Now()
	statusChanged := newStatus != o.Status
	o.Status = newStatus
	o.PaymentStatus = newPayment
	o.UpdatedAt = now
	if in.TrackingNumber != "" {
		o.TrackingNumber = in.TrackingNumber
	}
	if in.TrackingURL != "" {
		o.TrackingURL = in.TrackingURL
	}

	if statusChanged {
		switch newStatus {
		case domain.OrderConfirmed:
			o.ConfirmedAt = &now
		case domain.OrderShipped:
			o.ShippedAt = &now
		case domain.OrderDelivered:
			// Unlocks verified-purchase eligibility for reviews of the
			// contained products.
			o.DeliveredAt = &now
		case domain.OrderCancelled:
			o.CancelledAt = &now
			o.CancellationReason = in.Reason
			if err := s.restock(tx, o); err != nil {
				return nil, err
			}
			if err := s.releaseCoupon(tx, o); err != nil {
				return nil, err
			}
		case domain.OrderReturned:
			o.CancellationReason = in.Reason
		}
	}

	if err := s.Orders.SaveState(tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// restock returns every line's quantity to inventory. Checkout reserved the
// stock when the order was created, so cancellation always gives it back.
// Returned goods are NOT restocked: they go through inspection first.
func (s *LifecycleService) restock(e sqlx.Ext, o *domain.Order) error {
	items, err := s.Orders.ItemsTx(e, o.ID)
	if err != nil {
		return err
	}
	for _, it := range items {
		variantID := ""
		if it.VariantID != nil {
			variantID = *it.VariantID
		}
		if err := s.Inv.Restock(e, it.ProductID, variantID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// releaseCoupon removes the redemption of a cancelled order so the coupon
// becomes usable again; used_count follows the usage rows down.
func (s *LifecycleService) releaseCoupon(e sqlx.Ext, o *domain.Order) error {
	if o.CouponCode == nil {
		return nil
	}
	c, err := s.Coupons.ByCode(e, *o.CouponCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.Coupons.ReleaseUsage(e, c.ID, o.ID)
}

// HandlePaymentEvent consumes a payment-gateway confirmation. Events are
// recorded with a UNIQUE payment id, so a replayed webhook is a no-op. A
// successful payment on a pending order also confirms it.
func (s *LifecycleService) HandlePaymentEvent(orderID, paymentID, gatewayStatus string) (*domain.Order, error) {
	var target string
	switch gatewayStatus {
	case "success", "paid":
		target = domain.PaymentPaid
	case "failed":
		target = domain.PaymentFailed
	case "refunded":
		target = domain.PaymentRefunded
	default:
		return nil, domain.Validationf("unknown gateway status %q", gatewayStatus)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	o, err := s.Orders.GetTx(tx, orderID)
	if err != nil {
		return nil, err
	}

	ev := &domain.PaymentEvent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		PaymentID: paymentID,
		Status:    gatewayStatus,
		CreatedAt: domain.Now(),
	}
	if err := s.Orders.InsertPaymentEvent(tx, ev); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Already processed.
			return o, nil
		}
		return nil, err
	}

	if target != o.PaymentStatus {
		if !domain.CanTransitionPayment(o.PaymentStatus, target) {
			return nil, domain.Conflictf("payment already %s, cannot apply %s", o.PaymentStatus, target)
		}
		o.PaymentStatus = target
	}

	now := domain.Now()
	if target == domain.PaymentPaid && o.Status == domain.OrderPending {
		o.Status = domain.OrderConfirmed
		o.ConfirmedAt = &now
	}
	o.UpdatedAt = now

	if err := domain.ValidOrderState(o.Status, o.PaymentStatus, o.PaymentMethod); err != nil {
		return nil, err
	}
	if err := s.Orders.SaveState(tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}
