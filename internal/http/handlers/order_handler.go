package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "almira/internal/log"
	"almira/internal/services"
	"almira/internal/validate"
)

type OrderHandler struct {
	Orders    *services.OrderService
	Lifecycle *services.LifecycleService
}

type checkoutReq struct {
	ShippingAddressID string `json:"shipping_address_id"`
	BillingAddressID  string `json:"billing_address_id"`
	PaymentMethod     string `json:"payment_method"`
	CouponCode        string `json:"coupon_code"`
	Notes             string `json:"notes"`
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Orders.Checkout(Principal(c), services.CheckoutInput{
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		PaymentMethod:     req.PaymentMethod,
		CouponCode:        req.CouponCode,
		Notes:             req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "order_number": o.OrderNumber, "total": o.TotalAmount})
	return created(c, o)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	o, items, err := h.Orders.Get(Principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"order": o, "items": items})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.History(Principal(c), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": orders})
}

func (h *OrderHandler) Track(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	events, err := h.Orders.Track(Principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"timeline": events})
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)
	o, err := h.Lifecycle.Cancel(Principal(c), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": o.ID})
	return ok(c, o)
}

func (h *OrderHandler) Return(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Lifecycle.RequestReturn(Principal(c), c.Params("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.return", map[string]any{"order_id": o.ID})
	return ok(c, o)
}

// PaymentWebhook receives gateway callbacks. Replays of the same payment id
// are acknowledged without effect.
func (h *OrderHandler) PaymentWebhook(c *fiber.Ctx) error {
	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.OrderID == "" || req.PaymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order_id and payment_id are required"})
	}
	o, err := h.Lifecycle.HandlePaymentEvent(req.OrderID, req.PaymentID, req.Status)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "payment.event", map[string]any{"order_id": o.ID, "payment_id": req.PaymentID, "status": req.Status})
	return ok(c, fiber.Map{"order_status": o.Status, "payment_status": o.PaymentStatus})
}
