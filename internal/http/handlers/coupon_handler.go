package handlers

import (
	"github.com/gofiber/fiber/v2"

	"almira/internal/services"
)

type CouponHandler struct {
	Coupons *services.CouponService
	Cart    *services.CartService
}

// Preview validates a code against the caller's current cart without
// redeeming it.
func (h *CouponHandler) Preview(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p := Principal(c)
	view, err := h.Cart.View(p)
	if err != nil {
		return fail(c, err)
	}
	res, err := h.Coupons.Preview(p, req.Code, view.Subtotal, view.Lines)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, res)
}
