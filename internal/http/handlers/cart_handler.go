package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "almira/internal/log"
	"almira/internal/services"
	"almira/internal/validate"
)

type CartHandler struct {
	Cart    *services.CartService
	Wish    *services.WishlistService
	Coupons *services.CouponService
}

type cartLineReq struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, v)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req cartLineReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	req.Quantity = validate.Qty(req.Quantity)
	if err := h.Cart.Add(Principal(c), req.ProductID, req.VariantID, req.Quantity); err != nil {
		return fail(c, err)
	}
	return h.View(c)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	var req cartLineReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Cart.SetQuantity(Principal(c), req.ProductID, req.VariantID, req.Quantity); err != nil {
		return fail(c, err)
	}
	return h.View(c)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	var req cartLineReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Cart.Remove(Principal(c), req.ProductID, req.VariantID); err != nil {
		return fail(c, err)
	}
	return h.View(c)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(Principal(c)); err != nil {
		return fail(c, err)
	}
	applog.Info(c, "cart.clear", nil)
	return ok(c, fiber.Map{"ok": true})
}

// ---------- Wishlist ----------

func (h *CartHandler) WishlistSave(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Wish.Save(Principal(c), req.ProductID); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"ok": true})
}

func (h *CartHandler) WishlistUnsave(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if err := h.Wish.Unsave(Principal(c), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"ok": true})
}

func (h *CartHandler) WishlistList(c *fiber.Ctx) error {
	products, err := h.Wish.List(Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"products": products})
}
