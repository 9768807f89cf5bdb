package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "almira/internal/log"
	"almira/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
		Rating    int    `json:"rating"`
		Title     string `json:"title"`
		Comment   string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	rv, err := h.Reviews.Create(Principal(c), services.ReviewInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "review.create", map[string]any{"review_id": rv.ID, "product_id": rv.ProductID})
	return created(c, rv)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	rv, err := h.Reviews.Get(Principal(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, rv)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	if err := h.Reviews.Delete(Principal(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "review.delete", map[string]any{"review_id": c.Params("id")})
	return ok(c, fiber.Map{"ok": true})
}
