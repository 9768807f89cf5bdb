package handlers

import (
	"github.com/gofiber/fiber/v2"

	"almira/internal/repos"
	"almira/internal/services"
	"almira/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	f := repos.ListFilter{
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		MinPrice:   c.QueryFloat("min_price"),
		MaxPrice:   c.QueryFloat("max_price"),
		InStock:    c.QueryBool("in_stock"),
		Limit:      c.QueryInt("limit", 20),
		Offset:     c.QueryInt("offset", 0),
	}
	products, err := h.Catalog.List(Principal(c), f)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"products": products})
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	p, err := h.Catalog.Get(Principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	variants, err := h.Catalog.Variants(p.ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"product": p, "variants": variants, "effective_price": p.EffectivePrice()})
}

func (h *CatalogHandler) GetProductBySlug(c *fiber.Ctx) error {
	slug, okSlug := validate.Slug(c.Params("slug"))
	if !okSlug {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	p, err := h.Catalog.BySlug(Principal(c), slug)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"product": p, "effective_price": p.EffectivePrice()})
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories(Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"categories": cats})
}

func (h *CatalogHandler) ListReviews(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	if !okID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	reviews, err := h.Reviews.ListByProduct(id,
		c.QueryInt("rating", 0), c.QueryInt("limit", 10), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}
	summary, err := h.Reviews.Summary(id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"reviews": reviews, "summary": summary})
}
