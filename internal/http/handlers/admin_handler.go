package handlers

import (
	"github.com/gofiber/fiber/v2"

	"almira/internal/domain"
	applog "almira/internal/log"
	"almira/internal/services"
)

// AdminHandler serves the back-office surface. Every route behind it is
// already gated by RequireAdmin; the services check the principal again.
type AdminHandler struct {
	Catalog   *services.CatalogService
	Orders    *services.OrderService
	Lifecycle *services.LifecycleService
	Coupons   *services.CouponService
	Reviews   *services.ReviewService
	Tickets   *services.TicketService
}

// ---------- Orders ----------

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.ListAll(Principal(c), c.Query("status"),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": orders})
}

func (h *AdminHandler) TransitionOrder(c *fiber.Ctx) error {
	var req struct {
		Status         string `json:"status"`
		PaymentStatus  string `json:"payment_status"`
		TrackingNumber string `json:"tracking_number"`
		TrackingURL    string `json:"tracking_url"`
		Reason         string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Lifecycle.Transition(Principal(c), c.Params("id"), services.TransitionInput{
		Status:         req.Status,
		PaymentStatus:  req.PaymentStatus,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
		Reason:         req.Reason,
	})
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.order.transition", map[string]any{
		"order_id": o.ID, "status": o.Status, "payment_status": o.PaymentStatus,
	})
	return ok(c, o)
}

// ---------- Catalog ----------

type productReq struct {
	CategoryID       string   `json:"category_id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	SKU              string   `json:"sku"`
	BasePrice        float64  `json:"base_price"`
	SalePrice        *float64 `json:"sale_price"`
	StockQuantity    int      `json:"stock_quantity"`
	Status           string   `json:"status"`
	Material         string   `json:"material"`
	Purity           string   `json:"purity"`
	WeightGrams      *float64 `json:"weight_grams"`
}

func (r productReq) input() services.ProductInput {
	return services.ProductInput{
		CategoryID:       r.CategoryID,
		Name:             r.Name,
		Slug:             r.Slug,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		SKU:              r.SKU,
		BasePrice:        r.BasePrice,
		SalePrice:        r.SalePrice,
		StockQuantity:    r.StockQuantity,
		Status:           r.Status,
		Material:         r.Material,
		Purity:           r.Purity,
		WeightGrams:      r.WeightGrams,
	}
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req productReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.Catalog.CreateProduct(Principal(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": p.ID})
	return created(c, p)
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	var req productReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.Catalog.UpdateProduct(Principal(c), c.Params("id"), req.input())
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product_id": p.ID})
	return ok(c, p)
}

func (h *AdminHandler) ArchiveProduct(c *fiber.Ctx) error {
	if err := h.Catalog.ArchiveProduct(Principal(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.product.archive", map[string]any{"product_id": c.Params("id")})
	return ok(c, fiber.Map{"ok": true})
}

func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Catalog.SetStock(Principal(c), c.Params("id"), req.Quantity); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.stock.set", map[string]any{"product_id": c.Params("id"), "quantity": req.Quantity})
	return ok(c, fiber.Map{"ok": true})
}

func (h *AdminHandler) CreateVariant(c *fiber.Ctx) error {
	var v domain.ProductVariant
	if err := c.BodyParser(&v); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	v.ProductID = c.Params("id")
	if err := h.Catalog.CreateVariant(Principal(c), &v); err != nil {
		return fail(c, err)
	}
	return created(c, v)
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	cat, err := h.Catalog.CreateCategory(Principal(c), req.Name, req.Slug)
	if err != nil {
		return fail(c, err)
	}
	return created(c, cat)
}

// ---------- Coupons ----------

func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	var in services.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	cp, err := h.Coupons.Create(Principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.coupon.create", map[string]any{"coupon_id": cp.ID, "code": cp.Code})
	return created(c, cp)
}

func (h *AdminHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.Coupons.List(Principal(c), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"coupons": coupons})
}

func (h *AdminHandler) SetCouponActive(c *fiber.Ctx) error {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Coupons.SetActive(Principal(c), c.Params("id"), req.Active); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"ok": true})
}

// ---------- Reviews ----------

func (h *AdminHandler) ListPendingReviews(c *fiber.Ctx) error {
	reviews, err := h.Reviews.ListPending(Principal(c), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"reviews": reviews})
}

func (h *AdminHandler) ModerateReview(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	rv, err := h.Reviews.Moderate(Principal(c), c.Params("id"), req.Status)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.review.moderate", map[string]any{"review_id": rv.ID, "status": rv.Status})
	return ok(c, rv)
}

// ---------- Tickets ----------

func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.Tickets.ListAll(Principal(c), c.Query("status"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"tickets": tickets})
}

func (h *AdminHandler) SetTicketStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Tickets.SetStatus(Principal(c), c.Params("id"), req.Status); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"ok": true})
}
