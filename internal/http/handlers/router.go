package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "almira/internal/log"
)

// NewApp builds the fiber app with all routes mounted. Shared by main and
// the HTTP tests.
func NewApp(deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "almira",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20

	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(WithPrincipal(deps.Auth))

	api := app.Group("/api/v1")

	// Auth. Login is throttled per IP.
	api.Post("/auth/register", deps.AuthHandler.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), deps.AuthHandler.Login)
	api.Get("/auth/me", RequireUser(), deps.AuthHandler.Me)

	// Public catalog.
	api.Get("/products", deps.CatalogHandler.ListProducts)
	api.Get("/products/slug/:slug", deps.CatalogHandler.GetProductBySlug)
	api.Get("/products/:id", deps.CatalogHandler.GetProduct)
	api.Get("/products/:id/reviews", deps.CatalogHandler.ListReviews)
	api.Get("/categories", deps.CatalogHandler.ListCategories)

	// Cart and wishlist.
	cart := api.Group("/cart", RequireUser())
	cart.Get("/", deps.CartHandler.View)
	cart.Post("/", deps.CartHandler.Add)
	cart.Put("/", deps.CartHandler.Update)
	cart.Delete("/item", deps.CartHandler.Remove)
	cart.Delete("/", deps.CartHandler.Clear)

	wish := api.Group("/wishlist", RequireUser())
	wish.Get("/", deps.CartHandler.WishlistList)
	wish.Post("/", deps.CartHandler.WishlistSave)
	wish.Delete("/:id", deps.CartHandler.WishlistUnsave)

	// Coupons.
	api.Post("/coupons/preview", RequireUser(), deps.CouponHandler.Preview)

	// Orders.
	orders := api.Group("/orders", RequireUser())
	orders.Post("/", deps.OrderHandler.Checkout)
	orders.Get("/", deps.OrderHandler.History)
	orders.Get("/:id", deps.OrderHandler.Get)
	orders.Get("/:id/track", deps.OrderHandler.Track)
	orders.Post("/:id/cancel", deps.OrderHandler.Cancel)
	orders.Post("/:id/return", deps.OrderHandler.Return)

	// Payment gateway callback. In production this sits behind gateway
	// signature verification.
	api.Post("/payments/webhook", deps.OrderHandler.PaymentWebhook)

	// Reviews.
	api.Post("/reviews", RequireUser(), deps.ReviewHandler.Create)
	api.Get("/reviews/:id", deps.ReviewHandler.Get)
	api.Delete("/reviews/:id", RequireUser(), deps.ReviewHandler.Delete)

	// Addresses.
	addrs := api.Group("/addresses", RequireUser())
	addrs.Get("/", deps.AddressHandler.List)
	addrs.Post("/", deps.AddressHandler.Create)
	addrs.Put("/:id", deps.AddressHandler.Update)
	addrs.Post("/:id/default", deps.AddressHandler.SetDefault)
	addrs.Delete("/:id", deps.AddressHandler.Delete)

	// Support tickets.
	tickets := api.Group("/tickets", RequireUser())
	tickets.Get("/", deps.TicketHandler.ListMine)
	tickets.Post("/", deps.TicketHandler.Open)
	tickets.Get("/:id", deps.TicketHandler.Get)
	tickets.Post("/:id/messages", deps.TicketHandler.Reply)

	// Admin.
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Post("/orders/:id/transition", deps.AdminHandler.TransitionOrder)
	admin.Post("/products", deps.AdminHandler.CreateProduct)
	admin.Put("/products/:id", deps.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", deps.AdminHandler.ArchiveProduct)
	admin.Put("/products/:id/stock", deps.AdminHandler.SetStock)
	admin.Post("/products/:id/variants", deps.AdminHandler.CreateVariant)
	admin.Post("/categories", deps.AdminHandler.CreateCategory)
	admin.Post("/coupons", deps.AdminHandler.CreateCoupon)
	admin.Get("/coupons", deps.AdminHandler.ListCoupons)
	admin.Put("/coupons/:id/active", deps.AdminHandler.SetCouponActive)
	admin.Get("/reviews/pending", deps.AdminHandler.ListPendingReviews)
	admin.Post("/reviews/:id/moderate", deps.AdminHandler.ModerateReview)
	admin.Get("/tickets", deps.AdminHandler.ListTickets)
	admin.Put("/tickets/:id/status", deps.AdminHandler.SetTicketStatus)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
