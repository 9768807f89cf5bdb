package handlers

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/config"
	"almira/internal/repos"
	"almira/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler    *AuthHandler
	CatalogHandler *CatalogHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	ReviewHandler  *ReviewHandler
	AddressHandler *AddressHandler
	TicketHandler  *TicketHandler
	CouponHandler  *CouponHandler
	AdminHandler   *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	ticketRepo := repos.NewTicketRepo(db)
	wishRepo := repos.NewWishlistRepo(db)

	authSvc := services.NewAuthService(userRepo, []byte(cfg.JWTKey), cfg.TokenTTL)
	catalogSvc := services.NewCatalogService(prodRepo, invRepo)
	cartSvc := services.NewCartService(db, cartRepo, prodRepo, invRepo)
	wishSvc := services.NewWishlistService(wishRepo, prodRepo)
	couponSvc := services.NewCouponService(db, couponRepo)
	orderSvc := services.NewOrderService(db, cartRepo, invRepo, orderRepo, addrRepo, couponSvc)
	lifecycleSvc := services.NewLifecycleService(db, orderRepo, invRepo, couponRepo)
	reviewSvc := services.NewReviewService(db, reviewRepo, prodRepo, orderRepo)
	addrSvc := services.NewAddressService(db, addrRepo)
	ticketSvc := services.NewTicketService(db, ticketRepo)

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc, Reviews: reviewSvc},
		CartHandler:    &CartHandler{Cart: cartSvc, Wish: wishSvc, Coupons: couponSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc, Lifecycle: lifecycleSvc},
		ReviewHandler:  &ReviewHandler{Reviews: reviewSvc},
		AddressHandler: &AddressHandler{Addrs: addrSvc},
		TicketHandler:  &TicketHandler{Tickets: ticketSvc},
		CouponHandler:  &CouponHandler{Coupons: couponSvc, Cart: cartSvc},
		AdminHandler: &AdminHandler{
			Catalog:   catalogSvc,
			Orders:    orderSvc,
			Lifecycle: lifecycleSvc,
			Coupons:   couponSvc,
			Reviews:   reviewSvc,
			Tickets:   ticketSvc,
		},
	}
}
