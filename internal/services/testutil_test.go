package services_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"almira/internal/domain"
	"almira/internal/repos"
	"almira/internal/services"
)

// memdb returns a seeded in-memory store. A single connection keeps every
// query on the same sqlite memory instance.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// filedb returns a seeded store backed by a temp file, for tests that need
// real cross-connection concurrency.
func filedb(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "almira.db") +
		"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := repos.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// env wires the full service graph over one store, the same way the HTTP
// layer does.
type env struct {
	db *sqlx.DB

	users   *repos.UserRepo
	orders  *repos.OrderRepo
	inv     *repos.InventoryRepo
	coupons *repos.CouponRepo
	reviews *repos.ReviewRepo

	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Coupon    *services.CouponService
	Order     *services.OrderService
	Lifecycle *services.LifecycleService
	Review    *services.ReviewService
	Address   *services.AddressService
	Ticket    *services.TicketService
}

func newEnv(t *testing.T, db *sqlx.DB) *env {
	t.Helper()
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	ticketRepo := repos.NewTicketRepo(db)

	couponSvc := services.NewCouponService(db, couponRepo)
	return &env{
		db:        db,
		users:     userRepo,
		orders:    orderRepo,
		inv:       invRepo,
		coupons:   couponRepo,
		reviews:   reviewRepo,
		Auth:      services.NewAuthService(userRepo, []byte("test-secret"), time.Hour),
		Catalog:   services.NewCatalogService(prodRepo, invRepo),
		Cart:      services.NewCartService(db, cartRepo, prodRepo, invRepo),
		Coupon:    couponSvc,
		Order:     services.NewOrderService(db, cartRepo, invRepo, orderRepo, addrRepo, couponSvc),
		Lifecycle: services.NewLifecycleService(db, orderRepo, invRepo, couponRepo),
		Review:    services.NewReviewService(db, reviewRepo, prodRepo, orderRepo),
		Address:   services.NewAddressService(db, addrRepo),
		Ticket:    services.NewTicketService(db, ticketRepo),
	}
}

var admin = domain.Principal{ID: "test-admin", Role: domain.RoleAdmin}

// customer creates a fresh user row and returns its principal.
func (e *env) customer(t *testing.T) domain.Principal {
	t.Helper()
	id := uuid.NewString()
	u := &domain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "Test Customer",
		Hash:      "x",
		Role:      domain.RoleCustomer,
		CreatedAt: domain.Now(),
	}
	require.NoError(t, e.users.Create(u))
	return domain.Principal{ID: id, Role: domain.RoleCustomer}
}

// shipTo creates a default shipping address for p and returns its id.
func (e *env) shipTo(t *testing.T, p domain.Principal) string {
	t.Helper()
	a, err := e.Address.Create(p, services.AddressInput{
		AddressType:  domain.AddressShipping,
		FullName:     "Test Customer",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560001",
	})
	require.NoError(t, err)
	return a.ID
}

// product creates an active product with the given price and stock.
func (e *env) product(t *testing.T, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p, err := e.Catalog.CreateProduct(admin, services.ProductInput{
		Name:          name,
		SKU:           "TST-" + uuid.NewString()[:8],
		BasePrice:     price,
		StockQuantity: stock,
		Status:        domain.ProductActive,
	})
	require.NoError(t, err)
	return p
}

// checkout places an order for the given cart lines with COD.
func (e *env) checkout(t *testing.T, p domain.Principal, coupon string, lines map[string]int) (*domain.Order, error) {
	t.Helper()
	for productID, qty := range lines {
		require.NoError(t, e.Cart.Add(p, productID, "", qty))
	}
	return e.Order.Checkout(p, services.CheckoutInput{
		ShippingAddressID: e.shipTo(t, p),
		PaymentMethod:     domain.PayCOD,
		CouponCode:        coupon,
	})
}
