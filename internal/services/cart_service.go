package services

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// CartService manages the pre-checkout cart. Adding to a cart never holds
// inventory; stock is checked for a friendly error here and enforced for
// real inside the checkout transaction.
type CartService struct {
	DB       *sqlx.DB
	Carts    *repos.CartRepo
	Products *repos.ProductRepo
	Inv      *repos.InventoryRepo
}

func NewCartService(db *sqlx.DB, carts *repos.CartRepo, products *repos.ProductRepo, inv *repos.InventoryRepo) *CartService {
	return &CartService{DB: db, Carts: carts, Products: products, Inv: inv}
}

type CartView struct {
	Lines    []repos.CartLine `json:"items"`
	Subtotal float64          `json:"subtotal"`
}

func (s *CartService) Add(p domain.Principal, productID, variantID string, qty int) error {
	if p.ID == "" {
		return domain.ErrForbidden
	}
	if qty <= 0 {
		return domain.Validationf("quantity must be positive")
	}
	prod, err := s.Products.Get(productID)
	if err != nil {
		return err
	}
	if prod.Status != domain.ProductActive {
		return domain.NotFoundf("product %s", productID)
	}

	available := prod.StockQuantity
	if variantID != "" {
		v, err := s.Products.Variant(s.DB, variantID)
		if err != nil {
			return err
		}
		if v.ProductID != productID || !v.IsActive {
			return domain.NotFoundf("variant %s", variantID)
		}
		available = v.StockQuantity
	}
	if qty > available {
		return domain.ErrInsufficientStock
	}
	return s.Carts.Upsert(p.ID, productID, variantID, qty)
}

func (s *CartService) SetQuantity(p domain.Principal, productID, variantID string, qty int) error {
	if qty < 0 {
		return domain.Validationf("quantity cannot be negative")
	}
	if qty == 0 {
		return s.Carts.Remove(p.ID, productID, variantID)
	}
	return s.Carts.SetQuantity(p.ID, productID, variantID, qty)
}

func (s *CartService) Remove(p domain.Principal, productID, variantID string) error {
	return s.Carts.Remove(p.ID, productID, variantID)
}

func (s *CartService) Clear(p domain.Principal) error {
	return s.Carts.Clear(s.DB, p.ID)
}

// View returns the cart with a live subtotal at current effective prices.
func (s *CartService) View(p domain.Principal) (*CartView, error) {
	lines, err := s.Carts.Lines(s.DB, p.ID)
	if err != nil {
		return nil, err
	}
	v := &CartView{Lines: lines}
	for _, l := range lines {
		v.Subtotal += l.UnitPrice() * float64(l.Quantity)
	}
	v.Subtotal = domain.Round2(v.Subtotal)
	return v, nil
}

// WishlistService keeps per-user saved products.
type WishlistService struct {
	Wishlist *repos.WishlistRepo
	Products *repos.ProductRepo
}

func NewWishlistService(wishlist *repos.WishlistRepo, products *repos.ProductRepo) *WishlistService {
	return &WishlistService{Wishlist: wishlist, Products: products}
}

func (s *WishlistService) Save(p domain.Principal, productID string) error {
	prod, err := s.Products.Get(productID)
	if err != nil {
		return err
	}
	if !CanSeeProduct(p, prod) {
		return domain.NotFoundf("product %s", productID)
	}
	err = s.Wishlist.Save(p.ID, productID)
	if errors.Is(err, domain.ErrConflict) {
		// Saving twice is fine.
		return nil
	}
	return err
}

func (s *WishlistService) Unsave(p domain.Principal, productID string) error {
	return s.Wishlist.Unsave(p.ID, productID)
}

func (s *WishlistService) List(p domain.Principal) ([]domain.Product, error) {
	return s.Wishlist.List(p.ID)
}
