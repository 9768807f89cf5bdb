package domain

import (
	"math"
	"time"
)

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Slug      string `db:"slug"`
	IsActive  bool   `db:"is_active"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Product statuses.
const (
	ProductDraft      = "draft"
	ProductActive     = "active"
	ProductOutOfStock = "out_of_stock"
	ProductArchived   = "archived"
)

type Product struct {
	ID               string   `db:"id"`
	CategoryID       *string  `db:"category_id"`
	Name             string   `db:"name"`
	Slug             string   `db:"slug"`
	Description      string   `db:"description"`
	ShortDescription string   `db:"short_description"`
	SKU              string   `db:"sku"`
	BasePrice        float64  `db:"base_price"`
	SalePrice        *float64 `db:"sale_price"`
	StockQuantity    int      `db:"stock_quantity"`
	Status           string   `db:"status"`
	ImagesJSON       string   `db:"images_json"`
	TagsJSON         string   `db:"tags_json"`
	Material         string   `db:"material"`
	Purity           string   `db:"purity"`
	WeightGrams      *float64 `db:"weight_grams"`
	// Derived from approved reviews; never written by clients.
	Rating      float64 `db:"rating"`
	ReviewCount int     `db:"review_count"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// EffectivePrice is the price a buyer pays right now: sale price when set,
// base price otherwise.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

type ProductVariant struct {
	ID              string  `db:"id"`
	ProductID       string  `db:"product_id"`
	SKU             string  `db:"sku"`
	Name            string  `db:"name"`
	PriceAdjustment float64 `db:"price_adjustment"`
	StockQuantity   int     `db:"stock_quantity"`
	IsActive        bool    `db:"is_active"`
	CreatedAt       string  `db:"created_at"`
}

// Address types.
const (
	AddressShipping = "shipping"
	AddressBilling  = "billing"
)

type Address struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	AddressType  string `db:"address_type"`
	FullName     string `db:"full_name"`
	Phone        string `db:"phone"`
	AddressLine1 string `db:"address_line1"`
	AddressLine2 string `db:"address_line2"`
	City         string `db:"city"`
	State        string `db:"state"`
	PostalCode   string `db:"postal_code"`
	Country      string `db:"country"`
	IsDefault    bool   `db:"is_default"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

// CartItem references a product by id and quantity only; no inventory is
// held until checkout. An empty VariantID means the base product.
type CartItem struct {
	UserID    string `db:"user_id"`
	ProductID string `db:"product_id"`
	VariantID string `db:"variant_id"`
	Quantity  int    `db:"quantity"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// Round2 rounds money and ratings to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TimeLayout is how timestamps are stored: sqlite's CURRENT_TIMESTAMP shape,
// always UTC.
const TimeLayout = "2006-01-02 15:04:05"

// Now returns the current UTC time formatted for storage.
func Now() string {
	return time.Now().UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp, accepting RFC3339 as a fallback.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
