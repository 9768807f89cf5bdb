package services

import (
	"strings"

	"github.com/google/uuid"

	"almira/internal/domain"
	"almira/internal/repos"
)

// CatalogService serves the public product catalog and the admin CRUD over
// it. Public reads see only active and out_of_stock products; draft and
// archived rows do not exist for customers.
type CatalogService struct {
	Products *repos.ProductRepo
	Inv      *repos.InventoryRepo
}

func NewCatalogService(products *repos.ProductRepo, inv *repos.InventoryRepo) *CatalogService {
	return &CatalogService{Products: products, Inv: inv}
}

type ProductInput struct {
	CategoryID       string
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	SKU              string
	BasePrice        float64
	SalePrice        *float64
	StockQuantity    int
	Status           string
	Material         string
	Purity           string
	WeightGrams      *float64
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Validationf("product name is required")
	}
	if in.SKU == "" {
		return domain.Validationf("sku is required")
	}
	if in.BasePrice <= 0 {
		return domain.Validationf("base price must be positive")
	}
	if in.SalePrice != nil && (*in.SalePrice <= 0 || *in.SalePrice >= in.BasePrice) {
		return domain.Validationf("sale price must be positive and below the base price")
	}
	if in.StockQuantity < 0 {
		return domain.Validationf("stock cannot be negative")
	}
	switch in.Status {
	case "":
		in.Status = domain.ProductDraft
	case domain.ProductDraft, domain.ProductActive, domain.ProductOutOfStock, domain.ProductArchived:
	default:
		return domain.Validationf("invalid product status %q", in.Status)
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	return nil
}

// Slugify lowercases and hyphenates a name for use in URLs.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func (s *CatalogService) CreateProduct(p domain.Principal, in ProductInput) (*domain.Product, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := domain.Now()
	prod := &domain.Product{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Slug:             in.Slug,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		SKU:              in.SKU,
		BasePrice:        in.BasePrice,
		SalePrice:        in.SalePrice,
		StockQuantity:    in.StockQuantity,
		Status:           in.Status,
		ImagesJSON:       "[]",
		TagsJSON:         "[]",
		Material:         in.Material,
		Purity:           in.Purity,
		WeightGrams:      in.WeightGrams,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.CategoryID != "" {
		prod.CategoryID = &in.CategoryID
	}
	if err := s.Products.Create(prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) UpdateProduct(p domain.Principal, productID string, in ProductInput) (*domain.Product, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	prod, err := s.Products.Get(productID)
	if err != nil {
		return nil, err
	}

	prod.Name = in.Name
	prod.Slug = in.Slug
	prod.Description = in.Description
	prod.ShortDescription = in.ShortDescription
	prod.SKU = in.SKU
	prod.BasePrice = in.BasePrice
	prod.SalePrice = in.SalePrice
	prod.Status = in.Status
	prod.Material = in.Material
	prod.Purity = in.Purity
	prod.WeightGrams = in.WeightGrams
	prod.CategoryID = nil
	if in.CategoryID != "" {
		prod.CategoryID = &in.CategoryID
	}
	prod.UpdatedAt = domain.Now()

	if err := s.Products.Update(prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) ArchiveProduct(p domain.Principal, productID string) error {
	if !p.IsAdmin() {
		return domain.ErrNotFound
	}
	return s.Products.Archive(productID)
}

// SetStock is the admin restock entry point; it goes through the inventory
// ledger rather than a blind column write.
func (s *CatalogService) SetStock(p domain.Principal, productID string, qty int) error {
	if !p.IsAdmin() {
		return domain.ErrNotFound
	}
	if qty < 0 {
		return domain.Validationf("stock cannot be negative")
	}
	return s.Inv.SetQty(productID, qty)
}

// Get returns a product by id, hidden statuses filtered by the caller's
// role.
func (s *CatalogService) Get(p domain.Principal, productID string) (*domain.Product, error) {
	prod, err := s.Products.Get(productID)
	if err != nil {
		return nil, err
	}
	if !CanSeeProduct(p, prod) {
		return nil, domain.NotFoundf("product %s", productID)
	}
	return prod, nil
}

func (s *CatalogService) BySlug(p domain.Principal, slug string) (*domain.Product, error) {
	prod, err := s.Products.BySlug(slug)
	if err != nil {
		return nil, err
	}
	if !CanSeeProduct(p, prod) {
		return nil, domain.NotFoundf("product %s", slug)
	}
	return prod, nil
}

// List applies the caller's visibility to the filter: customers always get
// active products regardless of what the filter asks for.
func (s *CatalogService) List(p domain.Principal, f repos.ListFilter) ([]domain.Product, error) {
	if !p.IsAdmin() {
		f.Status = domain.ProductActive
	}
	return s.Products.List(f)
}

func (s *CatalogService) Variants(productID string) ([]domain.ProductVariant, error) {
	return s.Products.Variants(productID)
}

func (s *CatalogService) CreateVariant(p domain.Principal, v *domain.ProductVariant) error {
	if !p.IsAdmin() {
		return domain.ErrNotFound
	}
	if v.SKU == "" || v.Name == "" {
		return domain.Validationf("variant sku and name are required")
	}
	if v.StockQuantity < 0 {
		return domain.Validationf("stock cannot be negative")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.IsActive = true
	v.CreatedAt = domain.Now()
	return s.Products.CreateVariant(v)
}

func (s *CatalogService) CreateCategory(p domain.Principal, name, slug string) (*domain.Category, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("category name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	now := domain.Now()
	c := &domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Products.CreateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) Categories(p domain.Principal) ([]domain.Category, error) {
	return s.Products.Categories(!p.IsAdmin())
}
