package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// CouponService is the only sanctioned path to redeem a coupon. Redemption
// happens inside the checkout transaction: the usage row and the order's
// discount land together or not at all.
type CouponService struct {
	DB      *sqlx.DB
	Coupons *repos.CouponRepo
}

func NewCouponService(db *sqlx.DB, coupons *repos.CouponRepo) *CouponService {
	return &CouponService{DB: db, Coupons: coupons}
}

// Apply validates the coupon against the order being created and records the
// redemption. Must be called with the checkout transaction; a failure rolls
// back the whole order.
func (s *CouponService) Apply(e sqlx.Ext, code, userID, orderID string, subtotal float64, lines []repos.CartLine) (*domain.DiscountResult, error) {
	c, err := s.validate(e, code, userID, subtotal, lines)
	if err != nil {
		return nil, err
	}

	usage := &domain.CouponUsage{
		ID:        uuid.NewString(),
		CouponID:  c.ID,
		UserID:    userID,
		OrderID:   orderID,
		CreatedAt: domain.Now(),
	}
	if err := s.Coupons.RecordUsage(e, usage); err != nil {
		return nil, err
	}
	return &domain.DiscountResult{CouponID: c.ID, Code: c.Code, Amount: c.Discount(subtotal)}, nil
}

// Preview runs the same checks without redeeming, for showing the discount
// before checkout.
func (s *CouponService) Preview(p domain.Principal, code string, subtotal float64, lines []repos.CartLine) (*domain.DiscountResult, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	c, err := s.validate(s.DB, code, p.ID, subtotal, lines)
	if err != nil {
		return nil, err
	}
	return &domain.DiscountResult{CouponID: c.ID, Code: c.Code, Amount: c.Discount(subtotal)}, nil
}

// validate performs the checks in a fixed order: existence/active, validity
// window, minimum subtotal, global limit, per-user limit, applicability.
func (s *CouponService) validate(e sqlx.Ext, code, userID string, subtotal float64, lines []repos.CartLine) (*domain.Coupon, error) {
	c, err := s.Coupons.ByCode(e, code)
	if err != nil || !c.IsActive {
		return nil, domain.Validationf("coupon %q is not valid", code)
	}

	now := time.Now().UTC()
	if from, err := domain.ParseTime(c.ValidFrom); err == nil && now.Before(from) {
		return nil, domain.Validationf("coupon %q is not active yet", code)
	}
	if until, err := domain.ParseTime(c.ValidUntil); err == nil && now.After(until) {
		return nil, domain.Validationf("coupon %q has expired", code)
	}

	if subtotal < c.MinOrderAmount {
		return nil, domain.Validationf("order must be at least %.2f to use %q", c.MinOrderAmount, code)
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return nil, domain.Conflictf("coupon %q is exhausted", code)
	}

	used, err := s.Coupons.UserUsageCount(e, c.ID, userID)
	if err != nil {
		return nil, err
	}
	if used >= c.UsageLimitPerUser {
		return nil, domain.Conflictf("coupon %q already used", code)
	}

	if !applies(c, lines) {
		return nil, domain.Validationf("coupon %q does not apply to these items", code)
	}
	return c, nil
}

// applies checks scoped coupons against the cart: empty scope lists mean the
// coupon is unrestricted; otherwise at least one line must match.
func applies(c *domain.Coupon, lines []repos.CartLine) bool {
	products := decodeIDs(c.ApplicableProductsJSON)
	categories := decodeIDs(c.ApplicableCategoriesJSON)
	if len(products) == 0 && len(categories) == 0 {
		return true
	}
	for _, l := range lines {
		if products[l.ProductID] {
			return true
		}
		if l.CategoryID != nil && categories[*l.CategoryID] {
			return true
		}
	}
	return false
}

func decodeIDs(raw string) map[string]bool {
	var ids []string
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &ids)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// ---------- Admin management ----------

type CouponInput struct {
	Code                 string
	Description          string
	DiscountType         string
	DiscountValue        float64
	MinOrderAmount       float64
	MaxDiscountAmount    *float64
	UsageLimit           *int
	UsageLimitPerUser    int
	ValidFrom            string
	ValidUntil           string
	ApplicableProducts   []string
	ApplicableCategories []string
}

func (s *CouponService) Create(p domain.Principal, in CouponInput) (*domain.Coupon, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if in.DiscountType != domain.DiscountPercentage && in.DiscountType != domain.DiscountFixed {
		return nil, domain.Validationf("unknown discount type %q", in.DiscountType)
	}
	if in.DiscountValue <= 0 {
		return nil, domain.Validationf("discount value must be positive")
	}
	if in.DiscountType == domain.DiscountPercentage && in.DiscountValue > 100 {
		return nil, domain.Validationf("percentage discount cannot exceed 100")
	}
	if in.UsageLimitPerUser <= 0 {
		in.UsageLimitPerUser = 1
	}

	prods, _ := json.Marshal(orEmpty(in.ApplicableProducts))
	cats, _ := json.Marshal(orEmpty(in.ApplicableCategories))

	c := &domain.Coupon{
		ID:                       uuid.NewString(),
		Code:                     in.Code,
		Description:              in.Description,
		DiscountType:             in.DiscountType,
		DiscountValue:            in.DiscountValue,
		MinOrderAmount:           in.MinOrderAmount,
		MaxDiscountAmount:        in.MaxDiscountAmount,
		UsageLimit:               in.UsageLimit,
		UsageLimitPerUser:        in.UsageLimitPerUser,
		IsActive:                 true,
		ValidFrom:                in.ValidFrom,
		ValidUntil:               in.ValidUntil,
		ApplicableProductsJSON:   string(prods),
		ApplicableCategoriesJSON: string(cats),
		CreatedAt:                domain.Now(),
		UpdatedAt:                domain.Now(),
	}
	if err := s.Coupons.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CouponService) List(p domain.Principal, limit, offset int) ([]domain.Coupon, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Coupons.List(limit, offset)
}

func (s *CouponService) SetActive(p domain.Principal, id string, active bool) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.Coupons.SetActive(id, active)
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
