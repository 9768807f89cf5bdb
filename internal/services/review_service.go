package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// ReviewService creates and moderates product reviews. Any write that can
// change the set of approved reviews recomputes the product's rating and
// review_count inside the same transaction, so the stored aggregates never
// drift from the review rows.
type ReviewService struct {
	DB       *sqlx.DB
	Reviews  *repos.ReviewRepo
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
}

func NewReviewService(db *sqlx.DB, reviews *repos.ReviewRepo, products *repos.ProductRepo, orders *repos.OrderRepo) *ReviewService {
	return &ReviewService{DB: db, Reviews: reviews, Products: products, Orders: orders}
}

type ReviewInput struct {
	ProductID string
	Rating    int
	Title     string
	Comment   string
}

// Create files a review in pending state. The verified-purchase flag is
// decided here, from the buyer's delivered orders at this moment, and is
// never revisited afterwards.
func (s *ReviewService) Create(p domain.Principal, in ReviewInput) (*domain.Review, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.Validationf("rating must be between 1 and 5")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Comment == "" {
		return nil, domain.Validationf("a review comment is required")
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	prod, err := s.Products.GetTx(tx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !CanSeeProduct(p, prod) {
		return nil, domain.ErrNotFound
	}

	verified, err := s.Orders.HasDeliveredPurchase(tx, p.ID, in.ProductID)
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	rv := &domain.Review{
		ID:                 uuid.NewString(),
		ProductID:          in.ProductID,
		UserID:             p.ID,
		Rating:             in.Rating,
		Title:              in.Title,
		Comment:            in.Comment,
		IsVerifiedPurchase: verified,
		Status:             domain.ReviewPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Reviews.Insert(tx, rv); err != nil {
		return nil, err
	}
	// A pending review does not count toward the aggregates, but keeping the
	// recompute here makes the rule uniform for every review write.
	if err := s.Reviews.RecomputeProductStats(tx, in.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rv, nil
}

// Moderate approves or rejects a pending review.
func (s *ReviewService) Moderate(p domain.Principal, reviewID, status string) (*domain.Review, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return nil, domain.Validationf("status must be approved or rejected")
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rv, err := s.Reviews.GetTx(tx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.Reviews.SetStatus(tx, reviewID, status); err != nil {
		return nil, err
	}
	if err := s.Reviews.RecomputeProductStats(tx, rv.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	rv.Status = status
	return rv, nil
}

// Delete removes a review. Owners may delete their own, admins any.
func (s *ReviewService) Delete(p domain.Principal, reviewID string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rv, err := s.Reviews.GetTx(tx, reviewID)
	if err != nil {
		return err
	}
	if !OwnerOrAdmin(p, rv.UserID) {
		return domain.ErrNotFound
	}
	if err := s.Reviews.Delete(tx, reviewID); err != nil {
		return err
	}
	if err := s.Reviews.RecomputeProductStats(tx, rv.ProductID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByProduct returns approved reviews, optionally filtered to one star
// rating.
func (s *ReviewService) ListByProduct(productID string, rating, limit, offset int) ([]domain.Review, error) {
	return s.Reviews.ListByProduct(productID, rating, limit, offset)
}

// Get returns one review, subject to visibility: pending and rejected
// reviews exist only for their author and for admins.
func (s *ReviewService) Get(p domain.Principal, reviewID string) (*domain.Review, error) {
	rv, err := s.Reviews.Get(reviewID)
	if err != nil {
		return nil, err
	}
	if !CanSeeReview(p, rv) {
		return nil, domain.NotFoundf("review %s", reviewID)
	}
	return rv, nil
}

func (s *ReviewService) ListPending(p domain.Principal, limit, offset int) ([]domain.Review, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return s.Reviews.ListPending(limit, offset)
}

func (s *ReviewService) Summary(productID string) (*domain.ReviewSummary, error) {
	return s.Reviews.Summary(productID)
}
