package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Insert(e sqlx.Ext, rv *domain.Review) error {
	_, err := e.Exec(`
		INSERT INTO reviews
		  (id, product_id, user_id, rating, title, comment, images_json,
		   status, is_verified_purchase, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.ImagesJSON,
		rv.Status, rv.IsVerifiedPurchase, rv.CreatedAt, rv.UpdatedAt)
	return Translate(err)
}

func (r *ReviewRepo) Get(id string) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.Get(&rv, `SELECT * FROM reviews WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepo) GetTx(e sqlx.Ext, id string) (*domain.Review, error) {
	var rv domain.Review
	if err := sqlx.Get(e, &rv, `SELECT * FROM reviews WHERE id = ?`, id); err != nil {
		return nil, Translate(err)
	}
	return &rv, nil
}

// SetStatus moderates a review. The stats recompute happens in the same
// transaction, in the service.
func (r *ReviewRepo) SetStatus(e sqlx.Ext, id, status string) error {
	res, err := e.Exec(`UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`, status, domain.Now(), id)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("review %s", id)
	}
	return nil
}

func (r *ReviewRepo) Delete(e sqlx.Ext, id string) error {
	_, err := e.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	return Translate(err)
}

// ListByProduct returns approved reviews, newest first.
func (r *ReviewRepo) ListByProduct(productID string, rating, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	q := `SELECT * FROM reviews WHERE product_id = ? AND status = 'approved'`
	args := []any{productID}
	if rating >= 1 && rating <= 5 {
		q += ` AND rating = ?`
		args = append(args, rating)
	}
	q += ` ORDER BY datetime(created_at) DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Review
	err := r.db.Select(&out, q, args...)
	return out, Translate(err)
}

// ListPending lists reviews awaiting moderation (admin).
func (r *ReviewRepo) ListPending(limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []domain.Review
	err := r.db.Select(&out, `
		SELECT * FROM reviews WHERE status = 'pending'
		ORDER BY datetime(created_at) ASC LIMIT ? OFFSET ?`, limit, offset)
	return out, Translate(err)
}

// RecomputeProductStats rewrites rating and review_count from the approved
// reviews of one product: AVG rounded to two places, zeros when none. Must
// run in the same transaction as the review write that triggered it.
func (r *ReviewRepo) RecomputeProductStats(e sqlx.Ext, productID string) error {
	_, err := e.Exec(`
		UPDATE products
		SET rating = COALESCE((
		      SELECT ROUND(AVG(rating), 2) FROM reviews
		      WHERE product_id = ? AND status = 'approved'), 0),
		    review_count = (
		      SELECT COUNT(*) FROM reviews
		      WHERE product_id = ? AND status = 'approved'),
		    updated_at = ?
		WHERE id = ?
	`, productID, productID, domain.Now(), productID)
	return Translate(err)
}

// Summary aggregates approved reviews with a per-star distribution.
func (r *ReviewRepo) Summary(productID string) (*domain.ReviewSummary, error) {
	rows := []struct {
		Rating int `db:"rating"`
		N      int `db:"n"`
	}{}
	err := r.db.Select(&rows, `
		SELECT rating, COUNT(*) AS n FROM reviews
		WHERE product_id = ? AND status = 'approved'
		GROUP BY rating`, productID)
	if err != nil {
		return nil, Translate(err)
	}

	s := &domain.ReviewSummary{
		ProductID:    productID,
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	sum := 0
	for _, row := range rows {
		s.Distribution[row.Rating] = row.N
		s.TotalReviews += row.N
		sum += row.Rating * row.N
	}
	if s.TotalReviews > 0 {
		s.AverageRating = domain.Round2(float64(sum) / float64(s.TotalReviews))
	}
	return s, nil
}
