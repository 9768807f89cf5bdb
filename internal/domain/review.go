package domain

// Review statuses. New reviews wait for moderation.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type Review struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	UserID    string `db:"user_id"`
	Rating    int    `db:"rating"`
	Title     string `db:"title"`
	Comment   string `db:"comment"`
	ImagesJSON string `db:"images_json"`
	Status    string `db:"status"`
	// Computed from order history at insert time and never recomputed, even
	// if a later order is delivered.
	IsVerifiedPurchase bool   `db:"is_verified_purchase"`
	HelpfulCount       int    `db:"helpful_count"`
	CreatedAt          string `db:"created_at"`
	UpdatedAt          string `db:"updated_at"`
}

// ReviewSummary aggregates approved reviews for a product.
type ReviewSummary struct {
	ProductID     string      `json:"product_id"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Distribution  map[int]int `json:"rating_distribution"`
}
