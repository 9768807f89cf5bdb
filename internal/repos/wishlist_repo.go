package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Save(userID, productID string) error {
	_, err := r.db.Exec(`
		INSERT INTO wishlist_items(user_id, product_id, created_at)
		VALUES (?,?,?)
		ON CONFLICT(user_id, product_id) DO NOTHING
	`, userID, productID, domain.Now())
	return Translate(err)
}

func (r *WishlistRepo) Unsave(userID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	return Translate(err)
}

func (r *WishlistRepo) List(userID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT p.* FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = ?
		ORDER BY datetime(w.created_at) DESC
	`, userID)
	return out, Translate(err)
}
