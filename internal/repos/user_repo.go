package repos

import (
	"almira/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(u *domain.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users(id, email, name, phone, password_hash, role, created_at)
		VALUES (?,?,?,?,?,?,?)
	`, u.ID, u.Email, u.Name, u.Phone, u.Hash, u.Role, u.CreatedAt)
	return Translate(err)
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT * FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, Translate(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT * FROM users WHERE id=?`, id)
	if err != nil {
		return nil, Translate(err)
	}
	return &u, nil
}
