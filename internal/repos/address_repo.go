package repos

import (
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
)

type AddressRepo struct{ db *sqlx.DB }

func NewAddressRepo(db *sqlx.DB) *AddressRepo { return &AddressRepo{db: db} }

func (r *AddressRepo) Insert(e sqlx.Ext, a *domain.Address) error {
	_, err := e.Exec(`
		INSERT INTO addresses
		  (id, user_id, address_type, full_name, phone, address_line1, address_line2,
		   city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, a.ID, a.UserID, a.AddressType, a.FullName, a.Phone, a.AddressLine1, a.AddressLine2,
		a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	return Translate(err)
}

func (r *AddressRepo) Update(e sqlx.Ext, a *domain.Address) error {
	res, err := e.Exec(`
		UPDATE addresses
		SET address_type = ?, full_name = ?, phone = ?, address_line1 = ?,
		    address_line2 = ?, city = ?, state = ?, postal_code = ?, country = ?,
		    is_default = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, a.AddressType, a.FullName, a.Phone, a.AddressLine1,
		a.AddressLine2, a.City, a.State, a.PostalCode, a.Country,
		a.IsDefault, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("address %s", a.ID)
	}
	return nil
}

// ClearDefaults drops the default flag from every other address of the same
// user and type. Runs in the same transaction as the write that sets a new
// default, so at most one default per (user, type) ever exists.
func (r *AddressRepo) ClearDefaults(e sqlx.Ext, userID, addressType, exceptID string) error {
	_, err := e.Exec(`
		UPDATE addresses SET is_default = 0, updated_at = ?
		WHERE user_id = ? AND address_type = ? AND id <> ? AND is_default = 1
	`, domain.Now(), userID, addressType, exceptID)
	return Translate(err)
}

func (r *AddressRepo) Get(id, userID string) (*domain.Address, error) {
	var a domain.Address
	if err := r.db.Get(&a, `SELECT * FROM addresses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return nil, Translate(err)
	}
	return &a, nil
}

func (r *AddressRepo) ListByUser(userID string) ([]domain.Address, error) {
	var out []domain.Address
	err := r.db.Select(&out, `
		SELECT * FROM addresses WHERE user_id = ?
		ORDER BY is_default DESC, datetime(created_at) DESC`, userID)
	return out, Translate(err)
}

func (r *AddressRepo) Delete(id, userID string) error {
	res, err := r.db.Exec(`DELETE FROM addresses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("address %s", id)
	}
	return nil
}

// DefaultCount supports the uniqueness invariant checks in tests and admin
// tooling.
func (r *AddressRepo) DefaultCount(userID, addressType string) (int, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM addresses
		WHERE user_id = ? AND address_type = ? AND is_default = 1`, userID, addressType)
	return n, Translate(err)
}
