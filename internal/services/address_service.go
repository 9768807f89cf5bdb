package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"almira/internal/domain"
	"almira/internal/repos"
)

// AddressService manages a customer's address book. Setting a default
// clears the previous default of the same type in the same transaction, so
// each (user, type) pair has at most one default at any time.
type AddressService struct {
	DB    *sqlx.DB
	Addrs *repos.AddressRepo
}

func NewAddressService(db *sqlx.DB, addrs *repos.AddressRepo) *AddressService {
	return &AddressService{DB: db, Addrs: addrs}
}

type AddressInput struct {
	AddressType  string
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	IsDefault    bool
}

func (in *AddressInput) validate() error {
	if in.AddressType != domain.AddressShipping && in.AddressType != domain.AddressBilling {
		return domain.Validationf("address type must be shipping or billing")
	}
	for _, f := range []struct{ name, v string }{
		{"full_name", in.FullName},
		{"phone", in.Phone},
		{"address_line1", in.AddressLine1},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
	} {
		if strings.TrimSpace(f.v) == "" {
			return domain.Validationf("%s is required", f.name)
		}
	}
	if in.Country == "" {
		in.Country = "India"
	}
	return nil
}

func (s *AddressService) Create(p domain.Principal, in AddressInput) (*domain.Address, error) {
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := domain.Now()
	a := &domain.Address{
		ID:           uuid.NewString(),
		UserID:       p.ID,
		AddressType:  in.AddressType,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		AddressLine2: strings.TrimSpace(in.AddressLine2),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Country:      in.Country,
		IsDefault:    in.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// First address of its type becomes the default automatically.
	existing, err := s.countByType(tx, p.ID, a.AddressType)
	if err != nil {
		return nil, err
	}
	if existing == 0 {
		a.IsDefault = true
	}
	if err := s.Addrs.Insert(tx, a); err != nil {
		return nil, err
	}
	if a.IsDefault {
		if err := s.Addrs.ClearDefaults(tx, p.ID, a.AddressType, a.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Update(p domain.Principal, addressID string, in AddressInput) (*domain.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	a, err := s.Addrs.Get(addressID, p.ID)
	if err != nil {
		return nil, err
	}

	a.AddressType = in.AddressType
	a.FullName = strings.TrimSpace(in.FullName)
	a.Phone = strings.TrimSpace(in.Phone)
	a.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	a.City = strings.TrimSpace(in.City)
	a.State = strings.TrimSpace(in.State)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.Country = in.Country
	a.IsDefault = in.IsDefault
	a.UpdatedAt = domain.Now()

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.Addrs.Update(tx, a); err != nil {
		return nil, err
	}
	if a.IsDefault {
		if err := s.Addrs.ClearDefaults(tx, p.ID, a.AddressType, a.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

// SetDefault promotes one address to be the sole default of its type.
func (s *AddressService) SetDefault(p domain.Principal, addressID string) (*domain.Address, error) {
	a, err := s.Addrs.Get(addressID, p.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	a.IsDefault = true
	a.UpdatedAt = domain.Now()
	if err := s.Addrs.Update(tx, a); err != nil {
		return nil, err
	}
	if err := s.Addrs.ClearDefaults(tx, p.ID, a.AddressType, a.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Get(p domain.Principal, addressID string) (*domain.Address, error) {
	return s.Addrs.Get(addressID, p.ID)
}

func (s *AddressService) List(p domain.Principal) ([]domain.Address, error) {
	return s.Addrs.ListByUser(p.ID)
}

func (s *AddressService) Delete(p domain.Principal, addressID string) error {
	return s.Addrs.Delete(addressID, p.ID)
}

func (s *AddressService) countByType(e sqlx.Ext, userID, addressType string) (int, error) {
	var n int
	err := sqlx.Get(e, &n, `SELECT COUNT(*) FROM addresses WHERE user_id = ? AND address_type = ?`, userID, addressType)
	return n, err
}
