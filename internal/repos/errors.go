package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"almira/internal/domain"
)

// IsUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure (modernc's driver surfaces constraint names in the message).
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a sqlite CHECK constraint failure.
func IsCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

// Translate maps storage errors onto the domain taxonomy so raw driver
// errors never cross the repository boundary.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case IsCheckViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	default:
		return err
	}
}
