package domain

// Roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Phone     string `db:"phone"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	CreatedAt string `db:"created_at"`
}

// Principal is the authenticated identity attached to every operation. The
// role comes from the signed token issued at login, so policy checks never
// have to query the users table they may be protecting.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Anonymous is the unauthenticated principal: it may read active catalog
// entries and approved reviews, nothing else.
var Anonymous = Principal{}
