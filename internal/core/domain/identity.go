package domain

import "time"

const (
	RoleAdministrator = "Administrator"
	RoleClient        = "Client"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdministrator || role == RoleClient
}

// Identity is the logical user spanning both stores. It is the flattened
// view returned by services; PasswordHash is never serialized.
type Identity struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	IsDeleted bool       `json:"is_deleted"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Credential is the credential-store record: the single source of truth for
// login. IsActive gates authentication; LastLogin advances only on a
// successful login.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the profile-store record: the single source of truth for the
// directory listing. IsDeleted is the soft-delete gate, distinct from the
// credential record's IsActive flag.
type Profile struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller is the authenticated identity attached to a request by the auth
// middleware. A zero Caller means the request carried no valid token.
type Caller struct {
	ID    string
	Email string
	Role  string
}

// IsZero reports whether no authenticated caller is present.
func (c Caller) IsZero() bool {
	return c.ID == "" && c.Role == ""
}
