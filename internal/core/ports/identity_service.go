package ports

import (
	"context"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

// CreateIdentityInput carries already-validated registration data. Caller is
// zero for anonymous registration; creating an Administrator requires an
// authenticated Administrator caller.
type CreateIdentityInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	Caller          domain.Caller
}

// UpdateProfileInput carries a partial profile update. Empty fields are left
// unchanged. PasswordPresent marks a rejected attempt to change the password
// through this operation.
type UpdateProfileInput struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	PasswordPresent bool
	Caller          domain.Caller
}

// ChangePasswordInput carries a password rotation request.
type ChangePasswordInput struct {
	ID              string
	CurrentPassword string
	NewPassword     string
	Caller          domain.Caller
}

// ListIdentitiesInput carries directory search parameters (admin only).
type ListIdentitiesInput struct {
	Email  string
	Query  string
	Caller domain.Caller
}

// IdentityService is the dual-store coordinator's use-case surface. Every
// mutation is reflected in both stores before the call returns.
type IdentityService interface {
	Create(ctx context.Context, in CreateIdentityInput) (*domain.Identity, error)
	Get(ctx context.Context, id string, caller domain.Caller) (*domain.Identity, error)
	List(ctx context.Context, in ListIdentitiesInput) ([]*domain.Identity, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*domain.Identity, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	Delete(ctx context.Context, id string, caller domain.Caller) error
	// Authenticate verifies credentials against the credential store only and
	// returns the identity plus a signed token.
	Authenticate(ctx context.Context, email, password string) (*domain.Identity, string, error)
}

// PasswordHasher hashes exactly once per logical password value; the
// resulting hash is propagated verbatim to both stores. Hashing is salted and
// therefore nondeterministic per call.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify is constant-time and returns false on malformed hashes.
	Verify(plaintext, hash string) bool
}

// TokenIssuer signs and verifies the compact credential asserting
// (id, email, role). Verify distinguishes expiry from any other defect.
type TokenIssuer interface {
	Issue(identity *domain.Identity) (string, error)
	Verify(token string) (domain.Caller, error)
}

// SessionRevoker invalidates outstanding tokens for an identity, used when an
// identity is soft-deleted.
type SessionRevoker interface {
	Revoke(ctx context.Context, id string) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}
