package ports

import (
	"context"
	"time"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

// Tx is the commit/rollback half shared by both stores' transactions. The
// coordinator sequences Commit calls across the two stores and falls back to
// compensating writes when the second commit fails.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CredentialStore is the authentication backend. Reads outside a transaction
// see only committed state.
type CredentialStore interface {
	Begin(ctx context.Context) (CredentialTx, error)
	FindByID(ctx context.Context, id string) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	// RecordLogin advances last_login for an authenticated identity. It is a
	// single-store write and needs no coordination.
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// CredentialTx exposes the credential writes the coordinator pairs with
// profile writes. Every method operates inside the open transaction.
type CredentialTx interface {
	Tx
	Insert(ctx context.Context, c *domain.Credential) error
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
	// Delete removes a row entirely. Only used to compensate a create whose
	// paired profile write failed; the row was never observable.
	Delete(ctx context.Context, id string) error
}

// ListFilter narrows the profile directory listing. Soft-deleted profiles are
// always excluded.
type ListFilter struct {
	Email string // partial match on email
	Query string // partial match on first name, last name, or email
}

// ProfileStore is the directory backend.
type ProfileStore interface {
	Begin(ctx context.Context) (ProfileTx, error)
	// FindByID returns only non-deleted profiles.
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	// FindByIDAny returns the profile regardless of the soft-delete flag.
	FindByIDAny(ctx context.Context, id string) (*domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Profile, error)
}

// ProfileTx exposes the profile writes paired with credential writes.
type ProfileTx interface {
	Tx
	Insert(ctx context.Context, p *domain.Profile) error
	Update(ctx context.Context, id, firstName, lastName, email string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetDeleted(ctx context.Context, id string, deleted bool) error
	Delete(ctx context.Context, id string) error
}
