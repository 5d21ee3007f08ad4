package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

// Expected table:
//
//	CREATE TABLE credentials (
//	    id            UUID PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    role          TEXT NOT NULL,
//	    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    last_login    TIMESTAMPTZ,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);

const uniqueViolation = "23505"

var _ ports.CredentialStore = (*CredentialStore)(nil)

// CredentialStore is the PostgreSQL implementation of the credential backend.
type CredentialStore struct {
	db *Connection
}

func NewCredentialStore(db *Connection) *CredentialStore {
	return &CredentialStore{db: db}
}

const credentialColumns = `id, email, password_hash, role, is_active, last_login, created_at, updated_at`

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var c domain.Credential
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Role, &c.IsActive, &c.LastLogin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, mapError("scan credential", err)
	}
	return &c, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`
	return scanCredential(s.db.QueryRow(ctx, query, id))
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE email = $1`
	return scanCredential(s.db.QueryRow(ctx, query, email))
}

func (s *CredentialStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE credentials SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id, at); err != nil {
		return mapError("record login", err)
	}
	return nil
}

func (s *CredentialStore) Begin(ctx context.Context) (ports.CredentialTx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, mapError("begin credential tx", err)
	}
	return &credentialTx{tx: tx}, nil
}

type credentialTx struct {
	tx pgx.Tx
}

func (t *credentialTx) Insert(ctx context.Context, c *domain.Credential) error {
	query := `INSERT INTO credentials (id, email, password_hash, role, is_active, last_login, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := t.tx.Exec(ctx, query,
		c.ID, c.Email, c.PasswordHash, c.Role, c.IsActive, c.LastLogin, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapError("insert credential", err)
	}
	return nil
}

func (t *credentialTx) UpdateEmail(ctx context.Context, id, email string) error {
	return t.update(ctx, "update credential email",
		`UPDATE credentials SET email = $2, updated_at = NOW() WHERE id = $1`, id, email)
}

func (t *credentialTx) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	// The hash is stored verbatim; it was computed once by the coordinator.
	return t.update(ctx, "update credential hash",
		`UPDATE credentials SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (t *credentialTx) SetActive(ctx context.Context, id string, active bool) error {
	return t.update(ctx, "set credential active",
		`UPDATE credentials SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

func (t *credentialTx) Delete(ctx context.Context, id string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id); err != nil {
		return mapError("delete credential", err)
	}
	return nil
}

func (t *credentialTx) update(ctx context.Context, op, query string, args ...any) error {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (t *credentialTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return mapError("commit credential tx", err)
	}
	return nil
}

func (t *credentialTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return mapError("rollback credential tx", err)
	}
	return nil
}

// mapError translates driver failures into domain error kinds: unique
// violations become conflicts, timeouts and cancellations become
// store-unavailable.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
