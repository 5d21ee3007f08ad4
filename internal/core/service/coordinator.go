package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/plataforma-media/user-accounts-api/internal/api/metrics"
	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
	"github.com/plataforma-media/user-accounts-api/internal/core/ports"
)

const (
	opCreate         = "create"
	opUpdate         = "update"
	opChangePassword = "change_password"
	opDelete         = "delete"

	storeCredential = "credential"
	storeProfile    = "profile"

	// maxUndoAttempts bounds compensating-write retries before the operation
	// escalates to a ConsistencyAlarm.
	maxUndoAttempts = 3
)

// Coordinator applies every user-affecting mutation to the credential store
// and the profile store as a paired write: one transaction per store, both
// committed or both undone. There is no shared transaction coordinator, so a
// failed second commit is repaired with a compensating write against the
// already-committed store; if the compensation also fails the operation
// surfaces a ConsistencyAlarm.
type Coordinator struct {
	credentials ports.CredentialStore
	profiles    ports.ProfileStore
	hasher      ports.PasswordHasher
	tokens      ports.TokenIssuer
	revoker     ports.SessionRevoker
	log         zerolog.Logger

	// pwLocks serializes password changes per identity id; concurrent
	// changes on the same id could otherwise commit their store pairs in
	// opposite orders and desynchronize the stored hashes.
	pwLocks *keyedMutex
}

var _ ports.IdentityService = (*Coordinator)(nil)

// NewCoordinator wires the dual-store coordinator. revoker may be nil; token
// revocation on delete is then skipped.
func NewCoordinator(
	credentials ports.CredentialStore,
	profiles ports.ProfileStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	revoker ports.SessionRevoker,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		credentials: credentials,
		profiles:    profiles,
		hasher:      hasher,
		tokens:      tokens,
		revoker:     revoker,
		log:         log,
		pwLocks:     newKeyedMutex(),
	}
}

// Create registers an identity in both stores under one generated id. The
// password is hashed exactly once and the same hash is written to both
// records.
func (c *Coordinator) Create(ctx context.Context, in ports.CreateIdentityInput) (*domain.Identity, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	if role == domain.RoleAdministrator && !domain.IsAdmin(in.Caller) {
		return nil, domain.ErrForbidden
	}

	// Two independent existence reads; creation is rejected if the email is
	// present in either store. No lock spans these checks and the inserts,
	// so a concurrent create with the same email can slip through and is
	// caught by each store's unique index at commit time instead.
	if err := c.emailAvailable(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := c.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	profile := &domain.Profile{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	cred := &domain.Credential{
		ID:           id,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// In-flight transactions run to completion even if the caller
	// disconnects; abandoning one store mid-pair is worse than finishing.
	ctx = context.WithoutCancel(ctx)
	timer := prometheus.NewTimer(metrics.DualWriteDuration.WithLabelValues(opCreate))
	defer timer.ObserveDuration()

	pair, err := c.beginPair(ctx)
	if err != nil {
		return nil, err
	}
	prTx, crTx := pair.prof, pair.cred

	if err := prTx.Insert(ctx, profile); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return nil, fmt.Errorf("%s: insert profile: %w", opCreate, err)
	}
	if err := crTx.Insert(ctx, cred); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return nil, fmt.Errorf("%s: insert credential: %w", opCreate, err)
	}

	undo := c.undoProfile(func(ctx context.Context, tx ports.ProfileTx) error {
		return tx.Delete(ctx, id)
	})
	if err := c.commitPaired(ctx, opCreate, id, storeProfile, prTx, crTx, undo); err != nil {
		return nil, err
	}

	metrics.IdentitiesCreatedTotal.WithLabelValues(role).Inc()
	c.log.Info().Str("identity_id", id).Str("role", role).Msg("identity created in both stores")

	return identityFrom(profile, cred), nil
}

// Get returns a single non-deleted identity. Callers may read themselves;
// administrators may read anyone.
func (c *Coordinator) Get(ctx context.Context, id string, caller domain.Caller) (*domain.Identity, error) {
	if !domain.IsSelfOrAdmin(caller, id) {
		return nil, domain.ErrForbidden
	}

	profile, err := c.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cred, err := c.credentials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			// Profile exists without a credential record: the invariant the
			// coordinator maintains is broken, likely by an unreconciled
			// partial write.
			c.log.Warn().Str("identity_id", id).Msg("profile present but credential record missing")
			return identityFrom(profile, nil), nil
		}
		return nil, err
	}

	return identityFrom(profile, cred), nil
}

// List returns the directory of non-deleted identities. Administrator only.
func (c *Coordinator) List(ctx context.Context, in ports.ListIdentitiesInput) ([]*domain.Identity, error) {
	if !domain.IsAdmin(in.Caller) {
		return nil, domain.ErrForbidden
	}

	profiles, err := c.profiles.List(ctx, ports.ListFilter{Email: in.Email, Query: in.Query})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Identity, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, identityFrom(p, nil))
	}
	return out, nil
}

// UpdateProfile changes name and email fields. An email change is mirrored to
// the credential store in a second transaction; password fields are rejected
// outright.
func (c *Coordinator) UpdateProfile(ctx context.Context, in ports.UpdateProfileInput) (*domain.Identity, error) {
	if !domain.IsSelfOrAdmin(in.Caller, in.ID) {
		return nil, domain.ErrForbidden
	}
	if in.PasswordPresent {
		return nil, domain.ErrPasswordNotUpdatable
	}

	prev, err := c.profiles.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	firstName := coalesce(in.FirstName, prev.FirstName)
	lastName := coalesce(in.LastName, prev.LastName)
	email := coalesce(in.Email, prev.Email)

	emailChanging := email != prev.Email
	if emailChanging {
		if err := c.emailAvailable(ctx, email); err != nil {
			return nil, err
		}
	}

	ctx = context.WithoutCancel(ctx)
	timer := prometheus.NewTimer(metrics.DualWriteDuration.WithLabelValues(opUpdate))
	defer timer.ObserveDuration()

	prTx, err := c.profiles.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin profile tx: %w", opUpdate, err)
	}
	if err := prTx.Update(ctx, in.ID, firstName, lastName, email); err != nil {
		_ = prTx.Rollback(ctx)
		return nil, fmt.Errorf("%s: update profile: %w", opUpdate, err)
	}

	if !emailChanging {
		// Single-store update: the credential record carries no name fields.
		if err := prTx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("%s: commit profile: %w", opUpdate, err)
		}
	} else {
		crTx, err := c.credentials.Begin(ctx)
		if err != nil {
			_ = prTx.Rollback(ctx)
			return nil, fmt.Errorf("%s: begin credential tx: %w", opUpdate, err)
		}
		if err := crTx.UpdateEmail(ctx, in.ID, email); err != nil {
			c.rollbackPair(ctx, prTx, crTx)
			return nil, fmt.Errorf("%s: update credential email: %w", opUpdate, err)
		}

		undo := c.undoProfile(func(ctx context.Context, tx ports.ProfileTx) error {
			return tx.Update(ctx, in.ID, prev.FirstName, prev.LastName, prev.Email)
		})
		if err := c.commitPaired(ctx, opUpdate, in.ID, storeProfile, prTx, crTx, undo); err != nil {
			return nil, err
		}
	}

	updated := *prev
	updated.FirstName = firstName
	updated.LastName = lastName
	updated.Email = email
	updated.UpdatedAt = time.Now().UTC()

	c.log.Info().Str("identity_id", in.ID).Bool("email_changed", emailChanging).Msg("profile updated")
	return identityFrom(&updated, nil), nil
}

// ChangePassword rotates the password hash in both stores. The new hash is
// computed once and written verbatim to each store. Changes on the same id
// are serialized through a per-id lock.
func (c *Coordinator) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	if !domain.IsSelfOrAdmin(in.Caller, in.ID) {
		return domain.ErrForbidden
	}

	c.pwLocks.lock(in.ID)
	defer c.pwLocks.unlock(in.ID)

	cred, err := c.credentials.FindByID(ctx, in.ID)
	if err != nil {
		return err
	}
	if _, err := c.profiles.FindByIDAny(ctx, in.ID); err != nil {
		return err
	}

	if !c.hasher.Verify(in.CurrentPassword, cred.PasswordHash) {
		return domain.ErrWrongPassword
	}

	hash, err := c.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	timer := prometheus.NewTimer(metrics.DualWriteDuration.WithLabelValues(opChangePassword))
	defer timer.ObserveDuration()

	crTx, err := c.credentials.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin credential tx: %w", opChangePassword, err)
	}
	prTx, err := c.profiles.Begin(ctx)
	if err != nil {
		_ = crTx.Rollback(ctx)
		return fmt.Errorf("%s: begin profile tx: %w", opChangePassword, err)
	}

	if err := crTx.UpdatePasswordHash(ctx, in.ID, hash); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return fmt.Errorf("%s: update credential hash: %w", opChangePassword, err)
	}
	if err := prTx.UpdatePasswordHash(ctx, in.ID, hash); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return fmt.Errorf("%s: update profile hash: %w", opChangePassword, err)
	}

	prevHash := cred.PasswordHash
	undo := c.undoCredential(func(ctx context.Context, tx ports.CredentialTx) error {
		return tx.UpdatePasswordHash(ctx, in.ID, prevHash)
	})
	if err := c.commitPaired(ctx, opChangePassword, in.ID, storeCredential, crTx, prTx, undo); err != nil {
		return err
	}

	metrics.PasswordChangesTotal.Inc()
	c.log.Info().Str("identity_id", in.ID).Msg("password changed in both stores")
	return nil
}

// Delete soft-deletes an identity: isDeleted in the profile store and
// isActive=false in the credential store, flipped in lockstep. Records stay
// behind for audit; outstanding tokens are revoked. Administrator only.
func (c *Coordinator) Delete(ctx context.Context, id string, caller domain.Caller) error {
	if !domain.IsAdmin(caller) {
		return domain.ErrForbidden
	}

	profile, err := c.profiles.FindByIDAny(ctx, id)
	if err != nil {
		return err
	}
	if profile.IsDeleted {
		return domain.ErrAlreadyDeleted
	}

	ctx = context.WithoutCancel(ctx)
	timer := prometheus.NewTimer(metrics.DualWriteDuration.WithLabelValues(opDelete))
	defer timer.ObserveDuration()

	pair, err := c.beginPair(ctx)
	if err != nil {
		return err
	}
	prTx, crTx := pair.prof, pair.cred

	if err := prTx.SetDeleted(ctx, id, true); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return fmt.Errorf("%s: mark profile deleted: %w", opDelete, err)
	}
	if err := crTx.SetActive(ctx, id, false); err != nil {
		c.rollbackPair(ctx, prTx, crTx)
		return fmt.Errorf("%s: deactivate credential: %w", opDelete, err)
	}

	undo := c.undoProfile(func(ctx context.Context, tx ports.ProfileTx) error {
		return tx.SetDeleted(ctx, id, false)
	})
	if err := c.commitPaired(ctx, opDelete, id, storeProfile, prTx, crTx, undo); err != nil {
		return err
	}

	if c.revoker != nil {
		if err := c.revoker.Revoke(ctx, id); err != nil {
			c.log.Warn().Err(err).Str("identity_id", id).Msg("token revocation failed; outstanding tokens expire naturally")
		}
	}

	c.log.Info().Str("identity_id", id).Msg("identity soft-deleted in both stores")
	return nil
}

// Authenticate verifies credentials against the credential store only. An
// unknown email, an inactive account, and a wrong password all return the
// same error so responses cannot be used to probe which accounts exist.
func (c *Coordinator) Authenticate(ctx context.Context, email, password string) (*domain.Identity, string, error) {
	cred, err := c.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !cred.IsActive || !c.hasher.Verify(password, cred.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := c.credentials.RecordLogin(ctx, cred.ID, now); err != nil {
		// last_login is advisory; a failed advance must not block the login.
		c.log.Warn().Err(err).Str("identity_id", cred.ID).Msg("failed to record last login")
	}

	identity := &domain.Identity{
		ID:        cred.ID,
		Email:     cred.Email,
		Role:      cred.Role,
		IsActive:  cred.IsActive,
		LastLogin: &now,
		CreatedAt: cred.CreatedAt,
		UpdatedAt: cred.UpdatedAt,
	}

	token, err := c.tokens.Issue(identity)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.log.Info().Str("identity_id", cred.ID).Msg("login successful")
	return identity, token, nil
}

// ── dual-write plumbing ───────────────────────────────────────────────────────

type txPair struct {
	prof ports.ProfileTx
	cred ports.CredentialTx
}

func (c *Coordinator) beginPair(ctx context.Context) (txPair, error) {
	prTx, err := c.profiles.Begin(ctx)
	if err != nil {
		return txPair{}, fmt.Errorf("begin profile tx: %w", err)
	}
	crTx, err := c.credentials.Begin(ctx)
	if err != nil {
		_ = prTx.Rollback(ctx)
		return txPair{}, fmt.Errorf("begin credential tx: %w", err)
	}
	return txPair{prof: prTx, cred: crTx}, nil
}

func (c *Coordinator) rollbackPair(ctx context.Context, a, b ports.Tx) {
	_ = a.Rollback(ctx)
	_ = b.Rollback(ctx)
}

// commitPaired drives the tail of the dual-write state machine:
//
//	pending → first committed → second committed        (success)
//	pending → first committed → second failed → undone  (compensated)
//
// When the second commit fails, undo re-applies the first store's prior state
// in a fresh transaction, retried up to maxUndoAttempts. If the compensation
// itself fails the operation returns a ConsistencyAlarm: one store is left
// committed and manual reconciliation is required.
func (c *Coordinator) commitPaired(ctx context.Context, op, identityID, firstStore string, first, second ports.Tx, undo func(context.Context) error) error {
	if err := first.Commit(ctx); err != nil {
		_ = second.Rollback(ctx)
		return fmt.Errorf("%s: commit %s: %w", op, firstStore, err)
	}

	if err := second.Commit(ctx); err != nil {
		if undoErr := c.compensate(ctx, op, identityID, undo); undoErr != nil {
			metrics.ConsistencyAlarmsTotal.WithLabelValues(op).Inc()
			alarm := &domain.ConsistencyAlarm{
				Operation:  op,
				IdentityID: identityID,
				Committed:  firstStore,
				Cause:      undoErr,
			}
			c.log.Error().
				Str("alarm", "dual_store_inconsistency").
				Str("operation", op).
				Str("identity_id", identityID).
				Str("committed_store", firstStore).
				Err(undoErr).
				Msg("partial commit could not be compensated; manual reconciliation required")
			return alarm
		}

		metrics.CompensatingRollbacksTotal.WithLabelValues(op).Inc()
		c.log.Warn().
			Str("operation", op).
			Str("identity_id", identityID).
			Err(err).
			Msg("second store commit failed; first store compensated")
		return fmt.Errorf("%s: commit second store: %w", op, err)
	}

	return nil
}

func (c *Coordinator) compensate(ctx context.Context, op, identityID string, undo func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxUndoAttempts; attempt++ {
		if err = undo(ctx); err == nil {
			return nil
		}
		c.log.Warn().
			Str("operation", op).
			Str("identity_id", identityID).
			Int("attempt", attempt).
			Err(err).
			Msg("compensating write failed")
	}
	return err
}

func (c *Coordinator) undoProfile(fn func(context.Context, ports.ProfileTx) error) func(context.Context) error {
	return func(ctx context.Context) error {
		tx, err := c.profiles.Begin(ctx)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	}
}

func (c *Coordinator) undoCredential(fn func(context.Context, ports.CredentialTx) error) func(context.Context) error {
	return func(ctx context.Context) error {
		tx, err := c.credentials.Begin(ctx)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	}
}

// emailAvailable enforces cross-store email uniqueness: the address must be
// absent from both stores, even if only one holds it.
func (c *Coordinator) emailAvailable(ctx context.Context, email string) error {
	if _, err := c.credentials.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("check credential email: %w", err)
	}

	if _, err := c.profiles.FindByEmail(ctx, email); err == nil {
		return domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("check profile email: %w", err)
	}

	return nil
}

// identityFrom flattens the two store records into the single logical view.
// cred may be nil (directory listings, broken pairs); credential-only fields
// are then left at their zero values.
func identityFrom(p *domain.Profile, cred *domain.Credential) *domain.Identity {
	id := &domain.Identity{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Role:      p.Role,
		IsDeleted: p.IsDeleted,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if cred != nil {
		id.IsActive = cred.IsActive
		id.LastLogin = cred.LastLogin
	} else {
		id.IsActive = !p.IsDeleted
	}
	return id
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
