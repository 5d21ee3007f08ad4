package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials covers every authentication failure: unknown email,
// inactive account, and wrong password share this error so responses cannot
// be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials or inactive user")

var (
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrInvalidRole          = errors.New("invalid role")
	ErrForbidden            = errors.New("access forbidden")
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrPasswordNotUpdatable = errors.New("password cannot be updated here")
	ErrAlreadyDeleted       = errors.New("identity already deleted")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("invalid token")
	ErrStoreUnavailable     = errors.New("backing store unavailable")
)

// ConsistencyAlarm is the one unrecoverable dual-store failure: one store
// committed, the paired store failed, and the compensating write could not be
// applied. It must never be rendered as a normal error; the stores require
// out-of-band reconciliation.
type ConsistencyAlarm struct {
	Operation  string
	IdentityID string
	Committed  string // name of the store left committed
	Cause      error
}

func (a *ConsistencyAlarm) Error() string {
	return fmt.Sprintf("consistency alarm: %s left %q committed for identity %s: %v",
		a.Operation, a.Committed, a.IdentityID, a.Cause)
}

func (a *ConsistencyAlarm) Unwrap() error { return a.Cause }
