package domain

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrIdentityConflict       = errors.New("identity conflict")
	ErrLifetimeUnderflow      = errors.New("lifetime count would become negative")
	ErrDevoteeNotFound        = errors.New("devotee not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrUnauthorized           = errors.New("unauthorized")
)

// Reasons attached to ErrIdentityConflict
var (
	ErrPhoneBoundToOtherName = errors.New("phone bound to a different name")
	ErrNameBoundToOtherPhone = errors.New("name bound to a different phone")
)

func NewIdentityConflict(reason error) error {
	return errors.Join(ErrIdentityConflict, reason)
}
