package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error classes surfaced to callers. Every error a service returns for a
// caller mistake wraps exactly one of these.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrConflict      = errors.New("conflict")
)

var (
	ErrNotMember       = fmt.Errorf("%w: not a member of this group", ErrUnauthorized)
	ErrSelfRoleChange  = fmt.Errorf("%w: you cannot change your own role", ErrForbidden)
	ErrFriendNotFound  = fmt.Errorf("%w: friend does not exist", ErrNotFound)
	ErrAlreadyMember   = fmt.Errorf("%w: user is already a member of this group", ErrConflict)
	ErrGroupLimit      = fmt.Errorf("%w: user belongs to too many groups", ErrLimitExceeded)
	ErrAvatarTooLarge  = fmt.Errorf("%w: avatar is too large", ErrLimitExceeded)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported image format", ErrValidation)
)

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// lookup turns gorm's missing-record error into ErrNotFound and wraps the rest.
func lookup(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func isMissing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
