package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrStudioNotFound  = errors.New("studio not found")
	ErrNotStudioOwner  = errors.New("not studio owner")
)

var (
	ErrNotInstructor = errors.New("profile is not an instructor")
	ErrNotOwnerRole  = errors.New("profile is not a studio owner")
	ErrInvalidFee    = errors.New("invalid session fee")
)
