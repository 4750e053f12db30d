package service

import "errors"

// Sentinel errors returned by services. Handlers map them to HTTP status codes.
var (
	// ErrNotFound means the entity does not exist within the caller's tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the operation collides with current state
	// (duplicate enrollment, attempt limit reached, invalid transition).
	ErrConflict = errors.New("conflict")
	// ErrInvalid means the input failed a domain rule rather than schema
	// validation.
	ErrInvalid = errors.New("invalid")
	// ErrForbidden means the caller's tenant or user may not act on the entity.
	ErrForbidden = errors.New("forbidden")
)
