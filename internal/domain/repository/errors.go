package repository

import "github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"

// Errors every store implementation reports, so callers can match them with errors.Is.
var (
	ErrUserNotFound    = apperror.NotFound("user not found")
	ErrEmailTaken      = apperror.Conflict("email already registered", "email")
	ErrPhoneTaken      = apperror.Conflict("phone number already registered", "phone")
	ErrVersionConflict = apperror.Conflict("user was modified concurrently", "version")
	ErrStaleProjection = apperror.Conflict("read model already holds a newer version", "source_version")
)
