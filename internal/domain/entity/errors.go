package entity

import "github.com/oksasatya/go-ddd-cqrs-users/pkg/apperror"

// Domain errors. They are *apperror.Error values, so errors.Is matches them by identity and
// apperror.KindOf classifies them.
var (
	ErrDeletedAggregateOperation = apperror.DomainRule("operation not allowed on a deleted aggregate")
	ErrNotDeleted                = apperror.DomainRule("aggregate is not deleted")
	ErrUnderMinimumAge           = apperror.DomainRule("user must be at least 13 years old")
	ErrBirthdateInFuture         = apperror.InvalidValue("birthdate is in the future")

	ErrInvalidUserID = apperror.InvalidValue("invalid user id")

	ErrEmailRequired = apperror.InvalidValue("email is required")
	ErrEmailInvalid  = apperror.InvalidValue("email format is invalid")

	ErrPhoneRequired = apperror.InvalidValue("phone number is required")
	ErrPhoneInvalid  = apperror.InvalidValue("phone number format is invalid")

	ErrFirstNameRequired = apperror.InvalidValue("first name is required")
	ErrLastNameRequired  = apperror.InvalidValue("last name is required")
	ErrNameTooLong       = apperror.InvalidValue("name parts must be at most 50 characters")

	ErrLatitudeRange  = apperror.InvalidValue("latitude must be between -90 and 90")
	ErrLongitudeRange = apperror.InvalidValue("longitude must be between -180 and 180")

	ErrAboutMeTooLong      = apperror.InvalidValue("about me must be at most 1000 characters")
	ErrCredentialsRequired = apperror.InvalidValue("password credentials are required")
	ErrImageNameRequired   = apperror.InvalidValue("profile image name is required")
)
