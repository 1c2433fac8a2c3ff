package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Scheduling engine errors
var (
	ErrValidation          = errors.New("validation failed")
	ErrDayNotAllowed       = errors.New("weekday not allowed for this section")
	ErrConflict            = errors.New("interval overlaps an existing reservation or maintenance")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidTransition   = errors.New("invalid reservation status transition")
	ErrAlreadyRefunded     = errors.New("reservation already refunded")
	ErrInvalidAmount       = errors.New("invalid refund amount")
	ErrPriceHidden         = errors.New("product price is hidden")
	ErrProductNotAvailable = errors.New("product is not available for booking")
	ErrMaintenanceOverlap  = errors.New("maintenance window overlaps an existing maintenance")
	ErrMaintenanceEnded    = errors.New("maintenance already ended")
	ErrMaintenanceStarted  = errors.New("maintenance already started")
)

// UserErrors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)
