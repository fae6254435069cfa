package storage

import "errors"

// Storage error constants
var (
	// ErrThreatNotFound is returned when a threat is not found
	ErrThreatNotFound = errors.New("threat not found")

	// ErrAlertNotFound is returned when an alert is not found
	ErrAlertNotFound = errors.New("alert not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned when the username is already registered
	ErrDuplicateUsername = errors.New("username already registered")

	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on any failed credential check.
	// Callers must not distinguish a missing user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("constraint violation")
)
