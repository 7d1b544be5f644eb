package service

import "errors"

// Errors returned by the services. Handlers map them onto HTTP statuses;
// storage and crypto failures never cross this boundary unwrapped.
var (
	// ErrInvalidToken covers malformed, forged and expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAlreadyRevoked is returned when revoking a token twice.
	ErrAlreadyRevoked = errors.New("token already revoked")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	ErrUserNotFound = errors.New("user not found")
	ErrCarNotFound  = errors.New("car not found")

	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")

	ErrAlreadyFavorite = errors.New("car already in favorites")
	ErrNotInFavorites  = errors.New("car not found in favorites")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrInternal wraps unexpected collaborator failures.
	ErrInternal = errors.New("internal failure")
)
