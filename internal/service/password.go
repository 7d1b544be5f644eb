package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns passwords into stored form and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) bool
}

// NewPasswordHasher returns the hasher for mode: "bcrypt" or "plaintext".
func NewPasswordHasher(mode string, cost int) (PasswordHasher, error) {
	switch mode {
	case "bcrypt", "":
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		return BcryptHasher{Cost: cost}, nil
	case "plaintext":
		return PlaintextHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password mode %q", mode)
	}
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of password. Passwords longer than 72
// bytes are rejected with ErrInvalidInput.
func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches the stored hash.
func (h BcryptHasher) Compare(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// PlaintextHasher stores passwords as given and compares by equality.
// Only for data sets created by the legacy backend.
type PlaintextHasher struct{}

// Hash returns password unchanged.
func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

// Compare reports whether password equals stored.
func (PlaintextHasher) Compare(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
