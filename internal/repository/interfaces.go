package repository

import (
	"context"
	"errors"

	"carsapp-api/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist. Malformed ids
	// are reported the same way since they cannot match any record.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines user data access methods.
type UserRepository interface {
	// Create inserts a user and sets its ID. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *model.User) error

	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)

	List(ctx context.Context) ([]*model.User, error)

	// AddSellingCar and RemoveSellingCar maintain the user's listing set.
	AddSellingCar(ctx context.Context, userID, carID string) error
	RemoveSellingCar(ctx context.Context, userID, carID string) error

	// AddFavorite reports false if the car was already a favorite.
	AddFavorite(ctx context.Context, userID, carID string) (bool, error)

	// RemoveFavorite reports false if the car was not a favorite.
	RemoveFavorite(ctx context.Context, userID, carID string) (bool, error)
}

// CarRepository defines car data access methods.
type CarRepository interface {
	// Create inserts a car and sets its ID.
	Create(ctx context.Context, car *model.Car) error

	FindByID(ctx context.Context, id string) (*model.Car, error)

	// FindByIDs returns the cars that exist among ids, in the order of ids.
	FindByIDs(ctx context.Context, ids []string) ([]*model.Car, error)

	List(ctx context.Context) ([]*model.Car, error)

	// Search matches query case-insensitively as a substring of make or model.
	Search(ctx context.Context, query string) ([]*model.Car, error)

	// Delete removes a car. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// Store is the credential store: users and cars behind one connection.
type Store interface {
	Users() UserRepository
	Cars() CarRepository

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// GetStats returns statistics about the store.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the store connection.
	Close() error
}

// orderByIDs returns cars sorted to follow ids, dropping missing ones.
func orderByIDs(ids []string, cars []*model.Car) []*model.Car {
	byID := make(map[string]*model.Car, len(cars))
	for _, c := range cars {
		byID[c.ID] = c
	}
	out := make([]*model.Car, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok && !seen[id] {
			out = append(out, c)
			seen[id] = true
		}
	}
	return out
}
