package model

import (
	"time"

	"carsapp-api/pkg/uid"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID string `json:"userId"`
}

// Owns reports whether the identity owns the car, comparing canonical ids.
func (i Identity) Owns(car *Car) bool {
	return car != nil && uid.Equal(i.UserID, car.User)
}

// TokenInfo describes a verified token.
type TokenInfo struct {
	Identity  Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if uid.Equal(v, id) {
			return true
		}
	}
	return false
}
