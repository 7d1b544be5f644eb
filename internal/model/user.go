package model

// User is a registered marketplace account.
// Password is never serialized to clients.
type User struct {
	ID           string   `json:"_id"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	PhoneNumber  int64    `json:"phoneNumber,omitempty"`
	Username     string   `json:"username"`
	Password     string   `json:"-"`
	SellingCars  []string `json:"sellingCars"`
	FavoriteCars []string `json:"favoriteCars"`
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.SellingCars = append([]string{}, u.SellingCars...)
	c.FavoriteCars = append([]string{}, u.FavoriteCars...)
	return &c
}

// HasFavorite reports whether carID is in the user's favorites.
func (u *User) HasFavorite(carID string) bool {
	return containsID(u.FavoriteCars, carID)
}

// IsSelling reports whether carID is one of the user's listings.
func (u *User) IsSelling(carID string) bool {
	return containsID(u.SellingCars, carID)
}
