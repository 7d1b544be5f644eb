package model

// Car is a listing. User references the owning account and is set once
// at creation.
type Car struct {
	ID          string   `json:"_id"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Price       float64  `json:"price"`
	Pictures    []string `json:"pictures"`
	Description string   `json:"description"`
	User        string   `json:"user"`
}

// Clone returns a deep copy of the car.
func (c *Car) Clone() *Car {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Pictures = append([]string{}, c.Pictures...)
	return &cp
}

// CarDetails is a car with its owner populated. The owner replaces the
// bare user reference when serialized.
type CarDetails struct {
	Car
	User *User `json:"user"`
}

// CarSummary is the short form returned when a car is favorited.
type CarSummary struct {
	ID          string `json:"_id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// Summary returns the short form of the car.
func (c *Car) Summary() CarSummary {
	return CarSummary{
		ID:          c.ID,
		Make:        c.Make,
		Model:       c.Model,
		Description: c.Description,
	}
}
