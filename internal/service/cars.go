package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"carsapp-api/internal/cache"
	"carsapp-api/internal/model"
	"carsapp-api/internal/repository"
	"carsapp-api/pkg/uid"
)

const (
	carListingKey    = "listing:cars"
	carListingGenKey = "listing:cars:gen"
)

// CarInput is the data needed to create a listing.
type CarInput struct {
	Make        string
	Model       string
	Year        int
	Price       float64
	Pictures    []string
	Description string
}

// CarService handles listings and favorites.
type CarService struct {
	cars       repository.CarRepository
	users      repository.UserRepository
	cache      cache.Cache
	listingTTL time.Duration
}

// NewCarService creates a new car service. listings may be nil, in which
// case GET /cars always reads the store.
func NewCarService(
	cars repository.CarRepository,
	users repository.UserRepository,
	listings cache.Cache,
	listingTTL time.Duration,
) *CarService {
	return &CarService{
		cars:       cars,
		users:      users,
		cache:      listings,
		listingTTL: listingTTL,
	}
}

// List returns every car with its owner populated.
func (s *CarService) List(ctx context.Context) ([]model.CarDetails, error) {
	if s.cache == nil || s.listingTTL <= 0 {
		return s.loadListing(ctx)
	}

	key, err := s.listingKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing cache: %w", ErrInternal, err)
	}

	data, err := s.cache.GetOrSet(ctx, key, s.listingTTL, func() ([]byte, error) {
		details, err := s.loadListing(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(details)
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: listing cache: %w", ErrInternal, err)
	}

	var details []model.CarDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %w", ErrInternal, err)
	}
	return details, nil
}

func (s *CarService) loadListing(ctx context.Context) ([]model.CarDetails, error) {
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list cars: %w", ErrInternal, err)
	}

	ownerIDs := make([]string, 0, len(cars))
	for _, c := range cars {
		ownerIDs = append(ownerIDs, c.User)
	}
	owners, err := s.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: load owners: %w", ErrInternal, err)
	}
	byID := make(map[string]*model.User, len(owners))
	for _, u := range owners {
		byID[u.ID] = u
	}

	details := make([]model.CarDetails, 0, len(cars))
	for _, c := range cars {
		details = append(details, model.CarDetails{Car: *c, User: byID[c.User]})
	}
	return details, nil
}

// listingKey returns the cache key of the current listing generation.
// A snapshot loaded before a write is stored under the old generation,
// where no reader looks for it.
func (s *CarService) listingKey(ctx context.Context) (string, error) {
	gen, err := s.cache.Get(ctx, carListingGenKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		if _, err := s.cache.SetNX(ctx, carListingGenKey, []byte(uid.New()), 0); err != nil {
			return "", err
		}
		gen, err = s.cache.Get(ctx, carListingGenKey)
	}
	if err != nil {
		return "", err
	}
	return carListingKey + ":" + string(gen), nil
}

func (s *CarService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, carListingGenKey, []byte(uid.New()), 0); err != nil {
		log.Printf("[CarService] Warning: failed to invalidate listing cache: %v", err)
	}
}

// Search returns cars whose make or model contains query, ignoring case.
func (s *CarService) Search(ctx context.Context, query string) ([]*model.Car, error) {
	cars, err := s.cars.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("%w: search cars: %w", ErrInternal, err)
	}
	return cars, nil
}

// Get returns a car with its owner. owned reports whether id owns it.
func (s *CarService) Get(ctx context.Context, id model.Identity, carID string) (details *model.CarDetails, owned bool, err error) {
	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, false, err
	}

	details = &model.CarDetails{Car: *car}
	if !id.Owns(car) {
		return details, false, nil
	}

	owner, err := s.users.FindByID(ctx, car.User)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: find owner: %w", ErrInternal, err)
	}
	details.User = owner
	return details, true, nil
}

// Create lists a new car owned by id and adds it to the owner's listings.
func (s *CarService) Create(ctx context.Context, id model.Identity, in CarInput) (*model.Car, *model.User, error) {
	if strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		return nil, nil, fmt.Errorf("%w: make and model are required", ErrInvalidInput)
	}
	if in.Year < 0 || in.Price < 0 {
		return nil, nil, fmt.Errorf("%w: year and price must not be negative", ErrInvalidInput)
	}

	if _, err := findUser(ctx, s.users, id.UserID); err != nil {
		return nil, nil, err
	}

	pictures := in.Pictures
	if pictures == nil {
		pictures = []string{}
	}
	car := &model.Car{
		Make:        in.Make,
		Model:       in.Model,
		Year:        in.Year,
		Price:       in.Price,
		Pictures:    pictures,
		Description: in.Description,
		User:        id.UserID,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, nil, fmt.Errorf("%w: create car: %w", ErrInternal, err)
	}

	if err := s.users.AddSellingCar(ctx, id.UserID, car.ID); err != nil {
		return nil, nil, fmt.Errorf("%w: link car to owner: %w", ErrInternal, err)
	}
	s.invalidateListing(ctx)

	owner, err := findUser(ctx, s.users, id.UserID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[CarService] Created car_id=%s for user_id=%s", car.ID, id.UserID)
	return car, owner, nil
}

// Delete removes a car owned by id. A missing car is reported before
// ownership is checked; a non-owner gets ErrForbidden and nothing changes.
func (s *CarService) Delete(ctx context.Context, id model.Identity, carID string) (*model.Car, *model.User, error) {
	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, nil, err
	}

	if !id.Owns(car) {
		return nil, nil, ErrForbidden
	}

	if err := s.cars.Delete(ctx, car.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrCarNotFound
		}
		return nil, nil, fmt.Errorf("%w: delete car: %w", ErrInternal, err)
	}

	if err := s.users.RemoveSellingCar(ctx, id.UserID, car.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unlink car from owner: %w", ErrInternal, err)
	}
	s.invalidateListing(ctx)

	owner, err := s.users.FindByID(ctx, id.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: find owner: %w", ErrInternal, err)
	}

	log.Printf("[CarService] Deleted car_id=%s by user_id=%s", car.ID, id.UserID)
	return car, owner, nil
}

// SellingCars returns the cars listed by id.
func (s *CarService) SellingCars(ctx context.Context, id model.Identity) ([]*model.Car, error) {
	user, err := findUser(ctx, s.users, id.UserID)
	if err != nil {
		return nil, err
	}
	return s.carsByIDs(ctx, user.SellingCars)
}

// AddFavorite adds a car to id's favorites.
func (s *CarService) AddFavorite(ctx context.Context, id model.Identity, carID string) (*model.Car, error) {
	if _, err := findUser(ctx, s.users, id.UserID); err != nil {
		return nil, err
	}

	car, err := s.findCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	added, err := s.users.AddFavorite(ctx, id.UserID, car.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: add favorite: %w", ErrInternal, err)
	}
	if !added {
		return nil, ErrAlreadyFavorite
	}
	return car, nil
}

// Favorites returns id's favorite cars. Favorites whose car has since been
// deleted are skipped.
func (s *CarService) Favorites(ctx context.Context, id model.Identity) ([]*model.Car, error) {
	user, err := findUser(ctx, s.users, id.UserID)
	if err != nil {
		return nil, err
	}
	return s.carsByIDs(ctx, user.FavoriteCars)
}

// RemoveFavorite removes a car from id's favorites.
func (s *CarService) RemoveFavorite(ctx context.Context, id model.Identity, carID string) error {
	if _, err := findUser(ctx, s.users, id.UserID); err != nil {
		return err
	}

	removed, err := s.users.RemoveFavorite(ctx, id.UserID, carID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInFavorites
	}
	if err != nil {
		return fmt.Errorf("%w: remove favorite: %w", ErrInternal, err)
	}
	if !removed {
		return ErrNotInFavorites
	}
	return nil
}

func (s *CarService) findCar(ctx context.Context, carID string) (*model.Car, error) {
	car, err := s.cars.FindByID(ctx, carID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find car: %w", ErrInternal, err)
	}
	return car, nil
}

func (s *CarService) carsByIDs(ctx context.Context, ids []string) ([]*model.Car, error) {
	if len(ids) == 0 {
		return []*model.Car{}, nil
	}
	cars, err := s.cars.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load cars: %w", ErrInternal, err)
	}
	return cars, nil
}
