package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"carsapp-api/internal/model"
	"carsapp-api/pkg/uid"
)

// MemoryStore is an in-process Store. Data is lost on restart; it backs
// STORE_TYPE=memory and the tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
	cars  map[string]*model.Car
	seq   int64
	order map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*model.User),
		cars:  make(map[string]*model.Car),
		order: make(map[string]int64),
	}
}

type memoryUsers struct{ s *MemoryStore }
type memoryCars struct{ s *MemoryStore }

// Users returns the user repository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Cars returns the car repository.
func (s *MemoryStore) Cars() CarRepository { return memoryCars{s} }

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// GetStats returns record counts.
func (s *MemoryStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"status":      "connected",
		"total_users": int64(len(s.users)),
		"total_cars":  int64(len(s.cars)),
	}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// nextID must be called with the lock held.
func (s *MemoryStore) nextID() string {
	s.seq++
	id := uid.New()
	s.order[id] = s.seq
	return id
}

func (s *MemoryStore) sortByCreation(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })
}

func (r memoryUsers) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}

	user.ID = r.s.nextID()
	if user.SellingCars == nil {
		user.SellingCars = []string{}
	}
	if user.FavoriteCars == nil {
		user.FavoriteCars = []string{}
	}
	r.s.users[user.ID] = user.Clone()
	return nil
}

func (r memoryUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[uid.Canonical(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		id = uid.Canonical(id)
		if u, ok := r.s.users[id]; ok && !seen[id] {
			out = append(out, u.Clone())
			seen[id] = true
		}
	}
	return out, nil
}

func (r memoryUsers) List(ctx context.Context) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	r.s.sortByCreation(ids)

	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.users[id].Clone())
	}
	return out, nil
}

// update applies fn to the stored user under the write lock.
func (r memoryUsers) update(userID string, fn func(u *model.User) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[uid.Canonical(userID)]
	if !ok {
		return false, ErrNotFound
	}
	return fn(u), nil
}

func (r memoryUsers) AddSellingCar(ctx context.Context, userID, carID string) error {
	_, err := r.update(userID, func(u *model.User) bool {
		if u.IsSelling(carID) {
			return false
		}
		u.SellingCars = append(u.SellingCars, carID)
		return true
	})
	return err
}

func (r memoryUsers) RemoveSellingCar(ctx context.Context, userID, carID string) error {
	_, err := r.update(userID, func(u *model.User) bool {
		var removed bool
		u.SellingCars, removed = removeID(u.SellingCars, carID)
		return removed
	})
	return err
}

func (r memoryUsers) AddFavorite(ctx context.Context, userID, carID string) (bool, error) {
	return r.update(userID, func(u *model.User) bool {
		if u.HasFavorite(carID) {
			return false
		}
		u.FavoriteCars = append(u.FavoriteCars, carID)
		return true
	})
}

func (r memoryUsers) RemoveFavorite(ctx context.Context, userID, carID string) (bool, error) {
	return r.update(userID, func(u *model.User) bool {
		var removed bool
		u.FavoriteCars, removed = removeID(u.FavoriteCars, carID)
		return removed
	})
}

func (r memoryCars) Create(ctx context.Context, car *model.Car) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	car.ID = r.s.nextID()
	r.s.cars[car.ID] = car.Clone()
	return nil
}

func (r memoryCars) FindByID(ctx context.Context, id string) (*model.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cars[uid.Canonical(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (r memoryCars) FindByIDs(ctx context.Context, ids []string) ([]*model.Car, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make([]*model.Car, 0, len(ids))
	canonical := make([]string, 0, len(ids))
	for _, id := range ids {
		id = uid.Canonical(id)
		canonical = append(canonical, id)
		if c, ok := r.s.cars[id]; ok {
			found = append(found, c.Clone())
		}
	}
	return orderByIDs(canonical, found), nil
}

func (r memoryCars) List(ctx context.Context) ([]*model.Car, error) {
	return r.filter(func(*model.Car) bool { return true }), nil
}

func (r memoryCars) Search(ctx context.Context, query string) ([]*model.Car, error) {
	q := strings.ToLower(query)
	return r.filter(func(c *model.Car) bool {
		return strings.Contains(strings.ToLower(c.Make), q) || strings.Contains(strings.ToLower(c.Model), q)
	}), nil
}

func (r memoryCars) filter(match func(*model.Car) bool) []*model.Car {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]string, 0, len(r.s.cars))
	for id, c := range r.s.cars {
		if match(c) {
			ids = append(ids, id)
		}
	}
	r.s.sortByCreation(ids)

	out := make([]*model.Car, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.cars[id].Clone())
	}
	return out
}

func (r memoryCars) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id = uid.Canonical(id)
	if _, ok := r.s.cars[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.cars, id)
	return nil
}

func removeID(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if uid.Equal(v, id) {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
