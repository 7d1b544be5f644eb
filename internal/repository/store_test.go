package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"carsapp-api/internal/model"
)

// runStoreTests exercises the repository contract against any Store.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateAndFindUser", func(t *testing.T) {
		s := newStore(t)
		u := &model.User{FirstName: "Ana", Email: "ana@example.com", Password: "hash"}
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if u.ID == "" {
			t.Fatal("expected ID to be set")
		}

		got, err := s.Users().FindByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.Email != "ana@example.com" || got.Password != "hash" {
			t.Errorf("unexpected user %+v", got)
		}
		if len(got.SellingCars) != 0 || len(got.FavoriteCars) != 0 {
			t.Errorf("expected empty sets, got %v %v", got.SellingCars, got.FavoriteCars)
		}

		byEmail, err := s.Users().FindByEmail(ctx, "ana@example.com")
		if err != nil || byEmail.ID != u.ID {
			t.Errorf("FindByEmail = %v, %v", byEmail, err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		s := newStore(t)
		if err := s.Users().Create(ctx, &model.User{Email: "dup@example.com", Password: "x"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		err := s.Users().Create(ctx, &model.User{Email: "dup@example.com", Password: "y"})
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("MissingRecords", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Users().FindByID(ctx, "not-an-id"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByID malformed: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Users().FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByEmail: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Cars().FindByID(ctx, "not-an-id"); !errors.Is(err, ErrNotFound) {
			t.Errorf("car FindByID: expected ErrNotFound, got %v", err)
		}
		if err := s.Cars().Delete(ctx, "not-an-id"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CarsAndSearch", func(t *testing.T) {
		s := newStore(t)
		owner := &model.User{Email: "seller@example.com", Password: "x"}
		if err := s.Users().Create(ctx, owner); err != nil {
			t.Fatalf("Create user: %v", err)
		}

		civic := &model.Car{Make: "Honda", Model: "Civic", Year: 2018, Price: 12000, Pictures: []string{"a.jpg"}, User: owner.ID}
		golf := &model.Car{Make: "Volkswagen", Model: "Golf_R", Year: 2020, Price: 30000, User: owner.ID}
		for _, c := range []*model.Car{civic, golf} {
			if err := s.Cars().Create(ctx, c); err != nil {
				t.Fatalf("Create car: %v", err)
			}
		}

		all, err := s.Cars().List(ctx)
		if err != nil || len(all) != 2 {
			t.Fatalf("List = %d cars, %v", len(all), err)
		}
		if all[0].ID != civic.ID {
			t.Errorf("expected creation order, got %s first", all[0].Make)
		}

		got, err := s.Cars().FindByID(ctx, civic.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got.User != owner.ID || len(got.Pictures) != 1 || got.Pictures[0] != "a.jpg" {
			t.Errorf("unexpected car %+v", got)
		}

		tests := []struct {
			query string
			want  int
		}{
			{"honda", 1},
			{"CIV", 1},
			{"o", 2},
			{"_", 1},
			{"%", 0},
			{"tesla", 0},
		}
		for _, tt := range tests {
			res, err := s.Cars().Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search(%q): %v", tt.query, err)
			}
			if len(res) != tt.want {
				t.Errorf("Search(%q) = %d results, want %d", tt.query, len(res), tt.want)
			}
		}

		ordered, err := s.Cars().FindByIDs(ctx, []string{golf.ID, "missing", civic.ID})
		if err != nil {
			t.Fatalf("FindByIDs: %v", err)
		}
		if len(ordered) != 2 || ordered[0].ID != golf.ID || ordered[1].ID != civic.ID {
			t.Errorf("FindByIDs order wrong: %+v", ordered)
		}

		if err := s.Cars().Delete(ctx, civic.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Cars().FindByID(ctx, civic.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected deleted car to be gone, got %v", err)
		}
	})

	t.Run("SellingAndFavoriteSets", func(t *testing.T) {
		s := newStore(t)
		u := &model.User{Email: "fav@example.com", Password: "x"}
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("Create user: %v", err)
		}
		car := &model.Car{Make: "Ford", Model: "Focus", User: u.ID}
		if err := s.Cars().Create(ctx, car); err != nil {
			t.Fatalf("Create car: %v", err)
		}

		if err := s.Users().AddSellingCar(ctx, u.ID, car.ID); err != nil {
			t.Fatalf("AddSellingCar: %v", err)
		}
		added, err := s.Users().AddFavorite(ctx, u.ID, car.ID)
		if err != nil || !added {
			t.Fatalf("AddFavorite = %v, %v", added, err)
		}
		added, err = s.Users().AddFavorite(ctx, u.ID, car.ID)
		if err != nil || added {
			t.Errorf("second AddFavorite = %v, %v; want false", added, err)
		}

		got, _ := s.Users().FindByID(ctx, u.ID)
		if !got.IsSelling(car.ID) || !got.HasFavorite(car.ID) {
			t.Errorf("sets not updated: %+v", got)
		}

		removed, err := s.Users().RemoveFavorite(ctx, u.ID, car.ID)
		if err != nil || !removed {
			t.Errorf("RemoveFavorite = %v, %v", removed, err)
		}
		removed, err = s.Users().RemoveFavorite(ctx, u.ID, car.ID)
		if err != nil || removed {
			t.Errorf("second RemoveFavorite = %v, %v; want false", removed, err)
		}
		if err := s.Users().RemoveSellingCar(ctx, u.ID, car.ID); err != nil {
			t.Fatalf("RemoveSellingCar: %v", err)
		}

		got, _ = s.Users().FindByID(ctx, u.ID)
		if got.IsSelling(car.ID) || got.HasFavorite(car.ID) {
			t.Errorf("sets not cleared: %+v", got)
		}

		if _, err := s.Users().AddFavorite(ctx, "missing-user", car.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("AddFavorite for missing user: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ConcurrentAddFavorite", func(t *testing.T) {
		s := newStore(t)
		u := &model.User{Email: "race@example.com", Password: "x"}
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("Create user: %v", err)
		}
		car := &model.Car{Make: "Mazda", Model: "MX-5", User: u.ID}
		if err := s.Cars().Create(ctx, car); err != nil {
			t.Fatalf("Create car: %v", err)
		}

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, err := s.Users().AddFavorite(ctx, u.ID, car.ID); err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("expected exactly one successful add, got %d", wins)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
		if err := s.Users().Create(ctx, &model.User{Email: "s@example.com", Password: "x"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
		stats, err := s.GetStats(ctx)
		if err != nil {
			t.Fatalf("GetStats: %v", err)
		}
		if stats["total_users"] != int64(1) {
			t.Errorf("total_users = %v", stats["total_users"])
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"Civic": "%civic%",
		"50%":   "%50!%%",
		"a_b":   "%a!_b%",
		"x!y":   "%x!!y%",
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: postgresDialect}
	if got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{dialect: sqliteDialect}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}
