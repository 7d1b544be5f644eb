package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestCache(now *time.Time) *MemoryCache {
	c := NewMemoryCache()
	c.SetClock(func() time.Time { return *now })
	return c
}

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := newTestCache(&now)

	stored, err := c.SetNX(ctx, "k", []byte("v1"), time.Minute)
	if err != nil || !stored {
		t.Fatalf("first SetNX = %v, %v; want true, nil", stored, err)
	}

	stored, err = c.SetNX(ctx, "k", []byte("v2"), time.Minute)
	if err != nil || stored {
		t.Fatalf("second SetNX = %v, %v; want false, nil", stored, err)
	}

	got, _ := c.Get(ctx, "k")
	if string(got) != "v1" {
		t.Errorf("Get = %q, want v1", got)
	}

	t.Run("expired key can be set again", func(t *testing.T) {
		now = now.Add(time.Minute)
		stored, err := c.SetNX(ctx, "k", []byte("v3"), time.Minute)
		if err != nil || !stored {
			t.Fatalf("SetNX after expiry = %v, %v; want true, nil", stored, err)
		}
	})
}

func TestMemoryCache_SetNXConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.SetNX(ctx, "same", []byte("x"), 0); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("SetNX won %d times, want exactly 1", wins)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := newTestCache(&now)

	c.Set(ctx, "short", []byte("a"), time.Second)
	c.Set(ctx, "forever", []byte("b"), 0)

	if ok, _ := c.Exists(ctx, "short"); !ok {
		t.Fatal("short should exist before expiry")
	}

	now = now.Add(time.Second)

	if ok, _ := c.Exists(ctx, "short"); ok {
		t.Error("short should not exist at its expiry instant")
	}
	if _, err := c.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("Get expired = %v, want ErrCacheMiss", err)
	}
	if ok, _ := c.Exists(ctx, "forever"); !ok {
		t.Error("entry without ttl should never expire")
	}

	removed, err := c.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet(ctx, "k", time.Minute, fn)
		if err != nil || string(v) != "computed" {
			t.Fatalf("GetOrSet = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	c.Delete(ctx, "k")
	c.GetOrSet(ctx, "k", time.Minute, fn)
	if calls != 2 {
		t.Errorf("fn called %d times after Delete, want 2", calls)
	}
}
