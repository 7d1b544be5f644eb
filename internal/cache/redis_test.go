package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr(), KeyPrefix: "test"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

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

	if !mr.Exists("test:k") {
		t.Error("key not stored under prefix")
	}
	if ttl := mr.TTL("test:k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); !ok {
		t.Fatal("expected key to exist")
	}

	mr.FastForward(10 * time.Second)

	if ok, err := c.Exists(ctx, "k"); err != nil || ok {
		t.Errorf("Exists after TTL = %v, %v; want false, nil", ok, err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after TTL: expected ErrCacheMiss, got %v", err)
	}

	stored, err := c.SetNX(ctx, "k", []byte("v2"), time.Minute)
	if err != nil || !stored {
		t.Errorf("SetNX after expiry = %v, %v; want true, nil", stored, err)
	}
}

func TestRedisCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	c.Set(ctx, "forever", []byte("v"), 0)
	mr.FastForward(24 * time.Hour)
	if ok, _ := c.Exists(ctx, "forever"); !ok {
		t.Error("key without TTL expired")
	}
}

func TestRedisCache_DeleteAndGetOrSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte("loaded"), nil
	}

	for i := 0; i < 2; i++ {
		got, err := c.GetOrSet(ctx, "k", time.Minute, load)
		if err != nil || string(got) != "loaded" {
			t.Fatalf("GetOrSet = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("key still exists after Delete")
	}
}

func TestRedisCache_ConcurrentSetNX(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedis(t)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := c.SetNX(ctx, "once", []byte("1"), time.Minute); err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
}

func TestRedisCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	mr.Close()

	if _, err := c.SetNX(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("SetNX: expected error with server down")
	}
	if _, err := c.Exists(ctx, "k"); err == nil {
		t.Error("Exists: expected error with server down")
	}
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisCache(RedisConfig{Addr: addr}); err == nil {
		t.Error("expected ping error")
	}
}
