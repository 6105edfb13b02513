package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"portal/authgate/internal/model"
)

func TestMemoryExpiryIsLazy(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemory[string]("profiles")
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "u1", "hello", 100*time.Millisecond); err != nil {
		t.Fatalf("set error: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "u1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(150 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatal("expected absent after expiry")
	}

	// The cache is passive: a second read stays absent, nothing
	// re-fetches behind the caller's back.
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatal("expected absent on repeated read")
	}
}

func TestMemoryDefaultTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemory[int]("n")
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", 7, 0)
	now = now.Add(DefaultTTL - time.Second)
	if v, ok, _ := c.Get(ctx, "k"); !ok || v != 7 {
		t.Fatalf("expected hit inside default ttl, got ok=%v v=%d", ok, v)
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected absent past default ttl")
	}
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string]("profiles")
	_ = c.Set(ctx, "u1", "a", time.Minute)
	_ = c.Set(ctx, "u2", "b", time.Minute)

	if err := c.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("invalidate error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatal("expected u1 gone")
	}
	if _, ok, _ := c.Get(ctx, "u2"); !ok {
		t.Fatal("expected u2 kept")
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate all error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "u2"); ok {
		t.Fatal("expected namespace purge to drop u2")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	c := NewRedis[model.Profile](client, "authgate-test:profiles")
	defer func() { _ = c.Invalidate(ctx) }()

	p := model.Profile{UserID: "u1", Role: model.RoleStudent, FirstName: "A", LastName: "B"}
	if err := c.Set(ctx, "u1", p, time.Minute); err != nil {
		t.Fatalf("set error: %v", err)
	}
	got, ok, err := c.Get(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.UserID != "u1" || got.Role != model.RoleStudent {
		t.Fatalf("unexpected value %+v", got)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatal("expected namespace purge to drop entry")
	}
}
