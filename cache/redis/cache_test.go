package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/mealledger/cache/redis"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
)

func newCache(t *testing.T) (*redis.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, client, err := redis.Dial(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() }) //nolint:errcheck // test cleanup
	return c, mr
}

func summary() *pending.Summary {
	return &pending.Summary{
		LedgerID:     id.NewLedgerID(),
		CustomerID:   "cust-1",
		PlanName:     "Monthly Lunch",
		PendingMeals: 12,
		IsActive:     true,
		Status:       membership.StatusActive,
		StartDate:    time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	want := summary()

	if err := c.SetCached(ctx, "cust-1", want, time.Minute); err != nil {
		t.Fatalf("SetCached: %v", err)
	}
	if !mr.Exists(c.Key("cust-1")) {
		t.Fatalf("key %q not written", c.Key("cust-1"))
	}

	got, err := c.GetCached(ctx, "cust-1")
	if err != nil {
		t.Fatalf("GetCached: %v", err)
	}
	if got.LedgerID.String() != want.LedgerID.String() || got.PendingMeals != 12 || got.Status != membership.StatusActive {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.EndDate.Equal(want.EndDate) {
		t.Errorf("EndDate = %v, want %v", got.EndDate, want.EndDate)
	}
}

func TestMissAndInvalidate(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	if _, err := c.GetCached(ctx, "cust-1"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}

	if err := c.SetCached(ctx, "cust-1", summary(), time.Minute); err != nil {
		t.Fatalf("SetCached: %v", err)
	}
	if err := c.Invalidate(ctx, "cust-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.GetCached(ctx, "cust-1"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Errorf("after Invalidate err = %v, want ErrCacheMiss", err)
	}
	if err := c.Invalidate(ctx, "cust-2"); err != nil {
		t.Errorf("Invalidate of absent key: %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.SetCached(ctx, "cust-1", summary(), 30*time.Second); err != nil {
		t.Fatalf("SetCached: %v", err)
	}
	if ttl := mr.TTL(c.Key("cust-1")); ttl != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", ttl)
	}

	mr.FastForward(29 * time.Second)
	if _, err := c.GetCached(ctx, "cust-1"); err != nil {
		t.Fatalf("before expiry: %v", err)
	}

	mr.FastForward(2 * time.Second)
	if _, err := c.GetCached(ctx, "cust-1"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Errorf("after expiry err = %v, want ErrCacheMiss", err)
	}
}

func TestCorruptEntry(t *testing.T) {
	c, mr := newCache(t)
	if err := mr.Set(c.Key("cust-1"), "{not json"); err != nil {
		t.Fatal(err)
	}
	_, err := c.GetCached(context.Background(), "cust-1")
	if err == nil || errors.Is(err, pending.ErrCacheMiss) {
		t.Errorf("err = %v, want decode error", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		opts []redis.Option
		want string
	}{
		{"default prefix", nil, "mealledger:pending:cust-1"},
		{"custom prefix", []redis.Option{redis.WithPrefix("tenant-a:")}, "tenant-a:cust-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := redis.New(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), tt.opts...)
			if got := c.Key("cust-1"); got != tt.want {
				t.Errorf("Key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := redis.New(client)

	_, err := c.GetCached(context.Background(), "cust-1")
	if err == nil || errors.Is(err, pending.ErrCacheMiss) {
		t.Fatalf("err = %v, want connection error distinct from a miss", err)
	}
}
