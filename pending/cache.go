package pending

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.GetCached when nothing is stored for a
// customer.
var ErrCacheMiss = errors.New("mealledger: pending summary not cached")

// Cache holds per-customer summaries. Entries may be stale until they expire
// or are invalidated.
type Cache interface {
	GetCached(ctx context.Context, customerID string) (*Summary, error)
	SetCached(ctx context.Context, customerID string, s *Summary, ttl time.Duration) error
	Invalidate(ctx context.Context, customerID string) error
}
