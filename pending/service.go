package pending

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/xraph/mealledger/membership"
)

// LedgerLister is the read side of a ledger store.
type LedgerLister interface {
	ListLedgers(ctx context.Context, opts membership.ListOpts) ([]*membership.Ledger, error)
}

// Service answers pending-meal queries, reading through an optional cache.
type Service struct {
	ledgers LedgerLister
	cache   Cache
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(ledgers LedgerLister, cache Cache, ttl time.Duration, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledgers: ledgers, cache: cache, ttl: ttl, now: now, logger: logger}
}

// ListPending returns one summary per customer, ordered by customer id.
// With no customer ids every customer is listed and the cache is bypassed.
func (s *Service) ListPending(ctx context.Context, customerIDs ...string) ([]Summary, error) {
	now := s.now().UTC()

	if len(customerIDs) == 0 {
		all, err := s.ledgers.ListLedgers(ctx, membership.ListOpts{})
		if err != nil {
			return nil, err
		}
		return Project(all, now), nil
	}

	ids := slices.Clone(customerIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	out := make([]Summary, 0, len(ids))
	misses := ids
	if s.cache != nil {
		misses = misses[:0:0]
		for _, cid := range ids {
			sum, err := s.cache.GetCached(ctx, cid)
			switch {
			case err == nil:
				out = append(out, *sum)
			case errors.Is(err, ErrCacheMiss):
				misses = append(misses, cid)
			default:
				s.logger.Warn("pending cache read failed", "customer_id", cid, "error", err)
				misses = append(misses, cid)
			}
		}
	}

	if len(misses) > 0 {
		ledgers, err := s.ledgers.ListLedgers(ctx, membership.ListOpts{CustomerIDs: misses})
		if err != nil {
			return nil, err
		}
		fresh := Project(ledgers, now)
		for i := range fresh {
			if s.cache != nil {
				_ = s.cache.SetCached(ctx, fresh[i].CustomerID, &fresh[i], s.ttl) //nolint:errcheck // best-effort cache fill
			}
		}
		out = append(out, fresh...)
	}

	sortSummaries(out)
	return out, nil
}

// Invalidate drops the cached summary of a customer.
func (s *Service) Invalidate(ctx context.Context, customerID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, customerID)
}
