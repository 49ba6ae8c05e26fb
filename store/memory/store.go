// Package memory is an in-process store for tests and single-node use. It
// also implements pending.Cache.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/store"
)

// compile-time interface checks
var (
	_ store.Store   = (*Store)(nil)
	_ pending.Cache = (*Store)(nil)
)

type Store struct {
	mu sync.RWMutex

	// Meal plan storage
	plans map[string]*mealplan.Plan

	// Ledger storage, keyed by ledger id
	ledgers map[string]*membership.Ledger

	// Pending summary cache
	summaries   map[string]pending.Summary
	cacheExpiry map[string]time.Time
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for cache expiry. Pass the same clock as
// mealledger.WithClock to keep cache TTLs on engine time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		plans:       make(map[string]*mealplan.Plan),
		ledgers:     make(map[string]*membership.Ledger),
		summaries:   make(map[string]pending.Summary),
		cacheExpiry: make(map[string]time.Time),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Meal plan store implementation

func (s *Store) CreatePlan(_ context.Context, p *mealplan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; exists {
		return fmt.Errorf("mealledger/memory: plan %s already exists", p.ID)
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID id.MealPlanID) (*mealplan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[planID.String()]; ok {
		return clonePlan(p), nil
	}
	return nil, mealplan.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, opts mealplan.ListOpts) ([]*mealplan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*mealplan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if opts.Status == "" || p.Status == opts.Status {
			result = append(result, clonePlan(p))
		}
	}
	slices.SortFunc(result, func(a, b *mealplan.Plan) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePlan(_ context.Context, p *mealplan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID.String()]; !exists {
		return mealplan.ErrPlanNotFound
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) ArchivePlan(_ context.Context, planID id.MealPlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.plans[planID.String()]; exists {
		p.Status = mealplan.StatusArchived
		p.Touch()
		return nil
	}
	return mealplan.ErrPlanNotFound
}

// Ledger store implementation

func (s *Store) CreateLedger(_ context.Context, l *membership.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledgers[l.ID.String()]; exists {
		return membership.ErrLedgerExists
	}
	s.ledgers[l.ID.String()] = l.Clone()
	return nil
}

func (s *Store) GetLedger(_ context.Context, ledgerID id.LedgerID) (*membership.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.ledgers[ledgerID.String()]; ok {
		return l.Clone(), nil
	}
	return nil, membership.ErrLedgerNotFound
}

func (s *Store) SaveLedger(_ context.Context, l *membership.Ledger, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ledgers[l.ID.String()]
	if !ok {
		return membership.ErrLedgerNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: ledger %s is at version %d, expected %d",
			membership.ErrConcurrentModification, l.ID, current.Version, expectedVersion)
	}

	l.Version = expectedVersion + 1
	s.ledgers[l.ID.String()] = l.Clone()
	return nil
}

func (s *Store) ListLedgers(_ context.Context, opts membership.ListOpts) ([]*membership.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var customers map[string]bool
	if len(opts.CustomerIDs) > 0 {
		customers = make(map[string]bool, len(opts.CustomerIDs))
		for _, c := range opts.CustomerIDs {
			customers[c] = true
		}
	}

	result := make([]*membership.Ledger, 0)
	for _, l := range s.ledgers {
		if customers != nil && !customers[l.CustomerID] {
			continue
		}
		if opts.Status != "" && l.Status != opts.Status {
			continue
		}
		result = append(result, l.Clone())
	}
	slices.SortFunc(result, func(a, b *membership.Ledger) int {
		if c := cmp.Compare(a.CustomerID, b.CustomerID); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Pending cache implementation

func (s *Store) GetCached(_ context.Context, customerID string) (*pending.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if expiry, ok := s.cacheExpiry[customerID]; ok && s.now().Before(expiry) {
		if sum, ok := s.summaries[customerID]; ok {
			return &sum, nil
		}
	}
	return nil, pending.ErrCacheMiss
}

func (s *Store) SetCached(_ context.Context, customerID string, sum *pending.Summary, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[customerID] = *sum
	s.cacheExpiry[customerID] = s.now().Add(ttl)
	return nil
}

func (s *Store) Invalidate(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.summaries, customerID)
	delete(s.cacheExpiry, customerID)
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func clonePlan(p *mealplan.Plan) *mealplan.Plan {
	c := *p
	if p.Metadata != nil {
		c.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
