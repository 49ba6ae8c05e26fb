package pending_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/types"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func ledger(customer string, status membership.Status, start time.Time, remaining int) *membership.Ledger {
	created := start
	if created.IsZero() {
		created = now.AddDate(0, 0, -5)
	}
	return &membership.Ledger{
		Entity:         types.NewEntityAt(created),
		ID:             id.NewLedgerID(),
		CustomerID:     customer,
		TotalMeals:     20,
		ConsumedMeals:  20 - remaining,
		RemainingMeals: remaining,
		Status:         status,
		StartDate:      start,
		EndDate:        now.AddDate(0, 0, 10),
	}
}

func TestIsActive(t *testing.T) {
	expired := ledger("c", membership.StatusActive, now.AddDate(0, -2, 0), 5)
	expired.EndDate = now.Add(-time.Second)

	tests := []struct {
		name string
		l    *membership.Ledger
		want bool
	}{
		{"active", ledger("c", membership.StatusActive, now, 5), true},
		{"hold", ledger("c", membership.StatusHold, now, 5), true},
		{"cancelled", ledger("c", membership.StatusCancelled, now, 5), false},
		{"completed", ledger("c", membership.StatusCompleted, now, 0), false},
		{"no meals left", ledger("c", membership.StatusActive, now, 0), false},
		{"expired", expired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pending.IsActive(tt.l, now); got != tt.want {
				t.Errorf("IsActive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	l := ledger("c1", membership.StatusHold, now, 7)
	l.PlanName = "Monthly"

	s := pending.Summarize(l, now)
	if s.PendingMeals != 7 || !s.IsOnHold || !s.IsActive || s.PlanName != "Monthly" {
		t.Errorf("summary = %+v", s)
	}
	if s.LedgerID != l.ID || s.CustomerID != "c1" {
		t.Errorf("identity = %s/%s", s.LedgerID, s.CustomerID)
	}
}

func TestSelectCurrent(t *testing.T) {
	older := ledger("c", membership.StatusActive, now.AddDate(0, 0, -20), 5)
	newest := ledger("c", membership.StatusActive, now.AddDate(0, 0, -1), 5)
	cancelled := ledger("c", membership.StatusCancelled, now, 5)

	noStart := ledger("c", membership.StatusActive, time.Time{}, 5)
	noStart.CreatedAt = now.AddDate(0, 0, -3)

	sameStartEarly := ledger("c", membership.StatusActive, now.AddDate(0, 0, -2), 5)
	sameStartLate := ledger("c", membership.StatusActive, now.AddDate(0, 0, -2), 5)
	sameStartLate.CreatedAt = sameStartEarly.CreatedAt.Add(time.Minute)

	tests := []struct {
		name    string
		ledgers []*membership.Ledger
		want    *membership.Ledger
	}{
		{"latest start wins", []*membership.Ledger{older, newest}, newest},
		{"inactive ignored", []*membership.Ledger{older, cancelled}, older},
		{"created at stands in for start", []*membership.Ledger{older, noStart}, noStart},
		{"created at breaks ties", []*membership.Ledger{sameStartLate, sameStartEarly}, sameStartLate},
		{"none active", []*membership.Ledger{cancelled}, nil},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pending.SelectCurrent(tt.ledgers, now); got != tt.want {
				t.Errorf("SelectCurrent picked %v, want %v", ledgerID(got), ledgerID(tt.want))
			}
		})
	}
}

func ledgerID(l *membership.Ledger) string {
	if l == nil {
		return "<nil>"
	}
	return l.ID.String()
}

type fakeLister struct {
	ledgers []*membership.Ledger
	calls   int
}

func (f *fakeLister) ListLedgers(_ context.Context, opts membership.ListOpts) ([]*membership.Ledger, error) {
	f.calls++
	if len(opts.CustomerIDs) == 0 {
		return f.ledgers, nil
	}
	want := make(map[string]bool, len(opts.CustomerIDs))
	for _, c := range opts.CustomerIDs {
		want[c] = true
	}
	var out []*membership.Ledger
	for _, l := range f.ledgers {
		if want[l.CustomerID] {
			out = append(out, l)
		}
	}
	return out, nil
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]pending.Summary
}

func (c *mapCache) GetCached(_ context.Context, customerID string) (*pending.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[customerID]
	if !ok {
		return nil, pending.ErrCacheMiss
	}
	return &s, nil
}

func (c *mapCache) SetCached(_ context.Context, customerID string, s *pending.Summary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[customerID] = *s
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, customerID)
	return nil
}

func TestServiceListPending(t *testing.T) {
	lister := &fakeLister{ledgers: []*membership.Ledger{
		ledger("bob", membership.StatusActive, now.AddDate(0, 0, -3), 4),
		ledger("alice", membership.StatusHold, now.AddDate(0, 0, -1), 9),
		ledger("alice", membership.StatusActive, now.AddDate(0, 0, -9), 2),
		ledger("carol", membership.StatusCancelled, now, 3),
	}}
	cache := &mapCache{m: make(map[string]pending.Summary)}
	svc := pending.NewService(lister, cache, time.Minute, func() time.Time { return now }, nil)
	ctx := context.Background()

	rows, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(rows) != 2 || rows[0].CustomerID != "alice" || rows[1].CustomerID != "bob" {
		t.Fatalf("rows = %+v, want alice then bob", rows)
	}
	if rows[0].PendingMeals != 9 || !rows[0].IsOnHold {
		t.Errorf("alice row = %+v, want held ledger with 9 meals", rows[0])
	}

	rows, err = svc.ListPending(ctx, "bob", "carol", "alice", "bob")
	if err != nil {
		t.Fatalf("ListPending(ids): %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2", rows)
	}

	calls := lister.calls
	if _, err := svc.ListPending(ctx, "alice", "bob"); err != nil {
		t.Fatalf("ListPending cached: %v", err)
	}
	if lister.calls != calls {
		t.Error("cached customers hit the store again")
	}

	if err := svc.Invalidate(ctx, "alice"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := svc.ListPending(ctx, "alice", "bob"); err != nil {
		t.Fatalf("ListPending after invalidate: %v", err)
	}
	if lister.calls != calls+1 {
		t.Errorf("store calls = %d, want %d", lister.calls, calls+1)
	}

	rows, err = svc.ListPending(ctx, "carol")
	if err != nil || len(rows) != 0 {
		t.Errorf("ListPending(carol) = %+v, %v; want no rows", rows, err)
	}
}
