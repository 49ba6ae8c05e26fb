package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/store/memory"
	"github.com/xraph/mealledger/types"
)

func newLedger(t *testing.T, customer string) *membership.Ledger {
	t.Helper()
	p := &mealplan.Plan{
		ID:           id.NewMealPlanID(),
		Name:         "Weekly",
		TotalMeals:   10,
		DurationDays: 7,
		Price:        types.AED(20000),
		Status:       mealplan.StatusActive,
	}
	l, err := membership.New(p, membership.CreateInput{CustomerID: customer}, time.Now())
	if err != nil {
		t.Fatalf("membership.New: %v", err)
	}
	return l
}

func TestPlans(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	p := &mealplan.Plan{
		Entity:       types.NewEntity(),
		ID:           id.NewMealPlanID(),
		Name:         "Monthly",
		TotalMeals:   30,
		DurationDays: 30,
		Price:        types.AED(90000),
		Status:       mealplan.StatusActive,
		Metadata:     map[string]string{"kitchen": "main"},
	}
	if err := s.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := s.CreatePlan(ctx, p); err == nil {
		t.Error("duplicate CreatePlan succeeded")
	}

	p.Metadata["kitchen"] = "changed"
	got, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Metadata["kitchen"] != "main" {
		t.Error("store kept a reference to the caller's map")
	}

	if err := s.ArchivePlan(ctx, p.ID); err != nil {
		t.Fatalf("ArchivePlan: %v", err)
	}
	active, _ := s.ListPlans(ctx, mealplan.ListOpts{Status: mealplan.StatusActive})
	archived, _ := s.ListPlans(ctx, mealplan.ListOpts{Status: mealplan.StatusArchived})
	if len(active) != 0 || len(archived) != 1 {
		t.Errorf("active %d archived %d, want 0 and 1", len(active), len(archived))
	}

	if _, err := s.GetPlan(ctx, id.NewMealPlanID()); !errors.Is(err, mealplan.ErrPlanNotFound) {
		t.Errorf("GetPlan missing err = %v", err)
	}
}

func TestSaveLedgerVersioning(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	l := newLedger(t, "cust-1")

	if err := s.CreateLedger(ctx, l); err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}
	if err := s.CreateLedger(ctx, l); !errors.Is(err, membership.ErrLedgerExists) {
		t.Errorf("duplicate CreateLedger err = %v", err)
	}

	a, _ := s.GetLedger(ctx, l.ID)
	b, _ := s.GetLedger(ctx, l.ID)

	if _, err := a.Hold(membership.Transition{}, time.Now()); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if err := s.SaveLedger(ctx, a, 0); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	if a.Version != 1 {
		t.Errorf("version = %d, want 1", a.Version)
	}

	if _, err := b.Cancel(membership.Transition{}, time.Now()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	err := s.SaveLedger(ctx, b, 0)
	if !errors.Is(err, membership.ErrConcurrentModification) {
		t.Fatalf("stale save err = %v, want ErrConcurrentModification", err)
	}

	stored, _ := s.GetLedger(ctx, l.ID)
	if stored.Status != membership.StatusHold || stored.Version != 1 {
		t.Errorf("stored = %s v%d, want hold v1", stored.Status, stored.Version)
	}

	if err := s.SaveLedger(ctx, newLedger(t, "x"), 0); !errors.Is(err, membership.ErrLedgerNotFound) {
		t.Errorf("save unknown err = %v", err)
	}
}

func TestGetLedgerReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	l := newLedger(t, "cust-1")
	_ = s.CreateLedger(ctx, l)

	got, _ := s.GetLedger(ctx, l.ID)
	got.RemainingMeals = 0
	got.History = nil

	again, _ := s.GetLedger(ctx, l.ID)
	if again.RemainingMeals != 10 || len(again.History) != 1 {
		t.Error("mutating a loaded ledger changed the store")
	}
}

func TestListLedgers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for _, c := range []string{"b", "a", "c", "a"} {
		if err := s.CreateLedger(ctx, newLedger(t, c)); err != nil {
			t.Fatalf("CreateLedger: %v", err)
		}
	}

	tests := []struct {
		name string
		opts membership.ListOpts
		want []string
	}{
		{"all", membership.ListOpts{}, []string{"a", "a", "b", "c"}},
		{"by customer", membership.ListOpts{CustomerIDs: []string{"a", "c"}}, []string{"a", "a", "c"}},
		{"paged", membership.ListOpts{Limit: 2, Offset: 1}, []string{"a", "b"}},
		{"by status", membership.ListOpts{Status: membership.StatusHold}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListLedgers(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListLedgers: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ledgers, want %d", len(got), len(tt.want))
			}
			for i, l := range got {
				if l.CustomerID != tt.want[i] {
					t.Errorf("[%d] customer = %s, want %s", i, l.CustomerID, tt.want[i])
				}
			}
		})
	}
}

func TestPendingCache(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	if _, err := s.GetCached(ctx, "c"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Fatalf("empty cache err = %v", err)
	}

	sum := &pending.Summary{CustomerID: "c", PendingMeals: 4}
	_ = s.SetCached(ctx, "c", sum, time.Minute)
	got, err := s.GetCached(ctx, "c")
	if err != nil || got.PendingMeals != 4 {
		t.Fatalf("GetCached = %+v, %v", got, err)
	}

	_ = s.SetCached(ctx, "expired", sum, -time.Second)
	if _, err := s.GetCached(ctx, "expired"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Errorf("expired entry err = %v", err)
	}

	_ = s.Invalidate(ctx, "c")
	if _, err := s.GetCached(ctx, "c"); !errors.Is(err, pending.ErrCacheMiss) {
		t.Errorf("invalidated entry err = %v", err)
	}
}

func TestCacheExpiryFollowsClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithClock(func() time.Time { return now }))

	_ = s.SetCached(ctx, "c", &pending.Summary{CustomerID: "c"}, 30*time.Second) //nolint:errcheck // never fails

	tests := []struct {
		name    string
		advance time.Duration
		hit     bool
	}{
		{"fresh", 0, true},
		{"just before expiry", 29 * time.Second, true},
		{"at expiry", time.Second, false},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		_, err := s.GetCached(ctx, "c")
		if hit := err == nil; hit != tt.hit {
			t.Errorf("%s: hit = %v (err %v), want %v", tt.name, hit, err, tt.hit)
		}
	}
}
