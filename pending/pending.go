// Package pending derives the read-only "pending meals" view that list
// screens show: one row per customer for the membership that is current.
package pending

import (
	"cmp"
	"slices"
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/membership"
)

type Summary struct {
	LedgerID     id.LedgerID       `json:"ledger_id"`
	CustomerID   string            `json:"customer_id"`
	PlanName     string            `json:"plan_name,omitempty"`
	PendingMeals int               `json:"pending_meals"`
	IsActive     bool              `json:"is_active"`
	IsOnHold     bool              `json:"is_on_hold"`
	Status       membership.Status `json:"status"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
}

// IsActive reports whether l still has meals that can be used: it is active
// or on hold, not past its end date, and has a positive balance.
func IsActive(l *membership.Ledger, now time.Time) bool {
	if l.Status != membership.StatusActive && l.Status != membership.StatusHold {
		return false
	}
	return !l.EndDate.Before(now) && l.RemainingMeals > 0
}

// Summarize projects a single ledger.
func Summarize(l *membership.Ledger, now time.Time) Summary {
	return Summary{
		LedgerID:     l.ID,
		CustomerID:   l.CustomerID,
		PlanName:     l.PlanName,
		PendingMeals: l.RemainingMeals,
		IsActive:     IsActive(l, now),
		IsOnHold:     l.Status == membership.StatusHold,
		Status:       l.Status,
		StartDate:    l.StartDate,
		EndDate:      l.EndDate,
	}
}

// SelectCurrent picks the ledger to show for a customer among several.
// Only active ledgers qualify. The latest start date wins, using the
// creation time when no start date is set; remaining ties go to the later
// creation time and then the larger id. It returns nil when none qualify.
func SelectCurrent(ledgers []*membership.Ledger, now time.Time) *membership.Ledger {
	var current *membership.Ledger
	for _, l := range ledgers {
		if l == nil || !IsActive(l, now) {
			continue
		}
		if current == nil || newer(l, current) {
			current = l
		}
	}
	return current
}

func newer(a, b *membership.Ledger) bool {
	if c := effectiveStart(a).Compare(effectiveStart(b)); c != 0 {
		return c > 0
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c > 0
	}
	return a.ID.Compare(b.ID) > 0
}

func effectiveStart(l *membership.Ledger) time.Time {
	if l.StartDate.IsZero() {
		return l.CreatedAt
	}
	return l.StartDate
}

// Project groups ledgers by customer and returns one summary per customer
// that has a current ledger, ordered by customer id.
func Project(ledgers []*membership.Ledger, now time.Time) []Summary {
	byCustomer := make(map[string][]*membership.Ledger)
	for _, l := range ledgers {
		byCustomer[l.CustomerID] = append(byCustomer[l.CustomerID], l)
	}

	out := make([]Summary, 0, len(byCustomer))
	for _, group := range byCustomer {
		if cur := SelectCurrent(group, now); cur != nil {
			out = append(out, Summarize(cur, now))
		}
	}
	sortSummaries(out)
	return out
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int { return cmp.Compare(a.CustomerID, b.CustomerID) })
}
