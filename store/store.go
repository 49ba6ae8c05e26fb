package store

import (
	"context"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
)

// Store is the unified storage interface for meal plans and ledgers.
// Methods are declared explicitly instead of embedding mealplan.Store and
// membership.Store so every driver's surface is visible in one place.
type Store interface {
	// Meal plan methods
	CreatePlan(ctx context.Context, p *mealplan.Plan) error
	GetPlan(ctx context.Context, planID id.MealPlanID) (*mealplan.Plan, error)
	ListPlans(ctx context.Context, opts mealplan.ListOpts) ([]*mealplan.Plan, error)
	UpdatePlan(ctx context.Context, p *mealplan.Plan) error
	ArchivePlan(ctx context.Context, planID id.MealPlanID) error

	// Ledger methods
	CreateLedger(ctx context.Context, l *membership.Ledger) error
	GetLedger(ctx context.Context, ledgerID id.LedgerID) (*membership.Ledger, error)
	SaveLedger(ctx context.Context, l *membership.Ledger, expectedVersion int64) error
	ListLedgers(ctx context.Context, opts membership.ListOpts) ([]*membership.Ledger, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// compile-time checks that Store covers the domain store interfaces.
var (
	_ mealplan.Store   = (Store)(nil)
	_ membership.Store = (Store)(nil)
)
