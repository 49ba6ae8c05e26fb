// Package plugin provides an extensible plugin system for the meal ledger.
// Plugins can hook into ledger lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Meal plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated is called when a meal plan is added to the catalog.
type OnPlanCreated interface {
	Plugin
	OnPlanCreated(ctx context.Context, plan *mealplan.Plan) error
}

// OnPlanUpdated is called after a meal plan's terms change. Existing
// ledgers keep the terms they were opened with.
type OnPlanUpdated interface {
	Plugin
	OnPlanUpdated(ctx context.Context, plan *mealplan.Plan) error
}

// OnPlanArchived is called when a meal plan is archived.
type OnPlanArchived interface {
	Plugin
	OnPlanArchived(ctx context.Context, planID string) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated is called after a membership ledger is persisted.
type OnLedgerCreated interface {
	Plugin
	OnLedgerCreated(ctx context.Context, l *membership.Ledger) error
}

// OnMealsPunched is called after a punch is committed. entry is the
// consumed history entry that the punch appended.
type OnMealsPunched interface {
	Plugin
	OnMealsPunched(ctx context.Context, l *membership.Ledger, entry history.Entry) error
}

// OnScheduleUpdated is called after a schedule slot is edited.
type OnScheduleUpdated interface {
	Plugin
	OnScheduleUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) error
}

// OnLedgerHeld is called when a ledger is put on hold.
type OnLedgerHeld interface {
	Plugin
	OnLedgerHeld(ctx context.Context, l *membership.Ledger) error
}

// OnLedgerResumed is called when a held ledger becomes active again.
type OnLedgerResumed interface {
	Plugin
	OnLedgerResumed(ctx context.Context, l *membership.Ledger) error
}

// OnLedgerCancelled is called when a ledger is cancelled.
type OnLedgerCancelled interface {
	Plugin
	OnLedgerCancelled(ctx context.Context, l *membership.Ledger) error
}

// OnLedgerCompleted is called when a ledger reaches completed, either by
// an explicit completion or by the punch that consumed the last meal.
type OnLedgerCompleted interface {
	Plugin
	OnLedgerCompleted(ctx context.Context, l *membership.Ledger) error
}

// OnPaymentUpdated is called after the payment mode of a ledger changes.
type OnPaymentUpdated interface {
	Plugin
	OnPaymentUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) error
}

// OnConflict is called when a save loses an optimistic version check.
type OnConflict interface {
	Plugin
	OnConflict(ctx context.Context, ledgerID string, action history.Action, err error) error
}
