// Package observability provides a metrics extension for the meal ledger
// that records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnPlanCreated     = (*MetricsExtension)(nil)
	_ plugin.OnPlanUpdated     = (*MetricsExtension)(nil)
	_ plugin.OnPlanArchived    = (*MetricsExtension)(nil)
	_ plugin.OnLedgerCreated   = (*MetricsExtension)(nil)
	_ plugin.OnMealsPunched    = (*MetricsExtension)(nil)
	_ plugin.OnScheduleUpdated = (*MetricsExtension)(nil)
	_ plugin.OnLedgerHeld      = (*MetricsExtension)(nil)
	_ plugin.OnLedgerResumed   = (*MetricsExtension)(nil)
	_ plugin.OnLedgerCancelled = (*MetricsExtension)(nil)
	_ plugin.OnLedgerCompleted = (*MetricsExtension)(nil)
	_ plugin.OnPaymentUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnConflict        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to track meal consumption.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	PlanCreated  Counter
	PlanUpdated  Counter
	PlanArchived Counter

	// Ledger metrics
	LedgerCreated   Counter
	LedgerHeld      Counter
	LedgerResumed   Counter
	LedgerCancelled Counter
	LedgerCompleted Counter
	ScheduleUpdated Counter
	PaymentUpdated  Counter

	// Consumption metrics
	Punches           Counter
	MealsConsumed     Counter
	PunchQuantity     Histogram
	RemainingAtPunch  Histogram
	MealsForfeited    Counter
	ConflictsDetected Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PlanCreated:  factory.Counter("mealledger.plan.created"),
		PlanUpdated:  factory.Counter("mealledger.plan.updated"),
		PlanArchived: factory.Counter("mealledger.plan.archived"),

		LedgerCreated:   factory.Counter("mealledger.ledger.created"),
		LedgerHeld:      factory.Counter("mealledger.ledger.held"),
		LedgerResumed:   factory.Counter("mealledger.ledger.resumed"),
		LedgerCancelled: factory.Counter("mealledger.ledger.cancelled"),
		LedgerCompleted: factory.Counter("mealledger.ledger.completed"),
		ScheduleUpdated: factory.Counter("mealledger.ledger.schedule_updated"),
		PaymentUpdated:  factory.Counter("mealledger.ledger.payment_updated"),

		Punches:           factory.Counter("mealledger.punch.total"),
		MealsConsumed:     factory.Counter("mealledger.meals.consumed"),
		PunchQuantity:     factory.Histogram("mealledger.punch.quantity"),
		RemainingAtPunch:  factory.Histogram("mealledger.punch.remaining"),
		MealsForfeited:    factory.Counter("mealledger.meals.forfeited"),
		ConflictsDetected: factory.Counter("mealledger.ledger.conflicts"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Meal plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (m *MetricsExtension) OnPlanCreated(_ context.Context, _ *mealplan.Plan) error {
	m.PlanCreated.Inc()
	return nil
}

// OnPlanUpdated implements plugin.OnPlanUpdated.
func (m *MetricsExtension) OnPlanUpdated(_ context.Context, _ *mealplan.Plan) error {
	m.PlanUpdated.Inc()
	return nil
}

// OnPlanArchived implements plugin.OnPlanArchived.
func (m *MetricsExtension) OnPlanArchived(_ context.Context, _ string) error {
	m.PlanArchived.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated implements plugin.OnLedgerCreated.
func (m *MetricsExtension) OnLedgerCreated(_ context.Context, _ *membership.Ledger) error {
	m.LedgerCreated.Inc()
	return nil
}

// OnMealsPunched implements plugin.OnMealsPunched.
func (m *MetricsExtension) OnMealsPunched(_ context.Context, _ *membership.Ledger, entry history.Entry) error {
	qty := float64(entry.CurrentConsumed)
	m.Punches.Inc()
	m.MealsConsumed.Add(qty)
	m.PunchQuantity.Observe(qty)
	m.RemainingAtPunch.Observe(float64(entry.RemainingMeals))
	return nil
}

// OnScheduleUpdated implements plugin.OnScheduleUpdated.
func (m *MetricsExtension) OnScheduleUpdated(_ context.Context, _ *membership.Ledger, _ history.Entry) error {
	m.ScheduleUpdated.Inc()
	return nil
}

// OnLedgerHeld implements plugin.OnLedgerHeld.
func (m *MetricsExtension) OnLedgerHeld(_ context.Context, _ *membership.Ledger) error {
	m.LedgerHeld.Inc()
	return nil
}

// OnLedgerResumed implements plugin.OnLedgerResumed.
func (m *MetricsExtension) OnLedgerResumed(_ context.Context, _ *membership.Ledger) error {
	m.LedgerResumed.Inc()
	return nil
}

// OnLedgerCancelled implements plugin.OnLedgerCancelled.
func (m *MetricsExtension) OnLedgerCancelled(_ context.Context, l *membership.Ledger) error {
	m.LedgerCancelled.Inc()
	m.MealsForfeited.Add(float64(l.RemainingMeals))
	return nil
}

// OnLedgerCompleted implements plugin.OnLedgerCompleted.
func (m *MetricsExtension) OnLedgerCompleted(_ context.Context, _ *membership.Ledger) error {
	m.LedgerCompleted.Inc()
	return nil
}

// OnPaymentUpdated implements plugin.OnPaymentUpdated.
func (m *MetricsExtension) OnPaymentUpdated(_ context.Context, _ *membership.Ledger, _ history.Entry) error {
	m.PaymentUpdated.Inc()
	return nil
}

// OnConflict implements plugin.OnConflict.
func (m *MetricsExtension) OnConflict(_ context.Context, _ string, _ history.Action, _ error) error {
	m.ConflictsDetected.Inc()
	return nil
}
