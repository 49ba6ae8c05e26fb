// Package audithook bridges meal ledger lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnPlanCreated     = (*Extension)(nil)
	_ plugin.OnPlanUpdated     = (*Extension)(nil)
	_ plugin.OnPlanArchived    = (*Extension)(nil)
	_ plugin.OnLedgerCreated   = (*Extension)(nil)
	_ plugin.OnMealsPunched    = (*Extension)(nil)
	_ plugin.OnScheduleUpdated = (*Extension)(nil)
	_ plugin.OnLedgerHeld      = (*Extension)(nil)
	_ plugin.OnLedgerResumed   = (*Extension)(nil)
	_ plugin.OnLedgerCancelled = (*Extension)(nil)
	_ plugin.OnLedgerCompleted = (*Extension)(nil)
	_ plugin.OnPaymentUpdated  = (*Extension)(nil)
	_ plugin.OnConflict        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Meal plan hooks
// ──────────────────────────────────────────────────

// OnPlanCreated implements plugin.OnPlanCreated.
func (e *Extension) OnPlanCreated(ctx context.Context, p *mealplan.Plan) error {
	return e.record(ctx, ActionPlanCreated, SeverityInfo, OutcomeSuccess,
		ResourceMealPlan, p.ID.String(), CategoryCatalog, "", nil,
		"name", p.Name,
		"total_meals", p.TotalMeals,
		"duration_days", p.DurationDays,
		"price", p.Price.String(),
	)
}

// OnPlanUpdated implements plugin.OnPlanUpdated.
func (e *Extension) OnPlanUpdated(ctx context.Context, p *mealplan.Plan) error {
	return e.record(ctx, ActionPlanUpdated, SeverityInfo, OutcomeSuccess,
		ResourceMealPlan, p.ID.String(), CategoryCatalog, "", nil,
		"name", p.Name,
		"total_meals", p.TotalMeals,
		"duration_days", p.DurationDays,
		"price", p.Price.String(),
	)
}

// OnPlanArchived implements plugin.OnPlanArchived.
func (e *Extension) OnPlanArchived(ctx context.Context, planID string) error {
	return e.record(ctx, ActionPlanArchived, SeverityInfo, OutcomeSuccess,
		ResourceMealPlan, planID, CategoryCatalog, "", nil,
		"plan_id", planID,
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated implements plugin.OnLedgerCreated.
func (e *Extension) OnLedgerCreated(ctx context.Context, l *membership.Ledger) error {
	return e.record(ctx, ActionLedgerCreated, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, lastActor(l), nil,
		"customer_id", l.CustomerID,
		"meal_plan_id", l.MealPlanID.String(),
		"total_meals", l.TotalMeals,
		"payment_mode", string(l.PaymentMode),
		"total_price", l.TotalPrice.String(),
	)
}

// OnMealsPunched implements plugin.OnMealsPunched.
func (e *Extension) OnMealsPunched(ctx context.Context, l *membership.Ledger, entry history.Entry) error {
	return e.record(ctx, ActionMealsPunched, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryConsumption, entry.Actor, nil,
		"customer_id", l.CustomerID,
		"entry_id", entry.ID.String(),
		"week", entry.Week,
		"day", string(entry.Day),
		"meal_types", entry.ConsumedMealTypes,
		"quantity", entry.CurrentConsumed,
		"remaining", entry.RemainingMeals,
	)
}

// OnScheduleUpdated implements plugin.OnScheduleUpdated.
func (e *Extension) OnScheduleUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) error {
	kv := []any{
		"customer_id", l.CustomerID,
		"entry_id", entry.ID.String(),
		"week", entry.Week,
		"day", string(entry.Day),
	}
	for _, ch := range entry.MealChanges {
		kv = append(kv, "changed_"+string(ch.MealType), ch.After)
	}
	return e.record(ctx, ActionScheduleUpdated, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, entry.Actor, nil, kv...)
}

// OnLedgerHeld implements plugin.OnLedgerHeld.
func (e *Extension) OnLedgerHeld(ctx context.Context, l *membership.Ledger) error {
	return e.record(ctx, ActionLedgerHeld, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, lastActor(l), nil,
		"customer_id", l.CustomerID,
		"remaining", l.RemainingMeals,
	)
}

// OnLedgerResumed implements plugin.OnLedgerResumed.
func (e *Extension) OnLedgerResumed(ctx context.Context, l *membership.Ledger) error {
	return e.record(ctx, ActionLedgerResumed, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, lastActor(l), nil,
		"customer_id", l.CustomerID,
		"remaining", l.RemainingMeals,
	)
}

// OnLedgerCancelled implements plugin.OnLedgerCancelled.
func (e *Extension) OnLedgerCancelled(ctx context.Context, l *membership.Ledger) error {
	return e.record(ctx, ActionLedgerCancelled, SeverityWarning, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, lastActor(l), nil,
		"customer_id", l.CustomerID,
		"forfeited_meals", l.RemainingMeals,
	)
}

// OnLedgerCompleted implements plugin.OnLedgerCompleted.
func (e *Extension) OnLedgerCompleted(ctx context.Context, l *membership.Ledger) error {
	return e.record(ctx, ActionLedgerCompleted, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryMembership, lastActor(l), nil,
		"customer_id", l.CustomerID,
		"consumed", l.ConsumedMeals,
		"remaining", l.RemainingMeals,
	)
}

// OnPaymentUpdated implements plugin.OnPaymentUpdated.
func (e *Extension) OnPaymentUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) error {
	return e.record(ctx, ActionPaymentUpdated, SeverityInfo, OutcomeSuccess,
		ResourceLedger, l.ID.String(), CategoryPayment, entry.Actor, nil,
		"customer_id", l.CustomerID,
		"payment_mode", string(l.PaymentMode),
		"received_amount", l.ReceivedAmount.String(),
	)
}

// OnConflict implements plugin.OnConflict.
func (e *Extension) OnConflict(ctx context.Context, ledgerID string, action history.Action, err error) error {
	return e.record(ctx, ActionLedgerConflict, SeverityWarning, OutcomeFailure,
		ResourceLedger, ledgerID, CategoryMembership, "", err,
		"attempted_action", string(action),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func lastActor(l *membership.Ledger) string {
	if last, ok := l.History.Last(); ok {
		return last.Actor
	}
	return ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, actor string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Actor:      actor,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
