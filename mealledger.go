package mealledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/plugin"
	"github.com/xraph/mealledger/store"
	"github.com/xraph/mealledger/types"
)

// DefaultPendingCacheTTL is how long a pending summary may be served from
// the cache before it is recomputed.
const DefaultPendingCacheTTL = 30 * time.Second

// Engine is the meal ledger engine. Every mutation loads the ledger,
// applies the operation to a copy and saves it guarded by the loaded
// version. A lost race surfaces as ErrConcurrentModification and is never
// retried here.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	pendingCache    pending.Cache
	pendingCacheTTL time.Duration
	pending         *pending.Service

	migrate bool
}

// New creates a new Engine backed by s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		clock:           time.Now,
		pendingCacheTTL: DefaultPendingCacheTTL,
		migrate:         true,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.pending = pending.NewService(s, e.pendingCache, e.pendingCacheTTL, e.now, e.logger)
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock replaces the wall clock. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithPendingCache puts a cache in front of pending-meal queries.
func WithPendingCache(c pending.Cache) Option {
	return func(e *Engine) {
		e.pendingCache = c
	}
}

// WithPendingCacheTTL sets the lifetime of cached pending summaries.
func WithPendingCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.pendingCacheTTL = ttl
		}
	}
}

// WithAutoMigrate controls whether Start runs store migrations.
func WithAutoMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.migrate = enabled
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if e.migrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("mealledger started",
		"plugins", e.plugins.Count(),
		"pending_cache", e.pendingCache != nil,
		"pending_cache_ttl", e.pendingCacheTTL,
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

func (e *Engine) now() time.Time { return e.clock().UTC() }

// ──────────────────────────────────────────────────
// Meal plans
// ──────────────────────────────────────────────────

// CreatePlan validates p and adds it to the catalog.
func (e *Engine) CreatePlan(ctx context.Context, p *mealplan.Plan) error {
	if p.ID.IsNil() {
		p.ID = id.NewMealPlanID()
	}
	if p.Status == "" {
		p.Status = mealplan.StatusActive
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.Entity = types.NewEntityAt(e.now())

	if err := e.store.CreatePlan(ctx, p); err != nil {
		return err
	}

	e.plugins.EmitPlanCreated(ctx, p)
	return nil
}

// GetPlan retrieves a meal plan by ID.
func (e *Engine) GetPlan(ctx context.Context, planID id.MealPlanID) (*mealplan.Plan, error) {
	return e.store.GetPlan(ctx, planID)
}

// ListPlans lists the catalog.
func (e *Engine) ListPlans(ctx context.Context, opts mealplan.ListOpts) ([]*mealplan.Plan, error) {
	return e.store.ListPlans(ctx, opts)
}

// UpdatePlan replaces the terms of an active plan. ID, status and creation
// time are kept from the stored plan. Ledgers already opened from it keep
// the terms they copied.
func (e *Engine) UpdatePlan(ctx context.Context, p *mealplan.Plan) error {
	current, err := e.store.GetPlan(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.IsArchived() {
		return fmt.Errorf("%w: %s", mealplan.ErrPlanArchived, p.ID)
	}

	p.Status = current.Status
	p.Entity = current.Entity
	if err := p.Validate(); err != nil {
		return err
	}
	p.TouchAt(e.now())

	if err := e.store.UpdatePlan(ctx, p); err != nil {
		return err
	}

	e.plugins.EmitPlanUpdated(ctx, p)
	return nil
}

// ArchivePlan stops a plan from backing new ledgers. Existing ledgers keep
// their copied terms.
func (e *Engine) ArchivePlan(ctx context.Context, planID id.MealPlanID) error {
	if err := e.store.ArchivePlan(ctx, planID); err != nil {
		return err
	}
	e.plugins.EmitPlanArchived(ctx, planID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Ledger lifecycle
// ──────────────────────────────────────────────────

// CreateLedger opens a membership ledger from a meal plan.
func (e *Engine) CreateLedger(ctx context.Context, in membership.CreateInput) (*membership.Ledger, error) {
	plan, err := e.store.GetPlan(ctx, in.MealPlanID)
	if err != nil {
		return nil, err
	}

	l, err := membership.New(plan, in, e.now())
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateLedger(ctx, l); err != nil {
		return nil, err
	}

	e.invalidate(ctx, l.CustomerID)
	e.plugins.EmitLedgerCreated(ctx, l)

	e.logger.Debug("ledger created",
		"ledger_id", l.ID.String(),
		"customer_id", l.CustomerID,
		"total_meals", l.TotalMeals,
	)
	return l, nil
}

// Punch consumes meals from a ledger.
func (e *Engine) Punch(ctx context.Context, ledgerID id.LedgerID, in membership.PunchInput) (*membership.Ledger, error) {
	l, entry, err := e.mutate(ctx, ledgerID, history.ActionConsumed,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.Punch(in, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitMealsPunched(ctx, l, entry)
	if entry.MarksCompletion() {
		e.plugins.EmitLedgerCompleted(ctx, l)
	}
	return l, nil
}

// UpdateSchedule replaces the items of one meal slot.
func (e *Engine) UpdateSchedule(ctx context.Context, ledgerID id.LedgerID, in membership.UpdateScheduleInput) (*membership.Ledger, error) {
	l, entry, err := e.mutate(ctx, ledgerID, history.ActionUpdated,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.UpdateSchedule(in, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitScheduleUpdated(ctx, l, entry)
	return l, nil
}

// Hold pauses an active ledger.
func (e *Engine) Hold(ctx context.Context, ledgerID id.LedgerID, t membership.Transition) (*membership.Ledger, error) {
	l, _, err := e.mutate(ctx, ledgerID, history.ActionHeld,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.Hold(t, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitLedgerHeld(ctx, l)
	return l, nil
}

// Unhold resumes a held ledger.
func (e *Engine) Unhold(ctx context.Context, ledgerID id.LedgerID, t membership.Transition) (*membership.Ledger, error) {
	l, _, err := e.mutate(ctx, ledgerID, history.ActionResumed,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.Unhold(t, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitLedgerResumed(ctx, l)
	return l, nil
}

// Cancel closes a ledger for good. Remaining meals are forfeited.
func (e *Engine) Cancel(ctx context.Context, ledgerID id.LedgerID, t membership.Transition) (*membership.Ledger, error) {
	l, _, err := e.mutate(ctx, ledgerID, history.ActionCancelled,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.Cancel(t, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitLedgerCancelled(ctx, l)
	return l, nil
}

// Complete closes a ledger early without touching its balance.
func (e *Engine) Complete(ctx context.Context, ledgerID id.LedgerID, t membership.Transition) (*membership.Ledger, error) {
	l, _, err := e.mutate(ctx, ledgerID, history.ActionCompleted,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.Complete(t, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitLedgerCompleted(ctx, l)
	return l, nil
}

// UpdatePayment records how the membership was paid for.
func (e *Engine) UpdatePayment(ctx context.Context, ledgerID id.LedgerID, in membership.PaymentInput) (*membership.Ledger, error) {
	l, entry, err := e.mutate(ctx, ledgerID, history.ActionPaymentUpdated,
		func(l *membership.Ledger, now time.Time) (history.Entry, error) {
			return l.UpdatePayment(in, now)
		})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitPaymentUpdated(ctx, l, entry)
	return l, nil
}

// mutate runs fn against a copy of the stored ledger and saves the result
// only if nobody else saved in between.
func (e *Engine) mutate(
	ctx context.Context,
	ledgerID id.LedgerID,
	action history.Action,
	fn func(l *membership.Ledger, now time.Time) (history.Entry, error),
) (*membership.Ledger, history.Entry, error) {
	current, err := e.store.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, history.Entry{}, err
	}

	next := current.Clone()
	entry, err := fn(next, e.now())
	if err != nil {
		return nil, history.Entry{}, err
	}
	if err := next.Verify(); err != nil {
		e.logger.Error("ledger invariant violated",
			"ledger_id", ledgerID.String(),
			"action", string(action),
			"error", err,
		)
		return nil, history.Entry{}, err
	}

	if err := e.store.SaveLedger(ctx, next, current.Version); err != nil {
		if errors.Is(err, membership.ErrConcurrentModification) {
			e.logger.Warn("ledger modified concurrently",
				"ledger_id", ledgerID.String(),
				"action", string(action),
				"expected_version", current.Version,
			)
			e.plugins.EmitConflict(ctx, ledgerID.String(), action, err)
		}
		return nil, history.Entry{}, err
	}

	e.invalidate(ctx, next.CustomerID)

	e.logger.Debug("ledger updated",
		"ledger_id", ledgerID.String(),
		"action", string(entry.Action),
		"remaining", next.RemainingMeals,
		"status", string(next.Status),
		"version", next.Version,
	)
	return next, entry, nil
}

func (e *Engine) invalidate(ctx context.Context, customerID string) {
	_ = e.pending.Invalidate(ctx, customerID) //nolint:errcheck // best-effort cache invalidation
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetLedger retrieves a ledger by ID.
func (e *Engine) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*membership.Ledger, error) {
	return e.store.GetLedger(ctx, ledgerID)
}

// ListLedgers lists ledgers matching opts.
func (e *Engine) ListLedgers(ctx context.Context, opts membership.ListOpts) ([]*membership.Ledger, error) {
	return e.store.ListLedgers(ctx, opts)
}

// History returns the entries of a ledger, oldest first.
func (e *Engine) History(ctx context.Context, ledgerID id.LedgerID) (history.Log, error) {
	l, err := e.store.GetLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return l.History, nil
}

// ListPending returns the current ledger summary of each customer, ordered
// by customer id. With no ids every customer with a current ledger is
// listed. Results may come from the pending cache.
func (e *Engine) ListPending(ctx context.Context, customerIDs ...string) ([]pending.Summary, error) {
	return e.pending.ListPending(ctx, customerIDs...)
}

// CurrentLedger returns the ledger a customer is currently eating from.
func (e *Engine) CurrentLedger(ctx context.Context, customerID string) (*membership.Ledger, error) {
	ledgers, err := e.store.ListLedgers(ctx, membership.ListOpts{CustomerIDs: []string{customerID}})
	if err != nil {
		return nil, err
	}
	current := pending.SelectCurrent(ledgers, e.now())
	if current == nil {
		return nil, fmt.Errorf("%w: no current ledger for customer %s", membership.ErrLedgerNotFound, customerID)
	}
	return current, nil
}
