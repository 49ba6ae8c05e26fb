package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onPlanCreated     []OnPlanCreated
	onPlanUpdated     []OnPlanUpdated
	onPlanArchived    []OnPlanArchived
	onLedgerCreated   []OnLedgerCreated
	onMealsPunched    []OnMealsPunched
	onScheduleUpdated []OnScheduleUpdated
	onLedgerHeld      []OnLedgerHeld
	onLedgerResumed   []OnLedgerResumed
	onLedgerCancelled []OnLedgerCancelled
	onLedgerCompleted []OnLedgerCompleted
	onPaymentUpdated  []OnPaymentUpdated
	onConflict        []OnConflict
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPlanCreated); ok {
		r.onPlanCreated = append(r.onPlanCreated, v)
	}
	if v, ok := p.(OnPlanUpdated); ok {
		r.onPlanUpdated = append(r.onPlanUpdated, v)
	}
	if v, ok := p.(OnPlanArchived); ok {
		r.onPlanArchived = append(r.onPlanArchived, v)
	}
	if v, ok := p.(OnLedgerCreated); ok {
		r.onLedgerCreated = append(r.onLedgerCreated, v)
	}
	if v, ok := p.(OnMealsPunched); ok {
		r.onMealsPunched = append(r.onMealsPunched, v)
	}
	if v, ok := p.(OnScheduleUpdated); ok {
		r.onScheduleUpdated = append(r.onScheduleUpdated, v)
	}
	if v, ok := p.(OnLedgerHeld); ok {
		r.onLedgerHeld = append(r.onLedgerHeld, v)
	}
	if v, ok := p.(OnLedgerResumed); ok {
		r.onLedgerResumed = append(r.onLedgerResumed, v)
	}
	if v, ok := p.(OnLedgerCancelled); ok {
		r.onLedgerCancelled = append(r.onLedgerCancelled, v)
	}
	if v, ok := p.(OnLedgerCompleted); ok {
		r.onLedgerCompleted = append(r.onLedgerCompleted, v)
	}
	if v, ok := p.(OnPaymentUpdated); ok {
		r.onPaymentUpdated = append(r.onPaymentUpdated, v)
	}
	if v, ok := p.(OnConflict); ok {
		r.onConflict = append(r.onConflict, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook names a plugin implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPlanCreated)(nil)).Elem(), "OnPlanCreated")
	checkInterface(reflect.TypeOf((*OnPlanUpdated)(nil)).Elem(), "OnPlanUpdated")
	checkInterface(reflect.TypeOf((*OnPlanArchived)(nil)).Elem(), "OnPlanArchived")
	checkInterface(reflect.TypeOf((*OnLedgerCreated)(nil)).Elem(), "OnLedgerCreated")
	checkInterface(reflect.TypeOf((*OnMealsPunched)(nil)).Elem(), "OnMealsPunched")
	checkInterface(reflect.TypeOf((*OnScheduleUpdated)(nil)).Elem(), "OnScheduleUpdated")
	checkInterface(reflect.TypeOf((*OnLedgerHeld)(nil)).Elem(), "OnLedgerHeld")
	checkInterface(reflect.TypeOf((*OnLedgerResumed)(nil)).Elem(), "OnLedgerResumed")
	checkInterface(reflect.TypeOf((*OnLedgerCancelled)(nil)).Elem(), "OnLedgerCancelled")
	checkInterface(reflect.TypeOf((*OnLedgerCompleted)(nil)).Elem(), "OnLedgerCompleted")
	checkInterface(reflect.TypeOf((*OnPaymentUpdated)(nil)).Elem(), "OnPaymentUpdated")
	checkInterface(reflect.TypeOf((*OnConflict)(nil)).Elem(), "OnConflict")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitPlanCreated emits a plan created event.
func (r *Registry) EmitPlanCreated(ctx context.Context, plan *mealplan.Plan) {
	r.mu.RLock()
	plugins := r.onPlanCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPlanCreated", func() error {
			return p.OnPlanCreated(ctx, plan)
		})
	}
}

// EmitPlanUpdated emits a plan updated event.
func (r *Registry) EmitPlanUpdated(ctx context.Context, plan *mealplan.Plan) {
	r.mu.RLock()
	plugins := r.onPlanUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPlanUpdated", func() error {
			return p.OnPlanUpdated(ctx, plan)
		})
	}
}

// EmitPlanArchived emits a plan archived event.
func (r *Registry) EmitPlanArchived(ctx context.Context, planID string) {
	r.mu.RLock()
	plugins := r.onPlanArchived
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPlanArchived", func() error {
			return p.OnPlanArchived(ctx, planID)
		})
	}
}

// EmitLedgerCreated emits a ledger created event.
func (r *Registry) EmitLedgerCreated(ctx context.Context, l *membership.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnLedgerCreated", func() error {
			return p.OnLedgerCreated(ctx, l)
		})
	}
}

// EmitMealsPunched emits a punch event.
func (r *Registry) EmitMealsPunched(ctx context.Context, l *membership.Ledger, entry history.Entry) {
	r.mu.RLock()
	plugins := r.onMealsPunched
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnMealsPunched", func() error {
			return p.OnMealsPunched(ctx, l, entry)
		})
	}
}

// EmitScheduleUpdated emits a schedule edit event.
func (r *Registry) EmitScheduleUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) {
	r.mu.RLock()
	plugins := r.onScheduleUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnScheduleUpdated", func() error {
			return p.OnScheduleUpdated(ctx, l, entry)
		})
	}
}

// EmitLedgerHeld emits a hold event.
func (r *Registry) EmitLedgerHeld(ctx context.Context, l *membership.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerHeld
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnLedgerHeld", func() error {
			return p.OnLedgerHeld(ctx, l)
		})
	}
}

// EmitLedgerResumed emits a resume event.
func (r *Registry) EmitLedgerResumed(ctx context.Context, l *membership.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerResumed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnLedgerResumed", func() error {
			return p.OnLedgerResumed(ctx, l)
		})
	}
}

// EmitLedgerCancelled emits a cancellation event.
func (r *Registry) EmitLedgerCancelled(ctx context.Context, l *membership.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnLedgerCancelled", func() error {
			return p.OnLedgerCancelled(ctx, l)
		})
	}
}

// EmitLedgerCompleted emits a completion event.
func (r *Registry) EmitLedgerCompleted(ctx context.Context, l *membership.Ledger) {
	r.mu.RLock()
	plugins := r.onLedgerCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnLedgerCompleted", func() error {
			return p.OnLedgerCompleted(ctx, l)
		})
	}
}

// EmitPaymentUpdated emits a payment mode change event.
func (r *Registry) EmitPaymentUpdated(ctx context.Context, l *membership.Ledger, entry history.Entry) {
	r.mu.RLock()
	plugins := r.onPaymentUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentUpdated", func() error {
			return p.OnPaymentUpdated(ctx, l, entry)
		})
	}
}

// EmitConflict emits an optimistic concurrency conflict event.
func (r *Registry) EmitConflict(ctx context.Context, ledgerID string, action history.Action, err error) {
	r.mu.RLock()
	plugins := r.onConflict
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnConflict", func() error {
			return p.OnConflict(ctx, ledgerID, action, err)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a ledger operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
