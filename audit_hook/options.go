package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to the given actions.
// If not called, all actions are audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions skips the given actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool)
			for _, action := range allActions() {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// WithoutPunches skips the per-punch events. Counter staff punch many
// meals a day; status and payment changes are still audited.
func WithoutPunches() Option {
	return WithDisabledActions(ActionMealsPunched)
}

// allActions returns all known audit actions.
func allActions() []string {
	return []string{
		ActionPlanCreated,
		ActionPlanUpdated,
		ActionPlanArchived,
		ActionLedgerCreated,
		ActionMealsPunched,
		ActionScheduleUpdated,
		ActionLedgerHeld,
		ActionLedgerResumed,
		ActionLedgerCancelled,
		ActionLedgerCompleted,
		ActionPaymentUpdated,
		ActionLedgerConflict,
	}
}
