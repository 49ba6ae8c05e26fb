package audithook

// Action constants for audit events.
const (
	// Meal plan actions
	ActionPlanCreated  = "meal_plan.created"
	ActionPlanUpdated  = "meal_plan.updated"
	ActionPlanArchived = "meal_plan.archived"

	// Ledger actions
	ActionLedgerCreated   = "ledger.created"
	ActionMealsPunched    = "ledger.meals_punched"
	ActionScheduleUpdated = "ledger.schedule_updated"
	ActionLedgerHeld      = "ledger.held"
	ActionLedgerResumed   = "ledger.resumed"
	ActionLedgerCancelled = "ledger.cancelled"
	ActionLedgerCompleted = "ledger.completed"
	ActionPaymentUpdated  = "ledger.payment_updated"
	ActionLedgerConflict  = "ledger.conflict"
)

// Resource constants for audit events.
const (
	ResourceMealPlan = "meal_plan"
	ResourceLedger   = "ledger"
)

// Category constants for audit events.
const (
	CategoryCatalog     = "catalog"
	CategoryMembership  = "membership"
	CategoryConsumption = "consumption"
	CategoryPayment     = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
