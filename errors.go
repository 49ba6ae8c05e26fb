package mealledger

import (
	"errors"

	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/schedule"
)

// Sentinel errors, re-exported from the packages that return them so
// callers can match everything against the root package.
var (
	// Meal plan errors
	ErrPlanNotFound = mealplan.ErrPlanNotFound
	ErrPlanArchived = mealplan.ErrPlanArchived
	ErrInvalidPlan  = mealplan.ErrInvalidPlan

	// Schedule errors
	ErrScheduleValidation     = schedule.ErrScheduleValidation
	ErrSlotNotFound           = schedule.ErrSlotNotFound
	ErrMealNotScheduled       = schedule.ErrMealNotScheduled
	ErrAlreadyConsumed        = schedule.ErrAlreadyConsumed
	ErrCannotEditConsumedSlot = schedule.ErrCannotEditConsumedSlot

	// Ledger errors
	ErrLedgerNotFound         = membership.ErrLedgerNotFound
	ErrLedgerExists           = membership.ErrLedgerExists
	ErrLedgerNotActive        = membership.ErrLedgerNotActive
	ErrNotOnHold              = membership.ErrNotOnHold
	ErrInsufficientMeals      = membership.ErrInsufficientMeals
	ErrInvalidInput           = membership.ErrInvalidInput
	ErrInvalidPunch           = membership.ErrInvalidPunch
	ErrConcurrentModification = membership.ErrConcurrentModification
	ErrInvariantViolated      = membership.ErrInvariantViolated

	// Cache errors
	ErrCacheMiss = pending.ErrCacheMiss
)

// Typed errors carrying details.
type (
	ValidationError        = schedule.ValidationError
	SlotError              = schedule.SlotError
	StatusError            = membership.StatusError
	InsufficientMealsError = membership.InsufficientMealsError
	InputError             = membership.InputError
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLedgerNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSlotNotFound)
}

// IsConflict returns true if the ledger was saved by someone else after it
// was loaded. The caller may reload and retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsValidation returns true if the request itself was malformed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPunch) ||
		errors.Is(err, ErrInvalidPlan) ||
		errors.Is(err, ErrScheduleValidation)
}

// IsRejected returns true if a well-formed request was refused by the
// ledger's current state: its status, balance or consumed slots.
func IsRejected(err error) bool {
	return errors.Is(err, ErrLedgerNotActive) ||
		errors.Is(err, ErrNotOnHold) ||
		errors.Is(err, ErrInsufficientMeals) ||
		errors.Is(err, ErrAlreadyConsumed) ||
		errors.Is(err, ErrCannotEditConsumedSlot) ||
		errors.Is(err, ErrMealNotScheduled) ||
		errors.Is(err, ErrPlanArchived)
}
