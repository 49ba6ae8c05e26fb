package membership

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrLedgerNotFound         = errors.New("mealledger: ledger not found")
	ErrLedgerExists           = errors.New("mealledger: ledger already exists")
	ErrLedgerNotActive        = errors.New("mealledger: ledger is not active")
	ErrNotOnHold              = errors.New("mealledger: ledger is not on hold")
	ErrInsufficientMeals      = errors.New("mealledger: insufficient meals remaining")
	ErrInvalidInput           = errors.New("mealledger: invalid input")
	ErrInvalidPunch           = errors.New("mealledger: invalid punch request")
	ErrConcurrentModification = errors.New("mealledger: ledger was modified concurrently")
	ErrInvariantViolated      = errors.New("mealledger: ledger invariant violated")
)

// StatusError reports an operation refused because of the ledger status.
// It unwraps to ErrLedgerNotActive or ErrNotOnHold.
type StatusError struct {
	Op     string
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", e.Err, e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }

// InsufficientMealsError reports a punch asking for more meals than remain.
type InsufficientMealsError struct {
	Requested int
	Remaining int
}

func (e *InsufficientMealsError) Error() string {
	return fmt.Sprintf("%s: requested %d, remaining %d", ErrInsufficientMeals, e.Requested, e.Remaining)
}

func (e *InsufficientMealsError) Unwrap() error { return ErrInsufficientMeals }

// InputError reports a malformed request field.
type InputError struct {
	Field   string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Err, e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return e.Err }

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and reports the first failing
// field as an InputError wrapping kind.
func validateStruct(v any, kind error) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &InputError{
			Field:   fe.Namespace(),
			Message: fieldMessage(fe),
			Err:     kind,
		}
	}
	return &InputError{Message: err.Error(), Err: kind}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
