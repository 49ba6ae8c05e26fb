package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by schedule operations.
var (
	ErrScheduleValidation     = errors.New("mealledger: schedule validation failed")
	ErrSlotNotFound           = errors.New("mealledger: schedule slot not found")
	ErrMealNotScheduled       = errors.New("mealledger: meal type not scheduled for slot")
	ErrAlreadyConsumed        = errors.New("mealledger: meal already consumed")
	ErrCannotEditConsumedSlot = errors.New("mealledger: cannot edit a consumed meal slot")
)

// ValidationError describes a structural problem in a schedule.
// It unwraps to ErrScheduleValidation.
type ValidationError struct {
	Week    int
	Day     Weekday
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var loc []string
	if e.Week != 0 {
		loc = append(loc, fmt.Sprintf("week %d", e.Week))
	}
	if e.Day != "" {
		loc = append(loc, string(e.Day))
	}
	if e.Field != "" {
		loc = append(loc, e.Field)
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s: %s", ErrScheduleValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrScheduleValidation, strings.Join(loc, " "), e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrScheduleValidation }

// SlotError names the week/day/meal type an operation failed on.
type SlotError struct {
	Week     int
	Day      Weekday
	MealType MealType
	Err      error
}

func (e *SlotError) Error() string {
	if e.MealType == "" {
		return fmt.Sprintf("%s: week %d %s", e.Err, e.Week, e.Day)
	}
	return fmt.Sprintf("%s: week %d %s %s", e.Err, e.Week, e.Day, e.MealType)
}

func (e *SlotError) Unwrap() error { return e.Err }

func invalid(week int, day Weekday, field, format string, args ...any) error {
	return &ValidationError{Week: week, Day: day, Field: field, Message: fmt.Sprintf(format, args...)}
}
