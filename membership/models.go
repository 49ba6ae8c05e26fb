// Package membership implements the membership meal ledger: a customer's
// prepaid meal balance, its weekly meal calendar and its history, kept in
// agreement by a single set of operations.
package membership

import (
	"time"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusHold      Status = "hold"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type PaymentMode string

const (
	PaymentNone   PaymentMode = ""
	PaymentCash   PaymentMode = "cash"
	PaymentCard   PaymentMode = "card"
	PaymentOnline PaymentMode = "online"
	PaymentLink   PaymentMode = "payment_link"
)

type Ledger struct {
	types.Entity
	ID             id.LedgerID       `json:"id"`
	CustomerID     string            `json:"customer_id"`
	MealPlanID     id.MealPlanID     `json:"meal_plan_id"`
	PlanName       string            `json:"plan_name,omitempty"`
	TotalMeals     int               `json:"total_meals"`
	ConsumedMeals  int               `json:"consumed_meals"`
	RemainingMeals int               `json:"remaining_meals"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	Status         Status            `json:"status"`
	TotalPrice     types.Money       `json:"total_price"`
	ReceivedAmount types.Money       `json:"received_amount"`
	PaymentMode    PaymentMode       `json:"payment_mode,omitempty"`
	Note           string            `json:"note,omitempty"`
	Weeks          schedule.Schedule `json:"weeks,omitempty"`
	History        history.Log       `json:"history"`
	Version        int64             `json:"version"`
}

type CreateInput struct {
	MealPlanID  id.MealPlanID   `json:"meal_plan_id"`
	CustomerID  string          `json:"customer_id"  validate:"required"`
	PaymentMode PaymentMode     `json:"payment_mode" validate:"omitempty,oneof=cash card online payment_link"`
	StartDate   time.Time       `json:"start_date"`
	Weeks       []schedule.Week `json:"weeks,omitempty"`
	Note        string          `json:"note,omitempty" validate:"max=1000"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

type PunchItem struct {
	Title   string   `json:"title"             validate:"required"`
	Qty     int      `json:"qty"               validate:"gte=1"`
	Options []string `json:"options,omitempty"`
}

type PunchMeal struct {
	MealType schedule.MealType `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snacks"`
	Items    []PunchItem       `json:"items,omitempty" validate:"dive"`
}

// PunchInput consumes meals from a ledger. Week 0 punches a ledger that has
// no schedule; Items left empty default to the scheduled items, one each.
type PunchInput struct {
	Week      int              `json:"week"       validate:"gte=0"`
	Day       schedule.Weekday `json:"day"        validate:"omitempty,oneof=saturday sunday monday tuesday wednesday thursday friday"`
	Meals     []PunchMeal      `json:"meals"      validate:"required,min=1,dive"`
	BranchID  string           `json:"branch_id,omitempty"`
	CreatedBy string           `json:"created_by,omitempty"`
	Note      string           `json:"note,omitempty"`
}

type UpdateScheduleInput struct {
	Week      int               `json:"week"      validate:"gte=1"`
	Day       schedule.Weekday  `json:"day"       validate:"required,oneof=saturday sunday monday tuesday wednesday thursday friday"`
	MealType  schedule.MealType `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snacks"`
	Items     []string          `json:"items"`
	UpdatedBy string            `json:"updated_by,omitempty"`
	Note      string            `json:"note,omitempty"`
}

type PaymentInput struct {
	Mode      PaymentMode `json:"payment_mode" validate:"required,oneof=cash card online payment_link"`
	Note      string      `json:"note,omitempty"`
	UpdatedBy string      `json:"updated_by,omitempty"`
}

// Transition carries attribution for status changes.
type Transition struct {
	Actor string `json:"actor,omitempty"`
	Note  string `json:"note,omitempty"`
}
