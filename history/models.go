// Package history defines the append-only audit log of a membership ledger.
//
// Every successful ledger operation appends exactly one Entry. Entries carry
// post-operation snapshots of the balance and status, so the log can be read
// on its own without replaying the ledger.
package history

import (
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/schedule"
)

// Action names the operation an entry records.
type Action string

// Entry actions.
const (
	ActionCreated        Action = "created"
	ActionConsumed       Action = "consumed"
	ActionUpdated        Action = "updated"
	ActionCompleted      Action = "completed"
	ActionPaymentUpdated Action = "payment_updated"
	ActionHeld           Action = "held"
	ActionResumed        Action = "resumed"
	ActionCancelled      Action = "cancelled"
)

// Status mirrors the ledger status at the time an entry was written. It is
// declared here so history does not depend on the membership package.
type Status string

// MealItem is one item handed out in a punch.
type MealItem struct {
	Title        string            `json:"title"                bson:"title"`
	Qty          int               `json:"qty"                  bson:"qty"`
	PunchingTime time.Time         `json:"punching_time"        bson:"punching_time"`
	MealType     schedule.MealType `json:"meal_type,omitempty"  bson:"meal_type,omitempty"`
	Options      []string          `json:"options,omitempty"    bson:"options,omitempty"`
	BranchID     string            `json:"branch_id,omitempty"  bson:"branch_id,omitempty"`
	CreatedBy    string            `json:"created_by,omitempty" bson:"created_by,omitempty"`
}

// MealChange records the before and after items of a schedule edit.
type MealChange struct {
	MealType schedule.MealType `json:"meal_type"        bson:"meal_type"`
	Before   []string          `json:"before,omitempty" bson:"before,omitempty"`
	After    []string          `json:"after,omitempty"  bson:"after,omitempty"`
}

// Entry is one immutable line of a ledger's history.
type Entry struct {
	ID     id.HistoryID `json:"id"`
	Action Action       `json:"action"`

	ConsumedMeals   int    `json:"consumed_meals"`
	RemainingMeals  int    `json:"remaining_meals"`
	CurrentConsumed int    `json:"current_consumed"`
	Status          Status `json:"status"`

	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`

	Week              int                 `json:"week,omitempty"`
	Day               schedule.Weekday    `json:"day,omitempty"`
	ConsumedMealTypes []schedule.MealType `json:"consumed_meal_types,omitempty"`
	MealItems         []MealItem          `json:"meal_items,omitempty"`
	MealChanges       []MealChange        `json:"meal_changes,omitempty"`
	Note              string              `json:"note,omitempty"`
}

// MarksCompletion reports whether this entry closed the ledger, either as a
// completed action or as the punch that used the last meal.
func (e Entry) MarksCompletion() bool {
	return e.Action == ActionCompleted || (e.Action == ActionConsumed && e.Status == "completed")
}

func (e Entry) clone() Entry {
	c := e
	c.ConsumedMealTypes = append([]schedule.MealType(nil), e.ConsumedMealTypes...)
	if e.MealItems != nil {
		c.MealItems = make([]MealItem, len(e.MealItems))
		for i, it := range e.MealItems {
			it.Options = append([]string(nil), it.Options...)
			c.MealItems[i] = it
		}
	}
	if e.MealChanges != nil {
		c.MealChanges = make([]MealChange, len(e.MealChanges))
		for i, ch := range e.MealChanges {
			ch.Before = append([]string(nil), ch.Before...)
			ch.After = append([]string(nil), ch.After...)
			c.MealChanges[i] = ch
		}
	}
	return c
}
