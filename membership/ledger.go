package membership

import (
	"fmt"
	"math"
	"time"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/types"
)

// New opens a ledger for a customer from plan. The full balance is
// available, the received amount equals the plan price, and the history
// holds a single created entry.
func New(plan *mealplan.Plan, in CreateInput, now time.Time) (*Ledger, error) {
	if plan == nil {
		return nil, mealplan.ErrPlanNotFound
	}
	if plan.IsArchived() {
		return nil, fmt.Errorf("%w: %s", mealplan.ErrPlanArchived, plan.ID)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := validateStruct(in, ErrInvalidInput); err != nil {
		return nil, err
	}

	weeks, err := schedule.Build(in.Weeks)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	start = start.UTC()

	l := &Ledger{
		Entity:         types.NewEntityAt(now),
		ID:             id.NewLedgerID(),
		CustomerID:     in.CustomerID,
		MealPlanID:     plan.ID,
		PlanName:       plan.Name,
		TotalMeals:     plan.TotalMeals,
		RemainingMeals: plan.TotalMeals,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, plan.DurationDays),
		Status:         StatusActive,
		TotalPrice:     plan.Price,
		ReceivedAmount: plan.Price,
		PaymentMode:    in.PaymentMode,
		Note:           in.Note,
		Weeks:          weeks,
	}
	l.appendEntry(history.Entry{
		Action: history.ActionCreated,
		Actor:  in.CreatedBy,
		Note:   in.Note,
	}, now)
	return l, nil
}

// Punch records meals handed to the customer. Every check runs before the
// ledger is touched, so a failed punch leaves it exactly as it was.
//
// The punched quantity is the sum of item quantities. When a meal lists no
// items the scheduled items for the slot are used, one of each. A punch that
// uses the last remaining meal completes the ledger within the same entry.
func (l *Ledger) Punch(in PunchInput, now time.Time) (history.Entry, error) {
	if l.Status != StatusActive {
		return history.Entry{}, &StatusError{Op: "punch", Status: l.Status, Err: ErrLedgerNotActive}
	}
	if err := validateStruct(in, ErrInvalidPunch); err != nil {
		return history.Entry{}, err
	}

	mealTypes, err := punchMealTypes(in.Meals)
	if err != nil {
		return history.Entry{}, err
	}

	scheduled := in.Week > 0
	switch {
	case !scheduled && len(l.Weeks) > 0:
		return history.Entry{}, &InputError{Field: "PunchInput.Week", Message: "is required for a scheduled ledger", Err: ErrInvalidPunch}
	case scheduled && in.Day == "":
		return history.Entry{}, &InputError{Field: "PunchInput.Day", Message: "is required", Err: ErrInvalidPunch}
	case !scheduled && in.Day != "":
		return history.Entry{}, &InputError{Field: "PunchInput.Week", Message: "is required when a day is given", Err: ErrInvalidPunch}
	case scheduled && len(l.Weeks) == 0:
		return history.Entry{}, &schedule.SlotError{Week: in.Week, Day: in.Day, Err: schedule.ErrSlotNotFound}
	}

	if scheduled {
		if err := l.Weeks.CheckConsumable(in.Week, in.Day, mealTypes); err != nil {
			return history.Entry{}, err
		}
	}

	now = now.UTC()
	items, qty, err := l.punchItems(in, now)
	if err != nil {
		return history.Entry{}, err
	}
	if qty > l.RemainingMeals {
		return history.Entry{}, &InsufficientMealsError{Requested: qty, Remaining: l.RemainingMeals}
	}

	if scheduled {
		if err := l.Weeks.MarkConsumed(in.Week, in.Day, mealTypes); err != nil {
			return history.Entry{}, err
		}
	}
	l.ConsumedMeals += qty
	l.RemainingMeals -= qty
	if l.RemainingMeals == 0 {
		l.Status = StatusCompleted
	}

	return l.appendEntry(history.Entry{
		Action:            history.ActionConsumed,
		CurrentConsumed:   qty,
		Actor:             in.CreatedBy,
		Week:              in.Week,
		Day:               in.Day,
		ConsumedMealTypes: mealTypes,
		MealItems:         items,
		Note:              in.Note,
	}, now), nil
}

func punchMealTypes(meals []PunchMeal) ([]schedule.MealType, error) {
	seen := make(map[schedule.MealType]bool, len(meals))
	out := make([]schedule.MealType, 0, len(meals))
	for i, m := range meals {
		if seen[m.MealType] {
			return nil, &InputError{
				Field:   fmt.Sprintf("PunchInput.Meals[%d].MealType", i),
				Message: fmt.Sprintf("%s listed more than once", m.MealType),
				Err:     ErrInvalidPunch,
			}
		}
		seen[m.MealType] = true
		out = append(out, m.MealType)
	}
	return out, nil
}

func (l *Ledger) punchItems(in PunchInput, now time.Time) ([]history.MealItem, int, error) {
	var (
		items []history.MealItem
		qty   int
	)
	for i, m := range in.Meals {
		punched := m.Items
		if len(punched) == 0 {
			scheduled := l.Weeks.ScheduledItems(in.Week, in.Day, m.MealType)
			if len(scheduled) == 0 {
				return nil, 0, &InputError{
					Field:   fmt.Sprintf("PunchInput.Meals[%d].Items", i),
					Message: "must list items when nothing is scheduled",
					Err:     ErrInvalidPunch,
				}
			}
			for _, title := range scheduled {
				punched = append(punched, PunchItem{Title: title, Qty: 1})
			}
		}
		for _, it := range punched {
			items = append(items, history.MealItem{
				Title:        it.Title,
				Qty:          it.Qty,
				PunchingTime: now,
				MealType:     m.MealType,
				Options:      append([]string(nil), it.Options...),
				BranchID:     in.BranchID,
				CreatedBy:    in.CreatedBy,
			})
			qty = addQty(qty, it.Qty)
		}
	}
	return items, qty, nil
}

// addQty adds n to total, saturating at math.MaxInt so an oversized request
// still fails the balance check instead of wrapping around.
func addQty(total, n int) int {
	if n > math.MaxInt-total {
		return math.MaxInt
	}
	return total + n
}

// UpdateSchedule replaces the items of one meal slot. Consumption, balance
// and status are left alone. Editing a repeating week detaches it from its
// source first; edits are refused for meal types already eaten on the slot
// or on the same slot of a week that repeats from it.
func (l *Ledger) UpdateSchedule(in UpdateScheduleInput, now time.Time) (history.Entry, error) {
	if l.Status.Terminal() {
		return history.Entry{}, &StatusError{Op: "update schedule", Status: l.Status, Err: ErrLedgerNotActive}
	}
	if err := validateStruct(in, ErrInvalidInput); err != nil {
		return history.Entry{}, err
	}
	if len(l.Weeks) == 0 {
		return history.Entry{}, &schedule.SlotError{Week: in.Week, Day: in.Day, Err: schedule.ErrSlotNotFound}
	}

	before, after, err := l.Weeks.SetItems(in.Week, in.Day, in.MealType, in.Items)
	if err != nil {
		return history.Entry{}, err
	}

	return l.appendEntry(history.Entry{
		Action: history.ActionUpdated,
		Actor:  in.UpdatedBy,
		Week:   in.Week,
		Day:    in.Day,
		MealChanges: []history.MealChange{{
			MealType: in.MealType,
			Before:   before,
			After:    after,
		}},
		Note: in.Note,
	}, now.UTC()), nil
}

// Hold pauses an active ledger. Nothing can be punched until Unhold.
func (l *Ledger) Hold(t Transition, now time.Time) (history.Entry, error) {
	if l.Status != StatusActive {
		return history.Entry{}, &StatusError{Op: "hold", Status: l.Status, Err: ErrLedgerNotActive}
	}
	l.Status = StatusHold
	return l.transitionEntry(history.ActionHeld, t, now), nil
}

// Unhold resumes a ledger on hold.
func (l *Ledger) Unhold(t Transition, now time.Time) (history.Entry, error) {
	if l.Status != StatusHold {
		return history.Entry{}, &StatusError{Op: "unhold", Status: l.Status, Err: ErrNotOnHold}
	}
	l.Status = StatusActive
	return l.transitionEntry(history.ActionResumed, t, now), nil
}

// Cancel closes an active or held ledger. Remaining meals are forfeited.
func (l *Ledger) Cancel(t Transition, now time.Time) (history.Entry, error) {
	if l.Status.Terminal() {
		return history.Entry{}, &StatusError{Op: "cancel", Status: l.Status, Err: ErrLedgerNotActive}
	}
	l.Status = StatusCancelled
	return l.transitionEntry(history.ActionCancelled, t, now), nil
}

// Complete closes an active or held ledger before its balance runs out.
func (l *Ledger) Complete(t Transition, now time.Time) (history.Entry, error) {
	if l.Status.Terminal() {
		return history.Entry{}, &StatusError{Op: "complete", Status: l.Status, Err: ErrLedgerNotActive}
	}
	l.Status = StatusCompleted
	return l.transitionEntry(history.ActionCompleted, t, now), nil
}

// UpdatePayment records how the membership was paid. The received amount is
// fixed at the plan price and does not move.
func (l *Ledger) UpdatePayment(in PaymentInput, now time.Time) (history.Entry, error) {
	if l.Status == StatusCancelled {
		return history.Entry{}, &StatusError{Op: "update payment", Status: l.Status, Err: ErrLedgerNotActive}
	}
	if err := validateStruct(in, ErrInvalidInput); err != nil {
		return history.Entry{}, err
	}
	l.PaymentMode = in.Mode
	return l.appendEntry(history.Entry{
		Action: history.ActionPaymentUpdated,
		Actor:  in.UpdatedBy,
		Note:   in.Note,
	}, now.UTC()), nil
}

func (l *Ledger) transitionEntry(action history.Action, t Transition, now time.Time) history.Entry {
	return l.appendEntry(history.Entry{
		Action: action,
		Actor:  t.Actor,
		Note:   t.Note,
	}, now.UTC())
}

// appendEntry stamps e with the post-operation balance and status, adds it
// to the history and touches the ledger.
func (l *Ledger) appendEntry(e history.Entry, now time.Time) history.Entry {
	e.ID = id.NewHistoryID()
	e.ConsumedMeals = l.ConsumedMeals
	e.RemainingMeals = l.RemainingMeals
	e.Status = history.Status(l.Status)
	e.Timestamp = now
	l.History = l.History.Append(e)
	l.TouchAt(now)
	return e
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Weeks = l.Weeks.Clone()
	c.History = l.History.Clone()
	return &c
}

// Verify checks the bookkeeping identities that every operation keeps.
func (l *Ledger) Verify() error {
	switch {
	case l.ConsumedMeals < 0 || l.RemainingMeals < 0:
		return fmt.Errorf("%w: negative balance %d/%d", ErrInvariantViolated, l.ConsumedMeals, l.RemainingMeals)
	case l.ConsumedMeals+l.RemainingMeals != l.TotalMeals:
		return fmt.Errorf("%w: consumed %d + remaining %d != total %d",
			ErrInvariantViolated, l.ConsumedMeals, l.RemainingMeals, l.TotalMeals)
	case !l.ReceivedAmount.Equal(l.TotalPrice):
		return fmt.Errorf("%w: received %s != price %s", ErrInvariantViolated, l.ReceivedAmount, l.TotalPrice)
	case len(l.History) == 0 || l.History[0].Action != history.ActionCreated:
		return fmt.Errorf("%w: history must open with a created entry", ErrInvariantViolated)
	case l.History.ConsumedTotal() != l.ConsumedMeals:
		return fmt.Errorf("%w: history consumed %d != ledger consumed %d",
			ErrInvariantViolated, l.History.ConsumedTotal(), l.ConsumedMeals)
	}

	for _, e := range l.History {
		if e.Action != history.ActionConsumed || len(e.MealItems) == 0 {
			continue
		}
		n := 0
		for _, it := range e.MealItems {
			n = addQty(n, it.Qty)
		}
		if n != e.CurrentConsumed {
			return fmt.Errorf("%w: entry %s items sum to %d, consumed %d",
				ErrInvariantViolated, e.ID, n, e.CurrentConsumed)
		}
	}

	last, _ := l.History.Last()
	if last.Status != history.Status(l.Status) {
		return fmt.Errorf("%w: last entry status %s != ledger status %s", ErrInvariantViolated, last.Status, l.Status)
	}
	if l.RemainingMeals == 0 && l.Status != StatusCompleted && l.Status != StatusCancelled {
		return fmt.Errorf("%w: no meals remain but status is %s", ErrInvariantViolated, l.Status)
	}
	return nil
}
