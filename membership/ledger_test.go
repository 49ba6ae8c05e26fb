package membership_test

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/types"
)

var t0 = time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

func testPlan(total int) *mealplan.Plan {
	return &mealplan.Plan{
		ID:           id.NewMealPlanID(),
		Name:         "Monthly Lunch",
		TotalMeals:   total,
		DurationDays: 30,
		Price:        types.AED(75000),
		Status:       mealplan.StatusActive,
	}
}

func fullWeek(meals map[schedule.Weekday]map[schedule.MealType][]string) []schedule.Day {
	days := make([]schedule.Day, 0, len(schedule.Weekdays))
	for _, d := range schedule.Weekdays {
		days = append(days, schedule.Day{Day: d, Meals: meals[d]})
	}
	return days
}

// testWeeks returns week 1 with meals on saturday and monday and week 2
// repeating it.
func testWeeks() []schedule.Week {
	return []schedule.Week{
		{
			Number: 1,
			Days: fullWeek(map[schedule.Weekday]map[schedule.MealType][]string{
				schedule.Saturday: {
					schedule.Breakfast: {"eggs"},
					schedule.Lunch:     {"rice", "dal", "salad"},
				},
				schedule.Monday: {
					schedule.Dinner: {"soup"},
				},
			}),
		},
		{Number: 2, RepeatFromWeek: 1},
	}
}

func newLedger(t *testing.T, total int, weeks []schedule.Week) *membership.Ledger {
	t.Helper()
	l, err := membership.New(testPlan(total), membership.CreateInput{
		CustomerID:  "cust-1",
		PaymentMode: membership.PaymentCash,
		StartDate:   t0,
		Weeks:       weeks,
		CreatedBy:   "staff-1",
	}, t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func lunchPunch(week int, qty int) membership.PunchInput {
	return membership.PunchInput{
		Week: week,
		Day:  schedule.Saturday,
		Meals: []membership.PunchMeal{{
			MealType: schedule.Lunch,
			Items:    []membership.PunchItem{{Title: "rice", Qty: qty}},
		}},
		BranchID:  "branch-1",
		CreatedBy: "staff-1",
	}
}

func mustVerify(t *testing.T, l *membership.Ledger) {
	t.Helper()
	if err := l.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestNew(t *testing.T) {
	l := newLedger(t, 20, testWeeks())

	if l.Status != membership.StatusActive {
		t.Errorf("status = %s, want active", l.Status)
	}
	if l.RemainingMeals != 20 || l.ConsumedMeals != 0 {
		t.Errorf("balance = %d/%d, want 0/20", l.ConsumedMeals, l.RemainingMeals)
	}
	if !l.ReceivedAmount.Equal(l.TotalPrice) {
		t.Errorf("received %s != price %s", l.ReceivedAmount, l.TotalPrice)
	}
	if want := t0.AddDate(0, 0, 30); !l.EndDate.Equal(want) {
		t.Errorf("end date = %v, want %v", l.EndDate, want)
	}
	if len(l.History) != 1 || l.History[0].Action != history.ActionCreated {
		t.Fatalf("history = %+v, want single created entry", l.History)
	}
	if l.History[0].Actor != "staff-1" {
		t.Errorf("actor = %q", l.History[0].Actor)
	}
	if len(l.Weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(l.Weeks))
	}
	mustVerify(t, l)
}

func TestNewRejects(t *testing.T) {
	archived := testPlan(10)
	archived.Status = mealplan.StatusArchived

	badPlan := testPlan(0)

	tests := []struct {
		name  string
		plan  *mealplan.Plan
		input membership.CreateInput
		want  error
	}{
		{"archived plan", archived, membership.CreateInput{CustomerID: "c"}, mealplan.ErrPlanArchived},
		{"invalid plan", badPlan, membership.CreateInput{CustomerID: "c"}, mealplan.ErrInvalidPlan},
		{"missing customer", testPlan(10), membership.CreateInput{}, membership.ErrInvalidInput},
		{"bad payment mode", testPlan(10), membership.CreateInput{CustomerID: "c", PaymentMode: "barter"}, membership.ErrInvalidInput},
		{
			"bad schedule", testPlan(10),
			membership.CreateInput{CustomerID: "c", Weeks: []schedule.Week{{Number: 1, RepeatFromWeek: 1}}},
			schedule.ErrScheduleValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := membership.New(tt.plan, tt.input, t0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPunchDeductsBalance(t *testing.T) {
	l := newLedger(t, 20, testWeeks())

	in := membership.PunchInput{
		Week: 1,
		Day:  schedule.Saturday,
		Meals: []membership.PunchMeal{{
			MealType: schedule.Lunch,
			Items: []membership.PunchItem{
				{Title: "rice", Qty: 1},
				{Title: "dal", Qty: 1},
				{Title: "salad", Qty: 1},
			},
		}},
		CreatedBy: "staff-2",
	}
	e, err := l.Punch(in, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Punch: %v", err)
	}

	if l.RemainingMeals != 17 || l.ConsumedMeals != 3 {
		t.Errorf("balance = %d/%d, want 3/17", l.ConsumedMeals, l.RemainingMeals)
	}
	if e.Action != history.ActionConsumed || e.CurrentConsumed != 3 {
		t.Errorf("entry = %s/%d, want consumed/3", e.Action, e.CurrentConsumed)
	}
	if e.ConsumedMeals != 3 || e.RemainingMeals != 17 {
		t.Errorf("entry snapshot = %d/%d, want 3/17", e.ConsumedMeals, e.RemainingMeals)
	}
	if len(e.MealItems) != 3 || e.MealItems[0].CreatedBy != "staff-2" {
		t.Errorf("meal items = %+v", e.MealItems)
	}
	if len(l.History) != 2 {
		t.Errorf("history length = %d, want 2", len(l.History))
	}

	day, _ := l.Weeks.Day(1, schedule.Saturday)
	if !day.Consumed(schedule.Lunch) {
		t.Error("lunch not flagged consumed")
	}
	if day.IsConsumed {
		t.Error("day consumed with breakfast still open")
	}
	mustVerify(t, l)
}

func TestPunchDefaultsToScheduledItems(t *testing.T) {
	l := newLedger(t, 20, testWeeks())

	e, err := l.Punch(membership.PunchInput{
		Week:  1,
		Day:   schedule.Saturday,
		Meals: []membership.PunchMeal{{MealType: schedule.Lunch}, {MealType: schedule.Breakfast}},
	}, t0)
	if err != nil {
		t.Fatalf("Punch: %v", err)
	}
	if e.CurrentConsumed != 4 {
		t.Errorf("current consumed = %d, want 4", e.CurrentConsumed)
	}

	day, _ := l.Weeks.Day(1, schedule.Saturday)
	if !day.IsConsumed {
		t.Error("day should be consumed once every scheduled meal is eaten")
	}
	mustVerify(t, l)
}

func TestPunchInsufficientMeals(t *testing.T) {
	l := newLedger(t, 3, testWeeks())
	before := len(l.History)

	_, err := l.Punch(lunchPunch(1, 5), t0)

	var ie *membership.InsufficientMealsError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InsufficientMealsError", err)
	}
	if ie.Requested != 5 || ie.Remaining != 3 {
		t.Errorf("error = %+v", ie)
	}
	if l.RemainingMeals != 3 || len(l.History) != before {
		t.Errorf("ledger changed: remaining %d, history %d", l.RemainingMeals, len(l.History))
	}
	day, _ := l.Weeks.Day(1, schedule.Saturday)
	if day.Consumed(schedule.Lunch) {
		t.Error("failed punch flagged the slot")
	}
}

func TestPunchOversizedQuantities(t *testing.T) {
	tests := []struct {
		name string
		qtys []int
	}{
		{"wraps past zero", []int{math.MaxInt, math.MaxInt, 3}},
		{"single huge item", []int{math.MaxInt}},
		{"sum just over balance", []int{10, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, 20, testWeeks())
			in := lunchPunch(1, 1)
			in.Meals[0].Items = nil
			for i, q := range tt.qtys {
				in.Meals[0].Items = append(in.Meals[0].Items, membership.PunchItem{Title: fmt.Sprintf("item-%d", i), Qty: q})
			}

			_, err := l.Punch(in, t0)

			var ie *membership.InsufficientMealsError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want InsufficientMealsError", err)
			}
			if ie.Requested <= ie.Remaining {
				t.Errorf("requested %d not above remaining %d", ie.Requested, ie.Remaining)
			}
			if l.RemainingMeals != 20 || l.ConsumedMeals != 0 || len(l.History) != 1 {
				t.Errorf("ledger changed: remaining %d consumed %d history %d",
					l.RemainingMeals, l.ConsumedMeals, len(l.History))
			}
		})
	}
}

func TestVerifyItemQuantities(t *testing.T) {
	l := newLedger(t, 20, testWeeks())
	if _, err := l.Punch(lunchPunch(1, 2), t0); err != nil {
		t.Fatalf("Punch: %v", err)
	}
	mustVerify(t, l)

	l.History[len(l.History)-1].MealItems[0].Qty = 7
	if err := l.Verify(); !errors.Is(err, membership.ErrInvariantViolated) {
		t.Errorf("err = %v, want ErrInvariantViolated", err)
	}
}

func TestHoldBlocksPunch(t *testing.T) {
	l := newLedger(t, 20, testWeeks())

	if _, err := l.Hold(membership.Transition{Actor: "staff-1", Note: "travel"}, t0); err != nil {
		t.Fatalf("Hold: %v", err)
	}

	_, err := l.Punch(lunchPunch(1, 1), t0)
	if !errors.Is(err, membership.ErrLedgerNotActive) {
		t.Fatalf("err = %v, want ErrLedgerNotActive", err)
	}
	var se *membership.StatusError
	if !errors.As(err, &se) || se.Status != membership.StatusHold {
		t.Errorf("status error = %+v", se)
	}

	if _, err := l.Unhold(membership.Transition{}, t0); err != nil {
		t.Fatalf("Unhold: %v", err)
	}
	if _, err := l.Punch(lunchPunch(1, 1), t0); err != nil {
		t.Fatalf("Punch after unhold: %v", err)
	}

	actions := make([]history.Action, 0, len(l.History))
	for _, e := range l.History {
		actions = append(actions, e.Action)
	}
	want := []history.Action{history.ActionCreated, history.ActionHeld, history.ActionResumed, history.ActionConsumed}
	if !slices.Equal(actions, want) {
		t.Errorf("actions = %v, want %v", actions, want)
	}
	mustVerify(t, l)
}

func TestPunchLastMealCompletes(t *testing.T) {
	l := newLedger(t, 1, testWeeks())

	e, err := l.Punch(lunchPunch(1, 1), t0)
	if err != nil {
		t.Fatalf("Punch: %v", err)
	}
	if l.Status != membership.StatusCompleted || l.RemainingMeals != 0 {
		t.Errorf("ledger = %s/%d, want completed/0", l.Status, l.RemainingMeals)
	}
	if e.Status != history.Status(membership.StatusCompleted) || !e.MarksCompletion() {
		t.Errorf("entry status = %s, want completed", e.Status)
	}
	if len(l.History) != 2 {
		t.Errorf("history length = %d, want 2", len(l.History))
	}
	mustVerify(t, l)

	if _, err := l.Punch(lunchPunch(2, 1), t0); !errors.Is(err, membership.ErrLedgerNotActive) {
		t.Errorf("punch after completion err = %v", err)
	}
}

func TestPunchRejects(t *testing.T) {
	tests := []struct {
		name string
		in   func() membership.PunchInput
		prep func(l *membership.Ledger)
		want error
	}{
		{
			name: "no meals",
			in:   func() membership.PunchInput { return membership.PunchInput{Week: 1, Day: schedule.Saturday} },
			want: membership.ErrInvalidPunch,
		},
		{
			name: "unknown meal type",
			in: func() membership.PunchInput {
				in := lunchPunch(1, 1)
				in.Meals[0].MealType = "brunch"
				return in
			},
			want: membership.ErrInvalidPunch,
		},
		{
			name: "zero quantity",
			in:   func() membership.PunchInput { return lunchPunch(1, 0) },
			want: membership.ErrInvalidPunch,
		},
		{
			name: "duplicate meal type",
			in: func() membership.PunchInput {
				in := lunchPunch(1, 1)
				in.Meals = append(in.Meals, in.Meals[0])
				return in
			},
			want: membership.ErrInvalidPunch,
		},
		{
			name: "missing week on scheduled ledger",
			in:   func() membership.PunchInput { return lunchPunch(0, 1) },
			want: membership.ErrInvalidPunch,
		},
		{
			name: "unknown week",
			in:   func() membership.PunchInput { return lunchPunch(9, 1) },
			want: schedule.ErrSlotNotFound,
		},
		{
			name: "meal not scheduled",
			in: func() membership.PunchInput {
				in := lunchPunch(1, 1)
				in.Day = schedule.Sunday
				return in
			},
			want: schedule.ErrMealNotScheduled,
		},
		{
			name: "already consumed",
			in:   func() membership.PunchInput { return lunchPunch(1, 1) },
			prep: func(l *membership.Ledger) {
				_, _ = l.Punch(lunchPunch(1, 1), t0)
			},
			want: schedule.ErrAlreadyConsumed,
		},
		{
			name: "cancelled",
			in:   func() membership.PunchInput { return lunchPunch(1, 1) },
			prep: func(l *membership.Ledger) {
				_, _ = l.Cancel(membership.Transition{}, t0)
			},
			want: membership.ErrLedgerNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, 20, testWeeks())
			if tt.prep != nil {
				tt.prep(l)
			}
			snapshot := l.Clone()

			_, err := l.Punch(tt.in(), t0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if l.RemainingMeals != snapshot.RemainingMeals || len(l.History) != len(snapshot.History) {
				t.Error("failed punch changed the ledger")
			}
		})
	}
}

func TestPunchUnscheduledLedger(t *testing.T) {
	l := newLedger(t, 10, nil)

	in := membership.PunchInput{
		Meals: []membership.PunchMeal{{
			MealType: schedule.Dinner,
			Items:    []membership.PunchItem{{Title: "biryani", Qty: 2}},
		}},
	}
	if _, err := l.Punch(in, t0); err != nil {
		t.Fatalf("Punch: %v", err)
	}
	if l.RemainingMeals != 8 {
		t.Errorf("remaining = %d, want 8", l.RemainingMeals)
	}

	in.Meals[0].Items = nil
	if _, err := l.Punch(in, t0); !errors.Is(err, membership.ErrInvalidPunch) {
		t.Errorf("punch without items err = %v, want ErrInvalidPunch", err)
	}

	if _, err := l.Punch(lunchPunch(1, 1), t0); !errors.Is(err, schedule.ErrSlotNotFound) {
		t.Errorf("punch with week err = %v, want ErrSlotNotFound", err)
	}
	mustVerify(t, l)
}

func TestUpdateScheduleConsumedSlot(t *testing.T) {
	l := newLedger(t, 20, testWeeks())
	if _, err := l.Punch(lunchPunch(1, 1), t0); err != nil {
		t.Fatalf("Punch: %v", err)
	}
	historyLen := len(l.History)

	_, err := l.UpdateSchedule(membership.UpdateScheduleInput{
		Week:     1,
		Day:      schedule.Saturday,
		MealType: schedule.Lunch,
		Items:    []string{"pasta"},
	}, t0)
	if !errors.Is(err, schedule.ErrCannotEditConsumedSlot) {
		t.Fatalf("err = %v, want ErrCannotEditConsumedSlot", err)
	}

	got := l.Weeks.ScheduledItems(1, schedule.Saturday, schedule.Lunch)
	if !slices.Equal(got, []string{"rice", "dal", "salad"}) {
		t.Errorf("items = %v, want unchanged", got)
	}
	if len(l.History) != historyLen {
		t.Error("failed edit appended history")
	}
}

func TestUpdateScheduleRepeatingWeek(t *testing.T) {
	t.Run("detaches edited week", func(t *testing.T) {
		l := newLedger(t, 20, testWeeks())

		e, err := l.UpdateSchedule(membership.UpdateScheduleInput{
			Week:      2,
			Day:       schedule.Monday,
			MealType:  schedule.Dinner,
			Items:     []string{"stew"},
			UpdatedBy: "chef",
		}, t0)
		if err != nil {
			t.Fatalf("UpdateSchedule: %v", err)
		}

		w2, _ := l.Weeks.Week(2)
		if w2.Repeats() {
			t.Error("week 2 still repeats after edit")
		}
		if got := l.Weeks.ScheduledItems(2, schedule.Saturday, schedule.Lunch); !slices.Equal(got, []string{"rice", "dal", "salad"}) {
			t.Errorf("detached week lost copied items: %v", got)
		}
		if got := l.Weeks.ScheduledItems(1, schedule.Monday, schedule.Dinner); !slices.Equal(got, []string{"soup"}) {
			t.Errorf("source week changed: %v", got)
		}

		if e.Action != history.ActionUpdated || len(e.MealChanges) != 1 {
			t.Fatalf("entry = %+v", e)
		}
		ch := e.MealChanges[0]
		if !slices.Equal(ch.Before, []string{"soup"}) || !slices.Equal(ch.After, []string{"stew"}) {
			t.Errorf("change = %+v", ch)
		}
		if l.RemainingMeals != 20 {
			t.Error("schedule edit moved the balance")
		}
		mustVerify(t, l)
	})

	t.Run("refuses source edit consumed by dependent", func(t *testing.T) {
		l := newLedger(t, 20, testWeeks())
		if _, err := l.Punch(lunchPunch(2, 1), t0); err != nil {
			t.Fatalf("Punch week 2: %v", err)
		}

		_, err := l.UpdateSchedule(membership.UpdateScheduleInput{
			Week:     1,
			Day:      schedule.Saturday,
			MealType: schedule.Lunch,
			Items:    []string{"pasta"},
		}, t0)
		if !errors.Is(err, schedule.ErrCannotEditConsumedSlot) {
			t.Fatalf("err = %v, want ErrCannotEditConsumedSlot", err)
		}
	})

	t.Run("too many items", func(t *testing.T) {
		l := newLedger(t, 20, testWeeks())
		_, err := l.UpdateSchedule(membership.UpdateScheduleInput{
			Week:     1,
			Day:      schedule.Sunday,
			MealType: schedule.Lunch,
			Items:    []string{"a", "b", "c", "d"},
		}, t0)
		if !errors.Is(err, schedule.ErrScheduleValidation) {
			t.Fatalf("err = %v, want ErrScheduleValidation", err)
		}
	})
}

func TestStatusTransitions(t *testing.T) {
	hold := func(l *membership.Ledger) (history.Entry, error) { return l.Hold(membership.Transition{}, t0) }
	unhold := func(l *membership.Ledger) (history.Entry, error) { return l.Unhold(membership.Transition{}, t0) }
	cancel := func(l *membership.Ledger) (history.Entry, error) { return l.Cancel(membership.Transition{}, t0) }
	complete := func(l *membership.Ledger) (history.Entry, error) { return l.Complete(membership.Transition{}, t0) }

	type op func(*membership.Ledger) (history.Entry, error)

	tests := []struct {
		name   string
		setup  []op
		do     op
		want   membership.Status
		action history.Action
		err    error
	}{
		{"hold active", nil, hold, membership.StatusHold, history.ActionHeld, nil},
		{"unhold held", []op{hold}, unhold, membership.StatusActive, history.ActionResumed, nil},
		{"cancel active", nil, cancel, membership.StatusCancelled, history.ActionCancelled, nil},
		{"cancel held", []op{hold}, cancel, membership.StatusCancelled, history.ActionCancelled, nil},
		{"complete active", nil, complete, membership.StatusCompleted, history.ActionCompleted, nil},
		{"complete held", []op{hold}, complete, membership.StatusCompleted, history.ActionCompleted, nil},
		{"hold held", []op{hold}, hold, membership.StatusHold, "", membership.ErrLedgerNotActive},
		{"unhold active", nil, unhold, membership.StatusActive, "", membership.ErrNotOnHold},
		{"hold cancelled", []op{cancel}, hold, membership.StatusCancelled, "", membership.ErrLedgerNotActive},
		{"cancel completed", []op{complete}, cancel, membership.StatusCompleted, "", membership.ErrLedgerNotActive},
		{"complete cancelled", []op{cancel}, complete, membership.StatusCancelled, "", membership.ErrLedgerNotActive},
		{"unhold cancelled", []op{cancel}, unhold, membership.StatusCancelled, "", membership.ErrNotOnHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, 20, testWeeks())
			for _, s := range tt.setup {
				if _, err := s(l); err != nil {
					t.Fatalf("setup: %v", err)
				}
			}
			historyLen := len(l.History)

			e, err := tt.do(l)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				if len(l.History) != historyLen {
					t.Error("failed transition appended history")
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if e.Action != tt.action || e.Status != history.Status(tt.want) {
					t.Errorf("entry = %s/%s", e.Action, e.Status)
				}
			}
			if l.Status != tt.want {
				t.Errorf("status = %s, want %s", l.Status, tt.want)
			}
			mustVerify(t, l)
		})
	}
}

func TestUpdatePayment(t *testing.T) {
	l := newLedger(t, 20, nil)

	e, err := l.UpdatePayment(membership.PaymentInput{Mode: membership.PaymentCard, Note: "paid at desk"}, t0)
	if err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if l.PaymentMode != membership.PaymentCard || e.Action != history.ActionPaymentUpdated {
		t.Errorf("mode = %s, action = %s", l.PaymentMode, e.Action)
	}
	if !l.ReceivedAmount.Equal(l.TotalPrice) {
		t.Error("received amount moved")
	}

	if _, err := l.UpdatePayment(membership.PaymentInput{Mode: "cheque"}, t0); !errors.Is(err, membership.ErrInvalidInput) {
		t.Errorf("bad mode err = %v", err)
	}
	mustVerify(t, l)
}

func TestCloneIsDeep(t *testing.T) {
	l := newLedger(t, 20, testWeeks())
	c := l.Clone()

	if _, err := c.Punch(lunchPunch(1, 1), t0); err != nil {
		t.Fatalf("Punch: %v", err)
	}
	if len(l.History) != 1 || l.RemainingMeals != 20 {
		t.Error("punching a clone changed the original")
	}
	if day, _ := l.Weeks.Day(1, schedule.Saturday); day.Consumed(schedule.Lunch) {
		t.Error("clone shares schedule state with the original")
	}
}
