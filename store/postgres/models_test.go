package postgres

import (
	"testing"
	"time"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/types"
)

func TestLedgerModelPreservesState(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	p := &mealplan.Plan{
		ID:           id.NewMealPlanID(),
		Name:         "Fortnight",
		TotalMeals:   14,
		DurationDays: 14,
		Price:        types.AED(42000),
		Status:       mealplan.StatusActive,
	}

	days := make([]schedule.Day, 0, len(schedule.Weekdays))
	for _, d := range schedule.Weekdays {
		days = append(days, schedule.Day{Day: d})
	}
	days[0].Meals = map[schedule.MealType][]string{schedule.Lunch: {"rice", "dal"}}

	l, err := membership.New(p, membership.CreateInput{
		CustomerID: "cust-9",
		StartDate:  now,
		Weeks:      []schedule.Week{{Number: 1, Days: days}, {Number: 2, RepeatFromWeek: 1}},
	}, now)
	if err != nil {
		t.Fatalf("membership.New: %v", err)
	}
	if _, err := l.Punch(membership.PunchInput{
		Week:  2,
		Day:   schedule.Saturday,
		Meals: []membership.PunchMeal{{MealType: schedule.Lunch}},
	}, now.Add(time.Hour)); err != nil {
		t.Fatalf("Punch: %v", err)
	}
	l.Version = 3

	m, err := toLedgerModel(l)
	if err != nil {
		t.Fatalf("toLedgerModel: %v", err)
	}
	got, err := fromLedgerModel(m)
	if err != nil {
		t.Fatalf("fromLedgerModel: %v", err)
	}

	if got.ID != l.ID || got.MealPlanID != l.MealPlanID || got.Version != 3 {
		t.Errorf("identity = %s/%s v%d", got.ID, got.MealPlanID, got.Version)
	}
	if got.RemainingMeals != 12 || got.ConsumedMeals != 2 {
		t.Errorf("balance = %d/%d, want 2/12", got.ConsumedMeals, got.RemainingMeals)
	}
	if !got.TotalPrice.Equal(l.TotalPrice) || !got.ReceivedAmount.Equal(l.ReceivedAmount) {
		t.Errorf("amounts = %s/%s", got.TotalPrice, got.ReceivedAmount)
	}
	if d, ok := got.Weeks.Day(2, schedule.Saturday); !ok || !d.Consumed(schedule.Lunch) {
		t.Error("consumption flag lost")
	}
	if w, _ := got.Weeks.Week(2); w.RepeatFromWeek != 1 {
		t.Errorf("repeat_from_week = %d, want 1", w.RepeatFromWeek)
	}
	if len(got.History) != 2 || got.History[1].ID != l.History[1].ID {
		t.Fatalf("history = %+v", got.History)
	}
	if items := got.History[1].MealItems; len(items) != 2 || items[0].Title != "rice" {
		t.Errorf("meal items = %+v", items)
	}
	if err := got.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
