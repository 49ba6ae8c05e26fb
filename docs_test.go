package mealledger_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/mealledger"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/store/memory"
	"github.com/xraph/mealledger/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Memory store for demo, use PostgreSQL or MongoDB in production
		store := memory.New()

		engine := mealledger.New(store,
			mealledger.WithLogger(slog.Default()),
			mealledger.WithPendingCache(store),
		)

		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		plan := &mealplan.Plan{
			Name:         "Monthly lunch",
			TotalMeals:   20,
			DurationDays: 30,
			Price:        mealledger.AED(45000), // AED 450.00
		}
		if err := engine.CreatePlan(ctx, plan); err != nil {
			t.Fatal(err)
		}

		// Every week lists all seven days, even the ones without meals
		week := schedule.Week{Number: 1}
		for _, d := range schedule.Weekdays {
			week.Days = append(week.Days, schedule.Day{Day: d})
		}
		week.Days[0].Meals = map[schedule.MealType][]string{
			schedule.Lunch: {"biryani", "raita"},
		}

		l, err := engine.CreateLedger(ctx, membership.CreateInput{
			MealPlanID:  plan.ID,
			CustomerID:  "cust_42",
			PaymentMode: membership.PaymentCash,
			Weeks:       []schedule.Week{week},
		})
		if err != nil {
			t.Fatal(err)
		}

		l, err = engine.Punch(ctx, l.ID, membership.PunchInput{
			Week: 1,
			Day:  schedule.Saturday,
			Meals: []membership.PunchMeal{
				{MealType: schedule.Lunch},
			},
			CreatedBy: "counter-1",
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("remaining meals: %d\n", l.RemainingMeals)

		rows, err := engine.ListPending(ctx, "cust_42")
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range rows {
			log.Printf("%s has %d meals pending\n", r.CustomerID, r.PendingMeals)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		_ = types.AED(45000) // AED 450.00
		_ = types.KWD(12500) // KWD 12.500
		_ = types.Zero("aed")

		price, err := types.ParseMoney("450.00", "aed")
		if err != nil {
			t.Fatal(err)
		}
		if !price.Equal(types.AED(45000)) {
			t.Errorf("ParseMoney = %s", price)
		}

		_ = price.String()      // "AED 450.00"
		_ = price.FormatMajor() // "450.00"
	})
}
