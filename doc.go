// Package mealledger tracks prepaid meal memberships: how many meals a
// customer bought, which were eaten and when, and what is left.
//
// mealledger is designed as a library, not a service. Import it into the
// application that runs the counter or the kitchen. It provides:
//
//   - Membership ledgers opened from a catalog of meal plans
//   - Weekly meal schedules with repeating weeks
//   - Punching of consumed meals with per-item attribution
//   - Hold, resume, cancel and early completion
//   - An append-only history with balance snapshots on every entry
//   - A pending-meals projection with an optional Redis cache
//   - Optimistic versioning on every save
//
// # Quick Start
//
//	store := memory.New()
//	engine := mealledger.New(store,
//	    mealledger.WithLogger(slog.Default()),
//	)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// Meal plans fix the number of meals, the duration and the price:
//
//	plan := &mealplan.Plan{
//	    Name:         "Monthly lunch",
//	    TotalMeals:   20,
//	    DurationDays: 30,
//	    Price:        mealledger.AED(45000), // AED 450.00
//	}
//	err := engine.CreatePlan(ctx, plan)
//
// A ledger copies those terms for one customer. The schedule is optional;
// without it punches are not tied to a week or day:
//
//	l, err := engine.CreateLedger(ctx, membership.CreateInput{
//	    MealPlanID:  plan.ID,
//	    CustomerID:  "cust_42",
//	    PaymentMode: membership.PaymentCash,
//	})
//
// Punching deducts the summed item quantities from the balance. The punch
// that uses the last meal completes the ledger:
//
//	l, err = engine.Punch(ctx, l.ID, membership.PunchInput{
//	    Week: 1,
//	    Day:  schedule.Saturday,
//	    Meals: []membership.PunchMeal{
//	        {MealType: schedule.Lunch},
//	    },
//	    CreatedBy: "counter-1",
//	})
//
// Every successful operation appends exactly one history entry, and every
// failed one leaves the ledger untouched.
//
// # Concurrency
//
// Each save is conditional on the version the ledger was loaded at. Two
// counters punching the same ledger at once cannot both win: the loser gets
// ErrConcurrentModification and may reload and try again. The engine never
// retries on its own.
//
// # TypeID
//
// Ledgers, plans and history entries use TypeIDs:
//
//	mbr_01h2xcejqtf2nbrexx3vqjhp41    // Ledger ID
//	mplan_01h2xcejqtf2nbrexx3vqjhp41  // Meal plan ID
//	mhe_01h455vb4pex5vsknk084sn02q    // History entry ID
package mealledger
