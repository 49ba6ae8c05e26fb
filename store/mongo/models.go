package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/schedule"
	"github.com/xraph/mealledger/types"
)

// ==================== Meal plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:mealledger_plans"`

	ID            string            `grove:"id,pk"          bson:"_id"`
	Name          string            `grove:"name"           bson:"name"`
	Description   string            `grove:"description"    bson:"description"`
	TotalMeals    int               `grove:"total_meals"    bson:"total_meals"`
	DurationDays  int               `grove:"duration_days"  bson:"duration_days"`
	PriceAmount   int64             `grove:"price_amount"   bson:"price_amount"`
	PriceCurrency string            `grove:"price_currency" bson:"price_currency"`
	Status        string            `grove:"status"         bson:"status"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
}

func toPlanModel(p *mealplan.Plan) *planModel {
	return &planModel{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		TotalMeals:    p.TotalMeals,
		DurationDays:  p.DurationDays,
		PriceAmount:   p.Price.Amount,
		PriceCurrency: p.Price.Currency,
		Status:        string(p.Status),
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*mealplan.Plan, error) {
	planID, err := id.ParseMealPlanID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("mealledger/mongo: parse plan id %q: %w", m.ID, err)
	}
	return &mealplan.Plan{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           planID,
		Name:         m.Name,
		Description:  m.Description,
		TotalMeals:   m.TotalMeals,
		DurationDays: m.DurationDays,
		Price:        types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		Status:       mealplan.Status(m.Status),
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Ledger models ====================

type ledgerModel struct {
	grove.BaseModel `grove:"table:mealledger_ledgers"`

	ID             string          `grove:"id,pk"             bson:"_id"`
	CustomerID     string          `grove:"customer_id"       bson:"customer_id"`
	MealPlanID     string          `grove:"meal_plan_id"      bson:"meal_plan_id"`
	PlanName       string          `grove:"plan_name"         bson:"plan_name"`
	TotalMeals     int             `grove:"total_meals"       bson:"total_meals"`
	ConsumedMeals  int             `grove:"consumed_meals"    bson:"consumed_meals"`
	RemainingMeals int             `grove:"remaining_meals"   bson:"remaining_meals"`
	StartDate      time.Time       `grove:"start_date"        bson:"start_date"`
	EndDate        time.Time       `grove:"end_date"          bson:"end_date"`
	Status         string          `grove:"status"            bson:"status"`
	PriceAmount    int64           `grove:"price_amount"      bson:"price_amount"`
	ReceivedAmount int64           `grove:"received_amount"   bson:"received_amount"`
	Currency       string          `grove:"currency"          bson:"currency"`
	PaymentMode    string          `grove:"payment_mode"      bson:"payment_mode"`
	Note           string          `grove:"note"              bson:"note"`
	Weeks          []schedule.Week `grove:"weeks"             bson:"weeks,omitempty"`
	History        []entryModel    `grove:"history"           bson:"history"`
	Version        int64           `grove:"version"           bson:"version"`
	CreatedAt      time.Time       `grove:"created_at"        bson:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"        bson:"updated_at"`
}

type entryModel struct {
	ID                string               `bson:"id"`
	Action            string               `bson:"action"`
	ConsumedMeals     int                  `bson:"consumed_meals"`
	RemainingMeals    int                  `bson:"remaining_meals"`
	CurrentConsumed   int                  `bson:"current_consumed"`
	Status            string               `bson:"status"`
	Timestamp         time.Time            `bson:"timestamp"`
	Actor             string               `bson:"actor,omitempty"`
	Week              int                  `bson:"week,omitempty"`
	Day               string               `bson:"day,omitempty"`
	ConsumedMealTypes []string             `bson:"consumed_meal_types,omitempty"`
	MealItems         []history.MealItem   `bson:"meal_items,omitempty"`
	MealChanges       []history.MealChange `bson:"meal_changes,omitempty"`
	Note              string               `bson:"note,omitempty"`
}

func toLedgerModel(l *membership.Ledger) *ledgerModel {
	entries := make([]entryModel, len(l.History))
	for i, e := range l.History {
		mealTypes := make([]string, len(e.ConsumedMealTypes))
		for j, m := range e.ConsumedMealTypes {
			mealTypes[j] = string(m)
		}
		entries[i] = entryModel{
			ID:                e.ID.String(),
			Action:            string(e.Action),
			ConsumedMeals:     e.ConsumedMeals,
			RemainingMeals:    e.RemainingMeals,
			CurrentConsumed:   e.CurrentConsumed,
			Status:            string(e.Status),
			Timestamp:         e.Timestamp,
			Actor:             e.Actor,
			Week:              e.Week,
			Day:               string(e.Day),
			ConsumedMealTypes: mealTypes,
			MealItems:         e.MealItems,
			MealChanges:       e.MealChanges,
			Note:              e.Note,
		}
	}

	return &ledgerModel{
		ID:             l.ID.String(),
		CustomerID:     l.CustomerID,
		MealPlanID:     l.MealPlanID.String(),
		PlanName:       l.PlanName,
		TotalMeals:     l.TotalMeals,
		ConsumedMeals:  l.ConsumedMeals,
		RemainingMeals: l.RemainingMeals,
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Status:         string(l.Status),
		PriceAmount:    l.TotalPrice.Amount,
		ReceivedAmount: l.ReceivedAmount.Amount,
		Currency:       l.TotalPrice.Currency,
		PaymentMode:    string(l.PaymentMode),
		Note:           l.Note,
		Weeks:          l.Weeks,
		History:        entries,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func fromLedgerModel(m *ledgerModel) (*membership.Ledger, error) {
	ledgerID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("mealledger/mongo: parse ledger id %q: %w", m.ID, err)
	}
	planID, err := id.ParseMealPlanID(m.MealPlanID)
	if err != nil {
		return nil, fmt.Errorf("mealledger/mongo: parse plan id %q: %w", m.MealPlanID, err)
	}

	log := make(history.Log, len(m.History))
	for i, e := range m.History {
		entryID, err := id.ParseHistoryID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("mealledger/mongo: parse history id %q: %w", e.ID, err)
		}
		var mealTypes []schedule.MealType
		for _, t := range e.ConsumedMealTypes {
			mealTypes = append(mealTypes, schedule.MealType(t))
		}
		log[i] = history.Entry{
			ID:                entryID,
			Action:            history.Action(e.Action),
			ConsumedMeals:     e.ConsumedMeals,
			RemainingMeals:    e.RemainingMeals,
			CurrentConsumed:   e.CurrentConsumed,
			Status:            history.Status(e.Status),
			Timestamp:         e.Timestamp,
			Actor:             e.Actor,
			Week:              e.Week,
			Day:               schedule.Weekday(e.Day),
			ConsumedMealTypes: mealTypes,
			MealItems:         e.MealItems,
			MealChanges:       e.MealChanges,
			Note:              e.Note,
		}
	}

	return &membership.Ledger{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             ledgerID,
		CustomerID:     m.CustomerID,
		MealPlanID:     planID,
		PlanName:       m.PlanName,
		TotalMeals:     m.TotalMeals,
		ConsumedMeals:  m.ConsumedMeals,
		RemainingMeals: m.RemainingMeals,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Status:         membership.Status(m.Status),
		TotalPrice:     types.Money{Amount: m.PriceAmount, Currency: m.Currency},
		ReceivedAmount: types.Money{Amount: m.ReceivedAmount, Currency: m.Currency},
		PaymentMode:    membership.PaymentMode(m.PaymentMode),
		Note:           m.Note,
		Weeks:          schedule.Schedule(m.Weeks),
		History:        log,
		Version:        m.Version,
	}, nil
}
