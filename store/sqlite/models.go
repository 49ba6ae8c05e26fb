package sqlite

import (
	"encoding/json"
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

// SQLite has no JSON column type; nested values are stored as TEXT.

type planModel struct {
	grove.BaseModel `grove:"table:mealledger_plans"`

	ID            string    `grove:"id,pk"`
	Name          string    `grove:"name"`
	Description   string    `grove:"description"`
	TotalMeals    int       `grove:"total_meals"`
	DurationDays  int       `grove:"duration_days"`
	PriceAmount   int64     `grove:"price_amount"`
	PriceCurrency string    `grove:"price_currency"`
	Status        string    `grove:"status"`
	Metadata      string    `grove:"metadata"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toPlanModel(p *mealplan.Plan) *planModel {
	metadata := "{}"
	if len(p.Metadata) > 0 {
		raw, _ := json.Marshal(p.Metadata) //nolint:errcheck // map[string]string always encodes
		metadata = string(raw)
	}
	return &planModel{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		TotalMeals:    p.TotalMeals,
		DurationDays:  p.DurationDays,
		PriceAmount:   p.Price.Amount,
		PriceCurrency: p.Price.Currency,
		Status:        string(p.Status),
		Metadata:      metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*mealplan.Plan, error) {
	planID, err := id.ParseMealPlanID(m.ID)
	if err != nil {
		return nil, err
	}
	var metadata map[string]string
	if m.Metadata != "" && m.Metadata != "{}" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("decode plan metadata: %w", err)
		}
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
		Metadata:     metadata,
	}, nil
}

type ledgerModel struct {
	grove.BaseModel `grove:"table:mealledger_ledgers"`

	ID             string    `grove:"id,pk"`
	CustomerID     string    `grove:"customer_id"`
	MealPlanID     string    `grove:"meal_plan_id"`
	PlanName       string    `grove:"plan_name"`
	TotalMeals     int       `grove:"total_meals"`
	ConsumedMeals  int       `grove:"consumed_meals"`
	RemainingMeals int       `grove:"remaining_meals"`
	StartDate      time.Time `grove:"start_date"`
	EndDate        time.Time `grove:"end_date"`
	Status         string    `grove:"status"`
	PriceAmount    int64     `grove:"price_amount"`
	ReceivedAmount int64     `grove:"received_amount"`
	Currency       string    `grove:"currency"`
	PaymentMode    string    `grove:"payment_mode"`
	Note           string    `grove:"note"`
	Weeks          string    `grove:"weeks"`
	History        string    `grove:"history"`
	Version        int64     `grove:"version"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toLedgerModel(l *membership.Ledger) (*ledgerModel, error) {
	weeks := l.Weeks
	if weeks == nil {
		weeks = schedule.Schedule{}
	}
	weeksJSON, err := json.Marshal(weeks)
	if err != nil {
		return nil, err
	}
	historyJSON, err := json.Marshal(l.History)
	if err != nil {
		return nil, err
	}

	return &ledgerModel{
		ID:             l.ID.String(),
		CustomerID:     l.CustomerID,
		MealPlanID:     l.MealPlanID.String(),
		PlanName:       l.PlanName,
		TotalMeals:     l.TotalMeals,
		ConsumedMeals:  l.ConsumedMeals,
		RemainingMeals: l.RemainingMeals,
		StartDate:      l.StartDate.UTC(),
		EndDate:        l.EndDate.UTC(),
		Status:         string(l.Status),
		PriceAmount:    l.TotalPrice.Amount,
		ReceivedAmount: l.ReceivedAmount.Amount,
		Currency:       l.TotalPrice.Currency,
		PaymentMode:    string(l.PaymentMode),
		Note:           l.Note,
		Weeks:          string(weeksJSON),
		History:        string(historyJSON),
		Version:        l.Version,
		CreatedAt:      l.CreatedAt.UTC(),
		UpdatedAt:      l.UpdatedAt.UTC(),
	}, nil
}

func fromLedgerModel(m *ledgerModel) (*membership.Ledger, error) {
	ledgerID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParseMealPlanID(m.MealPlanID)
	if err != nil {
		return nil, err
	}

	var weeks schedule.Schedule
	if err := json.Unmarshal([]byte(m.Weeks), &weeks); err != nil {
		return nil, fmt.Errorf("decode weeks: %w", err)
	}
	if len(weeks) == 0 {
		weeks = nil
	}
	var log history.Log
	if err := json.Unmarshal([]byte(m.History), &log); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
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
		Weeks:          weeks,
		History:        log,
		Version:        m.Version,
	}, nil
}
