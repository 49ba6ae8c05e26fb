// Package mealplan defines the meal plans a membership is sold from.
package mealplan

import (
	"errors"
	"fmt"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/types"
)

var (
	ErrPlanNotFound = errors.New("mealledger: meal plan not found")
	ErrPlanArchived = errors.New("mealledger: meal plan is archived")
	ErrInvalidPlan  = errors.New("mealledger: invalid meal plan")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

type Plan struct {
	types.Entity
	ID           id.MealPlanID     `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	TotalMeals   int               `json:"total_meals"`
	DurationDays int               `json:"duration_days"`
	Price        types.Money       `json:"price"`
	Status       Status            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate checks that the plan can back a new ledger.
func (p *Plan) Validate() error {
	switch {
	case p.TotalMeals < 1:
		return fmt.Errorf("%w: total meals must be at least 1, got %d", ErrInvalidPlan, p.TotalMeals)
	case p.DurationDays <= 0:
		return fmt.Errorf("%w: duration must be positive, got %d days", ErrInvalidPlan, p.DurationDays)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidPlan, p.Price)
	}
	return nil
}

func (p *Plan) IsArchived() bool { return p.Status == StatusArchived }
