package mealplan

import (
	"context"

	"github.com/xraph/mealledger/id"
)

type Store interface {
	CreatePlan(ctx context.Context, p *Plan) error
	GetPlan(ctx context.Context, planID id.MealPlanID) (*Plan, error)
	ListPlans(ctx context.Context, opts ListOpts) ([]*Plan, error)
	UpdatePlan(ctx context.Context, p *Plan) error
	ArchivePlan(ctx context.Context, planID id.MealPlanID) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
