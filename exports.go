package mealledger

import (
	"github.com/xraph/mealledger/history"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	"github.com/xraph/mealledger/pending"
	"github.com/xraph/mealledger/types"
)

// Re-export common types for convenience so users don't have to import
// every subpackage.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

type (
	Ledger         = membership.Ledger
	Plan           = mealplan.Plan
	HistoryEntry   = history.Entry
	PendingSummary = pending.Summary
)

// Re-export Money constructors
var (
	AED        = types.AED
	SAR        = types.SAR
	KWD        = types.KWD
	INR        = types.INR
	USD        = types.USD
	Zero       = types.Zero
	ParseMoney = types.ParseMoney
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
