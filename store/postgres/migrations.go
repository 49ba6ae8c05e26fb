package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the meal ledger store.
var Migrations = migrate.NewGroup("mealledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_mealledger_plans",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mealledger_plans (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    total_meals    INT NOT NULL DEFAULT 0,
    duration_days  INT NOT NULL DEFAULT 0,
    price_amount   BIGINT NOT NULL DEFAULT 0,
    price_currency TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'active',
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mealledger_plans_status ON mealledger_plans (status, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mealledger_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_mealledger_ledgers",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS mealledger_ledgers (
    id              TEXT PRIMARY KEY,
    customer_id     TEXT NOT NULL,
    meal_plan_id    TEXT NOT NULL,
    plan_name       TEXT NOT NULL DEFAULT '',
    total_meals     INT NOT NULL CHECK (total_meals >= 0),
    consumed_meals  INT NOT NULL DEFAULT 0 CHECK (consumed_meals >= 0),
    remaining_meals INT NOT NULL CHECK (remaining_meals >= 0),
    start_date      TIMESTAMPTZ NOT NULL,
    end_date        TIMESTAMPTZ NOT NULL,
    status          TEXT NOT NULL DEFAULT 'active',
    price_amount    BIGINT NOT NULL DEFAULT 0,
    received_amount BIGINT NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL DEFAULT '',
    payment_mode    TEXT NOT NULL DEFAULT '',
    note            TEXT NOT NULL DEFAULT '',
    weeks           JSONB NOT NULL DEFAULT '[]',
    history         JSONB NOT NULL DEFAULT '[]',
    version         BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (consumed_meals + remaining_meals = total_meals)
);

CREATE INDEX IF NOT EXISTS idx_mealledger_ledgers_customer ON mealledger_ledgers (customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_mealledger_ledgers_status ON mealledger_ledgers (customer_id, status);
CREATE INDEX IF NOT EXISTS idx_mealledger_ledgers_plan ON mealledger_ledgers (meal_plan_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS mealledger_ledgers`)
				return err
			},
		},
	)
}
