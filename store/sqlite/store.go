package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	mealstore "github.com/xraph/mealledger/store"
)

// compile-time interface check
var _ mealstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("mealledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Meal plan store ====================

func (s *Store) CreatePlan(ctx context.Context, p *mealplan.Plan) error {
	m := toPlanModel(p)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("mealledger/sqlite: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.MealPlanID) (*mealplan.Plan, error) {
	m := new(planModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", planID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, mealplan.ErrPlanNotFound
		}
		return nil, fmt.Errorf("mealledger/sqlite: get plan: %w", err)
	}
	return fromPlanModel(m)
}

func (s *Store) ListPlans(ctx context.Context, opts mealplan.ListOpts) ([]*mealplan.Plan, error) {
	var models []planModel
	q := s.sdb.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("mealledger/sqlite: list plans: %w", err)
	}

	result := make([]*mealplan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *mealplan.Plan) error {
	m := toPlanModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: update plan: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return mealplan.ErrPlanNotFound
	}
	return nil
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.MealPlanID) error {
	res, err := s.sdb.NewUpdate((*planModel)(nil)).
		Set("status = ?", string(mealplan.StatusArchived)).
		Set("updated_at = ?", now()).
		Where("id = ?", planID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: archive plan: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return mealplan.ErrPlanNotFound
	}
	return nil
}

// ==================== Ledger store ====================

func (s *Store) CreateLedger(ctx context.Context, l *membership.Ledger) error {
	m, err := toLedgerModel(l)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: encode ledger: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("mealledger/sqlite: create ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*membership.Ledger, error) {
	m := new(ledgerModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", ledgerID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, membership.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("mealledger/sqlite: get ledger: %w", err)
	}
	return fromLedgerModel(m)
}

// SaveLedger writes the mutable columns of l guarded by its version.
func (s *Store) SaveLedger(ctx context.Context, l *membership.Ledger, expectedVersion int64) error {
	m, err := toLedgerModel(l)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: encode ledger: %w", err)
	}
	next := expectedVersion + 1

	res, err := s.sdb.NewUpdate((*ledgerModel)(nil)).
		Set("consumed_meals = ?", m.ConsumedMeals).
		Set("remaining_meals = ?", m.RemainingMeals).
		Set("status = ?", m.Status).
		Set("payment_mode = ?", m.PaymentMode).
		Set("note = ?", m.Note).
		Set("weeks = ?", m.Weeks).
		Set("history = ?", m.History).
		Set("version = ?", next).
		Set("updated_at = ?", m.UpdatedAt).
		Where("id = ?", m.ID).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/sqlite: save ledger: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.saveMiss(ctx, m.ID, expectedVersion)
	}

	l.Version = next
	return nil
}

func (s *Store) saveMiss(ctx context.Context, ledgerID string, expectedVersion int64) error {
	probe := new(ledgerModel)
	err := s.sdb.NewSelect(probe).
		Where("id = ?", ledgerID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return membership.ErrLedgerNotFound
		}
		return fmt.Errorf("mealledger/sqlite: save ledger: %w", err)
	}
	return fmt.Errorf("%w: ledger %s is at version %d, expected %d",
		membership.ErrConcurrentModification, ledgerID, probe.Version, expectedVersion)
}

func (s *Store) ListLedgers(ctx context.Context, opts membership.ListOpts) ([]*membership.Ledger, error) {
	var models []ledgerModel
	q := s.sdb.NewSelect(&models)

	if len(opts.CustomerIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(opts.CustomerIDs)), ", ")
		args := make([]any, len(opts.CustomerIDs))
		for i, c := range opts.CustomerIDs {
			args[i] = c
		}
		q = q.Where("customer_id IN ("+placeholders+")", args...)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("customer_id ASC, created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("mealledger/sqlite: list ledgers: %w", err)
	}

	result := make([]*membership.Ledger, len(models))
	for i := range models {
		l, err := fromLedgerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
