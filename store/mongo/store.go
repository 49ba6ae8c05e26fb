package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/mealledger/id"
	"github.com/xraph/mealledger/mealplan"
	"github.com/xraph/mealledger/membership"
	mealstore "github.com/xraph/mealledger/store"
)

// Collection name constants.
const (
	colPlans   = "mealledger_plans"
	colLedgers = "mealledger_ledgers"
)

// compile-time interface check
var _ mealstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("mealledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.MealPlanID) (*mealplan.Plan, error) {
	var m planModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": planID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, mealplan.ErrPlanNotFound
		}
		return nil, fmt.Errorf("mealledger/mongo: get plan: %w", err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, opts mealplan.ListOpts) ([]*mealplan.Plan, error) {
	var models []planModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("mealledger/mongo: list plans: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/mongo: update plan: %w", err)
	}
	if res.MatchedCount() == 0 {
		return mealplan.ErrPlanNotFound
	}
	return nil
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.MealPlanID) error {
	res, err := s.mdb.NewUpdate((*planModel)(nil)).
		Filter(bson.M{"_id": planID.String()}).
		Set("status", string(mealplan.StatusArchived)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/mongo: archive plan: %w", err)
	}
	if res.MatchedCount() == 0 {
		return mealplan.ErrPlanNotFound
	}
	return nil
}

// ==================== Ledger store ====================

func (s *Store) CreateLedger(ctx context.Context, l *membership.Ledger) error {
	m := toLedgerModel(l)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return membership.ErrLedgerExists
		}
		return fmt.Errorf("mealledger/mongo: create ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*membership.Ledger, error) {
	var m ledgerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ledgerID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, membership.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("mealledger/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

// SaveLedger replaces the ledger document only while its stored version is
// still expectedVersion.
func (s *Store) SaveLedger(ctx context.Context, l *membership.Ledger, expectedVersion int64) error {
	m := toLedgerModel(l)
	m.Version = expectedVersion + 1

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "version": expectedVersion}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mealledger/mongo: save ledger: %w", err)
	}
	if res.MatchedCount() == 0 {
		return s.saveMiss(ctx, m.ID, expectedVersion)
	}

	l.Version = m.Version
	return nil
}

// saveMiss tells a missing ledger apart from a version conflict.
func (s *Store) saveMiss(ctx context.Context, ledgerID string, expectedVersion int64) error {
	var probe ledgerModel
	err := s.mdb.NewFind(&probe).
		Filter(bson.M{"_id": ledgerID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return membership.ErrLedgerNotFound
		}
		return fmt.Errorf("mealledger/mongo: save ledger: %w", err)
	}
	return fmt.Errorf("%w: ledger %s is at version %d, expected %d",
		membership.ErrConcurrentModification, ledgerID, probe.Version, expectedVersion)
}

func (s *Store) ListLedgers(ctx context.Context, opts membership.ListOpts) ([]*membership.Ledger, error) {
	var models []ledgerModel

	filter := bson.M{}
	if len(opts.CustomerIDs) > 0 {
		filter["customer_id"] = bson.M{"$in": opts.CustomerIDs}
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{
			{Key: "customer_id", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "_id", Value: 1},
		})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("mealledger/mongo: list ledgers: %w", err)
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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPlans: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colLedgers: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "meal_plan_id", Value: 1}}},
			{
				Keys:    bson.D{{Key: "history.id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
	}
}
