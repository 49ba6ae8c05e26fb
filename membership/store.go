package membership

import (
	"context"

	"github.com/xraph/mealledger/id"
)

// Store persists ledgers.
//
// SaveLedger writes l only if the stored version still equals
// expectedVersion, then stores expectedVersion+1 and sets l.Version to it.
// A mismatch returns ErrConcurrentModification and leaves the stored
// ledger untouched.
type Store interface {
	CreateLedger(ctx context.Context, l *Ledger) error
	GetLedger(ctx context.Context, ledgerID id.LedgerID) (*Ledger, error)
	SaveLedger(ctx context.Context, l *Ledger, expectedVersion int64) error
	ListLedgers(ctx context.Context, opts ListOpts) ([]*Ledger, error)
}

type ListOpts struct {
	CustomerIDs []string
	Status      Status
	Limit       int
	Offset      int
}
