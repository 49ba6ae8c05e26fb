package mealledger

import "github.com/xraph/mealledger/id"

// ID is the identifier type for ledgers, meal plans and history entries.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// ParseLedgerID parses an "mbr_" prefixed ledger id.
var ParseLedgerID = id.ParseLedgerID
