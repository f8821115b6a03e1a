/*
store.go - Collaborator interfaces consumed by the engine

PURPOSE:
  The engine owns no data. Everything it reads comes through these
  interfaces, so the same calculation runs against SQLite, an in-memory
  fixture or a remote system.

KEY INTERFACES:
  RentalObjectStore: every rental object to report on
  ContractStore:     active contracts of one object overlapping a range
  CurrencyConverter: dated currency conversion with target rounding

SNAPSHOT CONSISTENCY:
  A calculation issues many reads. Keeping them consistent with each other
  (one snapshot/transaction) is the store's job, not the engine's.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite via database/sql
  - rent/store/memory.go: In-memory for testing
  - currency/converter.go: Rate-table converter

SEE ALSO:
  - calculator.go: Consumes these interfaces
*/
package rent

import (
	"context"

	"github.com/shopspring/decimal"
)

// RentalObjectStore lists rental objects.
type RentalObjectStore interface {
	// ListRentalObjects returns all active rental objects ordered by ID.
	ListRentalObjects(ctx context.Context) ([]RentalObject, error)
}

// ContractStore finds contracts for the partitioner.
type ContractStore interface {
	// FindActiveContracts returns active contracts of the object with
	// date <= to AND expiration_date >= from, ordered by date desc, ID desc.
	FindActiveContracts(ctx context.Context, objectID ID, from, to Date) ([]Contract, error)
}

// CurrencyConverter converts an amount between currencies as of a date.
// The result is rounded to the target currency precision.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to Currency, companyID ID, asOf Date) (decimal.Decimal, error)
}

// GroupStore resolves rental object group subtrees.
type GroupStore interface {
	GetGroup(ctx context.Context, id ID) (*RentalObjectGroup, error)
	ListGroups(ctx context.Context) ([]RentalObjectGroup, error)
}
