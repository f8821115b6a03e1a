/*
Package sqlite provides a SQLite-backed implementation of the engine collaborators.

PURPOSE:
  Persists the reference data the rent engine reads (currencies and their
  rate curves, taxes, rental object groups, rental objects, contracts) plus
  cost centers and monthly revenue.

INTERFACES IMPLEMENTED:
  rent.RentalObjectStore: ListRentalObjects
  rent.ContractStore:     FindActiveContracts
  rent.GroupStore:        GetGroup, ListGroups
  currency.RateSource:    ListRates

STORAGE FORMAT:
  - Dates are TEXT "YYYY-MM-DD"
  - Money and rates are TEXT decimal strings (no float round-trips)
  - IDs are INTEGER autoincrement, so a higher ID is a later record

MIGRATION:
  Schema lives in migrations/*.sql, embedded and applied with
  golang-migrate on New().

CONNECTIONS:
  ":memory:" databases are pinned to one connection; every connection would
  otherwise see its own empty database. Queries never hold a result set open
  while issuing another query.

USAGE:
  store, err := sqlite.New("./data/rent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  calc := rent.NewCalculator(store, store, currency.NewConverter(store), usd, companyID)

SEE ALSO:
  - rent/store.go: Interface definitions
  - rent/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/rent"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements the engine collaborators using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serialises multi-statement writes
}

var (
	_ rent.RentalObjectStore = (*Store)(nil)
	_ rent.ContractStore     = (*Store)(nil)
	_ rent.GroupStore        = (*Store)(nil)
	_ currency.RateSource    = (*Store)(nil)
)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := NewWithDB(db)
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an already-open database without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every pending up migration.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer src.Close()

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	// m.Close() would close s.db through the driver, so only the source is closed.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := s.db.QueryRowContext(ctx, "SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Reset deletes all data (for testing/seeding).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{
		"monthly_revenues", "cost_centers", "contracts", "rental_objects",
		"rental_object_groups", "taxes", "currency_rates", "currencies",
	} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func insert(ctx context.Context, db execer, query string, args ...any) (rent.ID, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return rent.ID(id), nil
}

func nullID(id *rent.ID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func idPtr(n sql.NullInt64) *rent.ID {
	if !n.Valid {
		return nil
	}
	id := rent.ID(n.Int64)
	return &id
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

func parseDate(s string) (rent.Date, error) {
	// Some drivers hand back full timestamps for TEXT date columns.
	if len(s) > 10 {
		s = s[:10]
	}
	return rent.ParseDate(s)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
