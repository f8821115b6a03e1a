package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/rent-engine/rent"
)

const contractColumns = `id, rental_object_id, name, number, date, expiration_date, contract_type,
	rental_rate, rental_rate_currency_id, rental_rate_tax_id,
	exploitation_rate, exploitation_rate_currency_id, exploitation_rate_tax_id,
	marketing_rate, marketing_rate_currency_id, marketing_rate_tax_id,
	active`

// SaveContract validates and inserts a contract. Charge currencies and taxes
// are stored by reference and must already exist.
func (s *Store) SaveContract(ctx context.Context, c *rent.Contract) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.GetRentalObject(ctx, c.RentalObjectID); err != nil {
		return err
	}

	args := []any{c.RentalObjectID, c.Name, c.Number, c.Date.String(), c.ExpirationDate.String(), string(c.Type)}
	for _, kind := range rent.ChargeKinds {
		ch := c.Charge(kind)
		args = append(args, ch.Rate.String(), currencyRef(ch.Currency), taxRef(ch.Tax))
	}
	args = append(args, c.Active, now())

	id, err := insert(ctx, s.db, `
		INSERT INTO contracts (
			rental_object_id, name, number, date, expiration_date, contract_type,
			rental_rate, rental_rate_currency_id, rental_rate_tax_id,
			exploitation_rate, exploitation_rate_currency_id, exploitation_rate_tax_id,
			marketing_rate, marketing_rate_currency_id, marketing_rate_tax_id,
			active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) GetContract(ctx context.Context, id rent.ID) (*rent.Contract, error) {
	contracts, err := s.queryContracts(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("contract %d: %w", id, rent.ErrContractNotFound)
	}
	return &contracts[0], nil
}

// FindActiveContracts returns active contracts of the object overlapping
// [from, to], most recent first.
func (s *Store) FindActiveContracts(ctx context.Context, objectID rent.ID, from, to rent.Date) ([]rent.Contract, error) {
	refs, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}
	return s.findActiveContracts(ctx, refs, objectID, from, to)
}

func (s *Store) findActiveContracts(ctx context.Context, refs *references, objectID rent.ID, from, to rent.Date) ([]rent.Contract, error) {
	return s.queryContractsWith(ctx, refs, `
		WHERE rental_object_id = ? AND active = TRUE
		  AND date <= ? AND expiration_date >= ?
		ORDER BY date DESC, id DESC
	`, objectID, to.String(), from.String())
}

// ContractsByObject returns every contract of the object, active or not.
func (s *Store) ContractsByObject(ctx context.Context, objectID rent.ID) ([]rent.Contract, error) {
	return s.queryContracts(ctx, "WHERE rental_object_id = ? ORDER BY date DESC, id DESC", objectID)
}

func (s *Store) queryContracts(ctx context.Context, clause string, args ...any) ([]rent.Contract, error) {
	// References first: the result set below must be the only open one.
	refs, err := s.loadReferences(ctx)
	if err != nil {
		return nil, err
	}
	return s.queryContractsWith(ctx, refs, clause, args...)
}

func (s *Store) queryContractsWith(ctx context.Context, refs *references, clause string, args ...any) ([]rent.Contract, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+contractColumns+" FROM contracts "+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var out []rent.Contract
	for rows.Next() {
		c, err := scanContract(rows, refs)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type chargeColumns struct {
	rate       string
	currencyID sql.NullInt64
	taxID      sql.NullInt64
}

func (cc chargeColumns) charge(refs *references) (rent.Charge, error) {
	rate, err := parseDecimal(cc.rate)
	if err != nil {
		return rent.Charge{}, err
	}
	return rent.Charge{Rate: rate, Currency: refs.currency(cc.currencyID), Tax: refs.tax(cc.taxID)}, nil
}

func scanContract(rows *sql.Rows, refs *references) (rent.Contract, error) {
	var (
		c                  rent.Contract
		date, expiration   string
		rental, expl, mark chargeColumns
	)
	err := rows.Scan(
		&c.ID, &c.RentalObjectID, &c.Name, &c.Number, &date, &expiration, &c.Type,
		&rental.rate, &rental.currencyID, &rental.taxID,
		&expl.rate, &expl.currencyID, &expl.taxID,
		&mark.rate, &mark.currencyID, &mark.taxID,
		&c.Active,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan contract: %w", err)
	}

	if c.Date, err = parseDate(date); err != nil {
		return c, err
	}
	if c.ExpirationDate, err = parseDate(expiration); err != nil {
		return c, err
	}
	if c.Rental, err = rental.charge(refs); err != nil {
		return c, err
	}
	if c.Exploitation, err = expl.charge(refs); err != nil {
		return c, err
	}
	if c.Marketing, err = mark.charge(refs); err != nil {
		return c, err
	}
	return c, nil
}

func currencyRef(c *rent.Currency) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c.ID), Valid: true}
}

func taxRef(t *rent.Tax) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(t.ID), Valid: true}
}
