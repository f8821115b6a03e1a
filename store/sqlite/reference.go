package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/rent"
)

// ErrDuplicateCurrency is returned when a currency code already exists.
var ErrDuplicateCurrency = errors.New("currency code already exists")

// =============================================================================
// CURRENCIES
// =============================================================================

// SaveCurrency inserts a currency and sets its ID.
func (s *Store) SaveCurrency(ctx context.Context, c *rent.Currency) error {
	id, err := insert(ctx, s.db,
		"INSERT INTO currencies (code, symbol, decimal_places, created_at) VALUES (?, ?, ?, ?)",
		c.Code, c.Symbol, c.DecimalPlaces, now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%s: %w", c.Code, ErrDuplicateCurrency)
		}
		return fmt.Errorf("failed to save currency: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) GetCurrency(ctx context.Context, id rent.ID) (*rent.Currency, error) {
	return s.getCurrency(ctx, "WHERE id = ?", id)
}

func (s *Store) GetCurrencyByCode(ctx context.Context, code string) (*rent.Currency, error) {
	return s.getCurrency(ctx, "WHERE code = ?", code)
}

func (s *Store) getCurrency(ctx context.Context, where string, arg any) (*rent.Currency, error) {
	var c rent.Currency
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, symbol, decimal_places FROM currencies "+where, arg,
	).Scan(&c.ID, &c.Code, &c.Symbol, &c.DecimalPlaces)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("currency %v: %w", arg, rent.ErrCurrencyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCurrencies(ctx context.Context) ([]rent.Currency, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, code, symbol, decimal_places FROM currencies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var out []rent.Currency
	for rows.Next() {
		var c rent.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Symbol, &c.DecimalPlaces); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// RATES (currency.RateSource)
// =============================================================================

// SaveRate upserts one point of a rate curve.
func (s *Store) SaveRate(ctx context.Context, r currency.Rate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO currency_rates (currency_id, company_id, date, rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(currency_id, company_id, date) DO UPDATE SET rate = excluded.rate
	`, r.CurrencyID, r.CompanyID, r.Date.String(), r.Rate.String())
	if err != nil {
		return fmt.Errorf("failed to save rate: %w", err)
	}
	return nil
}

// ListRates returns the rate curve of a currency ordered by date.
func (s *Store) ListRates(ctx context.Context, companyID, currencyID rent.ID) ([]currency.Rate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency_id, company_id, date, rate
		FROM currency_rates
		WHERE company_id = ? AND currency_id = ?
		ORDER BY date ASC
	`, companyID, currencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	var out []currency.Rate
	for rows.Next() {
		var (
			r          currency.Rate
			date, rate string
		)
		if err := rows.Scan(&r.CurrencyID, &r.CompanyID, &date, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if r.Rate, err = parseDecimal(rate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// TAXES
// =============================================================================

// SaveTax inserts a tax and sets its ID. Unsupported kinds are stored as-is;
// the engine rejects them when they are used.
func (s *Store) SaveTax(ctx context.Context, t *rent.Tax) error {
	id, err := insert(ctx, s.db,
		"INSERT INTO taxes (name, amount, amount_type, created_at) VALUES (?, ?, ?, ?)",
		t.Name, t.Amount.String(), string(t.AmountType), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save tax: %w", err)
	}
	t.ID = id
	return nil
}

func (s *Store) GetTax(ctx context.Context, id rent.ID) (*rent.Tax, error) {
	var (
		t      rent.Tax
		amount string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, amount, amount_type FROM taxes WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &amount, &t.AmountType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tax %d: %w", id, rent.ErrTaxNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tax: %w", err)
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTaxes(ctx context.Context) ([]rent.Tax, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, amount, amount_type FROM taxes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list taxes: %w", err)
	}
	defer rows.Close()

	var out []rent.Tax
	for rows.Next() {
		var (
			t      rent.Tax
			amount string
		)
		if err := rows.Scan(&t.ID, &t.Name, &amount, &t.AmountType); err != nil {
			return nil, fmt.Errorf("failed to scan tax: %w", err)
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// references caches currencies and taxes for hydrating contracts.
type references struct {
	currencies map[rent.ID]rent.Currency
	taxes      map[rent.ID]rent.Tax
}

func (s *Store) loadReferences(ctx context.Context) (*references, error) {
	currencies, err := s.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	taxes, err := s.ListTaxes(ctx)
	if err != nil {
		return nil, err
	}

	refs := &references{
		currencies: make(map[rent.ID]rent.Currency, len(currencies)),
		taxes:      make(map[rent.ID]rent.Tax, len(taxes)),
	}
	for _, c := range currencies {
		refs.currencies[c.ID] = c
	}
	for _, t := range taxes {
		refs.taxes[t.ID] = t
	}
	return refs, nil
}

func (r *references) currency(id sql.NullInt64) *rent.Currency {
	if !id.Valid {
		return nil
	}
	c, ok := r.currencies[rent.ID(id.Int64)]
	if !ok {
		return nil
	}
	return &c
}

func (r *references) tax(id sql.NullInt64) *rent.Tax {
	if !id.Valid {
		return nil
	}
	t, ok := r.taxes[rent.ID(id.Int64)]
	if !ok {
		return nil
	}
	return &t
}
