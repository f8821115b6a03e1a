/*
Package currency converts amounts between currencies using dated rates.

RATE MODEL:
  Every rate is "units of currency per 1 unit of the company base currency"
  on a date. The base currency itself needs no rates (rate 1).

  convert(amount, A -> B, asOf) = amount * rate(B, asOf) / rate(A, asOf)

RATE AS OF A DATE:
  1. Latest rate dated on or before asOf
  2. Otherwise the earliest rate on record
  3. Otherwise 1

ROUNDING:
  Results are rounded half-up to the target currency's decimal places,
  including same-currency conversions.

SEE ALSO:
  - rent/store.go: CurrencyConverter interface implemented here
  - store/sqlite/sqlite.go: RateSource backed by currency_rates
*/
package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/rent"
)

// Rate is one dated point of a currency's rate curve for a company.
type Rate struct {
	CurrencyID rent.ID
	CompanyID  rent.ID
	Date       rent.Date
	Rate       decimal.Decimal
}

// RateSource lists the rate curve of a currency.
type RateSource interface {
	// ListRates returns rates of currencyID for companyID ordered by date ascending.
	ListRates(ctx context.Context, companyID, currencyID rent.ID) ([]Rate, error)
}

// Converter implements rent.CurrencyConverter over a RateSource.
type Converter struct {
	Rates RateSource
}

var _ rent.CurrencyConverter = (*Converter)(nil)

func NewConverter(rates RateSource) *Converter {
	return &Converter{Rates: rates}
}

// Convert converts amount from one currency to another as of a date.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to rent.Currency, companyID rent.ID, asOf rent.Date) (decimal.Decimal, error) {
	if from.ID == to.ID {
		return to.Round(amount), nil
	}

	fromRate, err := c.RateAt(ctx, companyID, from.ID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := c.RateAt(ctx, companyID, to.ID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("currency %s has a zero rate on %s", from.Code, asOf)
	}

	return to.Round(amount.Mul(toRate).Div(fromRate)), nil
}

// RateAt resolves the rate of a currency on a date.
func (c *Converter) RateAt(ctx context.Context, companyID, currencyID rent.ID, asOf rent.Date) (decimal.Decimal, error) {
	rates, err := c.Rates.ListRates(ctx, companyID, currencyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list rates of currency %d: %w", currencyID, err)
	}
	return RateOn(rates, asOf), nil
}

// RateOn picks the applicable rate from a date-ascending curve.
func RateOn(rates []Rate, asOf rent.Date) decimal.Decimal {
	if len(rates) == 0 {
		return decimal.NewFromInt(1)
	}
	picked := rates[0].Rate
	for _, r := range rates {
		if r.Date.After(asOf) {
			break
		}
		picked = r.Rate
	}
	return picked
}
