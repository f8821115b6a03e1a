package rent

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Rater prices month slices in the reporting currency.
type Rater struct {
	Converter CurrencyConverter
	Currency  Currency // reporting currency
	CompanyID ID
}

// Prorate scales a monthly rate to days out of daysInMonth and applies the tax
// indicator. Multiplying before dividing keeps full months exact.
func Prorate(monthlyRate decimal.Decimal, days, daysInMonth int, indicator decimal.Decimal) decimal.Decimal {
	if daysInMonth == 0 {
		return decimal.Zero
	}
	return monthlyRate.
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Mul(indicator)
}

// RateSlice computes the charges of one month slice. An UnsupportedTaxKindError
// is returned as-is so the caller can abort the whole run.
func (r *Rater) RateSlice(ctx context.Context, slice MonthSlice) (Segment, error) {
	seg := Segment{
		DateFrom:       slice.Start,
		DateTo:         slice.End,
		DaysInPeriod:   slice.Days,
		DaysInMonth:    slice.DaysInMonth,
		ReportYear:     slice.Start.Year(),
		ReportMonth:    int(slice.Start.Month()),
		ReportDate:     slice.Start.StartOfMonth(),
		CurrencyID:     r.Currency.ID,
		CurrencySymbol: r.Currency.Symbol,
		Total:          decimal.Zero,
	}

	if slice.Contract == nil {
		seg.ContractName = NoActiveContract
		for _, kind := range ChargeKinds {
			seg.setAmount(kind, r.zeroAmount())
		}
		return seg, nil
	}

	id := slice.Contract.ID
	seg.ContractID = &id
	seg.ContractName = slice.Contract.DisplayName()

	for _, kind := range ChargeKinds {
		amount, err := r.rateCharge(ctx, slice, slice.Contract.Charge(kind))
		if err != nil {
			return Segment{}, fmt.Errorf("%s charge of contract %d: %w", kind, id, err)
		}
		seg.setAmount(kind, amount)
		seg.Total = seg.Total.Add(amount.Converted)
	}
	return seg, nil
}

func (r *Rater) rateCharge(ctx context.Context, slice MonthSlice, charge Charge) (ChargeAmount, error) {
	indicator, err := TaxIndicator(charge.Tax)
	if err != nil {
		return ChargeAmount{}, err
	}

	// No currency configured: visible zero, not a failure.
	if charge.Currency == nil {
		amount := r.zeroAmount()
		amount.TaxName = taxName(charge.Tax)
		return amount, nil
	}

	original := Prorate(charge.Rate, slice.Days, slice.DaysInMonth, indicator)
	converted, err := r.Converter.Convert(ctx, original, *charge.Currency, r.Currency, r.CompanyID, slice.MonthEnd())
	if err != nil {
		return ChargeAmount{}, fmt.Errorf("convert %s to %s: %w", charge.Currency.Code, r.Currency.Code, err)
	}

	return ChargeAmount{
		Original:       original,
		CurrencySymbol: charge.Currency.Symbol,
		TaxName:        taxName(charge.Tax),
		Converted:      converted,
	}, nil
}

func (r *Rater) zeroAmount() ChargeAmount {
	return ChargeAmount{
		Original:       decimal.Zero,
		CurrencySymbol: r.Currency.Symbol,
		Converted:      decimal.Zero,
	}
}

func taxName(t *Tax) string {
	if t == nil {
		return ""
	}
	return t.Name
}
