package rent

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// TaxIndicator returns the multiplier a charge is scaled by.
//
//	nil tax       -> 1
//	percent tax   -> 1 + amount/100
//	anything else -> *UnsupportedTaxKindError
func TaxIndicator(tax *Tax) (decimal.Decimal, error) {
	if tax == nil {
		return decimal.NewFromInt(1), nil
	}
	if tax.AmountType != TaxPercent {
		return decimal.Zero, &UnsupportedTaxKindError{TaxID: tax.ID, Name: tax.Name, Kind: tax.AmountType}
	}
	return decimal.NewFromInt(1).Add(tax.Amount.Div(hundred)), nil
}
