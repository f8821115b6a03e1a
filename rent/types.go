/*
Package rent provides the rent calculation engine.

PURPOSE:
  Given a reporting range, the engine computes per rental object a
  day-accurate, currency-converted breakdown of rental, exploitation and
  marketing charges. Each day is attributed to the contract in force on that
  day and the output is segmented by calendar month.

KEY CONCEPTS IN THIS FILE (types.go):
  - RentalObject: the thing being rented (office, shop unit, ...)
  - Contract: dated agreement carrying three monthly charges
  - Charge: monthly rate + currency + optional tax
  - Tax / Currency: embedded references read by the engine
  - Segment: one calendar-month slice of one interval, the output row

PIPELINE:
  Calculator (calculator.go)
    -> Partition (partition.go)      per rental object
    -> SplitByMonth (segment.go)     per interval
    -> Rater.RateSlice (rate.go)     per month slice, uses TaxIndicator (tax.go)
    -> flat []Segment

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal, never float64
  2. Purity: the engine reads collaborators and mutates nothing
  3. Explicit ordering: contract precedence is sorted here, not inherited
     from the storage layer

SEE ALSO:
  - store.go: Collaborator interfaces
  - errors.go: Error taxonomy
*/
package rent

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ID identifies a stored record. IDs grow with creation order, so a higher ID
// means "created later" when breaking ties between contracts.
type ID int64

// =============================================================================
// TAX
// =============================================================================

type TaxAmountType string

const (
	TaxPercent  TaxAmountType = "percent"
	TaxFixed    TaxAmountType = "fixed"
	TaxGroup    TaxAmountType = "group"
	TaxDivision TaxAmountType = "division"
)

type Tax struct {
	ID         ID
	Name       string
	Amount     decimal.Decimal
	AmountType TaxAmountType
}

// =============================================================================
// CURRENCY
// =============================================================================

type Currency struct {
	ID            ID
	Code          string // ISO 4217, e.g. "USD"
	Symbol        string
	DecimalPlaces int32
}

// Round rounds amount to the currency precision.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.DecimalPlaces)
}

// =============================================================================
// RENTAL OBJECT
// =============================================================================

type RentalObject struct {
	ID       ID
	Name     string
	GroupID  *ID
	AreaSize decimal.Decimal
	Active   bool
}

// =============================================================================
// CONTRACT
// =============================================================================

type ContractType string

const (
	ContractTypeContract                ContractType = "contract"
	ContractTypeMainAdditionalAgreement ContractType = "main_additional_agreement"
	ContractTypeAdditionalAgreement     ContractType = "additional_agreement"
)

func (t ContractType) Valid() bool {
	switch t {
	case ContractTypeContract, ContractTypeMainAdditionalAgreement, ContractTypeAdditionalAgreement:
		return true
	}
	return false
}

// ChargeKind names one of the three monthly charges a contract carries.
type ChargeKind string

const (
	ChargeRental       ChargeKind = "rental"
	ChargeExploitation ChargeKind = "exploitation"
	ChargeMarketing    ChargeKind = "marketing"
)

// ChargeKinds lists the charges in reporting order.
var ChargeKinds = []ChargeKind{ChargeRental, ChargeExploitation, ChargeMarketing}

// Charge is a monthly amount in its own currency with an optional tax.
type Charge struct {
	Rate     decimal.Decimal
	Currency *Currency
	Tax      *Tax
}

type Contract struct {
	ID             ID
	RentalObjectID ID
	Name           string
	Number         string
	Date           Date // start, inclusive
	ExpirationDate Date // end, inclusive
	Type           ContractType
	Rental         Charge
	Exploitation   Charge
	Marketing      Charge
	Active         bool
}

// Period returns the contract coverage [Date, ExpirationDate].
func (c Contract) Period() Period {
	return Period{Start: c.Date, End: c.ExpirationDate}
}

// Covers reports whether the contract is in force on every day of p.
func (c Contract) Covers(p Period) bool {
	return c.Period().Covers(p)
}

// Charge returns the charge of the given kind.
func (c Contract) Charge(kind ChargeKind) Charge {
	switch kind {
	case ChargeExploitation:
		return c.Exploitation
	case ChargeMarketing:
		return c.Marketing
	default:
		return c.Rental
	}
}

// Validate checks the fields the engine relies on.
func (c Contract) Validate() error {
	if c.Date.IsZero() || c.ExpirationDate.IsZero() {
		return fmt.Errorf("%w: date and expiration_date are required", ErrInvalidContract)
	}
	if c.Date.After(c.ExpirationDate) {
		return fmt.Errorf("%w: date %s after expiration_date %s", ErrInvalidContract, c.Date, c.ExpirationDate)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown contract type %q", ErrInvalidContract, c.Type)
	}
	return nil
}

// DisplayName is the label used on report rows.
func (c Contract) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return NumberDateLabel(c)
}

// =============================================================================
// SEGMENT - Output row
// =============================================================================

// NoActiveContract labels segments without an effective contract.
const NoActiveContract = "No Active Contract"

// ChargeAmount is one charge of one segment.
type ChargeAmount struct {
	Original       decimal.Decimal // in the charge currency, taxed and prorated
	CurrencySymbol string
	TaxName        string
	Converted      decimal.Decimal // in the reporting currency
}

// Segment is one calendar-month-bounded slice of one interval.
type Segment struct {
	RentalObjectID   ID
	RentalObjectName string

	DateFrom     Date
	DateTo       Date
	DaysInPeriod int
	DaysInMonth  int

	// ReportYear/ReportMonth/ReportDate key the segment for pivoting.
	// ReportDate is the first day of the segment's month.
	ReportYear  int
	ReportMonth int
	ReportDate  Date

	ContractID   *ID
	ContractName string

	Rental       ChargeAmount
	Exploitation ChargeAmount
	Marketing    ChargeAmount
	Total        decimal.Decimal

	CurrencyID     ID
	CurrencySymbol string
}

// Period returns [DateFrom, DateTo].
func (s Segment) Period() Period {
	return Period{Start: s.DateFrom, End: s.DateTo}
}

// Amount returns the charge amount of the given kind.
func (s Segment) Amount(kind ChargeKind) ChargeAmount {
	switch kind {
	case ChargeExploitation:
		return s.Exploitation
	case ChargeMarketing:
		return s.Marketing
	default:
		return s.Rental
	}
}

func (s *Segment) setAmount(kind ChargeKind, a ChargeAmount) {
	switch kind {
	case ChargeExploitation:
		s.Exploitation = a
	case ChargeMarketing:
		s.Marketing = a
	default:
		s.Rental = a
	}
}
