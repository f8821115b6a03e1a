/*
errors.go - Centralized error types for the rent engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; structured errors carry the
  offending input so it can be surfaced to the user.

ERROR CATEGORIES:
  1. Input errors - reporting range malformed
  2. Data-integrity errors - tax kinds the engine cannot apply
  3. Store errors - referenced records missing

FAIL-FAST:
  UnsupportedTaxKindError aborts the whole calculation, not just the row.
  A missing currency on a charge is NOT an error (zero contribution).

SEE ALSO:
  - tax.go: Raises UnsupportedTaxKindError
  - calculator.go: Raises InvalidRangeError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package rent

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when date_from is after date_to.
	ErrInvalidRange = errors.New("invalid range: date_from after date_to")

	// ErrUnsupportedTaxKind is returned when a contract charge carries a tax
	// whose amount type is not percent.
	ErrUnsupportedTaxKind = errors.New("unsupported tax kind")

	// ErrRentalObjectNotFound is returned when a referenced rental object doesn't exist.
	ErrRentalObjectNotFound = errors.New("rental object not found")

	// ErrContractNotFound is returned when a referenced contract doesn't exist.
	ErrContractNotFound = errors.New("contract not found")

	// ErrCurrencyNotFound is returned when a referenced currency doesn't exist.
	ErrCurrencyNotFound = errors.New("currency not found")

	// ErrTaxNotFound is returned when a referenced tax doesn't exist.
	ErrTaxNotFound = errors.New("tax not found")

	// ErrGroupNotFound is returned when a referenced rental object group doesn't exist.
	ErrGroupNotFound = errors.New("rental object group not found")

	// ErrCostCenterNotFound is returned when a referenced cost center doesn't exist.
	ErrCostCenterNotFound = errors.New("cost center not found")

	// ErrInvalidContract is returned when a contract fails validation on write.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrInvalidRevenue is returned when a revenue record fails validation on write.
	ErrInvalidRevenue = errors.New("invalid revenue")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError provides the offending range.
type InvalidRangeError struct {
	From Date
	To   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: date_from %s is after date_to %s", e.From, e.To)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// UnsupportedTaxKindError identifies the misconfigured tax.
type UnsupportedTaxKindError struct {
	TaxID ID
	Name  string
	Kind  TaxAmountType
}

func (e *UnsupportedTaxKindError) Error() string {
	return fmt.Sprintf("tax %q (id %d) has unsupported amount type %q", e.Name, e.TaxID, e.Kind)
}

func (e *UnsupportedTaxKindError) Unwrap() error {
	return ErrUnsupportedTaxKind
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidContract) ||
		errors.Is(err, ErrInvalidRevenue)
}

// IsDataError returns true if the stored data prevents the calculation.
func IsDataError(err error) bool {
	return errors.Is(err, ErrUnsupportedTaxKind)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRentalObjectNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrCurrencyNotFound) ||
		errors.Is(err, ErrTaxNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrCostCenterNotFound)
}
