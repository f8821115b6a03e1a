/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are decimal strings ("1234.50"), never JSON numbers, so clients
  do not round-trip them through floats.

DATES:
  "YYYY-MM-DD" everywhere.

SEE ALSO:
  - handlers.go: Uses these types
  - analysis.go: Rent analysis responses
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/rent"
)

// =============================================================================
// REFERENCE DATA
// =============================================================================

type CurrencyDTO struct {
	ID            rent.ID `json:"id"`
	Code          string  `json:"code"`
	Symbol        string  `json:"symbol"`
	DecimalPlaces int32   `json:"decimal_places"`
}

type CreateCurrencyRequest struct {
	Code          string `json:"code"`
	Symbol        string `json:"symbol"`
	DecimalPlaces *int32 `json:"decimal_places,omitempty"`
}

// CreateRateRequest adds a point to a currency's rate curve. CompanyID
// defaults to the configured reporting company.
type CreateRateRequest struct {
	CompanyID *rent.ID        `json:"company_id,omitempty"`
	Date      rent.Date       `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
}

type RateDTO struct {
	CurrencyID rent.ID         `json:"currency_id"`
	CompanyID  rent.ID         `json:"company_id"`
	Date       rent.Date       `json:"date"`
	Rate       decimal.Decimal `json:"rate"`
}

type TaxDTO struct {
	ID         rent.ID            `json:"id"`
	Name       string             `json:"name"`
	Amount     decimal.Decimal    `json:"amount"`
	AmountType rent.TaxAmountType `json:"amount_type"`
}

type CreateTaxRequest struct {
	Name       string             `json:"name"`
	Amount     decimal.Decimal    `json:"amount"`
	AmountType rent.TaxAmountType `json:"amount_type"`
}

// =============================================================================
// GROUPS & RENTAL OBJECTS
// =============================================================================

type GroupDTO struct {
	ID         rent.ID  `json:"id"`
	Name       string   `json:"name"`
	FullName   string   `json:"full_name"`
	ParentID   *rent.ID `json:"parent_id,omitempty"`
	ParentPath string   `json:"parent_path"`
	Active     bool     `json:"active"`
}

type CreateGroupRequest struct {
	Name     string   `json:"name"`
	ParentID *rent.ID `json:"parent_id,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}

type RentalObjectDTO struct {
	ID             rent.ID         `json:"id"`
	Name           string          `json:"name"`
	GroupID        *rent.ID        `json:"group_id,omitempty"`
	GroupName      string          `json:"group_name,omitempty"`
	AreaSize       decimal.Decimal `json:"area_size"`
	Active         bool            `json:"active"`
	ActualContract string          `json:"actual_contract"`
}

type CreateRentalObjectRequest struct {
	Name     string          `json:"name"`
	GroupID  *rent.ID        `json:"group_id,omitempty"`
	AreaSize decimal.Decimal `json:"area_size"`
	Active   *bool           `json:"active,omitempty"`
}

// =============================================================================
// CONTRACTS
// =============================================================================

type ChargeDTO struct {
	Rate     decimal.Decimal `json:"rate"`
	Currency *CurrencyDTO    `json:"currency,omitempty"`
	Tax      *TaxDTO         `json:"tax,omitempty"`
}

type ContractDTO struct {
	ID             rent.ID           `json:"id"`
	RentalObjectID rent.ID           `json:"rental_object_id"`
	Name           string            `json:"name"`
	DisplayName    string            `json:"display_name"`
	Number         string            `json:"number"`
	Date           rent.Date         `json:"date"`
	ExpirationDate rent.Date         `json:"expiration_date"`
	Type           rent.ContractType `json:"type"`
	Rental         ChargeDTO         `json:"rental"`
	Exploitation   ChargeDTO         `json:"exploitation"`
	Marketing      ChargeDTO         `json:"marketing"`
	Active         bool              `json:"active"`
}

// ChargeRequest references currency and tax by ID.
type ChargeRequest struct {
	Rate       decimal.Decimal `json:"rate"`
	CurrencyID *rent.ID        `json:"currency_id,omitempty"`
	TaxID      *rent.ID        `json:"tax_id,omitempty"`
}

type CreateContractRequest struct {
	RentalObjectID rent.ID           `json:"rental_object_id"`
	Name           string            `json:"name"`
	Number         string            `json:"number"`
	Date           rent.Date         `json:"date"`
	ExpirationDate rent.Date         `json:"expiration_date"`
	Type           rent.ContractType `json:"type"`
	Rental         ChargeRequest     `json:"rental"`
	Exploitation   ChargeRequest     `json:"exploitation"`
	Marketing      ChargeRequest     `json:"marketing"`
	Active         *bool             `json:"active,omitempty"`
}

// =============================================================================
// COST CENTERS & REVENUE
// =============================================================================

type CostCenterDTO struct {
	ID             rent.ID         `json:"id"`
	RentalObjectID rent.ID         `json:"rental_object_id"`
	Name           string          `json:"name"`
	AreaSize       decimal.Decimal `json:"area_size"`
	Active         bool            `json:"active"`
}

type CreateCostCenterRequest struct {
	RentalObjectID rent.ID         `json:"rental_object_id"`
	Name           string          `json:"name"`
	AreaSize       decimal.Decimal `json:"area_size"`
	Active         *bool           `json:"active,omitempty"`
}

type RevenueDTO struct {
	ID           rent.ID          `json:"id"`
	Kind         rent.RevenueKind `json:"kind"`
	CostCenterID rent.ID          `json:"cost_center_id"`
	Date         rent.Date        `json:"date"`
	Revenue      decimal.Decimal  `json:"revenue"`
	Name         string           `json:"name"`
}

type CreateRevenueRequest struct {
	Kind         rent.RevenueKind `json:"kind"`
	CostCenterID rent.ID          `json:"cost_center_id"`
	Date         rent.Date        `json:"date"`
	Revenue      decimal.Decimal  `json:"revenue"`
}

// =============================================================================
// RENT ANALYSIS
// =============================================================================

type ChargeAmountDTO struct {
	Original       decimal.Decimal `json:"original"`
	CurrencySymbol string          `json:"currency_symbol"`
	TaxName        string          `json:"tax_name,omitempty"`
	Converted      decimal.Decimal `json:"converted"`
}

type SegmentDTO struct {
	RentalObjectID   rent.ID         `json:"rental_object_id"`
	RentalObjectName string          `json:"rental_object_name"`
	DateFrom         rent.Date       `json:"date_from"`
	DateTo           rent.Date       `json:"date_to"`
	DaysInPeriod     int             `json:"days_in_period"`
	DaysInMonth      int             `json:"days_in_month"`
	ReportYear       int             `json:"report_year"`
	ReportMonth      int             `json:"report_month"`
	ReportDate       rent.Date       `json:"report_date"`
	ContractID       *rent.ID        `json:"contract_id"`
	ContractName     string          `json:"contract_name"`
	Rental           ChargeAmountDTO `json:"rental"`
	Exploitation     ChargeAmountDTO `json:"exploitation"`
	Marketing        ChargeAmountDTO `json:"marketing"`
	Total            decimal.Decimal `json:"total"`
	CurrencySymbol   string          `json:"currency_symbol"`
}

type TotalsDTO struct {
	Rental       decimal.Decimal `json:"rental"`
	Exploitation decimal.Decimal `json:"exploitation"`
	Marketing    decimal.Decimal `json:"marketing"`
	Total        decimal.Decimal `json:"total"`
}

type ObjectSummaryDTO struct {
	RentalObjectID   rent.ID `json:"rental_object_id"`
	RentalObjectName string  `json:"rental_object_name"`
	TotalsDTO
}

type MonthSummaryDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	TotalsDTO
}

// AnalysisResponse is the body of GET /api/rent-analysis.
type AnalysisResponse struct {
	RunID    string             `json:"run_id"`
	DateFrom rent.Date          `json:"date_from"`
	DateTo   rent.Date          `json:"date_to"`
	Currency CurrencyDTO        `json:"currency"`
	Segments []SegmentDTO       `json:"segments"`
	ByObject []ObjectSummaryDTO `json:"by_object"`
	ByMonth  []MonthSummaryDTO  `json:"by_month"`
	Total    TotalsDTO          `json:"total"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
