/*
handlers.go - HTTP API handlers for the rent engine

PURPOSE:
  Exposes reference data maintenance and the rent analysis via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  store and the report runner.

ENDPOINTS:
  Rental objects:
    GET    /api/rental-objects                 List active objects
    POST   /api/rental-objects                 Create object
    GET    /api/rental-objects/{id}            Object with actual contract label
    GET    /api/rental-objects/{id}/contracts  All contracts of an object
    POST   /api/contracts                      Create contract

  Reference data:
    GET    /api/groups, POST /api/groups
    GET    /api/currencies, POST /api/currencies
    POST   /api/currencies/{code}/rates
    GET    /api/taxes, POST /api/taxes

  Revenue:
    POST   /api/cost-centers
    GET    /api/cost-centers/{id}/revenues
    POST   /api/revenues

  Analysis (analysis.go):
    GET    /api/rent-analysis
    GET    /api/rent-analysis/export

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error:
  - 400: Validation errors, invalid input
  - 404: Referenced record not found
  - 409: Duplicate currency code
  - 422: Stored data the engine cannot apply (unsupported tax kind)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/report"
	"github.com/warp/rent-engine/rent"
	"github.com/warp/rent-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Reports *report.Runner
	Logger  *slog.Logger
}

// NewHandler creates a handler over the store. Analyses run through reports.
func NewHandler(store *sqlite.Store, reports *report.Runner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Store: store, Reports: reports, Logger: logger}
}

// =============================================================================
// RENTAL OBJECT HANDLERS
// =============================================================================

// ListRentalObjects returns all active rental objects.
func (h *Handler) ListRentalObjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	objects, err := h.Store.ListRentalObjects(ctx)
	if err != nil {
		h.writeDomainError(w, "Failed to list rental objects", err)
		return
	}
	groupNames, err := h.groupNames(r)
	if err != nil {
		h.writeDomainError(w, "Failed to list groups", err)
		return
	}

	dtos := make([]RentalObjectDTO, 0, len(objects))
	for _, o := range objects {
		contracts, err := h.Store.ContractsByObject(ctx, o.ID)
		if err != nil {
			h.writeDomainError(w, "Failed to list contracts", err)
			return
		}
		dtos = append(dtos, toRentalObjectDTO(o, groupNames, contracts))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRentalObject returns one rental object with its actual contract label.
func (h *Handler) GetRentalObject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	obj, err := h.Store.GetRentalObject(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get rental object", err)
		return
	}
	contracts, err := h.Store.ContractsByObject(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to list contracts", err)
		return
	}
	groupNames, err := h.groupNames(r)
	if err != nil {
		h.writeDomainError(w, "Failed to list groups", err)
		return
	}

	writeJSON(w, http.StatusOK, toRentalObjectDTO(*obj, groupNames, contracts))
}

// CreateRentalObject creates a rental object.
func (h *Handler) CreateRentalObject(w http.ResponseWriter, r *http.Request) {
	var req CreateRentalObjectRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	obj := rent.RentalObject{Name: req.Name, GroupID: req.GroupID, AreaSize: req.AreaSize, Active: boolOr(req.Active, true)}
	if err := h.Store.SaveRentalObject(r.Context(), &obj); err != nil {
		h.writeDomainError(w, "Failed to create rental object", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRentalObjectDTO(obj, nil, nil))
}

// ListContracts returns every contract of a rental object, most recent first.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Store.GetRentalObject(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to get rental object", err)
		return
	}

	contracts, err := h.Store.ContractsByObject(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateContract creates a contract. Charges reference currencies and taxes by ID.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !decode(w, r, &req) {
		return
	}

	c := rent.Contract{
		RentalObjectID: req.RentalObjectID,
		Name:           req.Name,
		Number:         req.Number,
		Date:           req.Date,
		ExpirationDate: req.ExpirationDate,
		Type:           req.Type,
		Active:         boolOr(req.Active, true),
	}
	if c.Type == "" {
		c.Type = rent.ContractTypeContract
	}

	charges := []struct {
		kind rent.ChargeKind
		req  ChargeRequest
		dst  *rent.Charge
	}{
		{rent.ChargeRental, req.Rental, &c.Rental},
		{rent.ChargeExploitation, req.Exploitation, &c.Exploitation},
		{rent.ChargeMarketing, req.Marketing, &c.Marketing},
	}
	for _, ch := range charges {
		charge, err := h.resolveCharge(r, ch.req)
		if err != nil {
			h.writeDomainError(w, fmt.Sprintf("Invalid %s charge", ch.kind), err)
			return
		}
		*ch.dst = charge
	}

	if err := h.Store.SaveContract(r.Context(), &c); err != nil {
		h.writeDomainError(w, "Failed to create contract", err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractDTO(c))
}

func (h *Handler) resolveCharge(r *http.Request, req ChargeRequest) (rent.Charge, error) {
	ch := rent.Charge{Rate: req.Rate}
	if req.CurrencyID != nil {
		c, err := h.Store.GetCurrency(r.Context(), *req.CurrencyID)
		if err != nil {
			return ch, err
		}
		ch.Currency = c
	}
	if req.TaxID != nil {
		t, err := h.Store.GetTax(r.Context(), *req.TaxID)
		if err != nil {
			return ch, err
		}
		ch.Tax = t
	}
	return ch, nil
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns the group hierarchy, parents first.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Store.ListGroups(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list groups", err)
		return
	}

	names := rent.FullNames(groups)
	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toGroupDTO(g, names[g.ID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGroup creates a group under an optional parent.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	g := rent.RentalObjectGroup{Name: req.Name, ParentID: req.ParentID, Active: boolOr(req.Active, true)}
	if err := h.Store.SaveGroup(r.Context(), &g); err != nil {
		h.writeDomainError(w, "Failed to create group", err)
		return
	}

	groups, err := h.Store.ListGroups(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list groups", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDTO(g, rent.FullNames(groups)[g.ID]))
}

// =============================================================================
// CURRENCY & TAX HANDLERS
// =============================================================================

func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.Store.ListCurrencies(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list currencies", err)
		return
	}

	dtos := make([]CurrencyDTO, len(currencies))
	for i, c := range currencies {
		dtos[i] = toCurrencyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req CreateCurrencyRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Code) != 3 {
		writeError(w, http.StatusBadRequest, "code must be a 3-letter ISO 4217 code", nil)
		return
	}

	c := rent.Currency{Code: strings.ToUpper(req.Code), Symbol: req.Symbol, DecimalPlaces: 2}
	if req.DecimalPlaces != nil {
		c.DecimalPlaces = *req.DecimalPlaces
	}
	if err := h.Store.SaveCurrency(r.Context(), &c); err != nil {
		h.writeDomainError(w, "Failed to create currency", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCurrencyDTO(c))
}

// CreateRate adds a point to a currency's rate curve.
// POST /api/currencies/{code}/rates
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCurrencyByCode(r.Context(), strings.ToUpper(chi.URLParam(r, "code")))
	if err != nil {
		h.writeDomainError(w, "Failed to get currency", err)
		return
	}

	var req CreateRateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}
	if !req.Rate.IsPositive() {
		writeError(w, http.StatusBadRequest, "rate must be positive", nil)
		return
	}

	rate := currency.Rate{CurrencyID: c.ID, CompanyID: h.Reports.CompanyID, Date: req.Date, Rate: req.Rate}
	if req.CompanyID != nil {
		rate.CompanyID = *req.CompanyID
	}
	if err := h.Store.SaveRate(r.Context(), rate); err != nil {
		h.writeDomainError(w, "Failed to save rate", err)
		return
	}
	writeJSON(w, http.StatusCreated, RateDTO{CurrencyID: rate.CurrencyID, CompanyID: rate.CompanyID, Date: rate.Date, Rate: rate.Rate})
}

func (h *Handler) ListTaxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.Store.ListTaxes(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list taxes", err)
		return
	}

	dtos := make([]TaxDTO, len(taxes))
	for i, t := range taxes {
		dtos[i] = toTaxDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTax stores a tax. Non-percent kinds are accepted here and rejected
// by the engine when a contract uses them.
func (h *Handler) CreateTax(w http.ResponseWriter, r *http.Request) {
	var req CreateTaxRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.AmountType == "" {
		writeError(w, http.StatusBadRequest, "name and amount_type are required", nil)
		return
	}

	t := rent.Tax{Name: req.Name, Amount: req.Amount, AmountType: req.AmountType}
	if err := h.Store.SaveTax(r.Context(), &t); err != nil {
		h.writeDomainError(w, "Failed to create tax", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaxDTO(t))
}

// =============================================================================
// COST CENTER & REVENUE HANDLERS
// =============================================================================

func (h *Handler) CreateCostCenter(w http.ResponseWriter, r *http.Request) {
	var req CreateCostCenterRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	cc := rent.CostCenter{RentalObjectID: req.RentalObjectID, Name: req.Name, AreaSize: req.AreaSize, Active: boolOr(req.Active, true)}
	if err := h.Store.SaveCostCenter(r.Context(), &cc); err != nil {
		h.writeDomainError(w, "Failed to create cost center", err)
		return
	}
	writeJSON(w, http.StatusCreated, CostCenterDTO{
		ID:             cc.ID,
		RentalObjectID: cc.RentalObjectID,
		Name:           cc.Name,
		AreaSize:       cc.AreaSize,
		Active:         cc.Active,
	})
}

// ListRevenues returns planned and actual revenue of a cost center.
// GET /api/cost-centers/{id}/revenues
func (h *Handler) ListRevenues(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Store.GetCostCenter(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to get cost center", err)
		return
	}

	revenues, err := h.Store.ListRevenues(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to list revenues", err)
		return
	}

	dtos := make([]RevenueDTO, len(revenues))
	for i, rv := range revenues {
		dtos[i] = toRevenueDTO(rv)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRevenue stores a revenue figure; its name is derived server-side.
func (h *Handler) CreateRevenue(w http.ResponseWriter, r *http.Request) {
	var req CreateRevenueRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	rv := rent.MonthlyRevenue{Kind: req.Kind, CostCenterID: req.CostCenterID, Date: req.Date, Revenue: req.Revenue, Active: true}
	if err := h.Store.SaveRevenue(r.Context(), &rv); err != nil {
		h.writeDomainError(w, "Failed to create revenue", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRevenueDTO(rv))
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (h *Handler) groupNames(r *http.Request) (map[rent.ID]string, error) {
	groups, err := h.Store.ListGroups(r.Context())
	if err != nil {
		return nil, err
	}
	return rent.FullNames(groups), nil
}

func toRentalObjectDTO(o rent.RentalObject, groupNames map[rent.ID]string, contracts []rent.Contract) RentalObjectDTO {
	dto := RentalObjectDTO{
		ID:             o.ID,
		Name:           o.Name,
		GroupID:        o.GroupID,
		AreaSize:       o.AreaSize,
		Active:         o.Active,
		ActualContract: rent.ActualContractLabel(contracts),
	}
	if o.GroupID != nil {
		dto.GroupName = groupNames[*o.GroupID]
	}
	return dto
}

func toContractDTO(c rent.Contract) ContractDTO {
	return ContractDTO{
		ID:             c.ID,
		RentalObjectID: c.RentalObjectID,
		Name:           c.Name,
		DisplayName:    c.DisplayName(),
		Number:         c.Number,
		Date:           c.Date,
		ExpirationDate: c.ExpirationDate,
		Type:           c.Type,
		Rental:         toChargeDTO(c.Rental),
		Exploitation:   toChargeDTO(c.Exploitation),
		Marketing:      toChargeDTO(c.Marketing),
		Active:         c.Active,
	}
}

func toChargeDTO(ch rent.Charge) ChargeDTO {
	dto := ChargeDTO{Rate: ch.Rate}
	if ch.Currency != nil {
		c := toCurrencyDTO(*ch.Currency)
		dto.Currency = &c
	}
	if ch.Tax != nil {
		t := toTaxDTO(*ch.Tax)
		dto.Tax = &t
	}
	return dto
}

func toCurrencyDTO(c rent.Currency) CurrencyDTO {
	return CurrencyDTO{ID: c.ID, Code: c.Code, Symbol: c.Symbol, DecimalPlaces: c.DecimalPlaces}
}

func toTaxDTO(t rent.Tax) TaxDTO {
	return TaxDTO{ID: t.ID, Name: t.Name, Amount: t.Amount, AmountType: t.AmountType}
}

func toGroupDTO(g rent.RentalObjectGroup, fullName string) GroupDTO {
	return GroupDTO{ID: g.ID, Name: g.Name, FullName: fullName, ParentID: g.ParentID, ParentPath: g.ParentPath, Active: g.Active}
}

func toRevenueDTO(rv rent.MonthlyRevenue) RevenueDTO {
	return RevenueDTO{ID: rv.ID, Kind: rv.Kind, CostCenterID: rv.CostCenterID, Date: rv.Date, Revenue: rv.Revenue, Name: rv.Name}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error taxonomy.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "error", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case rent.IsClientError(err):
		return http.StatusBadRequest
	case rent.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrDuplicateCurrency):
		return http.StatusConflict
	case rent.IsDataError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (rent.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", fmt.Errorf("%q is not a positive integer", raw))
		return 0, false
	}
	return rent.ID(n), true
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
