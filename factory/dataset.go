/*
Package factory provides JSON to Go dataset conversion.

PURPOSE:
  Converts a JSON dataset (currencies, rates, taxes, groups, rental objects,
  contracts, cost centers, revenue) into domain records and loads them into
  a store. Records reference each other by symbolic keys, not database IDs,
  so one file seeds any empty database.

JSON SCHEMA:
  {
    "currencies": [{"code": "USD", "symbol": "$", "decimal_places": 2}],
    "rates": [{"currency": "UAH", "company_id": 1, "date": "2024-01-01", "rate": "40"}],
    "taxes": [{"key": "vat20", "name": "VAT 20%", "amount": "20", "amount_type": "percent"}],
    "groups": [{"key": "mall", "name": "Mall", "parent": ""}],
    "rental_objects": [{"key": "shop-1", "name": "Shop 1", "group": "mall", "area_size": "42.5"}],
    "contracts": [{
      "object": "shop-1", "number": "C-1", "date": "2024-01-01", "expiration_date": "2024-12-31",
      "type": "contract",
      "rental": {"rate": "1000", "currency": "USD", "tax": "vat20"}
    }],
    "cost_centers": [{"key": "food", "object": "shop-1", "name": "Food court"}],
    "revenues": [{"cost_center": "food", "kind": "actual", "date": "2024-05-01", "revenue": "1500"}]
  }

DEFAULTS:
  - active: true when omitted
  - type: "contract" when omitted
  - decimal_places: 2 when omitted

USAGE:
  ds, err := factory.Parse(data)
  ids, err := factory.Load(ctx, store, ds)

SEE ALSO:
  - store/sqlite: the usual Sink
  - cmd/rentd: "rentd seed"
*/
package factory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/rent"
)

// Sample is a small demo dataset.
//
//go:embed sample.json
var Sample []byte

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Dataset is the JSON representation of a seed file.
type Dataset struct {
	Currencies    []CurrencyJSON     `json:"currencies"`
	Rates         []RateJSON         `json:"rates"`
	Taxes         []TaxJSON          `json:"taxes"`
	Groups        []GroupJSON        `json:"groups"`
	RentalObjects []RentalObjectJSON `json:"rental_objects"`
	Contracts     []ContractJSON     `json:"contracts"`
	CostCenters   []CostCenterJSON   `json:"cost_centers"`
	Revenues      []RevenueJSON      `json:"revenues"`
}

type CurrencyJSON struct {
	Code          string `json:"code"`
	Symbol        string `json:"symbol"`
	DecimalPlaces *int32 `json:"decimal_places,omitempty"`
}

type RateJSON struct {
	Currency  string          `json:"currency"` // currency code
	CompanyID int64           `json:"company_id"`
	Date      rent.Date       `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
}

type TaxJSON struct {
	Key        string          `json:"key"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	AmountType string          `json:"amount_type"`
}

type GroupJSON struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"` // group key, must appear earlier
	Active *bool  `json:"active,omitempty"`
}

type RentalObjectJSON struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Group    string          `json:"group,omitempty"`
	AreaSize decimal.Decimal `json:"area_size"`
	Active   *bool           `json:"active,omitempty"`
}

// ChargeJSON is one monthly charge; currency is a code, tax a tax key.
type ChargeJSON struct {
	Rate     decimal.Decimal `json:"rate"`
	Currency string          `json:"currency,omitempty"`
	Tax      string          `json:"tax,omitempty"`
}

type ContractJSON struct {
	Object         string      `json:"object"` // rental object key
	Name           string      `json:"name,omitempty"`
	Number         string      `json:"number"`
	Date           rent.Date   `json:"date"`
	ExpirationDate rent.Date   `json:"expiration_date"`
	Type           string      `json:"type,omitempty"`
	Rental         *ChargeJSON `json:"rental,omitempty"`
	Exploitation   *ChargeJSON `json:"exploitation,omitempty"`
	Marketing      *ChargeJSON `json:"marketing,omitempty"`
	Active         *bool       `json:"active,omitempty"`
}

type CostCenterJSON struct {
	Key      string          `json:"key"`
	Object   string          `json:"object"`
	Name     string          `json:"name"`
	AreaSize decimal.Decimal `json:"area_size"`
	Active   *bool           `json:"active,omitempty"`
}

type RevenueJSON struct {
	CostCenter string          `json:"cost_center"`
	Kind       string          `json:"kind"`
	Date       rent.Date       `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	Active     *bool           `json:"active,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes and validates a dataset. Every reference must resolve to a
// record defined in the same file.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks key uniqueness and references.
func (ds *Dataset) Validate() error {
	currencies := map[string]bool{}
	for _, c := range ds.Currencies {
		if c.Code == "" {
			return fmt.Errorf("currency without code")
		}
		if currencies[c.Code] {
			return fmt.Errorf("duplicate currency %q", c.Code)
		}
		currencies[c.Code] = true
	}
	for _, r := range ds.Rates {
		if !currencies[r.Currency] {
			return fmt.Errorf("rate references unknown currency %q", r.Currency)
		}
	}

	taxes, err := keys("tax", ds.Taxes, func(t TaxJSON) string { return t.Key })
	if err != nil {
		return err
	}

	groups := map[string]bool{}
	for _, g := range ds.Groups {
		if g.Key == "" || groups[g.Key] {
			return fmt.Errorf("group key %q missing or duplicate", g.Key)
		}
		if g.Parent != "" && !groups[g.Parent] {
			return fmt.Errorf("group %q: parent %q must be defined before it", g.Key, g.Parent)
		}
		groups[g.Key] = true
	}

	objects, err := keys("rental object", ds.RentalObjects, func(o RentalObjectJSON) string { return o.Key })
	if err != nil {
		return err
	}
	for _, o := range ds.RentalObjects {
		if o.Group != "" && !groups[o.Group] {
			return fmt.Errorf("rental object %q references unknown group %q", o.Key, o.Group)
		}
	}

	for i, c := range ds.Contracts {
		if !objects[c.Object] {
			return fmt.Errorf("contract %d (%s) references unknown rental object %q", i, c.Number, c.Object)
		}
		for kind, ch := range map[rent.ChargeKind]*ChargeJSON{
			rent.ChargeRental: c.Rental, rent.ChargeExploitation: c.Exploitation, rent.ChargeMarketing: c.Marketing,
		} {
			if ch == nil {
				continue
			}
			if ch.Currency != "" && !currencies[ch.Currency] {
				return fmt.Errorf("contract %s: %s charge references unknown currency %q", c.Number, kind, ch.Currency)
			}
			if ch.Tax != "" && !taxes[ch.Tax] {
				return fmt.Errorf("contract %s: %s charge references unknown tax %q", c.Number, kind, ch.Tax)
			}
		}
	}

	costCenters, err := keys("cost center", ds.CostCenters, func(c CostCenterJSON) string { return c.Key })
	if err != nil {
		return err
	}
	for _, cc := range ds.CostCenters {
		if !objects[cc.Object] {
			return fmt.Errorf("cost center %q references unknown rental object %q", cc.Key, cc.Object)
		}
	}
	for _, r := range ds.Revenues {
		if !costCenters[r.CostCenter] {
			return fmt.Errorf("revenue references unknown cost center %q", r.CostCenter)
		}
	}
	return nil
}

func keys[T any](what string, items []T, key func(T) string) (map[string]bool, error) {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			return nil, fmt.Errorf("%s without key", what)
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate %s key %q", what, k)
		}
		seen[k] = true
	}
	return seen, nil
}

func active(b *bool) bool {
	return b == nil || *b
}

// =============================================================================
// LOADING
// =============================================================================

// Sink receives the records of a dataset. Save methods assign IDs.
type Sink interface {
	SaveCurrency(ctx context.Context, c *rent.Currency) error
	SaveRate(ctx context.Context, r currency.Rate) error
	SaveTax(ctx context.Context, t *rent.Tax) error
	SaveGroup(ctx context.Context, g *rent.RentalObjectGroup) error
	SaveRentalObject(ctx context.Context, o *rent.RentalObject) error
	SaveContract(ctx context.Context, c *rent.Contract) error
	SaveCostCenter(ctx context.Context, cc *rent.CostCenter) error
	SaveRevenue(ctx context.Context, r *rent.MonthlyRevenue) error
}

// Loaded maps dataset keys to the IDs the sink assigned.
type Loaded struct {
	Currencies    map[string]rent.Currency
	Taxes         map[string]rent.Tax
	Groups        map[string]rent.ID
	RentalObjects map[string]rent.ID
	Contracts     []rent.ID
	CostCenters   map[string]rent.ID
	Revenues      int
}

// Load writes ds into sink in dependency order.
func Load(ctx context.Context, sink Sink, ds *Dataset) (*Loaded, error) {
	out := &Loaded{
		Currencies:    map[string]rent.Currency{},
		Taxes:         map[string]rent.Tax{},
		Groups:        map[string]rent.ID{},
		RentalObjects: map[string]rent.ID{},
		CostCenters:   map[string]rent.ID{},
	}

	for _, cj := range ds.Currencies {
		c := rent.Currency{Code: cj.Code, Symbol: cj.Symbol, DecimalPlaces: 2}
		if cj.DecimalPlaces != nil {
			c.DecimalPlaces = *cj.DecimalPlaces
		}
		if err := sink.SaveCurrency(ctx, &c); err != nil {
			return nil, fmt.Errorf("currency %s: %w", cj.Code, err)
		}
		out.Currencies[c.Code] = c
	}

	for _, rj := range ds.Rates {
		r := currency.Rate{
			CurrencyID: out.Currencies[rj.Currency].ID,
			CompanyID:  rent.ID(rj.CompanyID),
			Date:       rj.Date,
			Rate:       rj.Rate,
		}
		if err := sink.SaveRate(ctx, r); err != nil {
			return nil, fmt.Errorf("rate %s %s: %w", rj.Currency, rj.Date, err)
		}
	}

	for _, tj := range ds.Taxes {
		t := rent.Tax{Name: tj.Name, Amount: tj.Amount, AmountType: rent.TaxAmountType(tj.AmountType)}
		if err := sink.SaveTax(ctx, &t); err != nil {
			return nil, fmt.Errorf("tax %s: %w", tj.Key, err)
		}
		out.Taxes[tj.Key] = t
	}

	for _, gj := range ds.Groups {
		g := rent.RentalObjectGroup{Name: gj.Name, Active: active(gj.Active)}
		if gj.Parent != "" {
			parent := out.Groups[gj.Parent]
			g.ParentID = &parent
		}
		if err := sink.SaveGroup(ctx, &g); err != nil {
			return nil, fmt.Errorf("group %s: %w", gj.Key, err)
		}
		out.Groups[gj.Key] = g.ID
	}

	for _, oj := range ds.RentalObjects {
		o := rent.RentalObject{Name: oj.Name, AreaSize: oj.AreaSize, Active: active(oj.Active)}
		if oj.Group != "" {
			gid := out.Groups[oj.Group]
			o.GroupID = &gid
		}
		if err := sink.SaveRentalObject(ctx, &o); err != nil {
			return nil, fmt.Errorf("rental object %s: %w", oj.Key, err)
		}
		out.RentalObjects[oj.Key] = o.ID
	}

	for _, cj := range ds.Contracts {
		c := out.contract(cj)
		if err := sink.SaveContract(ctx, &c); err != nil {
			return nil, fmt.Errorf("contract %s: %w", cj.Number, err)
		}
		out.Contracts = append(out.Contracts, c.ID)
	}

	for _, ccj := range ds.CostCenters {
		cc := rent.CostCenter{
			RentalObjectID: out.RentalObjects[ccj.Object],
			Name:           ccj.Name,
			AreaSize:       ccj.AreaSize,
			Active:         active(ccj.Active),
		}
		if err := sink.SaveCostCenter(ctx, &cc); err != nil {
			return nil, fmt.Errorf("cost center %s: %w", ccj.Key, err)
		}
		out.CostCenters[ccj.Key] = cc.ID
	}

	for _, rj := range ds.Revenues {
		r := rent.MonthlyRevenue{
			Kind:         rent.RevenueKind(rj.Kind),
			CostCenterID: out.CostCenters[rj.CostCenter],
			Date:         rj.Date,
			Revenue:      rj.Revenue,
			Active:       active(rj.Active),
		}
		if err := sink.SaveRevenue(ctx, &r); err != nil {
			return nil, fmt.Errorf("revenue %s %s: %w", rj.CostCenter, rj.Date, err)
		}
		out.Revenues++
	}

	return out, nil
}

func (l *Loaded) contract(cj ContractJSON) rent.Contract {
	typ := rent.ContractType(cj.Type)
	if typ == "" {
		typ = rent.ContractTypeContract
	}
	return rent.Contract{
		RentalObjectID: l.RentalObjects[cj.Object],
		Name:           cj.Name,
		Number:         cj.Number,
		Date:           cj.Date,
		ExpirationDate: cj.ExpirationDate,
		Type:           typ,
		Rental:         l.charge(cj.Rental),
		Exploitation:   l.charge(cj.Exploitation),
		Marketing:      l.charge(cj.Marketing),
		Active:         active(cj.Active),
	}
}

func (l *Loaded) charge(cj *ChargeJSON) rent.Charge {
	if cj == nil {
		return rent.Charge{Rate: decimal.Zero}
	}
	ch := rent.Charge{Rate: cj.Rate}
	if cj.Currency != "" {
		c := l.Currencies[cj.Currency]
		ch.Currency = &c
	}
	if cj.Tax != "" {
		t := l.Taxes[cj.Tax]
		ch.Tax = &t
	}
	return ch
}
