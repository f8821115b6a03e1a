// Package store provides in-memory collaborator implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/rent-engine/currency"
	"github.com/warp/rent-engine/rent"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	nextID    rent.ID
	objects   map[rent.ID]rent.RentalObject
	contracts map[rent.ID]rent.Contract
	groups    map[rent.ID]rent.RentalObjectGroup
	rates     map[rateKey][]currency.Rate
}

type rateKey struct {
	CompanyID  rent.ID
	CurrencyID rent.ID
}

var (
	_ rent.RentalObjectStore = (*Memory)(nil)
	_ rent.ContractStore     = (*Memory)(nil)
	_ rent.GroupStore        = (*Memory)(nil)
	_ currency.RateSource    = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		objects:   make(map[rent.ID]rent.RentalObject),
		contracts: make(map[rent.ID]rent.Contract),
		groups:    make(map[rent.ID]rent.RentalObjectGroup),
		rates:     make(map[rateKey][]currency.Rate),
	}
}

func (m *Memory) allocID(id rent.ID) rent.ID {
	if id == 0 {
		m.nextID++
		return m.nextID
	}
	if id > m.nextID {
		m.nextID = id
	}
	return id
}

// AddRentalObject stores an object, assigning an ID when zero.
func (m *Memory) AddRentalObject(obj rent.RentalObject) rent.RentalObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj.ID = m.allocID(obj.ID)
	m.objects[obj.ID] = obj
	return obj
}

// AddContract stores a contract, assigning an ID when zero.
func (m *Memory) AddContract(c rent.Contract) rent.Contract {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.allocID(c.ID)
	m.contracts[c.ID] = c
	return c
}

// AddGroup stores a group and materialises its ParentPath.
func (m *Memory) AddGroup(g rent.RentalObjectGroup) (rent.RentalObjectGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parent *rent.RentalObjectGroup
	if g.ParentID != nil {
		p, ok := m.groups[*g.ParentID]
		if !ok {
			return rent.RentalObjectGroup{}, fmt.Errorf("parent %d: %w", *g.ParentID, rent.ErrGroupNotFound)
		}
		parent = &p
	}
	g.ID = m.allocID(g.ID)
	g.ParentPath = rent.PathFor(g.ID, parent)
	m.groups[g.ID] = g
	return g, nil
}

// AddRate appends a point to a currency's rate curve.
func (m *Memory) AddRate(r currency.Rate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := rateKey{CompanyID: r.CompanyID, CurrencyID: r.CurrencyID}
	rates := append(m.rates[k], r)
	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Date.Before(rates[j].Date) })
	m.rates[k] = rates
}

func (m *Memory) ListRentalObjects(_ context.Context) ([]rent.RentalObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []rent.RentalObject
	for _, o := range m.objects {
		if o.Active {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindActiveContracts(_ context.Context, objectID rent.ID, from, to rent.Date) ([]rent.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rng := rent.Period{Start: from, End: to}
	var out []rent.Contract
	for _, c := range m.contracts {
		if c.RentalObjectID == objectID && c.Active && c.Period().Overlaps(rng) {
			out = append(out, c)
		}
	}
	return rent.SortByRecency(out), nil
}

func (m *Memory) GetGroup(_ context.Context, id rent.ID) (*rent.RentalObjectGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %d: %w", id, rent.ErrGroupNotFound)
	}
	return &g, nil
}

func (m *Memory) ListGroups(_ context.Context) ([]rent.RentalObjectGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]rent.RentalObjectGroup, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListRates(_ context.Context, companyID, currencyID rent.ID) ([]currency.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rates := m.rates[rateKey{CompanyID: companyID, CurrencyID: currencyID}]
	out := make([]currency.Rate, len(rates))
	copy(out, rates)
	return out, nil
}
