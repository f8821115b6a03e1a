/*
calculator.go - Rent calculation orchestrator

PURPOSE:
  Entry point of the engine. Walks every rental object, resolves its
  contract intervals, cuts them into month slices and prices each slice.

FLOW (per rental object):
  1. ContractStore.FindActiveContracts(object, from, to)
  2. Partition(range, contracts)         -> intervals
  3. SplitByMonth(interval)              -> month slices
  4. Rater.RateSlice(slice)              -> Segment
  5. Tag with object ID/name, append

OUTPUT ORDER:
  Objects in store order, then chronological. Segments of one object tile
  the requested range exactly.

FAILURES:
  - InvalidRangeError before any store call
  - UnsupportedTaxKindError aborts the whole run, no partial output
  - Store/converter errors are wrapped and returned, never retried

CONCURRENCY:
  Calculate holds no state between calls and writes nothing; concurrent
  calls are safe as long as the collaborators are.

SEE ALSO:
  - partition.go, segment.go, rate.go: Pipeline stages
  - store.go: Collaborators
*/
package rent

import (
	"context"
	"fmt"
	"log/slog"
)

// Query selects what to calculate.
type Query struct {
	Range Period

	// GroupID restricts the run to rental objects in this group's subtree.
	GroupID *ID
}

// Calculator wires the collaborators of a calculation run.
type Calculator struct {
	Objects   RentalObjectStore
	Contracts ContractStore
	Groups    GroupStore // only needed for Query.GroupID
	Rater     *Rater
	Logger    *slog.Logger
}

// NewCalculator creates a calculator reporting in the given currency.
func NewCalculator(objects RentalObjectStore, contracts ContractStore, converter CurrencyConverter, reporting Currency, companyID ID) *Calculator {
	return &Calculator{
		Objects:   objects,
		Contracts: contracts,
		Rater:     &Rater{Converter: converter, Currency: reporting, CompanyID: companyID},
		Logger:    slog.Default(),
	}
}

// Calculate returns the segment rows for q.
func (c *Calculator) Calculate(ctx context.Context, q Query) ([]Segment, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	objects, err := c.Objects.ListRentalObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rental objects: %w", err)
	}

	if q.GroupID != nil {
		objects, err = c.filterByGroup(ctx, objects, *q.GroupID)
		if err != nil {
			return nil, err
		}
	}

	var segments []Segment
	for _, obj := range objects {
		rows, err := c.CalculateObject(ctx, obj, q.Range)
		if err != nil {
			return nil, err
		}
		segments = append(segments, rows...)
	}

	c.logger().Debug("rent calculation done",
		"from", q.Range.Start.String(),
		"to", q.Range.End.String(),
		"objects", len(objects),
		"segments", len(segments),
	)
	return segments, nil
}

// CalculateObject returns the segment rows of a single rental object.
func (c *Calculator) CalculateObject(ctx context.Context, obj RentalObject, rng Period) ([]Segment, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	contracts, err := c.Contracts.FindActiveContracts(ctx, obj.ID, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("find contracts of rental object %d: %w", obj.ID, err)
	}

	intervals := Partition(rng, contracts)
	c.logger().Debug("partitioned rental object",
		"object_id", obj.ID,
		"contracts", len(contracts),
		"intervals", len(intervals),
	)

	var rows []Segment
	for _, iv := range intervals {
		for _, slice := range SplitByMonth(iv) {
			seg, err := c.Rater.RateSlice(ctx, slice)
			if err != nil {
				return nil, fmt.Errorf("rental object %d %s: %w", obj.ID, slice.Period, err)
			}
			seg.RentalObjectID = obj.ID
			seg.RentalObjectName = obj.Name
			rows = append(rows, seg)
		}
	}
	return rows, nil
}

func (c *Calculator) filterByGroup(ctx context.Context, objects []RentalObject, groupID ID) ([]RentalObject, error) {
	if c.Groups == nil {
		return nil, fmt.Errorf("group filter: %w", ErrGroupNotFound)
	}
	root, err := c.Groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	groups, err := c.Groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	subtree := SubtreeIDs(*root, groups)
	var out []RentalObject
	for _, obj := range objects {
		if obj.GroupID != nil && subtree[*obj.GroupID] {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
