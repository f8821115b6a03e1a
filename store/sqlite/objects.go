package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/rent-engine/rent"
)

// =============================================================================
// GROUPS
// =============================================================================

// SaveGroup inserts a group, then materialises its parent path from the
// freshly assigned ID.
func (s *Store) SaveGroup(ctx context.Context, g *rent.RentalObjectGroup) error {
	var parent *rent.RentalObjectGroup
	if g.ParentID != nil {
		p, err := s.GetGroup(ctx, *g.ParentID)
		if err != nil {
			return fmt.Errorf("parent of group %q: %w", g.Name, err)
		}
		parent = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insert(ctx, tx,
		"INSERT INTO rental_object_groups (name, parent_id, active, created_at) VALUES (?, ?, ?, ?)",
		g.Name, nullID(g.ParentID), g.Active, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	path := rent.PathFor(id, parent)
	if _, err := tx.ExecContext(ctx, "UPDATE rental_object_groups SET parent_path = ? WHERE id = ?", path, id); err != nil {
		return fmt.Errorf("failed to set group path: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}

	g.ID = id
	g.ParentPath = path
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id rent.ID) (*rent.RentalObjectGroup, error) {
	var (
		g        rent.RentalObjectGroup
		parentID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, parent_id, parent_path, active FROM rental_object_groups WHERE id = ?", id,
	).Scan(&g.ID, &g.Name, &parentID, &g.ParentPath, &g.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", id, rent.ErrGroupNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g.ParentID = idPtr(parentID)
	return &g, nil
}

// ListGroups returns every group ordered by path, so parents precede children.
func (s *Store) ListGroups(ctx context.Context) ([]rent.RentalObjectGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, parent_id, parent_path, active FROM rental_object_groups ORDER BY parent_path, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var out []rent.RentalObjectGroup
	for rows.Next() {
		var (
			g        rent.RentalObjectGroup
			parentID sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Name, &parentID, &g.ParentPath, &g.Active); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		g.ParentID = idPtr(parentID)
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// RENTAL OBJECTS
// =============================================================================

func (s *Store) SaveRentalObject(ctx context.Context, o *rent.RentalObject) error {
	if o.GroupID != nil {
		if _, err := s.GetGroup(ctx, *o.GroupID); err != nil {
			return err
		}
	}
	id, err := insert(ctx, s.db,
		"INSERT INTO rental_objects (name, group_id, area_size, active, created_at) VALUES (?, ?, ?, ?, ?)",
		o.Name, nullID(o.GroupID), o.AreaSize.String(), o.Active, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rental object: %w", err)
	}
	o.ID = id
	return nil
}

func (s *Store) GetRentalObject(ctx context.Context, id rent.ID) (*rent.RentalObject, error) {
	objects, err := s.queryRentalObjects(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("rental object %d: %w", id, rent.ErrRentalObjectNotFound)
	}
	return &objects[0], nil
}

// ListRentalObjects returns active rental objects ordered by ID.
func (s *Store) ListRentalObjects(ctx context.Context) ([]rent.RentalObject, error) {
	return s.queryRentalObjects(ctx, "WHERE active = TRUE")
}

func (s *Store) queryRentalObjects(ctx context.Context, where string, args ...any) ([]rent.RentalObject, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, group_id, area_size, active FROM rental_objects "+where+" ORDER BY id", args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rental objects: %w", err)
	}
	defer rows.Close()

	var out []rent.RentalObject
	for rows.Next() {
		var (
			o       rent.RentalObject
			groupID sql.NullInt64
			area    string
		)
		if err := rows.Scan(&o.ID, &o.Name, &groupID, &area, &o.Active); err != nil {
			return nil, fmt.Errorf("failed to scan rental object: %w", err)
		}
		o.GroupID = idPtr(groupID)
		if o.AreaSize, err = parseDecimal(area); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// =============================================================================
// COST CENTERS & REVENUE
// =============================================================================

func (s *Store) SaveCostCenter(ctx context.Context, cc *rent.CostCenter) error {
	if _, err := s.GetRentalObject(ctx, cc.RentalObjectID); err != nil {
		return err
	}
	id, err := insert(ctx, s.db,
		"INSERT INTO cost_centers (rental_object_id, name, area_size, active, created_at) VALUES (?, ?, ?, ?, ?)",
		cc.RentalObjectID, cc.Name, cc.AreaSize.String(), cc.Active, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save cost center: %w", err)
	}
	cc.ID = id
	return nil
}

func (s *Store) GetCostCenter(ctx context.Context, id rent.ID) (*rent.CostCenter, error) {
	var (
		cc   rent.CostCenter
		area string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, rental_object_id, name, area_size, active FROM cost_centers WHERE id = ?", id,
	).Scan(&cc.ID, &cc.RentalObjectID, &cc.Name, &area, &cc.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cost center %d: %w", id, rent.ErrCostCenterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cost center: %w", err)
	}
	if cc.AreaSize, err = parseDecimal(area); err != nil {
		return nil, err
	}
	return &cc, nil
}

// SaveRevenue inserts a revenue figure. The name is always derived from the
// cost center, date and amount.
func (s *Store) SaveRevenue(ctx context.Context, r *rent.MonthlyRevenue) error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown revenue kind %q", rent.ErrInvalidRevenue, r.Kind)
	}
	cc, err := s.GetCostCenter(ctx, r.CostCenterID)
	if err != nil {
		return err
	}

	r.Name = rent.RevenueName(cc.Name, r.Date, r.Revenue)
	id, err := insert(ctx, s.db,
		"INSERT INTO monthly_revenues (kind, cost_center_id, date, revenue, name, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(r.Kind), r.CostCenterID, r.Date.String(), r.Revenue.String(), r.Name, r.Active, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save revenue: %w", err)
	}
	r.ID = id
	return nil
}

// ListRevenues returns the active revenue of a cost center ordered by date,
// then in insertion order, so planned and actual figures of one date come
// back in the order they were recorded.
func (s *Store) ListRevenues(ctx context.Context, costCenterID rent.ID) ([]rent.MonthlyRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, cost_center_id, date, revenue, name, active
		FROM monthly_revenues
		WHERE cost_center_id = ? AND active = TRUE
		ORDER BY date, id
	`, costCenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revenues: %w", err)
	}
	defer rows.Close()

	var out []rent.MonthlyRevenue
	for rows.Next() {
		var (
			r             rent.MonthlyRevenue
			date, revenue string
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.CostCenterID, &date, &revenue, &r.Name, &r.Active); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if r.Revenue, err = parseDecimal(revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
