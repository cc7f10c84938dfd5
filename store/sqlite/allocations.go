/*
allocations.go - Saved allocation rows

PURPOSE:
  The planner saves by replacement: every allocation in the visible
  range arrives in one payload, rows with persisted ids are updated,
  new rows are deduplicated by content key before insert, and anything
  in the range that was not part of the payload is deleted.

CONFLICT RULE:
  A payload row carrying a persisted id the store no longer holds means
  another session deleted it. The whole save fails with ErrConflict and
  nothing is written; the planner reports and keeps its local state.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
)

// Allocations returns the saved rows with operation dates inside
// [startDate, endDate], ordered by date.
func (s *Store) Allocations(ctx context.Context, startDate, endDate string) ([]planner.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, machine, operation_date, order_id, process, colour, size, item, quantity, minutes
		 FROM allocations
		 WHERE operation_date BETWEEN ? AND ?
		 ORDER BY operation_date, id`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []planner.Allocation
	for rows.Next() {
		var a planner.Allocation
		var id, minutes string
		if err := rows.Scan(&id, &a.Machine, &a.Date, &a.Order, &a.Process,
			&a.Colour, &a.Size, &a.Item, &a.Quantity, &minutes); err != nil {
			return nil, err
		}
		a.Ident = planner.Ident{ID: id}
		if a.Minutes, err = decimal.NewFromString(minutes); err != nil {
			return nil, fmt.Errorf("allocation %s minutes: %w", id, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveAllocations replaces the range [startDate, endDate] with the given
// rows and returns them with persisted ids filled in.
func (s *Store) SaveAllocations(ctx context.Context, allocs []planner.Allocation, startDate, endDate string) ([]planner.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	saved := make([]planner.Allocation, 0, len(allocs))
	kept := make(map[string]bool, len(allocs))

	for _, a := range allocs {
		id := a.Ident.ID
		switch {
		case id != "":
			res, err := tx.ExecContext(ctx,
				`UPDATE allocations
				 SET machine = ?, operation_date = ?, order_id = ?, process = ?,
				     colour = ?, size = ?, item = ?, quantity = ?, minutes = ?
				 WHERE id = ?`,
				a.Machine, a.Date, a.Order, a.Process, a.Colour, a.Size, a.Item,
				a.Quantity, a.Minutes.String(), id)
			if err != nil {
				return nil, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, fmt.Errorf("allocation %s: %w", id, ErrConflict)
			}
		default:
			// Content-key dedup: an unsaved row matching an existing row's
			// key updates it instead of duplicating it.
			var existing string
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM allocations
				 WHERE machine = ? AND order_id = ? AND item = ? AND process = ?
				   AND colour = ? AND size = ? AND operation_date = ?
				 LIMIT 1`,
				a.Machine, a.Order, a.Item, a.Process, a.Colour, a.Size, a.Date).
				Scan(&existing)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
			if existing != "" {
				id = existing
				if _, err := tx.ExecContext(ctx,
					`UPDATE allocations SET quantity = ?, minutes = ? WHERE id = ?`,
					a.Quantity, a.Minutes.String(), id); err != nil {
					return nil, err
				}
			} else {
				id = "MO-" + uuid.NewString()
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO allocations
					 (id, machine, operation_date, order_id, process, colour, size, item, quantity, minutes)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					id, a.Machine, a.Date, a.Order, a.Process, a.Colour, a.Size,
					a.Item, a.Quantity, a.Minutes.String()); err != nil {
					return nil, err
				}
			}
		}
		kept[id] = true
		a.Ident = planner.Ident{ID: id}
		saved = append(saved, a)
	}

	// Delete orphans: rows in range that the payload no longer contains.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM allocations WHERE operation_date BETWEEN ? AND ?`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		if !kept[id] {
			orphans = append(orphans, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, id := range orphans {
		if _, err := tx.ExecContext(ctx, `DELETE FROM allocations WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}
