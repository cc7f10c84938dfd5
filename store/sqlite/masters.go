/*
masters.go - Master data queries

PURPOSE:
  Read-only queries for machines, processes, orders, and the per-order
  planning detail (workload rows with per-process minutes).
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
)

// ListMachines returns all machines ordered by id.
func (s *Store) ListMachines(ctx context.Context) ([]planner.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, machine_group FROM machines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	var out []planner.Machine
	for rows.Next() {
		var m planner.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Group); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListProcesses returns all processes ordered by name.
func (s *Store) ListProcesses(ctx context.Context) ([]planner.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM processes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var out []planner.Process
	for rows.Next() {
		var p planner.Process
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOrders returns all orders, most recent order date first.
func (s *Store) ListOrders(ctx context.Context) ([]planner.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, customer, order_date, delivery_date FROM orders ORDER BY order_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []planner.OrderSummary
	for rows.Next() {
		var o planner.OrderSummary
		if err := rows.Scan(&o.ID, &o.Customer, &o.OrderDate, &o.DeliveryDate); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrderData loads the full planning detail of one order: its workload
// rows and the per-unit minutes of every applicable process.
func (s *Store) GetOrderData(ctx context.Context, order string) (*planner.OrderData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := &planner.OrderData{ID: order}
	err := s.db.QueryRowContext(ctx,
		`SELECT order_date, delivery_date, machine_group FROM orders WHERE id = ?`, order).
		Scan(&data.OrderDate, &data.DeliveryDate, &data.MachineGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", order, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", order, err)
	}

	// Per item/process minutes, keyed by item for attachment below.
	minutesByItem := map[string][]planner.ProcessMinutes{}
	seenProcess := map[string]bool{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT item, process, minutes FROM order_item_processes WHERE order_id = ? ORDER BY process`, order)
	if err != nil {
		return nil, fmt.Errorf("order %s processes: %w", order, err)
	}
	defer rows.Close()
	for rows.Next() {
		var item, process, minutes string
		if err := rows.Scan(&item, &process, &minutes); err != nil {
			return nil, err
		}
		m, err := decimal.NewFromString(minutes)
		if err != nil {
			return nil, fmt.Errorf("order %s process %s minutes: %w", order, process, err)
		}
		minutesByItem[item] = append(minutesByItem[item], planner.ProcessMinutes{Process: process, Minutes: m})
		if !seenProcess[process] {
			seenProcess[process] = true
			data.Processes = append(data.Processes, process)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.db.QueryContext(ctx,
		`SELECT item, colour, size, quantity FROM order_items WHERE order_id = ? ORDER BY item, colour, size`, order)
	if err != nil {
		return nil, fmt.Errorf("order %s items: %w", order, err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var w planner.WorkloadItem
		if err := itemRows.Scan(&w.Item, &w.Colour, &w.Size, &w.Quantity); err != nil {
			return nil, err
		}
		w.ProcessMinutes = minutesByItem[w.Item]
		data.Items = append(data.Items, w)
	}
	return data, itemRows.Err()
}

// PutMachine inserts or replaces a machine record.
func (s *Store) PutMachine(ctx context.Context, m planner.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO machines (id, name, machine_group) VALUES (?, ?, ?)`,
		m.ID, m.Name, m.Group)
	return err
}

// PutProcess inserts or replaces a process record.
func (s *Store) PutProcess(ctx context.Context, p planner.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO processes (id, name) VALUES (?, ?)`, p.ID, p.Name)
	return err
}

// PutOrder inserts or replaces an order with its workload detail.
func (s *Store) PutOrder(ctx context.Context, summary planner.OrderSummary, data *planner.OrderData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO orders (id, customer, order_date, delivery_date, machine_group)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.ID, summary.Customer, summary.OrderDate, summary.DeliveryDate, data.MachineGroup); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, summary.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_item_processes WHERE order_id = ?`, summary.ID); err != nil {
		return err
	}
	for _, w := range data.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, item, colour, size, quantity) VALUES (?, ?, ?, ?, ?)`,
			summary.ID, w.Item, w.Colour, w.Size, w.Quantity); err != nil {
			return err
		}
		for _, pm := range w.ProcessMinutes {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO order_item_processes (order_id, item, process, minutes)
				 VALUES (?, ?, ?, ?)`,
				summary.ID, w.Item, pm.Process, pm.Minutes.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
