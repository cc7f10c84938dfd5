/*
masters.go - Master data consumed by the board

PURPOSE:
  Read-only reference records loaded from the remote collaborator:
  machines, processes, orders, and the per-order planning detail (workload
  items with their per-process minutes). The board never mutates these.
*/
package planner

import (
	"github.com/shopspring/decimal"
)

// Machine is a production machine. Group is the grouping attribute used
// for compatibility checks against an order's items.
type Machine struct {
	ID    string
	Name  string
	Group string
}

// Process is a named production process.
type Process struct {
	ID   string
	Name string
}

// OrderSummary is the minimal order record shown in the order picker.
type OrderSummary struct {
	ID           string
	Customer     string
	OrderDate    string
	DeliveryDate string
}

// ProcessMinutes is the per-unit duration of one process for an item.
type ProcessMinutes struct {
	Process string
	Minutes decimal.Decimal
}

// WorkloadItem is one schedulable row of an order: an item/colour/size
// combination with its total quantity and per-process minutes.
type WorkloadItem struct {
	Item           string
	Colour         string
	Size           string
	Quantity       int
	ProcessMinutes []ProcessMinutes
}

// MinutesFor returns the per-unit minutes of the item for a process, or
// zero when the process is not applicable.
func (w WorkloadItem) MinutesFor(process string) decimal.Decimal {
	for _, pm := range w.ProcessMinutes {
		if pm.Process == process {
			return pm.Minutes
		}
	}
	return decimal.Zero
}

// ValidForProcess reports whether the item can be scheduled under the
// process. No selected process, or an item without process data, is
// always valid.
func (w WorkloadItem) ValidForProcess(process string) bool {
	if process == "" || len(w.ProcessMinutes) == 0 {
		return true
	}
	for _, pm := range w.ProcessMinutes {
		if pm.Process == process && pm.Minutes.IsPositive() {
			return true
		}
	}
	return false
}

// OrderData is the full planning detail of one order.
type OrderData struct {
	ID           string
	OrderDate    string
	DeliveryDate string

	// MachineGroup restricts which machines can work this order's items;
	// empty means any machine.
	MachineGroup string

	// Processes applicable to this order, in display order.
	Processes []string

	Items []WorkloadItem
}

// CompatibleMachine reports whether a machine may take this order's work.
func (o *OrderData) CompatibleMachine(m Machine) bool {
	return o.MachineGroup == "" || m.Group == o.MachineGroup
}

// AllocationStatus grades how much of a workload item is already placed.
type AllocationStatus string

const (
	StatusNone     AllocationStatus = "none"
	StatusPartial  AllocationStatus = "partial"
	StatusComplete AllocationStatus = "complete"
)

// WorkloadStatus grades a workload item against the quantity already
// allocated for the given order and process.
func (b *Board) WorkloadStatus(order, process string, item WorkloadItem) AllocationStatus {
	allocated := b.AllocatedQuantity(order, process, item.Colour, item.Size)
	switch {
	case item.Quantity > 0 && allocated >= item.Quantity:
		return StatusComplete
	case allocated > 0:
		return StatusPartial
	default:
		return StatusNone
	}
}
