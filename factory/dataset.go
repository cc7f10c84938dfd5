/*
Package factory provides JSON to Go plant-data conversion.

PURPOSE:
  Converts JSON plant definitions into store records. This enables
  seeding a planning database without code changes - operations staff
  can describe machines, shifts, calendars, and orders in JSON, and
  the factory loads the proper rows.

JSON SCHEMA:
  {
    "machines": [
      {"id": "M-01", "name": "Line 1", "group": "Sewing"}
    ],
    "processes": [
      {"id": "PR-01", "name": "Stitching"}
    ],
    "shifts": [
      {"id": "S1", "name": "Morning", "start": "06:00", "end": "14:00"}
    ],
    "calendars": [
      {
        "id": "CAL-DEFAULT",
        "start_date": "2026-01-01",
        "end_date": "2026-12-31",
        "is_default": true,
        "shifts": ["S1"],
        "off_days": ["sunday"]
      }
    ],
    "orders": [
      {
        "id": "SO-001",
        "customer": "Acme Apparel",
        "order_date": "2026-05-20",
        "delivery_date": "2026-07-15",
        "machine_group": "Sewing",
        "items": [
          {
            "item": "ITM-1", "colour": "Red", "size": "M",
            "quantity": 60,
            "process_minutes": {"Stitching": "10"}
          }
        ]
      }
    ]
  }

KEY FEATURES:
  - Validates references (calendar shifts, weekday names)
  - Sets sensible defaults (shift name from id, working week Mon-Sat)
  - Derives shift-ref minutes from the shift definitions
  - Derives order process lists from item process minutes

USAGE:
  ds, err := factory.ParseDataset(jsonBytes)
  err = factory.Load(ctx, store, ds)

  // Or seed the bundled demo plant
  err = factory.LoadDemo(ctx, store)

SEE ALSO:
  - store/sqlite: Destination of the loaded rows
  - cmd/server/main.go: Seeding on startup
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
	"github.com/warp/capacity-engine/store/sqlite"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Dataset is the JSON representation of a whole plant.
type Dataset struct {
	Machines  []MachineJSON  `json:"machines,omitempty"`
	Processes []ProcessJSON  `json:"processes,omitempty"`
	Shifts    []ShiftJSON    `json:"shifts,omitempty"`
	Calendars []CalendarJSON `json:"calendars,omitempty"`
	Orders    []OrderJSON    `json:"orders,omitempty"`
}

// MachineJSON describes one machine.
type MachineJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Group string `json:"group,omitempty"`
}

// ProcessJSON describes one production process.
type ProcessJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShiftJSON describes one shift with wall-clock bounds.
type ShiftJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarJSON describes one calendar. Off days are weekday names; every
// weekday not listed is a working day.
type CalendarJSON struct {
	ID        string   `json:"id"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Machine   string   `json:"machine,omitempty"`
	IsDefault bool     `json:"is_default,omitempty"`
	Shifts    []string `json:"shifts"`
	OffDays   []string `json:"off_days,omitempty"`
}

// OrderJSON describes one sales order with its schedulable items.
type OrderJSON struct {
	ID           string          `json:"id"`
	Customer     string          `json:"customer,omitempty"`
	OrderDate    string          `json:"order_date,omitempty"`
	DeliveryDate string          `json:"delivery_date,omitempty"`
	MachineGroup string          `json:"machine_group,omitempty"`
	Items        []OrderItemJSON `json:"items"`
}

// OrderItemJSON is one item/colour/size row. Process minutes map process
// name to per-unit minutes, given as strings to keep exact decimals.
type OrderItemJSON struct {
	Item           string            `json:"item"`
	Colour         string            `json:"colour,omitempty"`
	Size           string            `json:"size,omitempty"`
	Quantity       int               `json:"quantity"`
	ProcessMinutes map[string]string `json:"process_minutes"`
}

// =============================================================================
// PARSING
// =============================================================================

var weekdayNames = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

// ParseDataset parses and validates a JSON plant definition.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	shiftIDs := map[string]bool{}
	for _, s := range ds.Shifts {
		if s.ID == "" {
			return fmt.Errorf("shift without id")
		}
		if _, err := schedule.ParseTimeOfDay(s.Start); err != nil {
			return fmt.Errorf("shift %s: %w", s.ID, err)
		}
		if _, err := schedule.ParseTimeOfDay(s.End); err != nil {
			return fmt.Errorf("shift %s: %w", s.ID, err)
		}
		shiftIDs[s.ID] = true
	}

	defaults := 0
	for _, c := range ds.Calendars {
		if c.ID == "" || c.StartDate == "" || c.EndDate == "" {
			return fmt.Errorf("calendar %q: id, start_date, and end_date are required", c.ID)
		}
		if c.IsDefault {
			defaults++
		}
		for _, id := range c.Shifts {
			if !shiftIDs[id] {
				return fmt.Errorf("calendar %s references unknown shift %q", c.ID, id)
			}
		}
		for _, day := range c.OffDays {
			if _, ok := weekdayNames[strings.ToLower(day)]; !ok {
				return fmt.Errorf("calendar %s: unknown weekday %q", c.ID, day)
			}
		}
	}
	if defaults > 1 {
		return fmt.Errorf("dataset declares %d default calendars, want at most 1", defaults)
	}

	for _, o := range ds.Orders {
		if o.ID == "" {
			return fmt.Errorf("order without id")
		}
		for _, item := range o.Items {
			if item.Item == "" {
				return fmt.Errorf("order %s: item without name", o.ID)
			}
			if item.Quantity <= 0 {
				return fmt.Errorf("order %s item %s: quantity must be positive", o.ID, item.Item)
			}
			for process, raw := range item.ProcessMinutes {
				if _, err := decimal.NewFromString(raw); err != nil {
					return fmt.Errorf("order %s item %s process %s: %w", o.ID, item.Item, process, err)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func (s ShiftJSON) toDomain() schedule.Shift {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	// Validated in ParseDataset.
	start, _ := schedule.ParseTimeOfDay(s.Start)
	end, _ := schedule.ParseTimeOfDay(s.End)
	return schedule.Shift{ID: s.ID, Name: name, Start: start, End: end}
}

func (c CalendarJSON) toDomain(shifts map[string]schedule.Shift) *schedule.Calendar {
	cal := &schedule.Calendar{
		ID:        c.ID,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Machine:   c.Machine,
		IsDefault: c.IsDefault,
	}
	for d := range cal.Weekdays {
		cal.Weekdays[d] = true
	}
	for _, day := range c.OffDays {
		cal.Weekdays[weekdayNames[strings.ToLower(day)]] = false
	}
	for _, id := range c.Shifts {
		sh := shifts[id]
		cal.Shifts = append(cal.Shifts, schedule.ShiftRef{
			ShiftID: sh.ID,
			Name:    sh.Name,
			Minutes: sh.Duration(),
		})
	}
	return cal
}

func (o OrderJSON) toDomain() (planner.OrderSummary, *planner.OrderData) {
	summary := planner.OrderSummary{
		ID:           o.ID,
		Customer:     o.Customer,
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
	}
	data := &planner.OrderData{
		ID:           o.ID,
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
		MachineGroup: o.MachineGroup,
	}

	seen := map[string]bool{}
	for _, item := range o.Items {
		row := planner.WorkloadItem{
			Item:     item.Item,
			Colour:   item.Colour,
			Size:     item.Size,
			Quantity: item.Quantity,
		}
		// Map iteration order is random; keep the output stable.
		processes := make([]string, 0, len(item.ProcessMinutes))
		for process := range item.ProcessMinutes {
			processes = append(processes, process)
		}
		sort.Strings(processes)
		for _, process := range processes {
			minutes, _ := decimal.NewFromString(item.ProcessMinutes[process])
			row.ProcessMinutes = append(row.ProcessMinutes, planner.ProcessMinutes{
				Process: process,
				Minutes: minutes,
			})
			if !seen[process] {
				seen[process] = true
				data.Processes = append(data.Processes, process)
			}
		}
		data.Items = append(data.Items, row)
	}
	return summary, data
}

// =============================================================================
// LOADING
// =============================================================================

// Load writes a parsed dataset into the store. Existing rows with the
// same ids are replaced.
func Load(ctx context.Context, store *sqlite.Store, ds *Dataset) error {
	for _, m := range ds.Machines {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		if err := store.PutMachine(ctx, planner.Machine{ID: m.ID, Name: name, Group: m.Group}); err != nil {
			return fmt.Errorf("load machine %s: %w", m.ID, err)
		}
	}
	for _, p := range ds.Processes {
		if err := store.PutProcess(ctx, planner.Process{ID: p.ID, Name: p.Name}); err != nil {
			return fmt.Errorf("load process %s: %w", p.ID, err)
		}
	}

	shifts := map[string]schedule.Shift{}
	for _, sj := range ds.Shifts {
		sh := sj.toDomain()
		shifts[sh.ID] = sh
		if err := store.PutShift(ctx, sh); err != nil {
			return fmt.Errorf("load shift %s: %w", sh.ID, err)
		}
	}
	for _, cj := range ds.Calendars {
		if err := store.PutCalendar(ctx, cj.toDomain(shifts)); err != nil {
			return fmt.Errorf("load calendar %s: %w", cj.ID, err)
		}
	}
	for _, oj := range ds.Orders {
		summary, data := oj.toDomain()
		if err := store.PutOrder(ctx, summary, data); err != nil {
			return fmt.Errorf("load order %s: %w", oj.ID, err)
		}
	}
	return nil
}
