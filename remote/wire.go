/*
wire.go - JSON wire types shared with the collaborator

PURPOSE:
  The collaborator's payloads keep the field names of the upstream planning
  schema (machine_id, operation_date, allocated_minutes, ...). This file
  isolates those names in DTO structs and converts to and from the domain
  types, so the rest of the module never sees snake_case.

SEE ALSO:
  - http.go: Serializes these over HTTP
  - api/wire.go: The server-side twin
*/
package remote

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
)

// =============================================================================
// MASTER DATA
// =============================================================================

type machineDTO struct {
	ID    string `json:"machine_id"`
	Name  string `json:"machine_name"`
	Group string `json:"machine_gg"`
}

type processDTO struct {
	ID   string `json:"name"`
	Name string `json:"process_name"`
}

type orderSummaryDTO struct {
	ID           string `json:"name"`
	Customer     string `json:"customer"`
	OrderDate    string `json:"order_date"`
	DeliveryDate string `json:"delivery_date"`
}

type processMinutesDTO struct {
	Process string          `json:"process_name"`
	Minutes decimal.Decimal `json:"minutes"`
}

type workloadItemDTO struct {
	Item           string              `json:"item"`
	Colour         string              `json:"colour"`
	Size           string              `json:"size"`
	Quantity       int                 `json:"quantity"`
	ProcessMinutes []processMinutesDTO `json:"processes"`
}

type orderDataDTO struct {
	ID           string            `json:"name"`
	OrderDate    string            `json:"order_date"`
	DeliveryDate string            `json:"delivery_date"`
	MachineGroup string            `json:"machine_gg"`
	Processes    []string          `json:"process_names"`
	Items        []workloadItemDTO `json:"order_details"`
}

func (d orderDataDTO) toDomain() *planner.OrderData {
	items := make([]planner.WorkloadItem, 0, len(d.Items))
	for _, it := range d.Items {
		pms := make([]planner.ProcessMinutes, 0, len(it.ProcessMinutes))
		for _, pm := range it.ProcessMinutes {
			pms = append(pms, planner.ProcessMinutes{Process: pm.Process, Minutes: pm.Minutes})
		}
		items = append(items, planner.WorkloadItem{
			Item:           it.Item,
			Colour:         it.Colour,
			Size:           it.Size,
			Quantity:       it.Quantity,
			ProcessMinutes: pms,
		})
	}
	return &planner.OrderData{
		ID:           d.ID,
		OrderDate:    d.OrderDate,
		DeliveryDate: d.DeliveryDate,
		MachineGroup: d.MachineGroup,
		Processes:    d.Processes,
		Items:        items,
	}
}

// =============================================================================
// SCHEDULE DATA
// =============================================================================

type shiftDTO struct {
	ID    string `json:"name"`
	Name  string `json:"shift_name"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

type shiftRefDTO struct {
	ShiftID string          `json:"shift"`
	Name    string          `json:"shift_name"`
	Minutes decimal.Decimal `json:"duration_minutes"`
}

type alterationDTO struct {
	ID       string          `json:"name"`
	Calendar string          `json:"parent"`
	Date     string          `json:"date"`
	Kind     string          `json:"alteration_type"`
	Minutes  decimal.Decimal `json:"minutes"`
	Machine  string          `json:"machine"`
	Reason   string          `json:"reason"`
}

func alterationToWire(a schedule.Alteration) alterationDTO {
	return alterationDTO{
		ID:       a.ID,
		Calendar: a.Calendar,
		Date:     a.Date,
		Kind:     string(a.Kind),
		Minutes:  a.Minutes,
		Machine:  a.Machine,
		Reason:   a.Reason,
	}
}

func (d alterationDTO) toDomain() schedule.Alteration {
	return schedule.Alteration{
		ID:       d.ID,
		Calendar: d.Calendar,
		Date:     d.Date,
		Kind:     schedule.AlterationKind(d.Kind),
		Minutes:  d.Minutes,
		Machine:  d.Machine,
		Reason:   d.Reason,
	}
}

type calendarDTO struct {
	ID          string          `json:"name"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Machine     string          `json:"machine"`
	IsDefault   bool            `json:"is_default"`
	Shifts      []shiftRefDTO   `json:"shifts"`
	Alterations []alterationDTO `json:"alterations"`
	// Weekday working flags, matching the upstream schema field per day.
	Sunday    bool `json:"sunday"`
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
}

func (d calendarDTO) toDomain() *schedule.Calendar {
	cal := &schedule.Calendar{
		ID:        d.ID,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		Machine:   d.Machine,
		IsDefault: d.IsDefault,
		Weekdays: [7]bool{
			d.Sunday, d.Monday, d.Tuesday, d.Wednesday,
			d.Thursday, d.Friday, d.Saturday,
		},
	}
	for _, ref := range d.Shifts {
		cal.Shifts = append(cal.Shifts, schedule.ShiftRef{
			ShiftID: ref.ShiftID,
			Name:    ref.Name,
			Minutes: ref.Minutes,
		})
	}
	for _, alt := range d.Alterations {
		cal.Alterations = append(cal.Alterations, alt.toDomain())
	}
	return cal
}

type dayShiftDTO struct {
	Calendar    string          `json:"calendar"`
	Machine     string          `json:"machine"`
	IsOffDay    bool            `json:"is_off_day"`
	Minutes     decimal.Decimal `json:"total_duration_minutes"`
	Shifts      []shiftRefDTO   `json:"shifts"`
	Alterations []alterationDTO `json:"alterations"`
}

func (d dayShiftDTO) toDomain() schedule.DayShift {
	entry := schedule.DayShift{
		Calendar: d.Calendar,
		Machine:  d.Machine,
		IsOffDay: d.IsOffDay,
		Minutes:  d.Minutes,
	}
	for _, ref := range d.Shifts {
		entry.Shifts = append(entry.Shifts, schedule.ShiftRef{
			ShiftID: ref.ShiftID,
			Name:    ref.Name,
			Minutes: ref.Minutes,
		})
	}
	for _, alt := range d.Alterations {
		entry.Alterations = append(entry.Alterations, alt.toDomain())
	}
	return entry
}

// shiftBookDTO is the resolved schedule for a date range: per-date,
// per-machine entries plus the default weekly calendar.
type shiftBookDTO struct {
	Days    map[string]map[string]dayShiftDTO `json:"days"`
	Default *calendarDTO                      `json:"default_calendar"`
}

func (d shiftBookDTO) toDomain() *schedule.Book {
	days := make(map[string]map[string]schedule.DayShift, len(d.Days))
	for date, byMachine := range d.Days {
		entries := make(map[string]schedule.DayShift, len(byMachine))
		for machine, entry := range byMachine {
			entries[machine] = entry.toDomain()
		}
		days[date] = entries
	}
	var def *schedule.Calendar
	if d.Default != nil {
		def = d.Default.toDomain()
	}
	return schedule.NewBook(days, def)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

type allocationDTO struct {
	Name     string          `json:"name"`
	Machine  string          `json:"machine_id"`
	Date     string          `json:"operation_date"`
	Order    string          `json:"order"`
	Process  string          `json:"process_name"`
	Colour   string          `json:"colour"`
	Size     string          `json:"size"`
	Item     string          `json:"item"`
	Quantity int             `json:"quantity"`
	Minutes  decimal.Decimal `json:"allocated_minutes"`
}

func allocationToWire(a planner.Allocation) allocationDTO {
	return allocationDTO{
		Name:     a.Ident.ID, // Empty for unsaved rows; the server mints ids
		Machine:  a.Machine,
		Date:     a.Date,
		Order:    a.Order,
		Process:  a.Process,
		Colour:   a.Colour,
		Size:     a.Size,
		Item:     a.Item,
		Quantity: a.Quantity,
		Minutes:  a.Minutes,
	}
}

func (d allocationDTO) toDomain() planner.Allocation {
	return planner.Allocation{
		Ident:    planner.Ident{ID: d.Name},
		Machine:  d.Machine,
		Date:     d.Date,
		Order:    d.Order,
		Process:  d.Process,
		Colour:   d.Colour,
		Size:     d.Size,
		Item:     d.Item,
		Quantity: d.Quantity,
		Minutes:  d.Minutes,
	}
}

type saveAllocationsDTO struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Allocations []allocationDTO `json:"allocations"`
}

type dateShiftUpdateDTO struct {
	Date     string   `json:"date"`
	Machine  string   `json:"machine"`
	ShiftIDs []string `json:"shifts"`
}
