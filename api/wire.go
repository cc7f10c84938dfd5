/*
wire.go - JSON payload shapes served by the collaborator API

PURPOSE:
  The same snake_case field names the planner's remote client expects
  (machine_id, operation_date, allocated_minutes, ...). Conversion to
  and from the domain types happens here so handlers stay thin.

SEE ALSO:
  - remote/wire.go: The client-side twin
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MASTER DATA
// =============================================================================

type MachineDTO struct {
	ID    string `json:"machine_id"`
	Name  string `json:"machine_name"`
	Group string `json:"machine_gg"`
}

type ProcessDTO struct {
	ID   string `json:"name"`
	Name string `json:"process_name"`
}

type OrderSummaryDTO struct {
	ID           string `json:"name"`
	Customer     string `json:"customer"`
	OrderDate    string `json:"order_date"`
	DeliveryDate string `json:"delivery_date"`
}

type ProcessMinutesDTO struct {
	Process string          `json:"process_name"`
	Minutes decimal.Decimal `json:"minutes"`
}

type WorkloadItemDTO struct {
	Item           string              `json:"item"`
	Colour         string              `json:"colour"`
	Size           string              `json:"size"`
	Quantity       int                 `json:"quantity"`
	ProcessMinutes []ProcessMinutesDTO `json:"processes"`
}

type OrderDataDTO struct {
	ID           string            `json:"name"`
	OrderDate    string            `json:"order_date"`
	DeliveryDate string            `json:"delivery_date"`
	MachineGroup string            `json:"machine_gg"`
	Processes    []string          `json:"process_names"`
	Items        []WorkloadItemDTO `json:"order_details"`
}

func toOrderDataDTO(d *planner.OrderData) OrderDataDTO {
	items := make([]WorkloadItemDTO, 0, len(d.Items))
	for _, it := range d.Items {
		pms := make([]ProcessMinutesDTO, 0, len(it.ProcessMinutes))
		for _, pm := range it.ProcessMinutes {
			pms = append(pms, ProcessMinutesDTO{Process: pm.Process, Minutes: pm.Minutes})
		}
		items = append(items, WorkloadItemDTO{
			Item:           it.Item,
			Colour:         it.Colour,
			Size:           it.Size,
			Quantity:       it.Quantity,
			ProcessMinutes: pms,
		})
	}
	return OrderDataDTO{
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

type ShiftDTO struct {
	ID    string `json:"name"`
	Name  string `json:"shift_name"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

type ShiftRefDTO struct {
	ShiftID string          `json:"shift"`
	Name    string          `json:"shift_name"`
	Minutes decimal.Decimal `json:"duration_minutes"`
}

type AlterationDTO struct {
	ID       string          `json:"name"`
	Calendar string          `json:"parent"`
	Date     string          `json:"date"`
	Kind     string          `json:"alteration_type"`
	Minutes  decimal.Decimal `json:"minutes"`
	Machine  string          `json:"machine"`
	Reason   string          `json:"reason"`
}

func toAlterationDTO(a schedule.Alteration) AlterationDTO {
	return AlterationDTO{
		ID:       a.ID,
		Calendar: a.Calendar,
		Date:     a.Date,
		Kind:     string(a.Kind),
		Minutes:  a.Minutes,
		Machine:  a.Machine,
		Reason:   a.Reason,
	}
}

func (d AlterationDTO) toDomain() schedule.Alteration {
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

type CalendarDTO struct {
	ID          string          `json:"name"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Machine     string          `json:"machine"`
	IsDefault   bool            `json:"is_default"`
	Shifts      []ShiftRefDTO   `json:"shifts"`
	Alterations []AlterationDTO `json:"alterations"`
	Sunday      bool            `json:"sunday"`
	Monday      bool            `json:"monday"`
	Tuesday     bool            `json:"tuesday"`
	Wednesday   bool            `json:"wednesday"`
	Thursday    bool            `json:"thursday"`
	Friday      bool            `json:"friday"`
	Saturday    bool            `json:"saturday"`
}

func toCalendarDTO(c *schedule.Calendar) CalendarDTO {
	dto := CalendarDTO{
		ID:        c.ID,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Machine:   c.Machine,
		IsDefault: c.IsDefault,
		Sunday:    c.Weekdays[0],
		Monday:    c.Weekdays[1],
		Tuesday:   c.Weekdays[2],
		Wednesday: c.Weekdays[3],
		Thursday:  c.Weekdays[4],
		Friday:    c.Weekdays[5],
		Saturday:  c.Weekdays[6],
	}
	for _, ref := range c.Shifts {
		dto.Shifts = append(dto.Shifts, ShiftRefDTO{ShiftID: ref.ShiftID, Name: ref.Name, Minutes: ref.Minutes})
	}
	for _, alt := range c.Alterations {
		dto.Alterations = append(dto.Alterations, toAlterationDTO(alt))
	}
	return dto
}

type DayShiftDTO struct {
	Calendar    string          `json:"calendar"`
	Machine     string          `json:"machine"`
	IsOffDay    bool            `json:"is_off_day"`
	Minutes     decimal.Decimal `json:"total_duration_minutes"`
	Shifts      []ShiftRefDTO   `json:"shifts"`
	Alterations []AlterationDTO `json:"alterations"`
}

func toDayShiftDTO(d schedule.DayShift) DayShiftDTO {
	dto := DayShiftDTO{
		Calendar: d.Calendar,
		Machine:  d.Machine,
		IsOffDay: d.IsOffDay,
		Minutes:  d.Minutes,
	}
	for _, ref := range d.Shifts {
		dto.Shifts = append(dto.Shifts, ShiftRefDTO{ShiftID: ref.ShiftID, Name: ref.Name, Minutes: ref.Minutes})
	}
	for _, alt := range d.Alterations {
		dto.Alterations = append(dto.Alterations, toAlterationDTO(alt))
	}
	return dto
}

// ShiftBookDTO is the resolved schedule for a date range.
type ShiftBookDTO struct {
	Days    map[string]map[string]DayShiftDTO `json:"days"`
	Default *CalendarDTO                      `json:"default_calendar"`
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

type AllocationDTO struct {
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

func toAllocationDTO(a planner.Allocation) AllocationDTO {
	return AllocationDTO{
		Name:     a.Ident.ID,
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

func (d AllocationDTO) toDomain() planner.Allocation {
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

func toDomainAllocations(dtos []AllocationDTO) []planner.Allocation {
	allocs := make([]planner.Allocation, 0, len(dtos))
	for _, d := range dtos {
		allocs = append(allocs, d.toDomain())
	}
	return allocs
}

type SaveAllocationsDTO struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Allocations []AllocationDTO `json:"allocations"`
}

type DateShiftUpdateDTO struct {
	Date     string   `json:"date"`
	Machine  string   `json:"machine"`
	ShiftIDs []string `json:"shifts"`
}
