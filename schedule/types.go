/*
Package schedule provides the time and capacity model for the planning board.

PURPOSE:
  This package answers one question: how many minutes of work can a machine
  absorb on a given date? The answer is assembled from three layers:
  - Shift definitions (named shifts with a start/end time and a duration)
  - Calendars (per-date or per-range shift assignments, optionally scoped
    to a single machine, with overtime/undertime alterations)
  - A default weekly pattern (per-weekday on/off flags) used when no
    explicit calendar covers a date

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: A named shift definition; duration wraps past midnight
  - Calendar: A shift assignment over a date range with alterations
  - DayShift: The resolved shift picture for one (date, machine) cell
  - Alteration: A signed minute delta (Add or Reduce) on a specific date

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all minute arithmetic
  2. Purity: Resolution is a function of loaded data, never of wall-clock
     side effects (except the explicit Today helper)
  3. Dates are ISO day strings ("2006-01-02"); lexical order is temporal
     order, so they double as sort keys

SEE ALSO:
  - book.go: Resolution precedence and effective-minute computation
  - dates.go: ISO date helpers and working-day stepping
*/
package schedule

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT - Named shift definition
// =============================================================================

// Shift is a named working shift, e.g. "Morning Shift" 06:00-14:00.
type Shift struct {
	ID    string
	Name  string
	Start TimeOfDay
	End   TimeOfDay
}

// Duration returns the shift length in minutes. An end time earlier than
// the start time means the shift wraps past midnight.
func (s Shift) Duration() decimal.Decimal {
	start := int(s.Start)
	end := int(s.End)
	if end < start {
		end += 24 * 60
	}
	return decimal.NewFromInt(int64(end - start))
}

// TimeOfDay is minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (seconds tolerated and ignored).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if _, err := fmt.Sscanf(parts[0]+":"+parts[1], "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// =============================================================================
// ALTERATION - Signed capacity delta on one date
// =============================================================================

type AlterationKind string

const (
	AlterationAdd    AlterationKind = "Add"    // Overtime: adds minutes
	AlterationReduce AlterationKind = "Reduce" // Undertime: removes minutes
)

// Alteration adjusts the capacity of a single date, optionally for one
// machine only. It lives inside the Calendar covering that date.
type Alteration struct {
	ID       string // Persisted row identity
	Calendar string // Parent calendar identity
	Date     string
	Kind     AlterationKind
	Minutes  decimal.Decimal
	Machine  string // Empty = applies to every machine under the calendar
	Reason   string
}

// Delta returns the signed contribution of this alteration.
func (a Alteration) Delta() decimal.Decimal {
	if a.Kind == AlterationReduce {
		return a.Minutes.Neg()
	}
	return a.Minutes
}

// =============================================================================
// CALENDAR - Shift assignment over a date range
// =============================================================================

// ShiftRef is a shift assigned to a calendar, with its duration frozen at
// assignment time so later shift edits do not retroactively change history.
type ShiftRef struct {
	ShiftID string
	Name    string
	Minutes decimal.Decimal
}

// Calendar assigns shifts to a date range. A single-day calendar (start ==
// end) overrides a range calendar; a machine-scoped calendar overrides a
// wildcard one. Exactly one calendar is the default weekly pattern.
type Calendar struct {
	ID        string
	StartDate string
	EndDate   string
	Machine   string // Empty = wildcard (all machines)
	IsDefault bool

	Shifts      []ShiftRef
	Alterations []Alteration

	// Working-day flag per weekday, indexed by time.Weekday (Sunday = 0).
	Weekdays [7]bool
}

// TotalMinutes sums the assigned shift durations.
func (c *Calendar) TotalMinutes() decimal.Decimal {
	total := decimal.Zero
	for _, ref := range c.Shifts {
		total = total.Add(ref.Minutes)
	}
	return total
}

// =============================================================================
// DAY SHIFT - Resolved picture for one (date, machine) cell
// =============================================================================

// DayShift is what the board sees after resolution: which shifts apply to a
// date, whether the date is off, and any alterations targeting it.
type DayShift struct {
	Calendar    string // Calendar the entry was resolved from
	Machine     string // Empty = wildcard entry
	IsOffDay    bool
	Minutes     decimal.Decimal
	Shifts      []ShiftRef
	Alterations []Alteration
}

// ShiftNames joins the assigned shift names for display.
func (d DayShift) ShiftNames() string {
	names := make([]string, 0, len(d.Shifts))
	for _, ref := range d.Shifts {
		names = append(names, ref.Name)
	}
	return strings.Join(names, ", ")
}
