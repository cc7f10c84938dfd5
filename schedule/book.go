/*
book.go - Resolved shift/capacity lookup for the planning board

PURPOSE:
  A Book is the in-memory cache of shift data for the visible date range,
  loaded from the remote collaborator in one query. The board asks it the
  same three questions over and over while rendering cells and spreading
  quantities: is this date off, which shifts apply, how many effective
  minutes are available.

RESOLUTION PRECEDENCE (per date):
  1. Machine-specific day entry
  2. Wildcard day entry
  3. Default weekly pattern (per-weekday on/off flags)

ALTERATIONS:
  Effective minutes = max(0, base shift minutes + sum of alteration deltas).
  A net-zero delta still flows through the capacity number (the clamp is a
  no-op there); it is only suppressed for badge display.

SEE ALSO:
  - types.go: Calendar, DayShift, Alteration
  - planner: consumes EffectiveMinutes when spreading allocations
*/
package schedule

import (
	"github.com/shopspring/decimal"
)

// Book resolves per-date, per-machine shift data. It is rebuilt whenever
// shift or alteration records change on the server.
type Book struct {
	// days maps date -> machine -> entry. The empty machine key holds the
	// wildcard entry for that date.
	days map[string]map[string]DayShift

	// def is the default weekly calendar, used when no entry covers a date.
	def *Calendar
}

// NewBook builds a Book from resolved day entries and the default calendar.
// Either argument may be empty/nil; lookups then fall through accordingly.
func NewBook(days map[string]map[string]DayShift, def *Calendar) *Book {
	if days == nil {
		days = map[string]map[string]DayShift{}
	}
	return &Book{days: days, def: def}
}

// NewEmptyBook is a Book with no data: every date resolves to no shift.
func NewEmptyBook() *Book {
	return NewBook(nil, nil)
}

// Default returns the default weekly calendar, or nil.
func (b *Book) Default() *Calendar {
	return b.def
}

// ShiftFor resolves the applicable entry for a date and machine. The second
// return is false when nothing covers the date, not even a default.
func (b *Book) ShiftFor(date, machine string) (DayShift, bool) {
	if dayInfo, ok := b.days[date]; ok {
		if machine != "" {
			if entry, ok := dayInfo[machine]; ok {
				return entry, true
			}
		}
		if entry, ok := dayInfo[""]; ok {
			return entry, true
		}
	}
	if b.def == nil {
		return DayShift{}, false
	}
	return DayShift{
		Calendar: b.def.ID,
		IsOffDay: !b.def.Weekdays[Weekday(date)],
		Minutes:  b.def.TotalMinutes(),
		Shifts:   b.def.Shifts,
	}, true
}

// HasMachineShift reports whether an explicit machine-specific entry exists
// for the date (as opposed to a wildcard or default resolution).
func (b *Book) HasMachineShift(date, machine string) bool {
	if machine == "" {
		return false
	}
	dayInfo, ok := b.days[date]
	if !ok {
		return false
	}
	_, ok = dayInfo[machine]
	return ok
}

// IsOffDay reports whether the machine does not work on the date.
func (b *Book) IsOffDay(date, machine string) bool {
	entry, ok := b.ShiftFor(date, machine)
	return ok && entry.IsOffDay
}

// ShiftNames returns the display names of the shifts resolved for the date.
func (b *Book) ShiftNames(date, machine string) string {
	entry, ok := b.ShiftFor(date, machine)
	if !ok {
		return ""
	}
	return entry.ShiftNames()
}

// AlterationDelta sums the alteration deltas for the resolved entry. The
// second return is false when there are no alterations or they cancel out;
// callers use it to suppress the +/- badge, never to skip the arithmetic.
func (b *Book) AlterationDelta(date, machine string) (decimal.Decimal, bool) {
	entry, ok := b.ShiftFor(date, machine)
	if !ok || len(entry.Alterations) == 0 {
		return decimal.Zero, false
	}
	delta := decimal.Zero
	for _, alt := range entry.Alterations {
		delta = delta.Add(alt.Delta())
	}
	return delta, !delta.IsZero()
}

// Alterations returns the alteration rows attached to the resolved entry.
func (b *Book) Alterations(date, machine string) []Alteration {
	entry, ok := b.ShiftFor(date, machine)
	if !ok {
		return nil
	}
	return entry.Alterations
}

// EffectiveMinutes is the capacity of a (date, machine) cell: base shift
// minutes plus alteration deltas, floored at zero.
func (b *Book) EffectiveMinutes(date, machine string) decimal.Decimal {
	entry, ok := b.ShiftFor(date, machine)
	if !ok {
		return decimal.Zero
	}
	delta, _ := b.AlterationDelta(date, machine)
	eff := entry.Minutes.Add(delta)
	if eff.IsNegative() {
		return decimal.Zero
	}
	return eff
}

// AddWorkingDays steps an ISO date forward (or back, for negative days) by
// the given number of working days, skipping off days for the machine.
func (b *Book) AddWorkingDays(date string, days int, machine string) string {
	if days == 0 {
		return date
	}
	step := 1
	remaining := days
	if days < 0 {
		step = -1
		remaining = -days
	}
	cur := date
	for remaining > 0 {
		cur = AddDays(cur, step)
		if !b.IsOffDay(cur, machine) {
			remaining--
		}
	}
	return cur
}
