/*
resolve.go - Server-side calendar resolution

PURPOSE:
  Flattens the overlapping calendar records into the per-date map the
  planner consumes: date -> machine -> resolved entry, with the empty
  machine key holding the general (wildcard) entry.

PRECEDENCE (per date, per machine):
  machine single-day > general single-day > machine range >
  general range > default. A machine entry is emitted only when the
  winner is actually machine-scoped, or when a machine-scoped
  alteration on the general winner targets that machine; otherwise the
  wildcard entry applies and the levels stay in order.

ALTERATION SCOPING:
  The wildcard entry carries only machine-less alterations for the
  date. A machine entry carries the machine-less ones plus its own.
*/
package api

import (
	"github.com/warp/capacity-engine/schedule"
)

// resolveRange builds the per-date entry map for [startDate, endDate]
// from the non-default calendars overlapping the range.
func resolveRange(startDate, endDate string, calendars []*schedule.Calendar) map[string]map[string]schedule.DayShift {
	days := map[string]map[string]schedule.DayShift{}
	for _, date := range schedule.DateRange(startDate, endDate) {
		entries := resolveDate(date, calendars)
		if len(entries) > 0 {
			days[date] = entries
		}
	}
	return days
}

func resolveDate(date string, calendars []*schedule.Calendar) map[string]schedule.DayShift {
	var covering []*schedule.Calendar
	for _, cal := range calendars {
		if cal.StartDate <= date && cal.EndDate >= date {
			covering = append(covering, cal)
		}
	}
	if len(covering) == 0 {
		return nil
	}

	general := bestFor(date, "", covering)
	machines := map[string]bool{}
	for _, cal := range covering {
		if cal.Machine != "" {
			machines[cal.Machine] = true
		}
	}
	if general != nil {
		for _, alt := range general.Alterations {
			if alt.Date == date && alt.Machine != "" {
				machines[alt.Machine] = true
			}
		}
	}

	entries := map[string]schedule.DayShift{}
	if general != nil {
		entries[""] = entryFor(date, "", general)
	}
	for machine := range machines {
		winner := bestFor(date, machine, covering)
		if winner == nil {
			continue
		}
		if winner.Machine == "" && !hasMachineAlteration(winner, date, machine) {
			// The wildcard entry already covers this machine.
			continue
		}
		entries[machine] = entryFor(date, machine, winner)
	}
	return entries
}

// bestFor picks the winning calendar for a date and machine context.
// covering must already be filtered to calendars spanning the date.
func bestFor(date, machine string, covering []*schedule.Calendar) *schedule.Calendar {
	pick := func(wantMachine string, single bool) *schedule.Calendar {
		var best *schedule.Calendar
		for _, cal := range covering {
			if cal.Machine != wantMachine {
				continue
			}
			if single != (cal.StartDate == cal.EndDate) {
				continue
			}
			if best == nil || cal.StartDate < best.StartDate ||
				(cal.StartDate == best.StartDate && cal.ID < best.ID) {
				best = cal
			}
		}
		return best
	}

	if machine != "" {
		if cal := pick(machine, true); cal != nil {
			return cal
		}
	}
	if cal := pick("", true); cal != nil {
		return cal
	}
	if machine != "" {
		if cal := pick(machine, false); cal != nil {
			return cal
		}
	}
	return pick("", false)
}

func hasMachineAlteration(cal *schedule.Calendar, date, machine string) bool {
	for _, alt := range cal.Alterations {
		if alt.Date == date && alt.Machine == machine {
			return true
		}
	}
	return false
}

// entryFor shapes a resolved calendar into the entry for one cell.
// machine == "" builds the wildcard entry.
func entryFor(date, machine string, cal *schedule.Calendar) schedule.DayShift {
	entry := schedule.DayShift{
		Calendar: cal.ID,
		Machine:  machine,
		IsOffDay: !cal.Weekdays[schedule.Weekday(date)],
		Minutes:  cal.TotalMinutes(),
		Shifts:   cal.Shifts,
	}
	for _, alt := range cal.Alterations {
		if alt.Date != date {
			continue
		}
		if alt.Machine == "" || alt.Machine == machine {
			entry.Alterations = append(entry.Alterations, alt)
		}
	}
	return entry
}
