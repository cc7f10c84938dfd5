package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mins(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func weekdaysOn() [7]bool {
	// Monday-Saturday working, Sunday off.
	return [7]bool{false, true, true, true, true, true, true}
}

func defaultCalendar() *schedule.Calendar {
	return &schedule.Calendar{
		ID:        "CAL-DEFAULT",
		IsDefault: true,
		Shifts: []schedule.ShiftRef{
			{ShiftID: "S1", Name: "Morning Shift", Minutes: mins(480)},
		},
		Weekdays: weekdaysOn(),
	}
}

func dayEntry(cal, machine string, off bool, minutes int64, alts ...schedule.Alteration) schedule.DayShift {
	return schedule.DayShift{
		Calendar:    cal,
		Machine:     machine,
		IsOffDay:    off,
		Minutes:     mins(minutes),
		Shifts:      []schedule.ShiftRef{{ShiftID: "S1", Name: "Morning Shift", Minutes: mins(minutes)}},
		Alterations: alts,
	}
}

// =============================================================================
// SHIFT DURATION
// =============================================================================

func TestShiftDuration_Simple(t *testing.T) {
	start, _ := schedule.ParseTimeOfDay("06:00")
	end, _ := schedule.ParseTimeOfDay("14:00")
	s := schedule.Shift{ID: "S1", Name: "Morning", Start: start, End: end}

	if !s.Duration().Equal(mins(480)) {
		t.Errorf("expected 480 minutes, got %v", s.Duration())
	}
}

func TestShiftDuration_WrapsMidnight(t *testing.T) {
	// GIVEN: A night shift 22:00 -> 06:00
	start, _ := schedule.ParseTimeOfDay("22:00")
	end, _ := schedule.ParseTimeOfDay("06:00")
	s := schedule.Shift{ID: "S2", Name: "Night", Start: start, End: end}

	// THEN: Duration wraps past midnight
	if !s.Duration().Equal(mins(480)) {
		t.Errorf("expected 480 minutes, got %v", s.Duration())
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, bad := range []string{"", "7", "25:00", "10:75"} {
		if _, err := schedule.ParseTimeOfDay(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

// =============================================================================
// RESOLUTION PRECEDENCE
// =============================================================================

func TestShiftFor_MachineEntryBeatsWildcard(t *testing.T) {
	// GIVEN: A date with both a wildcard entry and a machine entry
	days := map[string]map[string]schedule.DayShift{
		"2024-06-03": {
			"":   dayEntry("CAL-GEN", "", false, 480),
			"M1": dayEntry("CAL-M1", "M1", false, 240),
		},
	}
	book := schedule.NewBook(days, defaultCalendar())

	// THEN: M1 resolves to its own entry, other machines to the wildcard
	if got := book.EffectiveMinutes("2024-06-03", "M1"); !got.Equal(mins(240)) {
		t.Errorf("M1: expected 240, got %v", got)
	}
	if got := book.EffectiveMinutes("2024-06-03", "M2"); !got.Equal(mins(480)) {
		t.Errorf("M2: expected 480, got %v", got)
	}
	if !book.HasMachineShift("2024-06-03", "M1") {
		t.Error("expected M1 to have a machine-specific entry")
	}
	if book.HasMachineShift("2024-06-03", "M2") {
		t.Error("did not expect M2 to have a machine-specific entry")
	}
}

func TestShiftFor_FallsBackToWeeklyDefault(t *testing.T) {
	book := schedule.NewBook(nil, defaultCalendar())

	// 2024-06-02 is a Sunday; off per the weekly pattern.
	if schedule.Weekday("2024-06-02") != time.Sunday {
		t.Fatal("fixture date is not a Sunday")
	}
	if !book.IsOffDay("2024-06-02", "M1") {
		t.Error("expected Sunday to be an off day")
	}
	if book.IsOffDay("2024-06-03", "M1") {
		t.Error("expected Monday to be a working day")
	}
	if got := book.EffectiveMinutes("2024-06-03", "M1"); !got.Equal(mins(480)) {
		t.Errorf("expected 480 default minutes, got %v", got)
	}
}

func TestShiftFor_ExplicitOffDayOverridesDefault(t *testing.T) {
	// GIVEN: A Monday marked off by an explicit wildcard entry
	days := map[string]map[string]schedule.DayShift{
		"2024-06-03": {"": dayEntry("CAL-HOLIDAY", "", true, 0)},
	}
	book := schedule.NewBook(days, defaultCalendar())

	if !book.IsOffDay("2024-06-03", "M1") {
		t.Error("expected explicit off day to win over the weekly default")
	}
}

func TestShiftFor_NoDataAtAll(t *testing.T) {
	book := schedule.NewEmptyBook()

	if _, ok := book.ShiftFor("2024-06-03", "M1"); ok {
		t.Error("expected no resolution with an empty book")
	}
	if !book.EffectiveMinutes("2024-06-03", "M1").IsZero() {
		t.Error("expected zero effective minutes with an empty book")
	}
}

// =============================================================================
// ALTERATIONS
// =============================================================================

func TestEffectiveMinutes_ReduceAlteration(t *testing.T) {
	// GIVEN: M1's base shift totals 480 minutes and a Reduce 60 alteration
	days := map[string]map[string]schedule.DayShift{
		"2024-06-01": {
			"M1": dayEntry("CAL-M1", "M1", false, 480, schedule.Alteration{
				ID: "ALT-1", Date: "2024-06-01", Kind: schedule.AlterationReduce, Minutes: mins(60),
			}),
		},
	}
	book := schedule.NewBook(days, defaultCalendar())

	// THEN: Effective minutes are 420
	if got := book.EffectiveMinutes("2024-06-01", "M1"); !got.Equal(mins(420)) {
		t.Errorf("expected 420, got %v", got)
	}
}

func TestEffectiveMinutes_ClampedAtZero(t *testing.T) {
	days := map[string]map[string]schedule.DayShift{
		"2024-06-01": {
			"": dayEntry("CAL", "", false, 120, schedule.Alteration{
				ID: "ALT-1", Date: "2024-06-01", Kind: schedule.AlterationReduce, Minutes: mins(300),
			}),
		},
	}
	book := schedule.NewBook(days, nil)

	if got := book.EffectiveMinutes("2024-06-01", "M1"); !got.IsZero() {
		t.Errorf("expected clamp at zero, got %v", got)
	}
}

func TestAlterationDelta_NetZeroSuppressesBadgeOnly(t *testing.T) {
	// GIVEN: +60 and -60 on the same date
	days := map[string]map[string]schedule.DayShift{
		"2024-06-01": {
			"": dayEntry("CAL", "", false, 480,
				schedule.Alteration{ID: "A1", Date: "2024-06-01", Kind: schedule.AlterationAdd, Minutes: mins(60)},
				schedule.Alteration{ID: "A2", Date: "2024-06-01", Kind: schedule.AlterationReduce, Minutes: mins(60)},
			),
		},
	}
	book := schedule.NewBook(days, nil)

	// THEN: No badge, but capacity still flows through the (zero) delta
	if _, show := book.AlterationDelta("2024-06-01", "M1"); show {
		t.Error("net-zero delta must not produce a badge")
	}
	if got := book.EffectiveMinutes("2024-06-01", "M1"); !got.Equal(mins(480)) {
		t.Errorf("expected 480, got %v", got)
	}
}

// =============================================================================
// DATES
// =============================================================================

func TestDateRange_Inclusive(t *testing.T) {
	dates := schedule.DateRange("2024-06-01", "2024-06-03")
	if len(dates) != 3 || dates[0] != "2024-06-01" || dates[2] != "2024-06-03" {
		t.Errorf("unexpected range: %v", dates)
	}
	if schedule.DateRange("2024-06-03", "2024-06-01") != nil {
		t.Error("expected nil for inverted range")
	}
	if schedule.DateRange("", "2024-06-03") != nil {
		t.Error("expected nil for missing bound")
	}
}

func TestAddWorkingDays_SkipsOffDays(t *testing.T) {
	// GIVEN: Sundays off per default weekly pattern
	book := schedule.NewBook(nil, defaultCalendar())

	// WHEN: Stepping +1 working day from Saturday 2024-06-01
	got := book.AddWorkingDays("2024-06-01", 1, "M1")

	// THEN: Sunday is skipped, landing on Monday
	if got != "2024-06-03" {
		t.Errorf("expected 2024-06-03, got %s", got)
	}

	// Negative steps walk backwards over off days too.
	if back := book.AddWorkingDays("2024-06-03", -1, "M1"); back != "2024-06-01" {
		t.Errorf("expected 2024-06-01, got %s", back)
	}
}
