package planner_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func mins(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// weeklyCalendar is a default calendar with 480 base minutes. offSunday
// controls whether Sundays are off (2024-06-02 is a Sunday).
func weeklyCalendar(offSunday bool) *schedule.Calendar {
	weekdays := [7]bool{true, true, true, true, true, true, true}
	if offSunday {
		weekdays[0] = false
	}
	return &schedule.Calendar{
		ID:        "CAL-DEFAULT",
		IsDefault: true,
		Shifts:    []schedule.ShiftRef{{ShiftID: "S1", Name: "Morning Shift", Minutes: mins(480)}},
		Weekdays:  weekdays,
	}
}

// newBoard builds a board over June 2024 with a 480-minute default day.
func newBoard(offSunday bool) *planner.Board {
	book := schedule.NewBook(nil, weeklyCalendar(offSunday))
	b := planner.NewBoard(book, "2024-06-01", "2024-06-30")
	b.SetToday("2024-06-05")
	return b
}

func dropReq(machine, start string, qty int, mpu int64) planner.SpreadRequest {
	return planner.SpreadRequest{
		Machine:        machine,
		StartDate:      start,
		Order:          "O1",
		Process:        "P1",
		Colour:         "Red",
		Size:           "M",
		Item:           "ITM-1",
		Quantity:       qty,
		MinutesPerUnit: mins(mpu),
	}
}

// snapshot normalizes the allocation set to value form for comparisons
// across undo/redo (identities change, values must not).
func snapshot(allocs []planner.Allocation) []string {
	out := make([]string, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%s",
			a.Machine, a.Date, a.Order, a.Process, a.Colour, a.Size, a.Quantity, a.Minutes.String()))
	}
	sort.Strings(out)
	return out
}

func totalQuantity(allocs []planner.Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Quantity
	}
	return total
}

func singleGroupKey(t *testing.T, b *planner.Board) planner.GroupKey {
	t.Helper()
	groups := b.Groups()
	require.Len(t, groups, 1)
	for key := range groups {
		return key
	}
	return ""
}

// =============================================================================
// SPREAD
// =============================================================================

func TestDrop_SpreadsAcrossDates(t *testing.T) {
	// GIVEN: 480 effective minutes per day, every day working
	b := newBoard(false)

	// WHEN: Dropping 60 units at 10 minutes each on 2024-06-01
	added := b.Drop(dropReq("M1", "2024-06-01", 60, 10), false)

	// THEN: 48 units (480 min) land on 06-01 and 12 units on 06-02
	require.Len(t, added, 2)
	assert.Equal(t, "2024-06-01", added[0].Date)
	assert.Equal(t, 48, added[0].Quantity)
	assert.True(t, added[0].Minutes.Equal(mins(480)))
	assert.Equal(t, "2024-06-02", added[1].Date)
	assert.Equal(t, 12, added[1].Quantity)
	assert.True(t, added[1].Minutes.Equal(mins(120)))
}

func TestDrop_SkipsOffDays(t *testing.T) {
	// GIVEN: Sundays off (2024-06-02 is a Sunday)
	b := newBoard(true)

	// WHEN: Dropping more than one day's worth starting Saturday
	added := b.Drop(dropReq("M1", "2024-06-01", 60, 10), false)

	// THEN: The overflow lands on Monday, not Sunday
	require.Len(t, added, 2)
	assert.Equal(t, "2024-06-01", added[0].Date)
	assert.Equal(t, "2024-06-03", added[1].Date)
}

func TestDrop_ZeroMinutesPerUnit_NoSpreading(t *testing.T) {
	// GIVEN: A workload item with no per-unit minutes for the process
	b := newBoard(false)

	// WHEN: Dropping quantity 500 at zero minutes per unit
	added := b.Drop(dropReq("M1", "2024-06-03", 500, 0), false)

	// THEN: Everything lands on the start date with zero minutes
	require.Len(t, added, 1)
	assert.Equal(t, 500, added[0].Quantity)
	assert.True(t, added[0].Minutes.IsZero())
}

func TestDrop_FullDayTakesRemainderWhole(t *testing.T) {
	// GIVEN: 2024-06-03 already fully booked
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 48, 10), false)
	require.True(t, b.UsedMinutes("2024-06-03", "M1").Equal(mins(480)))

	// WHEN: Dropping another 5 units onto the full day
	added := b.Drop(dropReq("M1", "2024-06-03", 5, 10), false)

	// THEN: With no spare capacity the per-date constraint degenerates and
	// the full remainder lands there, over-allocating the cell
	require.Len(t, added, 1)
	assert.Equal(t, "2024-06-03", added[0].Date)
	assert.Equal(t, 5, added[0].Quantity)
	assert.Contains(t, b.CellTags("2024-06-03", "M1"), planner.TagConflict)
}

func TestDrop_TruncatesSilentlyWhenRangeExhausted(t *testing.T) {
	// GIVEN: A two-day visible range
	book := schedule.NewBook(nil, weeklyCalendar(false))
	b := planner.NewBoard(book, "2024-06-01", "2024-06-02")

	// WHEN: Dropping more than the range can hold
	added := b.Drop(dropReq("M1", "2024-06-01", 200, 10), false)

	// THEN: Placement truncates at the range end without error
	assert.Equal(t, 96, totalQuantity(added)) // 2 days * 48 units
}

func TestDrop_AccountsForPendingMinutesWithinSpread(t *testing.T) {
	// Placement within one spread must not double-book a date. Two
	// sequential drops make the pending bookkeeping explicit.
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-01", 24, 10), false) // half of 06-01
	added := b.Drop(dropReq("M1", "2024-06-01", 30, 10), false)

	require.Len(t, added, 2)
	assert.Equal(t, 24, added[0].Quantity) // remaining 240 min on 06-01
	assert.Equal(t, 6, added[1].Quantity)
}

// =============================================================================
// MOVE
// =============================================================================

func TestMoveGroup_PreservesTotalQuantity(t *testing.T) {
	// GIVEN: A group of 60 units on M1
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-01", 60, 10), false)
	key := singleGroupKey(t, b)

	// WHEN: Moving it to M2 starting 2024-06-10
	require.NoError(t, b.MoveGroup(key, "M2", "2024-06-10"))

	// THEN: Total quantity is preserved and everything sits on M2
	allocs := b.Allocations()
	assert.Equal(t, 60, totalQuantity(allocs))
	for _, a := range allocs {
		assert.Equal(t, "M2", a.Machine)
		assert.GreaterOrEqual(t, a.Date, "2024-06-10")
	}
}

func TestMoveGroup_NoCapacityAtDestination(t *testing.T) {
	// GIVEN: A group, and a destination date beyond the visible range
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-01", 10, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	// WHEN: Moving past the end of the range
	err := b.MoveGroup(key, "M2", "2024-07-15")

	// THEN: The move fails softly and nothing changed
	require.ErrorIs(t, err, planner.ErrNoCapacity)
	assert.Equal(t, before, snapshot(b.Allocations()))
}

func TestMoveGroup_FractionalMinutesPerUnit(t *testing.T) {
	// GIVEN: A saved allocation whose minutes/quantity is fractional
	b := newBoard(false)
	b.SetAllocations([]planner.Allocation{{
		Ident: planner.Ident{ID: "OP-1"}, Machine: "M1", Date: "2024-06-03",
		Order: "O1", Process: "P1", Quantity: 3, Minutes: mins(10), // 10/3 per unit
	}})
	key := singleGroupKey(t, b)

	// WHEN: Moving the group
	require.NoError(t, b.MoveGroup(key, "M2", "2024-06-04"))

	// THEN: Quantity survives the fractional rate
	assert.Equal(t, 3, totalQuantity(b.Allocations()))
}

// =============================================================================
// DELETE AND DELETED BLOCKS
// =============================================================================

func TestDeleteGroup_ParksDeletedBlock(t *testing.T) {
	// GIVEN: A 25-unit group
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 25, 10), false)
	key := singleGroupKey(t, b)

	// WHEN: Deleting it
	require.NoError(t, b.DeleteGroup(key))

	// THEN: Allocations are gone and one block holds the quantity
	assert.Empty(t, b.Allocations())
	blocks := b.DeletedBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, 25, blocks[0].Quantity)
	assert.Equal(t, "O1", blocks[0].Order)
}

func TestDeleteGroup_BlockDedupKeepsFirst(t *testing.T) {
	// GIVEN: Two groups with the same order/process/colour/size on
	// different machines
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 10, 10), false)
	b.Drop(dropReq("M2", "2024-06-03", 7, 10), false)

	// WHEN: Deleting both
	for key := range b.Groups() {
		require.NoError(t, b.DeleteGroup(key))
	}

	// THEN: Only the first block is kept; the second deletion does not
	// accumulate quantity
	blocks := b.DeletedBlocks()
	require.Len(t, blocks, 1)
	assert.Contains(t, []int{10, 7}, blocks[0].Quantity)
}

func TestDropFromDeletedBlock_RestoresQuantityAndClearsBlock(t *testing.T) {
	// GIVEN: A deleted 25-unit group parked as a block
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 25, 10), false)
	require.NoError(t, b.DeleteGroup(singleGroupKey(t, b)))
	require.Len(t, b.DeletedBlocks(), 1)

	// WHEN: Dropping the block back onto M2
	added := b.Drop(dropReq("M2", "2024-06-10", 25, 10), true)

	// THEN: The full quantity is back on the board and the panel is empty
	assert.Equal(t, 25, totalQuantity(added))
	assert.Empty(t, b.DeletedBlocks())
}

// =============================================================================
// EDIT QUANTITY
// =============================================================================

func TestEditGroupQuantity_RespreadsFromFirstDate(t *testing.T) {
	// GIVEN: A 60-unit group starting 2024-06-03
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 60, 10), false)
	key := singleGroupKey(t, b)

	// WHEN: Shrinking it to 20 units
	require.NoError(t, b.EditGroupQuantity(key, 20))

	// THEN: The group now fits a single day starting at the same date
	allocs := b.Allocations()
	require.Len(t, allocs, 1)
	assert.Equal(t, "2024-06-03", allocs[0].Date)
	assert.Equal(t, 20, allocs[0].Quantity)
}

func TestEditGroupQuantity_RejectsNonPositive(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 10, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	require.ErrorIs(t, b.EditGroupQuantity(key, 0), planner.ErrInvalidQuantity)
	assert.Equal(t, before, snapshot(b.Allocations()))
}

// =============================================================================
// SPLIT
// =============================================================================

func TestSplitGroup_TailGetsFreshKeysHeadUnchanged(t *testing.T) {
	// GIVEN: A group spanning 2024-06-03..05 (3 days of 48 units + 24)
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 120, 10), false)
	key := singleGroupKey(t, b)
	before := b.Allocations()
	require.Len(t, before, 3)
	headIdent := before[0].Ident

	// WHEN: Splitting at the second date
	require.NoError(t, b.SplitGroup(key, "2024-06-04"))

	// THEN: Per-date quantities are unchanged; the head keeps its identity
	// and the tail rows carry fresh temp keys
	after := b.Allocations()
	require.Len(t, after, 3)
	byDate := map[string]planner.Allocation{}
	for _, a := range after {
		byDate[a.Date] = a
	}
	assert.Equal(t, 48, byDate["2024-06-03"].Quantity)
	assert.Equal(t, 48, byDate["2024-06-04"].Quantity)
	assert.Equal(t, 24, byDate["2024-06-05"].Quantity)
	assert.True(t, byDate["2024-06-03"].Ident.Same(headIdent))
	assert.False(t, byDate["2024-06-04"].Ident.Same(before[1].Ident))
	assert.False(t, byDate["2024-06-05"].Ident.Same(before[2].Ident))
}

func TestSplitGroup_InvalidSplitPoint(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 120, 10), false)
	key := singleGroupKey(t, b)

	// Splitting at or before the first date is invalid, as is an empty date.
	assert.ErrorIs(t, b.SplitGroup(key, "2024-06-03"), planner.ErrInvalidSplit)
	assert.ErrorIs(t, b.SplitGroup(key, ""), planner.ErrInvalidSplit)
}

// =============================================================================
// SHIFT BY DAYS
// =============================================================================

func TestShiftGroupByDays_SkipsOffDays(t *testing.T) {
	// GIVEN: Sundays off, a one-day group on Saturday 2024-06-01
	b := newBoard(true)
	b.Drop(dropReq("M1", "2024-06-01", 10, 10), false)
	key := singleGroupKey(t, b)

	// WHEN: Shifting forward one working day
	require.NoError(t, b.ShiftGroupByDays(key, 1))

	// THEN: The allocation lands on Monday
	allocs := b.Allocations()
	require.Len(t, allocs, 1)
	assert.Equal(t, "2024-06-03", allocs[0].Date)
	assert.Equal(t, 10, allocs[0].Quantity)
}

func TestShiftByDaysPreview_MatchesOperation(t *testing.T) {
	b := newBoard(true)
	b.Drop(dropReq("M1", "2024-06-01", 10, 10), false)
	key := singleGroupKey(t, b)

	preview := b.ShiftByDaysPreview(key, 1)
	require.Len(t, preview, 1)
	assert.Equal(t, "2024-06-01", preview[0].OldDate)
	assert.Equal(t, "2024-06-03", preview[0].NewDate)

	require.NoError(t, b.ShiftGroupByDays(key, 1))
	assert.Equal(t, preview[0].NewDate, b.Allocations()[0].Date)
}

// =============================================================================
// LANES
// =============================================================================

func TestGroupsWithLanes_SequentialByFirstDate(t *testing.T) {
	// GIVEN: Two non-overlapping groups on the same machine
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 10, 10), false)
	b.Drop(planner.SpreadRequest{
		Machine: "M1", StartDate: "2024-06-20", Order: "O2", Process: "P1",
		Quantity: 10, MinutesPerUnit: mins(10),
	}, false)

	// THEN: Lanes are assigned by discovery order of first date; a freed
	// lane is not reused even though the spans do not overlap
	groups := b.GroupsForMachine("M1")
	require.Len(t, groups, 2)
	assert.Equal(t, 0, groups[0].Lane)
	assert.Equal(t, "2024-06-03", groups[0].FirstDate())
	assert.Equal(t, 1, groups[1].Lane)
	assert.Equal(t, "2024-06-20", groups[1].FirstDate())
}

// =============================================================================
// IDENTITY AND COLOURS
// =============================================================================

func TestIdentSame_TempVsPersisted(t *testing.T) {
	temp1 := planner.Ident{Temp: 1}
	temp2 := planner.Ident{Temp: 2}
	saved := planner.Ident{ID: "OP-1"}

	assert.True(t, temp1.Same(planner.Ident{Temp: 1}))
	assert.False(t, temp1.Same(temp2))
	assert.True(t, saved.Same(planner.Ident{ID: "OP-1"}))
	assert.False(t, saved.Same(planner.Ident{ID: "OP-2"}))
	assert.False(t, temp1.Same(saved))
	// Two empty identities never match.
	assert.False(t, planner.Ident{}.Same(planner.Ident{}))
}

func TestColourFor_Deterministic(t *testing.T) {
	a := planner.ColourFor("O1-ITM-1-P1")
	b := planner.ColourFor("O1-ITM-1-P1")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Border)
	assert.NotEmpty(t, a.Background)
}

func TestGroupBarColour_SharedAcrossMachines(t *testing.T) {
	// GIVEN: The same order/item/process placed on two machines
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-01", 10, 10), false)
	b.Drop(dropReq("M2", "2024-06-01", 10, 10), false)

	groups := b.Groups()
	g1 := groups[planner.MakeGroupKey("M1", "O1", "P1", "Red", "M")]
	g2 := groups[planner.MakeGroupKey("M2", "O1", "P1", "Red", "M")]
	require.NotNil(t, g1)
	require.NotNil(t, g2)

	// THEN: Both bars render with the same palette entry, derived from the
	// machine-independent colour key
	assert.Equal(t, g1.BarColour(), g2.BarColour())
	assert.Equal(t, planner.ColourFor(g1.ColourKey()), g1.BarColour())
}

// =============================================================================
// CAPACITY QUERIES
// =============================================================================

func TestCapacityPercentage_ClampedAndZeroSafe(t *testing.T) {
	b := newBoard(false)

	// No capacity resolved => 0, not a division by zero.
	empty := planner.NewBoard(schedule.NewEmptyBook(), "2024-06-01", "2024-06-30")
	assert.Equal(t, 0, empty.CapacityPercentage("2024-06-03", "M1"))

	// Over-allocation clamps at 100.
	b.Drop(dropReq("M1", "2024-06-03", 48, 10), false)
	b.Drop(dropReq("M1", "2024-06-03", 5, 10), false)
	assert.Equal(t, 100, b.CapacityPercentage("2024-06-03", "M1"))
	assert.Equal(t, planner.BandHigh, b.CapacityBand("2024-06-03", "M1"))
}

func TestCellTags_PriorityAndComposition(t *testing.T) {
	b := newBoard(true)

	// Available, past date.
	tags := b.CellTags("2024-06-03", "M1")
	assert.Equal(t, planner.TagAvailable, tags[0])
	assert.Contains(t, tags, planner.TagPast)

	// Allocated.
	b.Drop(dropReq("M1", "2024-06-10", 10, 10), false)
	assert.Equal(t, planner.TagAllocated, b.CellTags("2024-06-10", "M1")[0])

	// Full.
	b.Drop(dropReq("M1", "2024-06-11", 48, 10), false)
	assert.Equal(t, planner.TagFull, b.CellTags("2024-06-11", "M1")[0])

	// Off day tag composes independently.
	assert.Contains(t, b.CellTags("2024-06-09", "M1"), planner.TagOffDay) // a Sunday

	// Today tag on the pinned date.
	assert.Contains(t, b.CellTags("2024-06-05", "M1"), planner.TagToday)
}

func TestWorkloadStatus(t *testing.T) {
	b := newBoard(false)
	item := planner.WorkloadItem{Item: "ITM-1", Colour: "Red", Size: "M", Quantity: 60}

	assert.Equal(t, planner.StatusNone, b.WorkloadStatus("O1", "P1", item))

	b.Drop(dropReq("M1", "2024-06-03", 20, 10), false)
	assert.Equal(t, planner.StatusPartial, b.WorkloadStatus("O1", "P1", item))

	b.Drop(dropReq("M2", "2024-06-03", 40, 10), false)
	assert.Equal(t, planner.StatusComplete, b.WorkloadStatus("O1", "P1", item))
}
