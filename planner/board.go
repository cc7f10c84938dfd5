/*
board.go - The allocation store and its scheduling operations

PURPOSE:
  Board owns the allocation set for the visible date range plus the deleted
  blocks panel and the undo/redo stacks. All mutations happen synchronously
  inside a single UI event handler, so the Board is deliberately lock-free:
  there is exactly one logical writer. Callers that drive it from more than
  one goroutine must serialize access themselves.

THE SPREAD ALGORITHM:
  spread walks dates forward from the start date through the visible range,
  skipping off days, and at each date places as many whole units as the
  remaining capacity allows (floor(available / minutesPerUnit)). When
  minutes-per-unit is zero, or a date has no spare capacity to constrain
  the computation, the full remaining quantity lands on one date. Leftover
  quantity when the range is exhausted is silently dropped; callers that
  need full placement (MoveGroup) check for an empty result.

SEE ALSO:
  - history.go: Action recording, undo/redo
  - capacity.go: Used-minutes and cell classification
*/
package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/schedule"
)

// Board is the authoritative in-memory allocation store.
type Board struct {
	book  *schedule.Book
	dates []string // Visible range, ascending ISO dates
	today string

	allocations []Allocation
	deleted     []DeletedBlock

	past   []Action
	future []Action

	tempCtr TempKey
}

// NewBoard creates a Board over a schedule book and a visible date range.
func NewBoard(book *schedule.Book, startDate, endDate string) *Board {
	if book == nil {
		book = schedule.NewEmptyBook()
	}
	return &Board{
		book:  book,
		dates: schedule.DateRange(startDate, endDate),
		today: schedule.Today(),
	}
}

// SetBook replaces the schedule book, e.g. after a shift or alteration edit
// triggered a reload. Allocations and history are untouched.
func (b *Board) SetBook(book *schedule.Book) {
	if book == nil {
		book = schedule.NewEmptyBook()
	}
	b.book = book
}

// Book returns the current schedule book.
func (b *Board) Book() *schedule.Book { return b.book }

// SetRange replaces the visible date range.
func (b *Board) SetRange(startDate, endDate string) {
	b.dates = schedule.DateRange(startDate, endDate)
}

// Dates returns the visible date range.
func (b *Board) Dates() []string { return b.dates }

// SetToday pins the date used for today/past cell classification. Defaults
// to the wall clock at construction.
func (b *Board) SetToday(date string) { b.today = date }

// SetAllocations replaces the allocation set with server truth, e.g. after
// the initial load or a successful save.
func (b *Board) SetAllocations(allocs []Allocation) {
	b.allocations = cloneAllocs(allocs)
}

// Allocations returns a copy of the current allocation set.
func (b *Board) Allocations() []Allocation {
	return cloneAllocs(b.allocations)
}

// DeletedBlocks returns a copy of the deleted-blocks panel.
func (b *Board) DeletedBlocks() []DeletedBlock {
	out := make([]DeletedBlock, len(b.deleted))
	copy(out, b.deleted)
	return out
}

// ClearDeletedBlocks empties the deleted-blocks panel.
func (b *Board) ClearDeletedBlocks() { b.deleted = nil }

// RemoveDeletedBlock drops one block from the panel by identity.
func (b *Board) RemoveDeletedBlock(ident Ident) {
	kept := b.deleted[:0]
	for _, blk := range b.deleted {
		if !blk.Ident.Same(ident) {
			kept = append(kept, blk)
		}
	}
	b.deleted = kept
}

func (b *Board) nextTempKey() TempKey {
	b.tempCtr++
	return b.tempCtr
}

// =============================================================================
// DERIVED VIEWS - Groups and lanes
// =============================================================================

// Groups derives the grouped view of the allocation set, keyed by
// (machine, order, process, colour, size). Member lists are date-sorted.
func (b *Board) Groups() map[GroupKey]*Group {
	groups := make(map[GroupKey]*Group)
	for _, a := range b.allocations {
		key := a.GroupKey()
		g, ok := groups[key]
		if !ok {
			g = &Group{
				Key:     key,
				Machine: a.Machine,
				Order:   a.Order,
				Process: a.Process,
				Colour:  a.Colour,
				Size:    a.Size,
				Item:    a.Item,
			}
			groups[key] = g
		}
		g.Allocs = append(g.Allocs, a)
		g.TotalQuantity += a.Quantity
		g.TotalMinutes = g.TotalMinutes.Add(a.Minutes)
	}
	for _, g := range groups {
		sort.Slice(g.Allocs, func(i, j int) bool { return g.Allocs[i].Date < g.Allocs[j].Date })
	}
	return groups
}

// GroupsWithLanes assigns each group a vertical lane on its machine row:
// groups are ordered by first allocation date and take lanes sequentially.
// A freed lane is not reused once a group's span ends; overlap detection is
// intentionally not attempted.
func (b *Board) GroupsWithLanes() map[GroupKey]*Group {
	groups := b.Groups()
	byMachine := make(map[string][]*Group)
	for _, g := range groups {
		byMachine[g.Machine] = append(byMachine[g.Machine], g)
	}
	for _, list := range byMachine {
		sort.Slice(list, func(i, j int) bool {
			di, dj := list[i].FirstDate(), list[j].FirstDate()
			if di != dj {
				return di < dj
			}
			return list[i].Key < list[j].Key
		})
		for lane, g := range list {
			g.Lane = lane
		}
	}
	return groups
}

// GroupsForMachine returns the laned groups of one machine, ordered by lane.
func (b *Board) GroupsForMachine(machine string) []*Group {
	var out []*Group
	for _, g := range b.GroupsWithLanes() {
		if g.Machine == machine {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lane < out[j].Lane })
	return out
}

// =============================================================================
// SPREAD - Distribute a quantity across available dates
// =============================================================================

// SpreadRequest carries the parameters for placing a quantity starting at a
// machine/date.
type SpreadRequest struct {
	Machine   string
	StartDate string
	Order     string
	Process   string
	Colour    string
	Size      string
	Item      string

	Quantity       int
	MinutesPerUnit decimal.Decimal
}

// spread walks the visible date range from the start date and returns the
// new allocations. May place less than requested; never warns itself.
func (b *Board) spread(req SpreadRequest) []Allocation {
	var result []Allocation
	remaining := req.Quantity

	for _, date := range b.dates {
		if remaining <= 0 {
			break
		}
		if date < req.StartDate {
			continue
		}
		if b.book.IsOffDay(date, req.Machine) {
			continue
		}

		eff := b.book.EffectiveMinutes(date, req.Machine)
		pending := decimal.Zero
		for _, a := range result {
			if a.Date == date {
				pending = pending.Add(a.Minutes)
			}
		}
		avail := eff.Sub(b.UsedMinutes(date, req.Machine)).Sub(pending)
		if avail.IsNegative() {
			avail = decimal.Zero
		}

		// With a positive rate and spare capacity, place whole units up to
		// the capacity; otherwise the constraint degenerates and the full
		// remainder lands here.
		canPlace := remaining
		if req.MinutesPerUnit.IsPositive() && avail.IsPositive() {
			canPlace = int(avail.Div(req.MinutesPerUnit).Floor().IntPart())
		}
		place := remaining
		if canPlace < place {
			place = canPlace
		}
		if place <= 0 {
			continue
		}

		result = append(result, Allocation{
			Ident:    Ident{Temp: b.nextTempKey()},
			Machine:  req.Machine,
			Date:     date,
			Order:    req.Order,
			Process:  req.Process,
			Colour:   req.Colour,
			Size:     req.Size,
			Item:     req.Item,
			Quantity: place,
			Minutes:  req.MinutesPerUnit.Mul(decimal.NewFromInt(int64(place))),
		})
		remaining -= place
	}
	return result
}

// =============================================================================
// OPERATIONS - Each pushes exactly one history action
// =============================================================================

// Drop spreads a requested quantity from a workload item or a deleted block
// onto the board. When fromDeleted is set, matching deleted blocks leave the
// panel. Returns the allocations placed; may be fewer units than requested.
func (b *Board) Drop(req SpreadRequest, fromDeleted bool) []Allocation {
	added := b.spread(req)
	b.allocations = append(b.allocations, added...)

	var removed []DeletedBlock
	if fromDeleted {
		removed = b.removeDeletedBlocksByKey(MakeBlockKey(req.Order, req.Process, req.Colour, req.Size))
	}

	b.pushAction(&DropAction{Added: cloneAllocs(added), RemovedBlocks: removed})
	return added
}

// MoveGroup removes a group's allocations and re-spreads the same total
// quantity starting at the new machine/date. The representative minutes-
// per-unit comes from the group's first allocation. When the destination
// has no capacity at all, nothing changes and ErrNoCapacity is returned.
func (b *Board) MoveGroup(key GroupKey, newMachine, newDate string) error {
	g, ok := b.Groups()[key]
	if !ok {
		return ErrGroupNotFound
	}
	old := cloneAllocs(g.Allocs)

	newAllocs := b.spread(SpreadRequest{
		Machine:        newMachine,
		StartDate:      newDate,
		Order:          g.Order,
		Process:        g.Process,
		Colour:         g.Colour,
		Size:           g.Size,
		Item:           g.Item,
		Quantity:       g.TotalQuantity,
		MinutesPerUnit: g.MinutesPerUnit(),
	})
	if len(newAllocs) == 0 {
		return ErrNoCapacity
	}

	b.removeAllocs(old)
	b.allocations = append(b.allocations, newAllocs...)
	b.pushAction(&MoveAction{swap{Old: old, New: cloneAllocs(newAllocs)}})
	return nil
}

// DeleteGroup removes a group's allocations and parks the removed quantity
// as a deleted block. Blocks are deduplicated by (order, process, colour,
// size): a later deletion of the same key does not accumulate quantity.
func (b *Board) DeleteGroup(key GroupKey) error {
	g, ok := b.Groups()[key]
	if !ok {
		return ErrGroupNotFound
	}
	deleted := cloneAllocs(g.Allocs)
	b.removeAllocs(deleted)

	var block *DeletedBlock
	blockKey := MakeBlockKey(g.Order, g.Process, g.Colour, g.Size)
	if !b.hasDeletedBlock(blockKey) {
		blk := DeletedBlock{
			Key:      blockKey,
			Ident:    Ident{Temp: b.nextTempKey()},
			Order:    g.Order,
			Process:  g.Process,
			Colour:   g.Colour,
			Size:     g.Size,
			Machine:  g.Machine,
			Quantity: g.TotalQuantity,
		}
		b.deleted = append(b.deleted, blk)
		block = &blk
	}

	b.pushAction(&DeleteAction{Deleted: deleted, Block: block})
	return nil
}

// EditGroupQuantity replaces a group's allocations with a re-spread of the
// new total quantity from the group's first date. The old allocations are
// removed before spreading so their capacity is available again.
func (b *Board) EditGroupQuantity(key GroupKey, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	g, ok := b.Groups()[key]
	if !ok {
		return ErrGroupNotFound
	}
	old := cloneAllocs(g.Allocs)
	b.removeAllocs(old)

	newAllocs := b.spread(SpreadRequest{
		Machine:        g.Machine,
		StartDate:      g.FirstDate(),
		Order:          g.Order,
		Process:        g.Process,
		Colour:         g.Colour,
		Size:           g.Size,
		Item:           g.Item,
		Quantity:       quantity,
		MinutesPerUnit: g.MinutesPerUnit(),
	})
	b.allocations = append(b.allocations, newAllocs...)
	b.pushAction(&EditQuantityAction{swap{Old: old, New: cloneAllocs(newAllocs)}})
	return nil
}

// SplitGroup cuts a group in two at the given date. Allocations before the
// split date keep their identities; the tail is re-keyed so it becomes an
// independent group of unsaved rows. Per-date quantities are unchanged.
func (b *Board) SplitGroup(key GroupKey, splitDate string) error {
	if splitDate == "" {
		return ErrInvalidSplit
	}
	g, ok := b.Groups()[key]
	if !ok {
		return ErrGroupNotFound
	}
	idx := -1
	for i, a := range g.Allocs {
		if a.Date >= splitDate {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ErrInvalidSplit
	}

	tailOld := cloneAllocs(g.Allocs[idx:])
	tailNew := cloneAllocs(tailOld)
	for i := range tailNew {
		tailNew[i].Ident = Ident{Temp: b.nextTempKey()}
	}

	b.removeAllocs(tailOld)
	b.allocations = append(b.allocations, tailNew...)
	b.pushAction(&SplitAction{swap{Old: tailOld, New: cloneAllocs(tailNew)}})
	return nil
}

// DatePair is one row of a shift-by-days preview.
type DatePair struct {
	OldDate  string
	NewDate  string
	Quantity int
}

// ShiftByDaysPreview computes where each allocation of a group would land
// when shifted by the given number of working days. Off days are skipped.
func (b *Board) ShiftByDaysPreview(key GroupKey, days int) []DatePair {
	g, ok := b.Groups()[key]
	if !ok {
		return nil
	}
	pairs := make([]DatePair, 0, len(g.Allocs))
	for _, a := range g.Allocs {
		pairs = append(pairs, DatePair{
			OldDate:  a.Date,
			NewDate:  b.book.AddWorkingDays(a.Date, days, g.Machine),
			Quantity: a.Quantity,
		})
	}
	return pairs
}

// ShiftGroupByDays moves every allocation of a group by the given number of
// working days (negative shifts backwards). Quantities are unchanged; the
// shifted rows get fresh temp keys.
func (b *Board) ShiftGroupByDays(key GroupKey, days int) error {
	g, ok := b.Groups()[key]
	if !ok {
		return ErrGroupNotFound
	}
	old := cloneAllocs(g.Allocs)
	shifted := cloneAllocs(old)
	for i := range shifted {
		shifted[i].Date = b.book.AddWorkingDays(shifted[i].Date, days, g.Machine)
		shifted[i].Ident = Ident{Temp: b.nextTempKey()}
	}

	b.removeAllocs(old)
	b.allocations = append(b.allocations, shifted...)
	b.pushAction(&ShiftDaysAction{swap{Old: old, New: cloneAllocs(shifted)}})
	return nil
}

// =============================================================================
// INTERNAL MUTATION HELPERS
// =============================================================================

// removeAllocs drops every allocation whose identity matches one in list.
func (b *Board) removeAllocs(list []Allocation) {
	kept := b.allocations[:0]
	for _, a := range b.allocations {
		if !matchesAny(a.Ident, list) {
			kept = append(kept, a)
		}
	}
	b.allocations = kept
}

func (b *Board) hasDeletedBlock(key BlockKey) bool {
	for _, blk := range b.deleted {
		if blk.Key == key {
			return true
		}
	}
	return false
}

// removeDeletedBlocksByKey removes and returns the blocks matching a key.
func (b *Board) removeDeletedBlocksByKey(key BlockKey) []DeletedBlock {
	var removed []DeletedBlock
	kept := b.deleted[:0]
	for _, blk := range b.deleted {
		if blk.Key == key {
			removed = append(removed, blk)
		} else {
			kept = append(kept, blk)
		}
	}
	b.deleted = kept
	return removed
}
