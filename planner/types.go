/*
Package planner is the authoritative in-memory allocation store behind the
capacity-planning board.

PURPOSE:
  Holds every allocation visible in the current date range, derives the
  grouped/laned view the gantt renders, spreads requested quantities across
  dates under capacity constraints, and records each edit as a reversible
  history action.

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: One unit of scheduled work (machine, date, order, process,
    colour, size, item, quantity, minutes)
  - Ident: Allocation identity: either a process-local temp key (unsaved)
    or a persisted id assigned by the remote collaborator
  - Group: Derived aggregation of same-key allocations, never mutated
  - DeletedBlock: Removed capacity parked in the side panel for re-placement

DESIGN PRINCIPLES:
  1. Identity, not value: edits change values, so matching an allocation to
     a history snapshot always goes through Ident.Same
  2. Precision: minutes use decimal.Decimal (minutes-per-unit is fractional)
  3. Derivations are recomputed, never patched: Groups() is a pure function
     of the allocation slice

SEE ALSO:
  - board.go: The Board holding state and the spread algorithm
  - history.go: Reversible action variants
  - capacity.go: Used-minute and cell-classification queries
*/
package planner

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTITY
// =============================================================================

// TempKey is a process-local monotonic identifier for an unsaved allocation.
// Zero means "no temp key".
type TempKey int64

// Ident identifies an allocation: a persisted id once saved, a temp key
// before that. Exactly one side is meaningful at a time.
type Ident struct {
	Temp TempKey
	ID   string
}

// Same reports identity equality: persisted ids match persisted ids, temp
// keys match temp keys. Never value equality: quantity and date edits
// change values but not identity.
func (i Ident) Same(o Ident) bool {
	if i.Temp != 0 && i.Temp == o.Temp {
		return true
	}
	return i.ID != "" && i.ID == o.ID
}

// Saved reports whether the allocation has a persisted identity.
func (i Ident) Saved() bool {
	return i.ID != ""
}

// =============================================================================
// ALLOCATION
// =============================================================================

// Allocation is a unit of scheduled work for one machine/date/order/process/
// colour/size combination. Minutes equal quantity * minutes-per-unit at
// creation time and are not re-derived afterwards.
type Allocation struct {
	Ident    Ident
	Machine  string
	Date     string // ISO day string
	Order    string
	Process  string
	Colour   string
	Size     string
	Item     string
	Quantity int
	Minutes  decimal.Decimal
}

// GroupKey returns the grouping key of the allocation.
func (a Allocation) GroupKey() GroupKey {
	return MakeGroupKey(a.Machine, a.Order, a.Process, a.Colour, a.Size)
}

func cloneAllocs(list []Allocation) []Allocation {
	out := make([]Allocation, len(list))
	copy(out, list)
	return out
}

// matchesAny reports whether ident matches any allocation in list.
func matchesAny(ident Ident, list []Allocation) bool {
	for _, a := range list {
		if ident.Same(a.Ident) {
			return true
		}
	}
	return false
}

// =============================================================================
// GROUP - Derived aggregation for rendering and bulk operations
// =============================================================================

// GroupKey identifies a group: machine, order, process, colour, size.
type GroupKey string

const keySep = "||"

// MakeGroupKey builds the key for a (machine, order, process, colour, size)
// combination.
func MakeGroupKey(machine, order, process, colour, size string) GroupKey {
	return GroupKey(strings.Join([]string{machine, order, process, colour, size}, keySep))
}

// Group aggregates the allocations sharing one GroupKey. Groups are derived
// on demand and never independently mutated.
type Group struct {
	Key     GroupKey
	Machine string
	Order   string
	Process string
	Colour  string
	Size    string
	Item    string

	TotalQuantity int
	TotalMinutes  decimal.Decimal

	// Allocs is sorted ascending by date.
	Allocs []Allocation

	// Lane is the vertical rendering slot, assigned by GroupsWithLanes.
	Lane int
}

// FirstDate returns the earliest allocation date, or "".
func (g *Group) FirstDate() string {
	if len(g.Allocs) == 0 {
		return ""
	}
	return g.Allocs[0].Date
}

// MinutesPerUnit derives the representative minutes-per-unit from the first
// allocation of the group.
func (g *Group) MinutesPerUnit() decimal.Decimal {
	if len(g.Allocs) == 0 {
		return decimal.Zero
	}
	qty := g.Allocs[0].Quantity
	if qty == 0 {
		qty = 1
	}
	return g.Allocs[0].Minutes.Div(decimal.NewFromInt(int64(qty)))
}

// ColourKey is the key the display colour is derived from. Groups of the
// same order/item/process share a colour across machines.
func (g *Group) ColourKey() string {
	return g.Order + "-" + g.Item + "-" + g.Process
}

// =============================================================================
// DELETED BLOCK - Removed capacity retained for re-placement
// =============================================================================

// BlockKey identifies a deleted block: order, process, colour, size.
type BlockKey string

// MakeBlockKey builds the dedup key for deleted blocks.
func MakeBlockKey(order, process, colour, size string) BlockKey {
	return BlockKey(strings.Join([]string{order, process, colour, size}, keySep))
}

// DeletedBlock records previously deleted allocation capacity so the user
// can drag it back onto the board. Deduplicated by BlockKey: deleting a
// second group with the same key keeps the first block as is.
type DeletedBlock struct {
	Key      BlockKey
	Ident    Ident // Temp key only; blocks are never persisted
	Order    string
	Process  string
	Colour   string
	Size     string
	Machine  string // Machine the capacity was removed from (informational)
	Quantity int
}
