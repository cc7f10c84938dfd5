/*
capacity.go - Per-cell capacity queries and classification

PURPOSE:
  Read-only queries the rendering layer calls per (date, machine) cell:
  used minutes, utilisation percentage, and the composable set of style
  tags. Over-allocation is representable; the board flags a conflict but
  never blocks the edit.
*/
package planner

import (
	"github.com/shopspring/decimal"
)

// Tag is a composable cell/header style classification.
type Tag string

const (
	// Load classification, mutually exclusive, in priority order.
	TagConflict  Tag = "conflict"  // used > effective > 0
	TagFull      Tag = "full"      // used == effective > 0
	TagAllocated Tag = "allocated" // 0 < used < effective
	TagAvailable Tag = "available"

	// Temporal classification.
	TagToday Tag = "today"
	TagPast  Tag = "past"

	// Schedule badges.
	TagOffDay        Tag = "off-day"
	TagAlteredAdd    Tag = "altered-add"
	TagAlteredReduce Tag = "altered-reduce"
)

// Band grades a cell's utilisation for the capacity bar.
type Band string

const (
	BandHigh   Band = "high"   // >= 95% booked
	BandMedium Band = "medium" // >= 40%
	BandLow    Band = "low"
)

// IsToday reports whether the date is the board's pinned today.
func (b *Board) IsToday(date string) bool { return date == b.today }

// IsPast reports whether the date precedes the board's pinned today.
func (b *Board) IsPast(date string) bool { return date < b.today }

// UsedMinutes sums the minutes of every allocation on an exact
// (date, machine) cell.
func (b *Board) UsedMinutes(date, machine string) decimal.Decimal {
	used := decimal.Zero
	for _, a := range b.allocations {
		if a.Date == date && a.Machine == machine {
			used = used.Add(a.Minutes)
		}
	}
	return used
}

// CapacityPercentage is round(100 * used / effective) clamped to 100, or 0
// when the cell has no effective capacity.
func (b *Board) CapacityPercentage(date, machine string) int {
	eff := b.book.EffectiveMinutes(date, machine)
	if eff.IsZero() {
		return 0
	}
	pct := b.UsedMinutes(date, machine).
		Div(eff).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

// CapacityBand grades the cell for the utilisation bar.
func (b *Board) CapacityBand(date, machine string) Band {
	pct := b.CapacityPercentage(date, machine)
	switch {
	case pct >= 95:
		return BandHigh
	case pct >= 40:
		return BandMedium
	default:
		return BandLow
	}
}

// CellTags classifies one (date, machine) cell. The load tag is chosen by
// priority (conflict > full > allocated > available) and composed with the
// independent temporal and schedule tags.
func (b *Board) CellTags(date, machine string) []Tag {
	used := b.UsedMinutes(date, machine)
	eff := b.book.EffectiveMinutes(date, machine)

	var tags []Tag
	switch {
	case eff.IsPositive() && used.GreaterThan(eff):
		tags = append(tags, TagConflict)
	case eff.IsPositive() && used.GreaterThanOrEqual(eff):
		tags = append(tags, TagFull)
	case used.IsPositive():
		tags = append(tags, TagAllocated)
	default:
		tags = append(tags, TagAvailable)
	}

	if b.IsToday(date) {
		tags = append(tags, TagToday)
	} else if b.IsPast(date) {
		tags = append(tags, TagPast)
	}

	if b.book.IsOffDay(date, machine) {
		tags = append(tags, TagOffDay)
	}

	if delta, show := b.book.AlterationDelta(date, machine); show {
		if delta.IsPositive() {
			tags = append(tags, TagAlteredAdd)
		} else {
			tags = append(tags, TagAlteredReduce)
		}
	}
	return tags
}

// HeaderTags classifies a date column header (machine-independent).
func (b *Board) HeaderTags(date string) []Tag {
	var tags []Tag
	if b.IsToday(date) {
		tags = append(tags, TagToday)
	} else if b.IsPast(date) {
		tags = append(tags, TagPast)
	}
	if b.book.IsOffDay(date, "") {
		tags = append(tags, TagOffDay)
	}
	return tags
}

// AllocatedQuantity sums the allocated quantity for an order/process,
// optionally narrowed to one colour and/or size. Empty colour or size
// matches everything, mirroring workload rows without those attributes.
func (b *Board) AllocatedQuantity(order, process, colour, size string) int {
	total := 0
	for _, a := range b.allocations {
		if a.Order != order || a.Process != process {
			continue
		}
		if colour != "" && a.Colour != colour {
			continue
		}
		if size != "" && a.Size != size {
			continue
		}
		total += a.Quantity
	}
	return total
}
