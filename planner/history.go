/*
history.go - Reversible edit history (undo/redo)

PURPOSE:
  Every board mutation is recorded as one Action holding the exact
  allocation snapshots needed to invert it. History is the standard linear
  two-stack model: pushing a new action clears the redo stack, undo pops
  past and applies the inverse, redo pops future and re-applies the
  forward effect. There is no branching.

IDENTITY MATCHING:
  Restoring or removing snapshot allocations matches by Ident (temp key or
  persisted id), never by value. An edited allocation still matches its
  old snapshot.

LIFECYCLE:
  History only describes unsaved deltas. A successful save commits them to
  the remote collaborator and clears both stacks.
*/
package planner

// Action is a reversible board edit. The variant set is closed: DROP,
// DELETE, MOVE, EDIT_QUANTITY, SPLIT, SHIFT_DAYS.
type Action interface {
	// apply re-establishes the post-action state (redo).
	apply(b *Board)
	// invert restores the pre-action state (undo).
	invert(b *Board)
}

// =============================================================================
// VARIANTS
// =============================================================================

// DropAction records allocations added by a drop, plus any deleted blocks
// the drop consumed from the side panel.
type DropAction struct {
	Added         []Allocation
	RemovedBlocks []DeletedBlock
}

func (a *DropAction) invert(b *Board) {
	b.removeAllocs(a.Added)
	b.deleted = append(b.deleted, a.RemovedBlocks...)
}

func (a *DropAction) apply(b *Board) {
	b.allocations = append(b.allocations, cloneAllocs(a.Added)...)
	for _, blk := range a.RemovedBlocks {
		b.RemoveDeletedBlock(blk.Ident)
	}
}

// DeleteAction records a group deletion and the deleted block it created
// (nil when a block with the same key already existed).
type DeleteAction struct {
	Deleted []Allocation
	Block   *DeletedBlock
}

func (a *DeleteAction) invert(b *Board) {
	b.allocations = append(b.allocations, cloneAllocs(a.Deleted)...)
	if a.Block != nil {
		b.RemoveDeletedBlock(a.Block.Ident)
	}
}

func (a *DeleteAction) apply(b *Board) {
	b.removeAllocs(a.Deleted)
	if a.Block != nil && !b.hasDeletedBlock(a.Block.Key) {
		b.deleted = append(b.deleted, *a.Block)
	}
}

// swap is the shared shape of actions that replace one allocation snapshot
// with another.
type swap struct {
	Old []Allocation
	New []Allocation
}

func (s *swap) invert(b *Board) {
	b.removeAllocs(s.New)
	b.allocations = append(b.allocations, cloneAllocs(s.Old)...)
}

func (s *swap) apply(b *Board) {
	b.removeAllocs(s.Old)
	b.allocations = append(b.allocations, cloneAllocs(s.New)...)
}

// MoveAction records a group move to a new machine/date.
type MoveAction struct{ swap }

// EditQuantityAction records a quantity edit re-spread.
type EditQuantityAction struct{ swap }

// SplitAction records the re-keyed tail of a group split. Old holds the
// tail with its original identities, New the tail with fresh temp keys;
// the head of the group is untouched by both directions.
type SplitAction struct{ swap }

// ShiftDaysAction records a shift-by-working-days move.
type ShiftDaysAction struct{ swap }

// =============================================================================
// STACKS
// =============================================================================

// pushAction appends to the past and clears the future: a new edit after
// undo discards the redo branch.
func (b *Board) pushAction(a Action) {
	b.past = append(b.past, a)
	b.future = nil
}

// Undo reverses the most recent action. Returns false when there is
// nothing to undo.
func (b *Board) Undo() bool {
	if len(b.past) == 0 {
		return false
	}
	a := b.past[len(b.past)-1]
	b.past = b.past[:len(b.past)-1]
	a.invert(b)
	b.future = append(b.future, a)
	return true
}

// Redo re-applies the most recently undone action. Returns false when
// there is nothing to redo.
func (b *Board) Redo() bool {
	if len(b.future) == 0 {
		return false
	}
	a := b.future[len(b.future)-1]
	b.future = b.future[:len(b.future)-1]
	a.apply(b)
	b.past = append(b.past, a)
	return true
}

// CanUndo reports whether the past stack is non-empty.
func (b *Board) CanUndo() bool { return len(b.past) > 0 }

// CanRedo reports whether the future stack is non-empty.
func (b *Board) CanRedo() bool { return len(b.future) > 0 }

// ClearHistory empties both stacks. Called after a successful save: the
// committed edits can no longer be undone locally.
func (b *Board) ClearHistory() {
	b.past = nil
	b.future = nil
}
