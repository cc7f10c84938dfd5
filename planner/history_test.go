package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/planner"
)

// The history tests assert value-level restoration: after undo the board
// must hold the same allocation values as before the operation, and after
// redo the same values as after it. Identities may differ.

func TestUndoRedo_Drop(t *testing.T) {
	b := newBoard(false)
	before := snapshot(b.Allocations())

	b.Drop(dropReq("M1", "2024-06-03", 60, 10), false)
	after := snapshot(b.Allocations())
	require.NotEqual(t, before, after)

	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))

	require.True(t, b.Redo())
	assert.Equal(t, after, snapshot(b.Allocations()))
}

func TestUndoRedo_Move(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 60, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	require.NoError(t, b.MoveGroup(key, "M2", "2024-06-10"))
	after := snapshot(b.Allocations())

	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))
	require.True(t, b.Redo())
	assert.Equal(t, after, snapshot(b.Allocations()))
}

func TestUndoRedo_Delete(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 25, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	require.NoError(t, b.DeleteGroup(key))
	require.Len(t, b.DeletedBlocks(), 1)

	// Undo restores the allocations and retracts the parked block.
	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))
	assert.Empty(t, b.DeletedBlocks())

	// Redo removes them again and re-parks the block.
	require.True(t, b.Redo())
	assert.Empty(t, b.Allocations())
	require.Len(t, b.DeletedBlocks(), 1)
	assert.Equal(t, 25, b.DeletedBlocks()[0].Quantity)
}

func TestUndoRedo_EditQuantity(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 60, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	require.NoError(t, b.EditGroupQuantity(key, 20))
	after := snapshot(b.Allocations())

	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))
	require.True(t, b.Redo())
	assert.Equal(t, after, snapshot(b.Allocations()))
}

func TestUndoRedo_Split(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 120, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())
	require.Len(t, b.Groups(), 1)

	require.NoError(t, b.SplitGroup(key, "2024-06-05"))
	after := snapshot(b.Allocations())
	require.Len(t, b.Groups(), 2)

	// Undo merges the tail back without duplicating the head rows.
	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))
	assert.Len(t, b.Groups(), 1)

	require.True(t, b.Redo())
	assert.Equal(t, after, snapshot(b.Allocations()))
	assert.Len(t, b.Groups(), 2)
}

func TestUndoRedo_ShiftByDays(t *testing.T) {
	b := newBoard(true)
	b.Drop(dropReq("M1", "2024-06-01", 10, 10), false)
	key := singleGroupKey(t, b)
	before := snapshot(b.Allocations())

	require.NoError(t, b.ShiftGroupByDays(key, 2))
	after := snapshot(b.Allocations())
	require.NotEqual(t, before, after)

	require.True(t, b.Undo())
	assert.Equal(t, before, snapshot(b.Allocations()))
	require.True(t, b.Redo())
	assert.Equal(t, after, snapshot(b.Allocations()))
}

func TestUndo_EmptyStackIsNoOp(t *testing.T) {
	b := newBoard(false)
	assert.False(t, b.Undo())
	assert.False(t, b.Redo())
	assert.False(t, b.CanUndo())
	assert.False(t, b.CanRedo())
}

func TestNewAction_ClearsRedoStack(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 10, 10), false)
	require.True(t, b.Undo())
	require.True(t, b.CanRedo())

	// A fresh operation after undo discards the redo branch.
	b.Drop(dropReq("M2", "2024-06-04", 5, 10), false)
	assert.False(t, b.CanRedo())
	assert.True(t, b.CanUndo())
}

func TestUndoStack_Interleaved(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 60, 10), false)
	s1 := snapshot(b.Allocations())

	key := singleGroupKey(t, b)
	require.NoError(t, b.EditGroupQuantity(key, 20))
	s2 := snapshot(b.Allocations())

	require.NoError(t, b.MoveGroup(planner.MakeGroupKey("M1", "O1", "P1", "Red", "M"), "M2", "2024-06-10"))
	s3 := snapshot(b.Allocations())

	// Walk all the way back, then all the way forward.
	require.True(t, b.Undo())
	assert.Equal(t, s2, snapshot(b.Allocations()))
	require.True(t, b.Undo())
	assert.Equal(t, s1, snapshot(b.Allocations()))
	require.True(t, b.Undo())
	assert.Empty(t, b.Allocations())

	require.True(t, b.Redo())
	require.True(t, b.Redo())
	require.True(t, b.Redo())
	assert.Equal(t, s3, snapshot(b.Allocations()))
}

func TestClearHistory(t *testing.T) {
	b := newBoard(false)
	b.Drop(dropReq("M1", "2024-06-03", 10, 10), false)
	require.True(t, b.CanUndo())

	b.ClearHistory()
	assert.False(t, b.CanUndo())
	assert.False(t, b.CanRedo())
	// The allocations themselves are untouched.
	assert.Len(t, b.Allocations(), 1)
}
