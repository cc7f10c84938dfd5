/*
drag.go - Drag sources for the planning board

PURPOSE:
  Exactly one item can be dragged at a time, and it comes from one of
  three places: the workload panel, an existing bar on the grid, or the
  deleted-blocks panel. The closed DragItem union makes the drop handler
  an exhaustive switch instead of a bag of nullable fields.
*/
package board

import (
	"github.com/warp/capacity-engine/planner"
)

// DragItem is a value being dragged. The variant set is closed:
// WorkloadDrag, BarDrag, DeletedDrag.
type DragItem interface {
	dragItem()
}

// WorkloadDrag is a workload row picked up from the order panel. Dropping
// it on a grid cell opens the quantity prompt.
type WorkloadDrag struct {
	Item planner.WorkloadItem
}

// BarDrag is an existing group bar. Dropping it on a grid cell moves the
// group; dropping it back on the workload panel deletes it.
type BarDrag struct {
	Key planner.GroupKey
}

// DeletedDrag is a parked deleted block being restored to the grid.
type DeletedDrag struct {
	Block planner.DeletedBlock
}

func (WorkloadDrag) dragItem() {}
func (BarDrag) dragItem()      {}
func (DeletedDrag) dragItem()  {}
