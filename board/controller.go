/*
controller.go - Orchestration between the board, the user, and the collaborator

PURPOSE:
  Owns the planning session: loads master and schedule data, holds the
  current selection and drag state, routes drops, runs the modal flows,
  and flushes unsaved edits to the collaborator. The planner.Board does
  the arithmetic; this layer does the talking.

CONCURRENCY:
  All methods must be called from a single goroutine. LoadInitial fans
  the independent reads out internally and joins them before touching any
  state, so the single-writer rule holds throughout.

ERROR POLICY:
  Fetch failures notify and leave the previous data in place; sibling
  loads are not aborted. Save failure preserves every unsaved edit.
  Invalid modal input warns and mutates nothing.

SEE ALSO:
  - planner/board.go: The allocation arithmetic
  - remote/remote.go: The collaborator contract
*/
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/remote"
	"github.com/warp/capacity-engine/schedule"
)

// Default visible range: one week back, sixty days ahead.
const (
	rangeDaysBack  = 7
	rangeDaysAhead = 60
)

// Controller drives one planning session.
type Controller struct {
	client   remote.Client
	notify   remote.Notifier
	validate *validator.Validate
	log      zerolog.Logger

	startDate string
	endDate   string
	board     *planner.Board

	machines  []planner.Machine
	processes []planner.Process
	orders    []planner.OrderSummary
	shifts    []schedule.Shift

	selectedOrder   *planner.OrderData
	selectedProcess string

	dragging DragItem
	saving   bool
}

// NewController creates a session over the default date range with an
// empty board. Call LoadInitial to populate it.
func NewController(client remote.Client, notify remote.Notifier, log zerolog.Logger) *Controller {
	today := schedule.Today()
	start := schedule.AddDays(today, -rangeDaysBack)
	end := schedule.AddDays(today, rangeDaysAhead)
	return &Controller{
		client:    client,
		notify:    notify,
		validate:  validator.New(),
		log:       log.With().Str("component", "board").Logger(),
		startDate: start,
		endDate:   end,
		board:     planner.NewBoard(schedule.NewEmptyBook(), start, end),
	}
}

// Board exposes the underlying planner state for rendering and for the
// undo/redo passthroughs.
func (c *Controller) Board() *planner.Board { return c.board }

func (c *Controller) DateRange() (string, string) { return c.startDate, c.endDate }

func (c *Controller) Machines() []planner.Machine      { return c.machines }
func (c *Controller) Processes() []planner.Process     { return c.processes }
func (c *Controller) Orders() []planner.OrderSummary   { return c.orders }
func (c *Controller) Shifts() []schedule.Shift         { return c.shifts }
func (c *Controller) SelectedOrder() *planner.OrderData { return c.selectedOrder }
func (c *Controller) SelectedProcess() string           { return c.selectedProcess }
func (c *Controller) Saving() bool                      { return c.saving }

// =============================================================================
// LOADING
// =============================================================================

// LoadInitial fetches masters, shifts, the schedule book, and the saved
// allocations. The six reads are independent and run concurrently; a
// failed read notifies and leaves its slot untouched without aborting
// the others.
func (c *Controller) LoadInitial(ctx context.Context) {
	var (
		wg        sync.WaitGroup
		machines  []planner.Machine
		processes []planner.Process
		orders    []planner.OrderSummary
		shifts    []schedule.Shift
		book      *schedule.Book
		allocs    []planner.Allocation

		gotMachines, gotProcesses, gotOrders, gotShifts bool
		gotBook, gotAllocs                              bool
	)

	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	run(func() {
		var err error
		if machines, err = c.client.Machines(ctx); err != nil {
			c.notify.Error("Failed to load machines", err)
		} else {
			gotMachines = true
		}
	})
	run(func() {
		var err error
		if processes, err = c.client.Processes(ctx); err != nil {
			c.notify.Error("Failed to load processes", err)
		} else {
			gotProcesses = true
		}
	})
	run(func() {
		// Non-critical: the board works without the order picker.
		var err error
		if orders, err = c.client.Orders(ctx); err != nil {
			c.log.Warn().Err(err).Msg("order list unavailable")
		} else {
			gotOrders = true
		}
	})
	run(func() {
		var err error
		if shifts, err = c.client.Shifts(ctx); err != nil {
			c.notify.Error("Failed to load shifts", err)
		} else {
			gotShifts = true
		}
	})
	run(func() {
		var err error
		if book, err = c.client.ShiftAllocations(ctx, c.startDate, c.endDate); err != nil {
			c.notify.Error("Failed to load shift allocations", err)
		} else {
			gotBook = true
		}
	})
	run(func() {
		var err error
		if allocs, err = c.client.Allocations(ctx, c.startDate, c.endDate); err != nil {
			c.notify.Error("Failed to load allocations", err)
		} else {
			gotAllocs = true
		}
	})
	wg.Wait()

	if gotMachines {
		c.machines = machines
	}
	if gotProcesses {
		c.processes = processes
	}
	if gotOrders {
		c.orders = orders
	}
	if gotShifts {
		c.shifts = shifts
	}
	if gotBook {
		c.board.SetBook(book)
	}
	if gotAllocs {
		c.board.SetAllocations(allocs)
	}
}

// reloadBook refreshes the schedule book after a shift or alteration
// write. Schedule writes are immediate server-side; they do not
// participate in undo history.
func (c *Controller) reloadBook(ctx context.Context) {
	book, err := c.client.ShiftAllocations(ctx, c.startDate, c.endDate)
	if err != nil {
		c.notify.Error("Failed to reload shift allocations", err)
		return
	}
	c.board.SetBook(book)
}

// reloadAllocations replaces local allocations with server truth.
func (c *Controller) reloadAllocations(ctx context.Context) {
	allocs, err := c.client.Allocations(ctx, c.startDate, c.endDate)
	if err != nil {
		c.notify.Error("Failed to reload allocations", err)
		return
	}
	c.board.SetAllocations(allocs)
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectOrder loads the planning detail for an order. Selecting the empty
// order clears the panel. A single applicable process is auto-selected.
func (c *Controller) SelectOrder(ctx context.Context, order string) {
	c.selectedOrder = nil
	c.selectedProcess = ""
	if order == "" {
		return
	}
	data, err := c.client.OrderData(ctx, order)
	if err != nil {
		c.notify.Error("Failed to load order data", err)
		return
	}
	c.selectedOrder = data
	if len(data.Processes) == 1 {
		c.selectedProcess = data.Processes[0]
	}
}

func (c *Controller) SelectProcess(process string) {
	c.selectedProcess = process
}

// WorkloadItems returns the selected order's rows, or nil.
func (c *Controller) WorkloadItems() []planner.WorkloadItem {
	if c.selectedOrder == nil {
		return nil
	}
	return c.selectedOrder.Items
}

// CompatibleMachines filters the machine list by the selected order's
// machine group. No selection means every machine.
func (c *Controller) CompatibleMachines() []planner.Machine {
	if c.selectedOrder == nil || c.selectedOrder.MachineGroup == "" {
		return c.machines
	}
	out := make([]planner.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		if c.selectedOrder.CompatibleMachine(m) {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// DRAG AND DROP
// =============================================================================

// StartDrag begins a drag. Any previous drag is replaced.
func (c *Controller) StartDrag(item DragItem) { c.dragging = item }

// CancelDrag clears the active drag without effect.
func (c *Controller) CancelDrag() { c.dragging = nil }

// Dragging returns the active drag item, or nil.
func (c *Controller) Dragging() DragItem { return c.dragging }

// PendingDrop is a drop waiting for a confirmed quantity.
type PendingDrop struct {
	Machine        string
	Date           string
	Order          string
	Process        string
	Colour         string
	Size           string
	Item           string
	MinutesPerUnit decimal.Decimal
	FromDeleted    bool

	// SuggestedQuantity pre-fills the prompt: how many whole units fit in
	// the cell's remaining minutes, or 1 when that cannot be computed.
	SuggestedQuantity int
}

// DropOnCell routes a drop onto a grid cell. A bar moves immediately and
// returns nil; a workload or deleted-block drop returns a PendingDrop for
// the quantity prompt. A drop with no active drag is ignored.
func (c *Controller) DropOnCell(machine, date string) *PendingDrop {
	item := c.dragging
	c.dragging = nil
	switch it := item.(type) {
	case nil:
		return nil
	case BarDrag:
		if err := c.board.MoveGroup(it.Key, machine, date); err != nil {
			if errors.Is(err, planner.ErrNoCapacity) {
				c.notify.Warn("No capacity available at the target date")
			} else {
				c.notify.Error("Failed to move allocation", err)
			}
		}
		return nil
	case WorkloadDrag:
		order := ""
		if c.selectedOrder != nil {
			order = c.selectedOrder.ID
		}
		mpu := it.Item.MinutesFor(c.selectedProcess)
		return c.pendingDrop(machine, date, order, c.selectedProcess,
			it.Item.Colour, it.Item.Size, it.Item.Item, mpu, false, 0)
	case DeletedDrag:
		// A parked block carries no per-process minutes; the degenerate
		// spread places its whole quantity on the drop date.
		return c.pendingDrop(machine, date, it.Block.Order, it.Block.Process,
			it.Block.Colour, it.Block.Size, "", decimal.Zero, true, it.Block.Quantity)
	}
	return nil
}

func (c *Controller) pendingDrop(machine, date, order, process, colour, size, item string,
	mpu decimal.Decimal, fromDeleted bool, quantity int) *PendingDrop {

	avail := c.board.Book().EffectiveMinutes(date, machine).Sub(c.board.UsedMinutes(date, machine))
	suggested := 1
	if quantity > 0 {
		suggested = quantity
	} else if mpu.IsPositive() && avail.IsPositive() {
		suggested = int(avail.Div(mpu).IntPart())
	}
	return &PendingDrop{
		Machine:           machine,
		Date:              date,
		Order:             order,
		Process:           process,
		Colour:            colour,
		Size:              size,
		Item:              item,
		MinutesPerUnit:    mpu,
		FromDeleted:       fromDeleted,
		SuggestedQuantity: suggested,
	}
}

// ConfirmDrop places a pending drop with the confirmed quantity.
func (c *Controller) ConfirmDrop(pd *PendingDrop, form DropForm) {
	if pd == nil {
		return
	}
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Enter a quantity greater than zero")
		return
	}
	added := c.board.Drop(planner.SpreadRequest{
		Machine:        pd.Machine,
		StartDate:      pd.Date,
		Order:          pd.Order,
		Process:        pd.Process,
		Colour:         pd.Colour,
		Size:           pd.Size,
		Item:           pd.Item,
		Quantity:       form.Quantity,
		MinutesPerUnit: pd.MinutesPerUnit,
	}, pd.FromDeleted)
	placed := 0
	for _, a := range added {
		placed += a.Quantity
	}
	if placed < form.Quantity {
		c.log.Debug().Int("requested", form.Quantity).Int("placed", placed).
			Msg("drop truncated at range end")
	}
}

// DropOnWorkloadPanel handles a drop onto the workload panel: a bar
// dragged there is deleted. Other drags are ignored.
func (c *Controller) DropOnWorkloadPanel() {
	item := c.dragging
	c.dragging = nil
	bar, ok := item.(BarDrag)
	if !ok {
		return
	}
	if err := c.board.DeleteGroup(bar.Key); err != nil {
		c.notify.Error("Failed to delete allocation", err)
	}
}

// =============================================================================
// GROUP MODALS
// =============================================================================

// EditQuantity re-spreads a group at a new total quantity.
func (c *Controller) EditQuantity(key planner.GroupKey, form QuantityForm) {
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Enter a quantity greater than zero")
		return
	}
	if err := c.board.EditGroupQuantity(key, form.Quantity); err != nil {
		c.notify.Error("Failed to update quantity", err)
	}
}

// Split cuts a group in two at the given date.
func (c *Controller) Split(key planner.GroupKey, form SplitForm) {
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Choose a split date")
		return
	}
	if err := c.board.SplitGroup(key, form.Date); err != nil {
		if errors.Is(err, planner.ErrInvalidSplit) {
			c.notify.Warn("Split date must fall inside the group, after its first date")
		} else {
			c.notify.Error("Failed to split allocation", err)
		}
	}
}

// ShiftDays moves a group forward or back by working days.
func (c *Controller) ShiftDays(key planner.GroupKey, form ShiftDaysForm) {
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Enter a non-zero number of days")
		return
	}
	if err := c.board.ShiftGroupByDays(key, form.Days); err != nil {
		c.notify.Error("Failed to shift allocation", err)
	}
}

// Undo reverses the latest unsaved edit.
func (c *Controller) Undo() { c.board.Undo() }

// Redo re-applies the latest undone edit.
func (c *Controller) Redo() { c.board.Redo() }

// =============================================================================
// SAVE
// =============================================================================

// Save flushes every allocation in the visible range to the collaborator.
// On success the board reloads server truth, history and the deleted
// panel are cleared, and the edits can no longer be undone locally. On
// failure all local state survives for a retry.
func (c *Controller) Save(ctx context.Context) {
	if c.saving {
		return
	}
	c.saving = true
	defer func() { c.saving = false }()

	err := c.client.SaveAllocations(ctx, c.board.Allocations(), c.startDate, c.endDate)
	if err != nil {
		if errors.Is(err, remote.ErrConflict) {
			c.notify.Error("Save conflicted with another session; reload and retry", err)
		} else {
			c.notify.Error("Save failed", err)
		}
		return
	}
	c.reloadAllocations(ctx)
	c.board.ClearHistory()
	c.board.ClearDeletedBlocks()
	c.notify.Success("Allocations saved")
}

// =============================================================================
// SCHEDULE WRITES
// =============================================================================

// SubmitAlteration creates or updates a capacity alteration and reloads
// the schedule book.
func (c *Controller) SubmitAlteration(ctx context.Context, form AlterationForm) {
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Enter minutes")
		return
	}
	alt := schedule.Alteration{
		ID:       form.ID,
		Calendar: form.Calendar,
		Date:     form.Date,
		Kind:     schedule.AlterationKind(form.Kind),
		Minutes:  decimal.NewFromInt(form.Minutes),
		Machine:  form.Machine,
		Reason:   form.Reason,
	}
	var err error
	if form.ID == "" {
		err = c.client.AddAlteration(ctx, alt)
	} else {
		err = c.client.UpdateAlteration(ctx, alt)
	}
	if err != nil {
		c.notify.Error("Failed to save alteration", err)
		return
	}
	c.reloadBook(ctx)
	c.notify.Success("Alteration saved")
}

// DeleteAlteration removes an alteration row and reloads the book.
func (c *Controller) DeleteAlteration(ctx context.Context, calendar, alteration string) {
	if err := c.client.DeleteAlteration(ctx, calendar, alteration); err != nil {
		c.notify.Error("Failed to delete alteration", err)
		return
	}
	c.reloadBook(ctx)
	c.notify.Success("Alteration deleted")
}

// UpdateDateShift replaces the shift set of one date and reloads the book.
func (c *Controller) UpdateDateShift(ctx context.Context, form DateShiftForm) {
	if err := c.validate.Struct(form); err != nil {
		c.notify.Warn("Choose at least one shift")
		return
	}
	upd := remote.DateShiftUpdate{Date: form.Date, Machine: form.Machine, ShiftIDs: form.ShiftIDs}
	if err := c.client.UpdateDateShift(ctx, upd); err != nil {
		c.notify.Error("Failed to update shift", err)
		return
	}
	c.reloadBook(ctx)
	c.notify.Success("Shift updated")
}

// ApplyBulkAlterations issues one alteration per machine row with
// non-zero minutes, all for the same date, then reloads the book once.
func (c *Controller) ApplyBulkAlterations(ctx context.Context, date string, rows []BulkAlterationRow) {
	if date == "" {
		c.notify.Warn("Choose a date")
		return
	}
	// Validate every row before the first write: one bad entry must leave
	// the whole batch unapplied.
	var applicable []BulkAlterationRow
	for _, row := range rows {
		if row.Minutes <= 0 {
			continue
		}
		if err := c.validate.Struct(row); err != nil {
			c.notify.Warn(fmt.Sprintf("Invalid entry for machine %s", row.Machine))
			return
		}
		applicable = append(applicable, row)
	}
	if len(applicable) == 0 {
		c.notify.Warn("No machines to update")
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, row := range applicable {
		row := row
		wg.Add(1)
		go func() {
			defer wg.Done()
			alt := schedule.Alteration{
				Date:    date,
				Kind:    schedule.AlterationKind(row.Kind),
				Minutes: decimal.NewFromInt(row.Minutes),
				Machine: row.Machine,
			}
			if err := c.client.AddAlteration(ctx, alt); err != nil {
				mu.Lock()
				failed = append(failed, row.Machine)
				mu.Unlock()
				c.log.Error().Err(err).Str("machine", row.Machine).Msg("bulk alteration failed")
			}
		}()
	}
	wg.Wait()
	c.reloadBook(ctx)
	if len(failed) > 0 {
		c.notify.Error("Failed to apply some bulk updates",
			fmt.Errorf("machines: %v", failed))
		return
	}
	c.notify.Success("Bulk updates applied")
}
