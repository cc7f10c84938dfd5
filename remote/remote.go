/*
remote.go - Client contract for the planning collaborator

PURPOSE:
  The board never talks HTTP directly; it depends on this Client interface
  for every read and write against the collaborator service. The interface
  mirrors the collaborator's endpoint set one to one, so a fake
  implementation in tests is a plain in-memory struct.

ERROR CATEGORIES:
  1. Transport errors  - Wrapped and returned as-is, no retry
  2. ErrNotFound       - Referenced record does not exist (HTTP 404)
  3. ErrConflict       - Save raced a concurrent edit (HTTP 409)

SEE ALSO:
  - http.go: The production HTTP implementation
  - board/controller.go: The consumer
*/
package remote

import (
	"context"
	"errors"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a save carries a persisted id the server
	// no longer knows. Another session changed the data; reload and retry.
	ErrConflict = errors.New("allocation save conflict")
)

// =============================================================================
// CLIENT
// =============================================================================

// DateShiftUpdate changes the shift set of a single date, optionally for
// one machine only. An empty ShiftIDs list is invalid.
type DateShiftUpdate struct {
	Date     string
	Machine  string // Empty = all machines
	ShiftIDs []string
}

// Client is the full surface the board needs from the collaborator.
type Client interface {
	// Master data.
	Machines(ctx context.Context) ([]planner.Machine, error)
	Processes(ctx context.Context) ([]planner.Process, error)
	Orders(ctx context.Context) ([]planner.OrderSummary, error)
	OrderData(ctx context.Context, order string) (*planner.OrderData, error)

	// Schedule data.
	Shifts(ctx context.Context) ([]schedule.Shift, error)
	ShiftAllocations(ctx context.Context, startDate, endDate string) (*schedule.Book, error)

	// Allocations.
	Allocations(ctx context.Context, startDate, endDate string) ([]planner.Allocation, error)
	SaveAllocations(ctx context.Context, allocs []planner.Allocation, startDate, endDate string) error

	// Schedule writes. Each is followed by a ShiftAllocations reload on the
	// caller's side; none of these participate in undo history.
	AddAlteration(ctx context.Context, alt schedule.Alteration) error
	UpdateAlteration(ctx context.Context, alt schedule.Alteration) error
	DeleteAlteration(ctx context.Context, calendar, alteration string) error
	UpdateDateShift(ctx context.Context, upd DateShiftUpdate) error
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier surfaces operation outcomes to the user. The board reports
// through it instead of returning errors from fire-and-forget paths.
type Notifier interface {
	Success(msg string)
	Warn(msg string)
	Error(msg string, err error)
}
