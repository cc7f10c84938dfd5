/*
forms.go - Validated modal inputs

PURPOSE:
  Every modal collects its parameters into one of these structs and the
  controller validates it before touching the board or the collaborator.
  Invalid input warns and mutates nothing; closing a modal simply drops
  the struct.

VALIDATION: go-playground/validator struct tags.
*/
package board

// DropForm confirms a pending workload or deleted-block drop.
type DropForm struct {
	Quantity int `validate:"gt=0"`
}

// QuantityForm changes the total quantity of a group.
type QuantityForm struct {
	Quantity int `validate:"gt=0"`
}

// SplitForm splits a group at a date. The date must be strictly after the
// group's first date; the board enforces that part.
type SplitForm struct {
	Date string `validate:"required"`
}

// ShiftDaysForm moves a group by working days. Zero is a no-op and
// therefore rejected.
type ShiftDaysForm struct {
	Days int `validate:"ne=0"`
}

// AlterationForm creates or edits a capacity alteration on one date.
type AlterationForm struct {
	ID       string // Empty = create
	Calendar string // Parent calendar, required for updates
	Date     string `validate:"required"`
	Machine  string
	Kind     string `validate:"oneof=Add Reduce"`
	Minutes  int64  `validate:"gt=0"`
	Reason   string
}

// DateShiftForm replaces the shift set of one date.
type DateShiftForm struct {
	Date     string   `validate:"required"`
	Machine  string   // Empty = all machines
	ShiftIDs []string `validate:"min=1,dive,required"`
}

// BulkAlterationRow is one machine's entry in the bulk alteration modal.
// Rows with zero minutes are skipped.
type BulkAlterationRow struct {
	Machine string
	Kind    string `validate:"oneof=Add Reduce"`
	Minutes int64  `validate:"gte=0"`
}
