/*
calendar.go - Shift, calendar, and alteration persistence

PURPOSE:
  Calendars assign shifts to date ranges. One calendar is the default
  weekly pattern; single-day calendars override range calendars and
  machine-scoped calendars override general ones. Alterations live as
  child rows of the calendar covering their date.

WRITE SEMANTICS (mirroring the planner's expectations):
  AddAlteration appends to the best single/range calendar for the date,
  or clones the default into a new single-day calendar when nothing
  covers it. UpdateDateShift edits a matching single-day calendar in
  place, otherwise creates one, copying weekday flags from the source;
  machine-scoped calendars never carry alterations over.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/schedule"
)

// =============================================================================
// SHIFTS
// =============================================================================

// ListShifts returns all shift definitions ordered by name.
func (s *Store) ListShifts(ctx context.Context) ([]schedule.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_time, end_time FROM shifts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var out []schedule.Shift
	for rows.Next() {
		var id, name, start, end string
		if err := rows.Scan(&id, &name, &start, &end); err != nil {
			return nil, err
		}
		st, err := schedule.ParseTimeOfDay(start)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", id, err)
		}
		en, err := schedule.ParseTimeOfDay(end)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", id, err)
		}
		out = append(out, schedule.Shift{ID: id, Name: name, Start: st, End: en})
	}
	return out, rows.Err()
}

// PutShift inserts or replaces a shift definition.
func (s *Store) PutShift(ctx context.Context, sh schedule.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO shifts (id, name, start_time, end_time) VALUES (?, ?, ?, ?)`,
		sh.ID, sh.Name, sh.Start.String(), sh.End.String())
	return err
}

func (s *Store) getShift(ctx context.Context, q queryer, id string) (schedule.Shift, error) {
	var name, start, end string
	err := q.QueryRowContext(ctx,
		`SELECT name, start_time, end_time FROM shifts WHERE id = ?`, id).
		Scan(&name, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Shift{}, fmt.Errorf("shift %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return schedule.Shift{}, err
	}
	st, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("shift %s: %w", id, err)
	}
	en, err := schedule.ParseTimeOfDay(end)
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("shift %s: %w", id, err)
	}
	return schedule.Shift{ID: id, Name: name, Start: st, End: en}, nil
}

// queryer lets read helpers run inside or outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CALENDARS
// =============================================================================

// GetCalendar loads one calendar with its shifts and alterations.
func (s *Store) GetCalendar(ctx context.Context, id string) (*schedule.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCalendar(ctx, s.db, id)
}

func (s *Store) getCalendar(ctx context.Context, q queryer, id string) (*schedule.Calendar, error) {
	cal := &schedule.Calendar{ID: id}
	var isDefault int
	var days [7]int
	err := q.QueryRowContext(ctx,
		`SELECT start_date, end_date, machine, is_default,
		        sunday, monday, tuesday, wednesday, thursday, friday, saturday
		 FROM calendars WHERE id = ?`, id).
		Scan(&cal.StartDate, &cal.EndDate, &cal.Machine, &isDefault,
			&days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calendar %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar %s: %w", id, err)
	}
	cal.IsDefault = isDefault != 0
	for i, d := range days {
		cal.Weekdays[i] = d != 0
	}

	shiftRows, err := q.QueryContext(ctx,
		`SELECT shift_id, shift_name, minutes FROM calendar_shifts
		 WHERE calendar_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer shiftRows.Close()
	for shiftRows.Next() {
		var ref schedule.ShiftRef
		var minutes string
		if err := shiftRows.Scan(&ref.ShiftID, &ref.Name, &minutes); err != nil {
			return nil, err
		}
		if ref.Minutes, err = decimal.NewFromString(minutes); err != nil {
			return nil, fmt.Errorf("calendar %s shift minutes: %w", id, err)
		}
		cal.Shifts = append(cal.Shifts, ref)
	}
	if err := shiftRows.Err(); err != nil {
		return nil, err
	}

	altRows, err := q.QueryContext(ctx,
		`SELECT id, date, kind, minutes, machine, reason FROM alterations
		 WHERE calendar_id = ? ORDER BY date, id`, id)
	if err != nil {
		return nil, err
	}
	defer altRows.Close()
	for altRows.Next() {
		alt := schedule.Alteration{Calendar: id}
		var kind, minutes string
		if err := altRows.Scan(&alt.ID, &alt.Date, &kind, &minutes, &alt.Machine, &alt.Reason); err != nil {
			return nil, err
		}
		alt.Kind = schedule.AlterationKind(kind)
		if alt.Minutes, err = decimal.NewFromString(minutes); err != nil {
			return nil, fmt.Errorf("alteration %s minutes: %w", alt.ID, err)
		}
		cal.Alterations = append(cal.Alterations, alt)
	}
	return cal, altRows.Err()
}

// CalendarsOverlapping returns every non-default calendar whose range
// intersects [startDate, endDate], earliest start first.
func (s *Store) CalendarsOverlapping(ctx context.Context, startDate, endDate string) ([]*schedule.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM calendars
		 WHERE is_default = 0 AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date, id`, endDate, startDate)
	if err != nil {
		return nil, fmt.Errorf("calendars overlapping: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*schedule.Calendar, 0, len(ids))
	for _, id := range ids {
		cal, err := s.getCalendar(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cal)
	}
	return out, nil
}

// DefaultCalendar returns the default weekly calendar, or nil when none
// is configured.
func (s *Store) DefaultCalendar(ctx context.Context) (*schedule.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM calendars WHERE is_default = 1 LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.getCalendar(ctx, s.db, id)
}

// PutCalendar inserts or replaces a calendar with its shift rows.
// Alterations are managed through the alteration operations.
func (s *Store) PutCalendar(ctx context.Context, cal *schedule.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertCalendar(ctx, tx, cal); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCalendar(ctx context.Context, tx *sql.Tx, cal *schedule.Calendar) error {
	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO calendars
		 (id, start_date, end_date, machine, is_default,
		  sunday, monday, tuesday, wednesday, thursday, friday, saturday)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ID, cal.StartDate, cal.EndDate, cal.Machine, boolInt(cal.IsDefault),
		boolInt(cal.Weekdays[0]), boolInt(cal.Weekdays[1]), boolInt(cal.Weekdays[2]),
		boolInt(cal.Weekdays[3]), boolInt(cal.Weekdays[4]), boolInt(cal.Weekdays[5]),
		boolInt(cal.Weekdays[6])); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM calendar_shifts WHERE calendar_id = ?`, cal.ID); err != nil {
		return err
	}
	for i, ref := range cal.Shifts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_shifts (calendar_id, shift_id, shift_name, minutes, position)
			 VALUES (?, ?, ?, ?, ?)`,
			cal.ID, ref.ShiftID, ref.Name, ref.Minutes.String(), i); err != nil {
			return err
		}
	}
	for _, alt := range cal.Alterations {
		id := alt.ID
		if id == "" {
			id = "ALT-" + uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO alterations (id, calendar_id, date, kind, minutes, machine, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, cal.ID, alt.Date, string(alt.Kind), alt.Minutes.String(), alt.Machine, alt.Reason); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RESOLUTION
// =============================================================================

// CalendarSource says how a calendar was matched to a date.
type CalendarSource string

const (
	SourceSingle  CalendarSource = "single"
	SourceRange   CalendarSource = "range"
	SourceDefault CalendarSource = "default"
	SourceNone    CalendarSource = ""
)

// BestCalendarForDate resolves the calendar covering a date with the
// planner's precedence. An empty machine skips the machine-specific
// levels. Returns ("", SourceNone, nil) when nothing matches.
func (s *Store) BestCalendarForDate(ctx context.Context, date, machine string) (string, CalendarSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestCalendarForDate(ctx, s.db, date, machine)
}

func (s *Store) bestCalendarForDate(ctx context.Context, q queryer, date, machine string) (string, CalendarSource, error) {
	lookup := func(query string, args ...any) (string, error) {
		var id string
		err := q.QueryRowContext(ctx, query, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return id, err
	}

	if machine != "" {
		id, err := lookup(
			`SELECT id FROM calendars
			 WHERE start_date = ? AND end_date = ? AND is_default = 0 AND machine = ?
			 ORDER BY id LIMIT 1`, date, date, machine)
		if err != nil {
			return "", SourceNone, err
		}
		if id != "" {
			return id, SourceSingle, nil
		}
	}

	id, err := lookup(
		`SELECT id FROM calendars
		 WHERE start_date = ? AND end_date = ? AND is_default = 0 AND machine = ''
		 ORDER BY id LIMIT 1`, date, date)
	if err != nil {
		return "", SourceNone, err
	}
	if id != "" {
		return id, SourceSingle, nil
	}

	if machine != "" {
		id, err := lookup(
			`SELECT id FROM calendars
			 WHERE start_date <= ? AND end_date >= ? AND is_default = 0 AND machine = ?
			 ORDER BY start_date, id LIMIT 1`, date, date, machine)
		if err != nil {
			return "", SourceNone, err
		}
		if id != "" {
			return id, SourceRange, nil
		}
	}

	id, err = lookup(
		`SELECT id FROM calendars
		 WHERE start_date <= ? AND end_date >= ? AND is_default = 0 AND machine = ''
		 ORDER BY start_date, id LIMIT 1`, date, date)
	if err != nil {
		return "", SourceNone, err
	}
	if id != "" {
		return id, SourceRange, nil
	}

	id, err = lookup(`SELECT id FROM calendars WHERE is_default = 1 LIMIT 1`)
	if err != nil {
		return "", SourceNone, err
	}
	if id != "" {
		return id, SourceDefault, nil
	}
	return "", SourceNone, nil
}

// =============================================================================
// ALTERATIONS
// =============================================================================

// AddAlteration attaches an alteration to the calendar covering its
// date. When only the default covers it, a single-day calendar is cloned
// from the default first. Returns the calendar id the row landed in.
func (s *Store) AddAlteration(ctx context.Context, alt schedule.Alteration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	// Machine-agnostic resolution: the alteration row itself carries the
	// machine scope.
	calID, source, err := s.bestCalendarForDate(ctx, tx, alt.Date, "")
	if err != nil {
		return "", err
	}

	if calID == "" || source == SourceDefault {
		defID := calID
		if defID == "" {
			return "", ErrNoCalendar
		}
		def, err := s.getCalendar(ctx, tx, defID)
		if err != nil {
			return "", err
		}
		clone := &schedule.Calendar{
			ID:        "SA-" + uuid.NewString(),
			StartDate: alt.Date,
			EndDate:   alt.Date,
			Shifts:    def.Shifts,
			Weekdays:  def.Weekdays,
		}
		if err := insertCalendar(ctx, tx, clone); err != nil {
			return "", err
		}
		calID = clone.ID
	}

	id := alt.ID
	if id == "" {
		id = "ALT-" + uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO alterations (id, calendar_id, date, kind, minutes, machine, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, calID, alt.Date, string(alt.Kind), alt.Minutes.String(), alt.Machine, alt.Reason); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return calID, nil
}

// UpdateAlteration changes kind, minutes, and reason of an existing row.
func (s *Store) UpdateAlteration(ctx context.Context, alt schedule.Alteration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE alterations SET kind = ?, minutes = ?, reason = ? WHERE id = ?`,
		string(alt.Kind), alt.Minutes.String(), alt.Reason, alt.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alteration %s: %w", alt.ID, ErrNotFound)
	}
	return nil
}

// DeleteAlteration removes an alteration row. A non-empty calendar id
// scopes the delete to that parent, so a stale client cannot remove a
// row that moved to another calendar.
func (s *Store) DeleteAlteration(ctx context.Context, calendar, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `DELETE FROM alterations WHERE id = ?`
	args := []any{id}
	if calendar != "" {
		query += ` AND calendar_id = ?`
		args = append(args, calendar)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alteration %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// DATE SHIFT UPDATE
// =============================================================================

// UpdateDateShift replaces the shift set of one date. A single-day
// calendar already scoped to the same machine context is edited in
// place; otherwise a new single-day calendar is created, with weekday
// flags copied from the general resolution for that date. Alterations
// carry over only for general (machine-less) calendars.
func (s *Store) UpdateDateShift(ctx context.Context, date, machine string, shiftIDs []string) error {
	if len(shiftIDs) == 0 {
		return fmt.Errorf("update date shift: empty shift set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	refs := make([]schedule.ShiftRef, 0, len(shiftIDs))
	for _, id := range shiftIDs {
		sh, err := s.getShift(ctx, tx, id)
		if err != nil {
			return err
		}
		refs = append(refs, schedule.ShiftRef{ShiftID: sh.ID, Name: sh.Name, Minutes: sh.Duration()})
	}

	calID, source, err := s.bestCalendarForDate(ctx, tx, date, machine)
	if err != nil {
		return err
	}

	if source == SourceSingle && calID != "" {
		cal, err := s.getCalendar(ctx, tx, calID)
		if err != nil {
			return err
		}
		if cal.Machine == machine {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM calendar_shifts WHERE calendar_id = ?`, calID); err != nil {
				return err
			}
			for i, ref := range refs {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO calendar_shifts (calendar_id, shift_id, shift_name, minutes, position)
					 VALUES (?, ?, ?, ?, ?)`,
					calID, ref.ShiftID, ref.Name, ref.Minutes.String(), i); err != nil {
					return err
				}
			}
			return tx.Commit()
		}
	}

	// Weekday flags come from the general resolution, never from a
	// machine calendar.
	var source1 *schedule.Calendar
	genID, _, err := s.bestCalendarForDate(ctx, tx, date, "")
	if err != nil {
		return err
	}
	if genID != "" {
		if source1, err = s.getCalendar(ctx, tx, genID); err != nil {
			return err
		}
	}

	clone := &schedule.Calendar{
		ID:        "SA-" + uuid.NewString(),
		StartDate: date,
		EndDate:   date,
		Machine:   machine,
		Shifts:    refs,
	}
	if source1 != nil {
		clone.Weekdays = source1.Weekdays
		if machine == "" {
			for _, alt := range source1.Alterations {
				if alt.Date == date {
					alt.ID = ""
					alt.Calendar = ""
					clone.Alterations = append(clone.Alterations, alt)
				}
			}
		}
	}
	if err := insertCalendar(ctx, tx, clone); err != nil {
		return err
	}
	return tx.Commit()
}
