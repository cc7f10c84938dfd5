/*
handlers.go - HTTP handlers of the reference collaborator

PURPOSE:
  Exposes the planning store over REST. Handles HTTP request/response,
  JSON serialization, and delegates everything else to the store.

ENDPOINTS:
  Masters:
    GET    /api/machines                Machine list
    GET    /api/processes               Process list
    GET    /api/orders                  Order list
    GET    /api/orders/{id}             Planning detail of one order

  Schedule:
    GET    /api/shifts                  Shift definitions
    GET    /api/shift-allocations       Resolved per-date map + default
    PUT    /api/date-shifts             Replace one date's shift set
    POST   /api/alterations             Add a capacity alteration
    PUT    /api/alterations/{id}        Update an alteration
    DELETE /api/alterations/{id}        Delete an alteration

  Allocations:
    GET    /api/allocations             Saved rows in range
    POST   /api/allocations             Replace-by-range save

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input
  - 404: Record not found
  - 409: Save raced a concurrent edit (stale persisted id)
  - 500: Internal errors

SEE ALSO:
  - wire.go: Payload shapes
  - resolve.go: Calendar resolution
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/capacity-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	log   zerolog.Logger
}

// NewHandler creates a new handler over the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store: store,
		log:   log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// MASTER ENDPOINTS
// =============================================================================

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.Store.ListMachines(r.Context())
	if err != nil {
		h.storeError(w, "failed to list machines", err)
		return
	}
	dtos := make([]MachineDTO, 0, len(machines))
	for _, m := range machines {
		dtos = append(dtos, MachineDTO{ID: m.ID, Name: m.Name, Group: m.Group})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListProcesses handles GET /api/processes.
func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := h.Store.ListProcesses(r.Context())
	if err != nil {
		h.storeError(w, "failed to list processes", err)
		return
	}
	dtos := make([]ProcessDTO, 0, len(processes))
	for _, p := range processes {
		dtos = append(dtos, ProcessDTO{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListOrders(r.Context())
	if err != nil {
		h.storeError(w, "failed to list orders", err)
		return
	}
	dtos := make([]OrderSummaryDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, OrderSummaryDTO{
			ID:           o.ID,
			Customer:     o.Customer,
			OrderDate:    o.OrderDate,
			DeliveryDate: o.DeliveryDate,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrderData handles GET /api/orders/{id}.
func (h *Handler) GetOrderData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.Store.GetOrderData(r.Context(), id)
	if err != nil {
		h.storeError(w, "failed to load order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDataDTO(data))
}

// =============================================================================
// SCHEDULE ENDPOINTS
// =============================================================================

// ListShifts handles GET /api/shifts.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShifts(r.Context())
	if err != nil {
		h.storeError(w, "failed to list shifts", err)
		return
	}
	dtos := make([]ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		dtos = append(dtos, ShiftDTO{
			ID:    s.ID,
			Name:  s.Name,
			Start: s.Start.String(),
			End:   s.End.String(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetShiftAllocations handles GET /api/shift-allocations?start_date=&end_date=.
func (h *Handler) GetShiftAllocations(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}

	calendars, err := h.Store.CalendarsOverlapping(r.Context(), start, end)
	if err != nil {
		h.storeError(w, "failed to load calendars", err)
		return
	}
	def, err := h.Store.DefaultCalendar(r.Context())
	if err != nil {
		h.storeError(w, "failed to load default calendar", err)
		return
	}

	days := resolveRange(start, end, calendars)
	dto := ShiftBookDTO{Days: map[string]map[string]DayShiftDTO{}}
	for date, entries := range days {
		byMachine := map[string]DayShiftDTO{}
		for machine, entry := range entries {
			byMachine[machine] = toDayShiftDTO(entry)
		}
		dto.Days[date] = byMachine
	}
	if def != nil {
		d := toCalendarDTO(def)
		dto.Default = &d
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpdateDateShift handles PUT /api/date-shifts.
func (h *Handler) UpdateDateShift(w http.ResponseWriter, r *http.Request) {
	var dto DateShiftUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if dto.Date == "" || len(dto.ShiftIDs) == 0 {
		writeError(w, http.StatusBadRequest, "date and at least one shift are required", nil)
		return
	}
	if err := h.Store.UpdateDateShift(r.Context(), dto.Date, dto.Machine, dto.ShiftIDs); err != nil {
		h.storeError(w, "failed to update date shift", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddAlteration handles POST /api/alterations.
func (h *Handler) AddAlteration(w http.ResponseWriter, r *http.Request) {
	var dto AlterationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if dto.Date == "" || !dto.Minutes.IsPositive() {
		writeError(w, http.StatusBadRequest, "date and positive minutes are required", nil)
		return
	}
	calID, err := h.Store.AddAlteration(r.Context(), dto.toDomain())
	if err != nil {
		h.storeError(w, "failed to add alteration", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"calendar": calID})
}

// UpdateAlteration handles PUT /api/alterations/{id}.
func (h *Handler) UpdateAlteration(w http.ResponseWriter, r *http.Request) {
	var dto AlterationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	dto.ID = chi.URLParam(r, "id")
	if !dto.Minutes.IsPositive() {
		writeError(w, http.StatusBadRequest, "positive minutes are required", nil)
		return
	}
	if err := h.Store.UpdateAlteration(r.Context(), dto.toDomain()); err != nil {
		h.storeError(w, "failed to update alteration", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteAlteration handles DELETE /api/alterations/{id}?calendar=.
func (h *Handler) DeleteAlteration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	calendar := r.URL.Query().Get("calendar")
	if err := h.Store.DeleteAlteration(r.Context(), calendar, id); err != nil {
		h.storeError(w, "failed to delete alteration", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ALLOCATION ENDPOINTS
// =============================================================================

// GetAllocations handles GET /api/allocations?start_date=&end_date=.
func (h *Handler) GetAllocations(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}
	allocs, err := h.Store.Allocations(r.Context(), start, end)
	if err != nil {
		h.storeError(w, "failed to list allocations", err)
		return
	}
	dtos := make([]AllocationDTO, 0, len(allocs))
	for _, a := range allocs {
		dtos = append(dtos, toAllocationDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveAllocations handles POST /api/allocations.
func (h *Handler) SaveAllocations(w http.ResponseWriter, r *http.Request) {
	var dto SaveAllocationsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err)
		return
	}
	if dto.StartDate == "" || dto.EndDate == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return
	}
	saved, err := h.Store.SaveAllocations(r.Context(), toDomainAllocations(dto.Allocations), dto.StartDate, dto.EndDate)
	if err != nil {
		h.storeError(w, "failed to save allocations", err)
		return
	}
	rows := make([]AllocationDTO, 0, len(saved))
	for _, a := range saved {
		rows = append(rows, toAllocationDTO(a))
	}
	h.log.Info().Int("rows", len(saved)).
		Str("start", dto.StartDate).Str("end", dto.EndDate).
		Msg("allocations saved")
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func rangeParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return "", "", false
	}
	return start, end, true
}

func (h *Handler) storeError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, sqlite.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, sqlite.ErrNoCalendar):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
