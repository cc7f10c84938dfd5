/*
http.go - HTTP implementation of the collaborator client

PURPOSE:
  Talks JSON to the collaborator service. One request per call, no retry:
  failures surface immediately and the caller decides whether the board
  keeps working from cached state.

STATUS MAPPING:
  404 -> ErrNotFound
  409 -> ErrConflict (a save raced a concurrent edit)
  other non-2xx -> error carrying the server's message

SEE ALSO:
  - remote.go: The Client interface and error set
  - wire.go: The payload shapes
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/capacity-engine/planner"
	"github.com/warp/capacity-engine/schedule"
)

// HTTPClient implements Client over the collaborator's HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given base URL, e.g.
// "http://localhost:8080".
func NewHTTPClient(baseURL string, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "remote").Logger(),
	}
}

// do issues one JSON request. in may be nil (no body); out may be nil
// (response body discarded).
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func rangeQuery(startDate, endDate string) string {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	return "?" + q.Encode()
}

// =============================================================================
// MASTER DATA
// =============================================================================

func (c *HTTPClient) Machines(ctx context.Context) ([]planner.Machine, error) {
	var dtos []machineDTO
	if err := c.do(ctx, http.MethodGet, "/api/machines", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]planner.Machine, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, planner.Machine{ID: d.ID, Name: d.Name, Group: d.Group})
	}
	return out, nil
}

func (c *HTTPClient) Processes(ctx context.Context) ([]planner.Process, error) {
	var dtos []processDTO
	if err := c.do(ctx, http.MethodGet, "/api/processes", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]planner.Process, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, planner.Process{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

func (c *HTTPClient) Orders(ctx context.Context) ([]planner.OrderSummary, error) {
	var dtos []orderSummaryDTO
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]planner.OrderSummary, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, planner.OrderSummary{
			ID:           d.ID,
			Customer:     d.Customer,
			OrderDate:    d.OrderDate,
			DeliveryDate: d.DeliveryDate,
		})
	}
	return out, nil
}

func (c *HTTPClient) OrderData(ctx context.Context, order string) (*planner.OrderData, error) {
	var dto orderDataDTO
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(order), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// =============================================================================
// SCHEDULE DATA
// =============================================================================

func (c *HTTPClient) Shifts(ctx context.Context) ([]schedule.Shift, error) {
	var dtos []shiftDTO
	if err := c.do(ctx, http.MethodGet, "/api/shifts", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]schedule.Shift, 0, len(dtos))
	for _, d := range dtos {
		start, err := schedule.ParseTimeOfDay(d.Start)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", d.ID, err)
		}
		end, err := schedule.ParseTimeOfDay(d.End)
		if err != nil {
			return nil, fmt.Errorf("shift %s: %w", d.ID, err)
		}
		out = append(out, schedule.Shift{ID: d.ID, Name: d.Name, Start: start, End: end})
	}
	return out, nil
}

func (c *HTTPClient) ShiftAllocations(ctx context.Context, startDate, endDate string) (*schedule.Book, error) {
	var dto shiftBookDTO
	if err := c.do(ctx, http.MethodGet, "/api/shift-allocations"+rangeQuery(startDate, endDate), nil, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (c *HTTPClient) Allocations(ctx context.Context, startDate, endDate string) ([]planner.Allocation, error) {
	var dtos []allocationDTO
	if err := c.do(ctx, http.MethodGet, "/api/allocations"+rangeQuery(startDate, endDate), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]planner.Allocation, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *HTTPClient) SaveAllocations(ctx context.Context, allocs []planner.Allocation, startDate, endDate string) error {
	payload := saveAllocationsDTO{
		StartDate:   startDate,
		EndDate:     endDate,
		Allocations: make([]allocationDTO, 0, len(allocs)),
	}
	for _, a := range allocs {
		payload.Allocations = append(payload.Allocations, allocationToWire(a))
	}
	return c.do(ctx, http.MethodPost, "/api/allocations", payload, nil)
}

// =============================================================================
// SCHEDULE WRITES
// =============================================================================

func (c *HTTPClient) AddAlteration(ctx context.Context, alt schedule.Alteration) error {
	return c.do(ctx, http.MethodPost, "/api/alterations", alterationToWire(alt), nil)
}

func (c *HTTPClient) UpdateAlteration(ctx context.Context, alt schedule.Alteration) error {
	return c.do(ctx, http.MethodPut, "/api/alterations/"+url.PathEscape(alt.ID), alterationToWire(alt), nil)
}

func (c *HTTPClient) DeleteAlteration(ctx context.Context, calendar, alteration string) error {
	path := "/api/alterations/" + url.PathEscape(alteration) + "?calendar=" + url.QueryEscape(calendar)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) UpdateDateShift(ctx context.Context, upd DateShiftUpdate) error {
	payload := dateShiftUpdateDTO{Date: upd.Date, Machine: upd.Machine, ShiftIDs: upd.ShiftIDs}
	return c.do(ctx, http.MethodPut, "/api/date-shifts", payload, nil)
}
