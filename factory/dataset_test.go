package factory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestParseDataset_ValidatesReferences(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{
			name: "unknown shift in calendar",
			json: `{"calendars": [{"id": "C1", "start_date": "2026-01-01", "end_date": "2026-12-31", "shifts": ["NOPE"]}]}`,
		},
		{
			name: "bad shift time",
			json: `{"shifts": [{"id": "S1", "start": "2600", "end": "14:00"}]}`,
		},
		{
			name: "unknown weekday",
			json: `{"calendars": [{"id": "C1", "start_date": "2026-01-01", "end_date": "2026-12-31", "shifts": [], "off_days": ["funday"]}]}`,
		},
		{
			name: "two default calendars",
			json: `{"calendars": [
				{"id": "C1", "start_date": "2026-01-01", "end_date": "2026-12-31", "is_default": true, "shifts": []},
				{"id": "C2", "start_date": "2026-01-01", "end_date": "2026-12-31", "is_default": true, "shifts": []}
			]}`,
		},
		{
			name: "non-positive quantity",
			json: `{"orders": [{"id": "SO-1", "items": [{"item": "ITM-1", "quantity": 0, "process_minutes": {}}]}]}`,
		},
		{
			name: "bad process minutes",
			json: `{"orders": [{"id": "SO-1", "items": [{"item": "ITM-1", "quantity": 5, "process_minutes": {"Stitching": "ten"}}]}]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDataset([]byte(tc.json)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDemo_PopulatesStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := LoadDemo(ctx, store); err != nil {
		t.Fatalf("load demo: %v", err)
	}

	machines, err := store.ListMachines(ctx)
	if err != nil {
		t.Fatalf("list machines: %v", err)
	}
	if len(machines) != 3 {
		t.Errorf("expected 3 machines, got %d", len(machines))
	}

	def, err := store.DefaultCalendar(ctx)
	if err != nil {
		t.Fatalf("default calendar: %v", err)
	}
	if def == nil {
		t.Fatal("expected a default calendar")
	}
	if def.Weekdays[0] {
		t.Error("expected Sunday off in the default calendar")
	}
	if !def.TotalMinutes().Equal(decimal.NewFromInt(480)) {
		t.Errorf("expected 480 default minutes, got %s", def.TotalMinutes())
	}

	data, err := store.GetOrderData(ctx, "SO-001")
	if err != nil {
		t.Fatalf("order data: %v", err)
	}
	if data.MachineGroup != "Sewing" {
		t.Errorf("expected machine group Sewing, got %q", data.MachineGroup)
	}
	if len(data.Items) != 2 {
		t.Fatalf("expected 2 workload items, got %d", len(data.Items))
	}
	if mpu := data.Items[0].MinutesFor("Stitching"); !mpu.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 minutes per unit, got %s", mpu)
	}
}

func TestLoad_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := LoadDemo(ctx, store); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := LoadDemo(ctx, store); err != nil {
		t.Fatalf("second load: %v", err)
	}

	orders, err := store.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("expected 2 orders after reload, got %d", len(orders))
	}
}
