/*
demo.go - Bundled demo plant

A small but complete plant used when the server starts against an
empty database: three machines in two groups, three processes, two
shifts, a Sunday-off default calendar, and two orders.
*/
package factory

import (
	"context"

	"github.com/warp/capacity-engine/store/sqlite"
)

// DemoJSON is the bundled demo plant definition.
const DemoJSON = `{
  "machines": [
    {"id": "M-01", "name": "Sewing Line 1", "group": "Sewing"},
    {"id": "M-02", "name": "Sewing Line 2", "group": "Sewing"},
    {"id": "M-03", "name": "Finishing Line 1", "group": "Finishing"}
  ],
  "processes": [
    {"id": "PR-01", "name": "Cutting"},
    {"id": "PR-02", "name": "Stitching"},
    {"id": "PR-03", "name": "Pressing"}
  ],
  "shifts": [
    {"id": "S1", "name": "Morning", "start": "06:00", "end": "14:00"},
    {"id": "S2", "name": "Evening", "start": "14:00", "end": "22:00"}
  ],
  "calendars": [
    {
      "id": "CAL-DEFAULT",
      "start_date": "2026-01-01",
      "end_date": "2026-12-31",
      "is_default": true,
      "shifts": ["S1"],
      "off_days": ["sunday"]
    }
  ],
  "orders": [
    {
      "id": "SO-001",
      "customer": "Acme Apparel",
      "order_date": "2026-08-10",
      "delivery_date": "2026-10-15",
      "machine_group": "Sewing",
      "items": [
        {
          "item": "ITM-1", "colour": "Red", "size": "M",
          "quantity": 120,
          "process_minutes": {"Cutting": "4", "Stitching": "10"}
        },
        {
          "item": "ITM-1", "colour": "Red", "size": "L",
          "quantity": 80,
          "process_minutes": {"Cutting": "4.5", "Stitching": "11"}
        }
      ]
    },
    {
      "id": "SO-002",
      "customer": "Borealis Outdoor",
      "order_date": "2026-08-20",
      "delivery_date": "2026-11-01",
      "items": [
        {
          "item": "ITM-7", "colour": "Navy", "size": "S",
          "quantity": 200,
          "process_minutes": {"Stitching": "6", "Pressing": "2"}
        }
      ]
    }
  ]
}`

// LoadDemo parses DemoJSON and loads it into the store.
func LoadDemo(ctx context.Context, store *sqlite.Store) error {
	ds, err := ParseDataset([]byte(DemoJSON))
	if err != nil {
		return err
	}
	return Load(ctx, store, ds)
}
