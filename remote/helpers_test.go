package remote

import (
	"github.com/shopspring/decimal"

	"github.com/warp/capacity-engine/planner"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func sampleAllocations() []planner.Allocation {
	return []planner.Allocation{{
		Ident:    planner.Ident{Temp: 1},
		Machine:  "M1",
		Date:     "2024-06-03",
		Order:    "SO-001",
		Process:  "Stitching",
		Colour:   "Red",
		Size:     "M",
		Item:     "ITM-1",
		Quantity: 48,
		Minutes:  dec(480),
	}}
}
