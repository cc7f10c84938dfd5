package planner

import "hash/fnv"

// Colour is a border/background pair for rendering a gantt bar.
type Colour struct {
	Border     string
	Background string
}

// palette holds the bar colour pairs. Assignment is a stable hash of the
// colour key, so a group keeps its colour across reloads and processes
// without any memoization state.
var palette = [...]Colour{
	{Border: "#2563eb", Background: "#bfdbfe"},
	{Border: "#dc2626", Background: "#fecaca"},
	{Border: "#059669", Background: "#a7f3d0"},
	{Border: "#d97706", Background: "#fde68a"},
	{Border: "#7c3aed", Background: "#ddd6fe"},
	{Border: "#0891b2", Background: "#a5f3fc"},
	{Border: "#db2777", Background: "#fbcfe8"},
	{Border: "#4f46e5", Background: "#c7d2fe"},
	{Border: "#ca8a04", Background: "#fef08a"},
	{Border: "#0d9488", Background: "#99f6e4"},
}

// ColourFor maps a colour key to a palette entry deterministically.
func ColourFor(key string) Colour {
	h := fnv.New32a()
	h.Write([]byte(key))
	return palette[h.Sum32()%uint32(len(palette))]
}

// BarColour returns the group's display colour.
func (g *Group) BarColour() Colour {
	return ColourFor(g.ColourKey())
}
