package board

// Corner positions returned by AdjacentStructureSlots, clockwise from the
// top of the hex. Harbor port pairs index into this order.
const (
	CornerTop = iota
	CornerUpperRight
	CornerLowerRight
	CornerBottom
	CornerLowerLeft
	CornerUpperLeft
)

// AdjacentStructureSlots maps a hex to the six structure slots on its
// corners, clockwise from the top. Row parity moves the column by one.
func (g Grid) AdjacentStructureSlots(h Hex) [6]Slot {
	x := g.centerX(h)
	r := h.Row
	return [6]Slot{
		{Row: r, Col: x},
		{Row: r, Col: x + 1},
		{Row: r + 1, Col: x + 1},
		{Row: r + 1, Col: x},
		{Row: r + 1, Col: x - 1},
		{Row: r, Col: x - 1},
	}
}

// StructureSlotType classifies a slot purely from grid parity. Board.SlotType
// additionally hides slots that touch no land.
func (g Grid) StructureSlotType(s Slot) SlotType {
	if !g.containsSlot(s) {
		return SlotNone
	}
	if (s.Row+s.Col+g.ParityShift+1)&1 == 0 {
		return SlotTop
	}
	return SlotTopLeft
}

// RoadSlotType classifies a road slot purely from grid parity.
func (g Grid) RoadSlotType(e Edge) RoadType {
	if !g.containsEdge(e) {
		return RoadNone
	}
	r := e.Row / 2
	if e.Row%2 == 0 {
		if e.Col > 2*g.Width {
			return RoadNone
		}
		if g.StructureSlotType(Slot{Row: r, Col: e.Col}) == SlotTopLeft {
			return RoadRising
		}
		return RoadFalling
	}
	if r >= g.Height {
		return RoadNone
	}
	// vertical sides hang below top-left slots only
	if g.StructureSlotType(Slot{Row: r, Col: e.Col}) == SlotTopLeft {
		return RoadVertical
	}
	return RoadNone
}

// AdjacentRoadsOfStructure returns the road slots meeting at a structure
// slot: the two zigzag diagonals plus the vertical side, which points up
// from a top slot and down from a top-left slot.
func (g Grid) AdjacentRoadsOfStructure(t SlotType, s Slot) []Edge {
	if t == SlotNone || !g.containsSlot(s) {
		return nil
	}
	edges := make([]Edge, 0, 3)
	if s.Col > 0 {
		edges = append(edges, Edge{Row: 2 * s.Row, Col: s.Col - 1})
	}
	if s.Col <= 2*g.Width {
		edges = append(edges, Edge{Row: 2 * s.Row, Col: s.Col})
	}
	switch t {
	case SlotTop:
		if s.Row > 0 {
			edges = append(edges, Edge{Row: 2*s.Row - 1, Col: s.Col})
		}
	case SlotTopLeft:
		if s.Row < g.Height {
			edges = append(edges, Edge{Row: 2*s.Row + 1, Col: s.Col})
		}
	}
	return edges
}

// IntersectionsOfRoad returns the two structure slots a road joins.
func (g Grid) IntersectionsOfRoad(t RoadType, e Edge) []Slot {
	r := e.Row / 2
	switch t {
	case RoadRising, RoadFalling:
		return []Slot{{Row: r, Col: e.Col}, {Row: r, Col: e.Col + 1}}
	case RoadVertical:
		return []Slot{{Row: r, Col: e.Col}, {Row: r + 1, Col: e.Col}}
	}
	return nil
}

// AdjacentRoads returns the road slots sharing an endpoint with e.
func (g Grid) AdjacentRoads(e Edge) []Edge {
	var out []Edge
	for _, s := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
		for _, other := range g.AdjacentRoadsOfStructure(g.StructureSlotType(s), s) {
			if other != e && g.RoadSlotType(other) != RoadNone {
				out = append(out, other)
			}
		}
	}
	return out
}

// AdjacentStructuresToStructure returns the slots one road away from s.
func (g Grid) AdjacentStructuresToStructure(s Slot) []Slot {
	var out []Slot
	for _, e := range g.AdjacentRoadsOfStructure(g.StructureSlotType(s), s) {
		for _, end := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
			if end != s && g.containsSlot(end) {
				out = append(out, end)
			}
		}
	}
	return out
}

// HexesOfStructure returns the hexes whose corners include s. It is the
// inverse of AdjacentStructureSlots.
func (g Grid) HexesOfStructure(s Slot) []Hex {
	var candidates [3]struct{ row, x int }
	switch g.StructureSlotType(s) {
	case SlotTop:
		candidates = [3]struct{ row, x int }{
			{s.Row, s.Col}, {s.Row - 1, s.Col + 1}, {s.Row - 1, s.Col - 1},
		}
	case SlotTopLeft:
		candidates = [3]struct{ row, x int }{
			{s.Row, s.Col + 1}, {s.Row, s.Col - 1}, {s.Row - 1, s.Col},
		}
	default:
		return nil
	}
	out := make([]Hex, 0, 3)
	for _, c := range candidates {
		if h, ok := g.hexFromCenter(c.row, c.x); ok {
			out = append(out, h)
		}
	}
	return out
}

// Neighbors returns the hexes sharing a side with h.
func (g Grid) Neighbors(h Hex) []Hex {
	x := g.centerX(h)
	var out []Hex
	for _, c := range [...]struct{ row, x int }{
		{h.Row, x - 2}, {h.Row, x + 2},
		{h.Row - 1, x - 1}, {h.Row - 1, x + 1},
		{h.Row + 1, x - 1}, {h.Row + 1, x + 1},
	} {
		if n, ok := g.hexFromCenter(c.row, c.x); ok {
			out = append(out, n)
		}
	}
	return out
}

// HarborAdjacentStructures returns the (at most two) corners of a harbor
// hex that grant the trade bonus, chosen by the harbor's port pair.
func (g Grid) HarborAdjacentStructures(ports [2]int, h Hex) []Slot {
	corners := g.AdjacentStructureSlots(h)
	out := make([]Slot, 0, 2)
	for _, p := range ports {
		if p < 0 || p >= len(corners) || !g.containsSlot(corners[p]) {
			continue
		}
		out = append(out, corners[p])
	}
	return out
}
