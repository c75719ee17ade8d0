package board

// TileKind distinguishes land from sea and from padding cells.
type TileKind int

const (
	SpacerTile TileKind = iota
	WaterTile
	ResourceTile
)

func (k TileKind) String() string {
	switch k {
	case WaterTile:
		return "water"
	case ResourceTile:
		return "resource"
	default:
		return "spacer"
	}
}

// MarshalText encodes the kind by name.
func (k TileKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Occupant is a blocking token placed on a tile by a variant rule.
type Occupant int

const (
	NoOccupant Occupant = iota
	Wildlings
)

// Harbor marks a water tile that grants better bank rates to the two
// structure slots selected by Ports (indices into the hex corners).
type Harbor struct {
	Resource Resource `json:"resource"` // NoResource is a generic 3:1 harbor
	Ports    [2]int   `json:"ports"`
}

// Generic reports whether the harbor trades any resource at 3:1.
func (h Harbor) Generic() bool {
	return h.Resource == NoResource
}

// Tile is one cell of the board.
type Tile struct {
	Kind     TileKind `json:"kind"`
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Resource Resource `json:"resource,omitempty"`
	Dice     int      `json:"dice,omitempty"`
	Harbor   *Harbor  `json:"harbor,omitempty"`
	Occupant Occupant `json:"occupant,omitempty"`
}

// IsLand reports whether structures may border this tile.
func (t Tile) IsLand() bool {
	return t.Kind == ResourceTile
}

// Produces reports whether the tile yields a resource on its dice value.
func (t Tile) Produces() bool {
	return t.Kind == ResourceTile && t.Resource != NoResource && t.Dice > 0
}

// Board is a generated layout: the grid plus its tiles in row-major order.
type Board struct {
	Grid  Grid   `json:"grid"`
	Tiles []Tile `json:"tiles"`

	harborSlots map[Slot]Resource
}

// Tile returns the tile at h.
func (b *Board) Tile(h Hex) (*Tile, bool) {
	if !b.Grid.Contains(h) {
		return nil, false
	}
	return &b.Tiles[b.Grid.Index(h)], true
}

// IsLand reports whether h is a land tile.
func (b *Board) IsLand(h Hex) bool {
	t, ok := b.Tile(h)
	return ok && t.IsLand()
}

// SlotType is the grid slot type, or SlotNone when the slot touches no land.
func (b *Board) SlotType(s Slot) SlotType {
	t := b.Grid.StructureSlotType(s)
	if t == SlotNone {
		return SlotNone
	}
	for _, h := range b.Grid.HexesOfStructure(s) {
		if b.IsLand(h) {
			return t
		}
	}
	return SlotNone
}

// RoadType is the grid road type, or RoadNone when either endpoint is
// hidden or the edge borders no land.
func (b *Board) RoadType(e Edge) RoadType {
	t := b.Grid.RoadSlotType(e)
	if t == RoadNone {
		return RoadNone
	}
	ends := b.Grid.IntersectionsOfRoad(t, e)
	if len(ends) != 2 || b.SlotType(ends[0]) == SlotNone || b.SlotType(ends[1]) == SlotNone {
		return RoadNone
	}
	for _, h := range b.Grid.HexesOfStructure(ends[0]) {
		if !b.IsLand(h) {
			continue
		}
		for _, other := range b.Grid.HexesOfStructure(ends[1]) {
			if other == h {
				return t
			}
		}
	}
	return RoadNone
}

// Slots enumerates every existing structure slot in row-major order.
func (b *Board) Slots() []Slot {
	var out []Slot
	for r := 0; r < b.Grid.StructureRows(); r++ {
		for c := 0; c < b.Grid.StructureCols(); c++ {
			s := Slot{Row: r, Col: c}
			if b.SlotType(s) != SlotNone {
				out = append(out, s)
			}
		}
	}
	return out
}

// Edges enumerates every existing road slot in row-major order.
func (b *Board) Edges() []Edge {
	var out []Edge
	for r := 0; r < b.Grid.RoadRows(); r++ {
		for c := 0; c < b.Grid.RoadCols(); c++ {
			e := Edge{Row: r, Col: c}
			if b.RoadType(e) != RoadNone {
				out = append(out, e)
			}
		}
	}
	return out
}

// HarborAt returns the harbor resource granted to a structure on s. It
// never writes to the board; an unindexed board is scanned instead.
func (b *Board) HarborAt(s Slot) (Resource, bool) {
	if b.harborSlots == nil {
		r, ok := b.harbors()[s]
		return r, ok
	}
	r, ok := b.harborSlots[s]
	return r, ok
}

// IsHarborSlot reports whether s is one of the harbor port slots.
func (b *Board) IsHarborSlot(s Slot) bool {
	_, ok := b.HarborAt(s)
	return ok
}

// IndexHarbors builds the harbor slot lookup. Generate calls it; boards
// assembled or decoded elsewhere should call it once before play.
func (b *Board) IndexHarbors() {
	b.harborSlots = b.harbors()
}

func (b *Board) harbors() map[Slot]Resource {
	out := make(map[Slot]Resource)
	for i, t := range b.Tiles {
		if t.Harbor == nil {
			continue
		}
		for _, s := range b.Grid.HarborAdjacentStructures(t.Harbor.Ports, b.Grid.HexAt(i)) {
			if b.SlotType(s) != SlotNone {
				out[s] = t.Harbor.Resource
			}
		}
	}
	return out
}

// DesertIndex returns the index of the first land tile without a resource,
// or -1 when the layout has no desert.
func (b *Board) DesertIndex() int {
	for i, t := range b.Tiles {
		if t.IsLand() && t.Resource == NoResource {
			return i
		}
	}
	return -1
}
