package board

// Grid describes the dimensions of a variant's hex grid. Hexes are
// pointy-top and laid out in offset rows; ParityShift flips which rows are
// pushed half a hex to the right.
//
// Three coupled grids derive from it:
//   - hexes: Height rows of Width tiles
//   - structure slots: Height+1 zigzag rows of 2*Width+2 intersections
//   - road slots: 2*Height+1 rows; even rows hold the zigzag diagonals of
//     structure row Row/2, odd rows hold the vertical hex sides below it
type Grid struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	ParityShift int `json:"parityShift"`
}

// Hex addresses a tile on the hex grid.
type Hex struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Slot addresses an intersection on the structure grid.
type Slot struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Edge addresses a road position on the road grid.
type Edge struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// SlotType classifies a structure slot. A "top" slot is the upper corner
// of the hex beneath it; a "top-left" slot is the upper-left corner of the
// hex beneath and to its right.
type SlotType int

const (
	SlotNone SlotType = iota
	SlotTop
	SlotTopLeft
)

func (t SlotType) String() string {
	switch t {
	case SlotTop:
		return "top"
	case SlotTopLeft:
		return "top-left"
	default:
		return "none"
	}
}

// RoadType classifies a road slot by its direction.
type RoadType int

const (
	RoadNone     RoadType = 0
	RoadRising   RoadType = 1 // "/"
	RoadFalling  RoadType = 2 // "\"
	RoadVertical RoadType = 3 // "|"
)

// Contains reports whether the hex lies on the grid.
func (g Grid) Contains(h Hex) bool {
	return h.Row >= 0 && h.Row < g.Height && h.Col >= 0 && h.Col < g.Width
}

// Index returns the position of the hex in the board's tile slice.
func (g Grid) Index(h Hex) int {
	return h.Row*g.Width + h.Col
}

// HexAt is the inverse of Index.
func (g Grid) HexAt(index int) Hex {
	return Hex{Row: index / g.Width, Col: index % g.Width}
}

// Size returns the number of tiles on the grid.
func (g Grid) Size() int {
	return g.Width * g.Height
}

// StructureRows and StructureCols bound the structure grid.
func (g Grid) StructureRows() int { return g.Height + 1 }
func (g Grid) StructureCols() int { return 2*g.Width + 2 }

// RoadRows and RoadCols bound the road grid.
func (g Grid) RoadRows() int { return 2*g.Height + 1 }
func (g Grid) RoadCols() int { return 2*g.Width + 2 }

func (g Grid) containsSlot(s Slot) bool {
	return s.Row >= 0 && s.Row < g.StructureRows() && s.Col >= 0 && s.Col < g.StructureCols()
}

func (g Grid) containsEdge(e Edge) bool {
	return e.Row >= 0 && e.Row < g.RoadRows() && e.Col >= 0 && e.Col < g.RoadCols()
}

// rowOffset is the half-width x coordinate of the first hex centre in a
// row. Odd rows (after the shift) start one half-width further right.
func (g Grid) rowOffset(row int) int {
	return 1 + ((row + g.ParityShift) & 1)
}

// centerX returns the hex centre in half-width units, which is also the
// structure column of its top corner.
func (g Grid) centerX(h Hex) int {
	return 2*h.Col + g.rowOffset(h.Row)
}

// hexFromCenter finds the hex in row whose centre sits at half-width x.
func (g Grid) hexFromCenter(row, x int) (Hex, bool) {
	if row < 0 || row >= g.Height {
		return Hex{}, false
	}
	d := x - g.rowOffset(row)
	if d < 0 || d%2 != 0 {
		return Hex{}, false
	}
	h := Hex{Row: row, Col: d / 2}
	return h, g.Contains(h)
}
