package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grids() map[string]Grid {
	return map[string]Grid{
		"base":      BaseLayout().Grid,
		"expansion": ExpansionLayout().Grid,
	}
}

func TestHexStructureAdjacencyIsSymmetric(t *testing.T) {
	t.Parallel()
	for name, g := range grids() {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < g.Size(); i++ {
				h := g.HexAt(i)
				for _, s := range g.AdjacentStructureSlots(h) {
					if !g.containsSlot(s) {
						continue
					}
					assert.Contains(t, g.HexesOfStructure(s), h, "slot %v of hex %v", s, h)
				}
			}
			for r := 0; r < g.StructureRows(); r++ {
				for c := 0; c < g.StructureCols(); c++ {
					s := Slot{Row: r, Col: c}
					for _, h := range g.HexesOfStructure(s) {
						corners := g.AdjacentStructureSlots(h)
						assert.Contains(t, corners[:], s, "hex %v of slot %v", h, s)
					}
				}
			}
		})
	}
}

func TestRoadStructureAdjacencyIsSymmetric(t *testing.T) {
	t.Parallel()
	for name, g := range grids() {
		t.Run(name, func(t *testing.T) {
			for r := 0; r < g.RoadRows(); r++ {
				for c := 0; c < g.RoadCols(); c++ {
					e := Edge{Row: r, Col: c}
					rt := g.RoadSlotType(e)
					if rt == RoadNone {
						continue
					}
					ends := g.IntersectionsOfRoad(rt, e)
					require.Len(t, ends, 2)
					for _, s := range ends {
						if !g.containsSlot(s) {
							continue
						}
						assert.Contains(t, g.AdjacentRoadsOfStructure(g.StructureSlotType(s), s), e)
					}
				}
			}
		})
	}
}

func TestStructureSlotTypesAlternate(t *testing.T) {
	t.Parallel()
	g := BaseLayout().Grid
	assert.Equal(t, SlotTopLeft, g.StructureSlotType(Slot{Row: 0, Col: 0}))
	assert.Equal(t, SlotTop, g.StructureSlotType(Slot{Row: 0, Col: 1}))
	assert.Equal(t, SlotTop, g.StructureSlotType(Slot{Row: 1, Col: 0}))
	assert.Equal(t, SlotNone, g.StructureSlotType(Slot{Row: -1, Col: 0}))
	assert.Equal(t, SlotNone, g.StructureSlotType(Slot{Row: 0, Col: g.StructureCols()}))

	// the shift flips parity
	shifted := ExpansionLayout().Grid
	assert.Equal(t, SlotTop, shifted.StructureSlotType(Slot{Row: 0, Col: 0}))
}

func TestTopCornerMatchesHexCentre(t *testing.T) {
	t.Parallel()
	g := BaseLayout().Grid
	corners := g.AdjacentStructureSlots(Hex{Row: 0, Col: 0})
	assert.Equal(t, Slot{Row: 0, Col: 1}, corners[CornerTop])
	assert.Equal(t, SlotTop, g.StructureSlotType(corners[CornerTop]))

	// odd rows sit half a hex further right
	corners = g.AdjacentStructureSlots(Hex{Row: 1, Col: 0})
	assert.Equal(t, Slot{Row: 1, Col: 2}, corners[CornerTop])
	assert.Equal(t, Slot{Row: 2, Col: 2}, corners[CornerBottom])
}

func TestOutOfRangeIsNotAdjacent(t *testing.T) {
	t.Parallel()
	g := BaseLayout().Grid
	assert.Empty(t, g.HexesOfStructure(Slot{Row: 99, Col: 3}))
	assert.Empty(t, g.AdjacentRoadsOfStructure(SlotTop, Slot{Row: -1, Col: 0}))
	assert.Empty(t, g.AdjacentRoads(Edge{Row: 100, Col: 100}))
	assert.Equal(t, RoadNone, g.RoadSlotType(Edge{Row: -1, Col: 0}))
	assert.Empty(t, g.HarborAdjacentStructures([2]int{7, -1}, Hex{Row: 0, Col: 0}))
}

func TestNeighborsAreMutual(t *testing.T) {
	t.Parallel()
	g := BaseLayout().Grid
	for i := 0; i < g.Size(); i++ {
		h := g.HexAt(i)
		for _, n := range g.Neighbors(h) {
			assert.Contains(t, g.Neighbors(n), h)
		}
	}
	assert.Len(t, g.Neighbors(Hex{Row: 3, Col: 3}), 6)
}

func TestHarborAdjacentStructuresPicksPorts(t *testing.T) {
	t.Parallel()
	g := BaseLayout().Grid
	h := Hex{Row: 3, Col: 3}
	corners := g.AdjacentStructureSlots(h)
	got := g.HarborAdjacentStructures([2]int{CornerLowerRight, CornerBottom}, h)
	assert.Equal(t, []Slot{corners[CornerLowerRight], corners[CornerBottom]}, got)
}
