package game

import (
	"math"

	"github.com/lox/settlersforbots/internal/board"
)

// The predicates in this file never mutate state. Invalid placements are an
// expected answer, not an error.

// IsValidSettlement reports whether ownerID may put a settlement on slot.
// During setup the road requirement is waived and harbor slots are off
// limits.
func IsValidSettlement(s *State, ownerID string, slot board.Slot) bool {
	b := s.Board
	if b.SlotType(slot) == board.SlotNone || s.StructureAt(slot) != nil {
		return false
	}
	setup := s.Phase == PhaseSetup
	if setup && b.IsHarborSlot(slot) {
		return false
	}
	if !setup && !touchesOwnRoad(s, ownerID, slot) {
		return false
	}
	for _, n := range b.Grid.AdjacentStructuresToStructure(slot) {
		if s.StructureAt(n) != nil {
			return false
		}
	}
	return true
}

func touchesOwnRoad(s *State, ownerID string, slot board.Slot) bool {
	g := s.Board.Grid
	for _, e := range g.AdjacentRoadsOfStructure(g.StructureSlotType(slot), slot) {
		if r := s.RoadAt(e); r != nil && r.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// IsValidCity reports whether ownerID has a settlement on slot to upgrade.
func IsValidCity(s *State, ownerID string, slot board.Slot) bool {
	st := s.StructureAt(slot)
	return st != nil && st.OwnerID == ownerID && st.Kind == Settlement
}

// IsValidRoad reports whether ownerID may build on edge. The road must
// join one of the owner's structures (during setup, the one just placed)
// or continue one of the owner's roads through a slot no opponent holds.
func IsValidRoad(s *State, ownerID string, e board.Edge) bool {
	b := s.Board
	t := b.RoadType(e)
	if t == board.RoadNone || s.RoadAt(e) != nil {
		return false
	}
	p, ok := s.Player(ownerID)
	if !ok {
		return false
	}
	ends := b.Grid.IntersectionsOfRoad(t, e)
	if s.Phase == PhaseSetup {
		if p.LastStructure == nil {
			return false
		}
		for _, end := range ends {
			if end == p.LastStructure.Slot {
				return true
			}
		}
		return false
	}
	for _, end := range ends {
		if st := s.StructureAt(end); st != nil {
			if st.OwnerID == ownerID {
				return true
			}
			continue
		}
		for _, other := range b.Grid.AdjacentRoadsOfStructure(b.Grid.StructureSlotType(end), end) {
			if other == e {
				continue
			}
			if r := s.RoadAt(other); r != nil && r.OwnerID == ownerID {
				return true
			}
		}
	}
	return false
}

// IsValidGuard reports whether a wall section has room for another guard.
func IsValidGuard(s *State, section int) bool {
	if s.Wall == nil || section < 0 || section >= len(s.Wall.Sections) {
		return false
	}
	return len(s.Wall.Sections[section]) < s.Variant.Wall.GuardsPerSection
}

// CanRemoveRoad reports whether ownerID may pick up the road on edge. Only
// dead ends can be removed: one endpoint must carry neither an own
// structure nor another own road.
func CanRemoveRoad(s *State, ownerID string, e board.Edge) bool {
	if !s.Variant.RemovableRoads {
		return false
	}
	r := s.RoadAt(e)
	if r == nil || r.OwnerID != ownerID {
		return false
	}
	g := s.Board.Grid
	for _, end := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
		if st := s.StructureAt(end); st != nil && st.OwnerID == ownerID {
			continue
		}
		connected := false
		for _, other := range g.AdjacentRoadsOfStructure(g.StructureSlotType(end), end) {
			if o := s.RoadAt(other); other != e && o != nil && o.OwnerID == ownerID {
				connected = true
				break
			}
		}
		if !connected {
			return true
		}
	}
	return false
}

// ValidRoads enumerates every edge ownerID may build on.
func ValidRoads(s *State, ownerID string) []board.Edge {
	var out []board.Edge
	for _, e := range s.Board.Edges() {
		if IsValidRoad(s, ownerID, e) {
			out = append(out, e)
		}
	}
	return out
}

// ValidSettlements enumerates every slot ownerID may settle.
func ValidSettlements(s *State, ownerID string) []board.Slot {
	var out []board.Slot
	for _, slot := range s.Board.Slots() {
		if IsValidSettlement(s, ownerID, slot) {
			out = append(out, slot)
		}
	}
	return out
}

// BestSettlement picks the valid slot with the most resource diversity,
// then the yield closest to an average roll. Slots touching three distinct
// resources beat two, which beat anything else. Ties keep the first slot
// in row-major order.
func BestSettlement(s *State, ownerID string) (board.Slot, bool) {
	var (
		best      board.Slot
		found     bool
		bestTier  int
		bestScore float64
	)
	for _, slot := range ValidSettlements(s, ownerID) {
		tier, score := rateSlot(s.Board, slot)
		if !found || tier < bestTier || (tier == bestTier && score < bestScore) {
			best, found, bestTier, bestScore = slot, true, tier, score
		}
	}
	return best, found
}

// rateSlot returns a diversity tier (0 best) and the distance of the slot's
// pip total from the per-roll average.
func rateSlot(b *board.Board, slot board.Slot) (int, float64) {
	distinct := make(map[board.Resource]bool)
	pips, lootable := 0, 0
	for _, h := range b.Grid.HexesOfStructure(slot) {
		t, ok := b.Tile(h)
		if !ok || !t.Produces() {
			continue
		}
		distinct[t.Resource] = true
		pips += t.Dice
		lootable++
	}
	tier := 2
	switch {
	case len(distinct) >= 3:
		tier = 0
	case len(distinct) == 2:
		tier = 1
	}
	if lootable == 0 {
		return tier, math.Inf(1)
	}
	return tier, math.Abs(1 - float64(pips)/float64(lootable*7))
}
