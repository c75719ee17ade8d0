package bot

import (
	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/game"
)

// pips is how often a dice number comes up out of 36, less one.
func pips(dice int) int {
	if dice <= 0 {
		return 0
	}
	return 6 - abs(7-dice)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// yield sums the pips of the producing tiles around slot.
func yield(s *game.State, slot board.Slot) int {
	total := 0
	for _, h := range s.Board.Grid.HexesOfStructure(slot) {
		if t, ok := s.Board.Tile(h); ok && t.Produces() {
			total += pips(t.Dice)
		}
	}
	return total
}

// openSpot reports whether a settlement could one day stand on slot.
func openSpot(s *game.State, slot board.Slot) bool {
	if s.Board.SlotType(slot) == board.SlotNone || s.StructureAt(slot) != nil {
		return false
	}
	for _, n := range s.Board.Grid.AdjacentStructuresToStructure(slot) {
		if s.StructureAt(n) != nil {
			return false
		}
	}
	return true
}

// bestRoad prefers an edge that leads to open ground with a good yield.
func bestRoad(s *game.State, p *game.Player) (board.Edge, bool) {
	edges := game.ValidRoads(s, p.SessionID)
	if len(edges) == 0 {
		return board.Edge{}, false
	}
	g := s.Board.Grid
	best, score := edges[0], -1
	for _, e := range edges {
		for _, end := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
			if !openSpot(s, end) {
				continue
			}
			if y := yield(s, end); y > score {
				best, score = e, y
			}
		}
	}
	return best, true
}

// weakestSection is the wall section with the fewest guards and room for
// one more.
func weakestSection(s *game.State) (int, bool) {
	if s.Wall == nil {
		return 0, false
	}
	best, count := -1, 0
	for i, sec := range s.Wall.Sections {
		if !game.IsValidGuard(s, i) {
			continue
		}
		if best < 0 || len(sec) < count {
			best, count = i, len(sec)
		}
	}
	return best, best >= 0
}

// robbedByRobber reports whether the robber blocks one of p's structures.
func robbedByRobber(s *game.State, p *game.Player) bool {
	g := s.Board.Grid
	for _, slot := range g.AdjacentStructureSlots(g.HexAt(s.Robber)) {
		if st := s.StructureAt(slot); st != nil && st.OwnerID == p.SessionID {
			return true
		}
	}
	return false
}

// robberTarget picks the land tile with the most opponent buildings and
// none of our own, breaking ties on yield.
func robberTarget(s *game.State, p *game.Player, thinking *ThinkingContext) board.Hex {
	g := s.Board.Grid
	best, bestScore, fallback := -1, -1, -1
	for i, tile := range s.Board.Tiles {
		if !tile.IsLand() || i == s.Robber {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		own, score := false, 0
		for _, slot := range g.AdjacentStructureSlots(g.HexAt(i)) {
			st := s.StructureAt(slot)
			if st == nil {
				continue
			}
			if st.OwnerID == p.SessionID {
				own = true
				break
			}
			score += 10
			if st.Kind == game.City {
				score += 10
			}
		}
		if own {
			continue
		}
		score += pips(tile.Dice)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		best = fallback
		thinking.AddThought("Every tile touches our land, taking the first")
	} else {
		thinking.AddThought("Robbing the busiest opponent tile")
	}
	return g.HexAt(best)
}

// placementFor returns the action that would make purchase t, without its
// payment, or false when there is nowhere sensible to put it.
func placementFor(s *game.State, p *game.Player, t game.Purchase) (game.Action, bool) {
	switch t {
	case game.PurchaseCity:
		if p.Pieces.Cities == 0 {
			return game.Action{}, false
		}
		var best *game.Structure
		score := -1
		for _, st := range s.Structures {
			if st.OwnerID != p.SessionID || st.Kind != game.Settlement {
				continue
			}
			if y := yield(s, st.Slot); y > score {
				best, score = st, y
			}
		}
		if best == nil {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPlaceStructure, Row: best.Slot.Row, Col: best.Slot.Col}, true

	case game.PurchaseSettlement:
		if p.Pieces.Settlements == 0 {
			return game.Action{}, false
		}
		slot, ok := game.BestSettlement(s, p.SessionID)
		if !ok {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPlaceStructure, Row: slot.Row, Col: slot.Col}, true

	case game.PurchaseGuard:
		if s.Wall == nil || p.Pieces.Guards == 0 {
			return game.Action{}, false
		}
		posted := 0
		for _, n := range s.Wall.Guards() {
			posted += n
		}
		if posted > s.Wall.Wildlings {
			return game.Action{}, false
		}
		section, ok := weakestSection(s)
		if !ok {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPlaceGuard, Section: section}, true

	case game.PurchaseGameCard:
		if s.DeckSize == 0 {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPurchaseGameCard}, true

	case game.PurchaseRoad:
		if p.Pieces.Roads == 0 {
			return game.Action{}, false
		}
		// save for a settlement when there is already somewhere to put one
		if p.FreeRoads == 0 && p.Pieces.Settlements > 0 && len(game.ValidSettlements(s, p.SessionID)) > 0 {
			return game.Action{}, false
		}
		edge, ok := bestRoad(s, p)
		if !ok {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPlaceRoad, Row: edge.Row, Col: edge.Col}, true
	}
	return game.Action{}, false
}
