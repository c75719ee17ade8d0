package game

import (
	"github.com/lox/settlersforbots/internal/board"
)

const (
	minLongestRoad = 5
	minLargestArmy = 3
	awardPoints    = 2
)

// UpdateScores recomputes awards and victory points for every player.
// Award holders keep their award on ties.
func (e *Engine) UpdateScores() {
	s := e.State

	roads := make(map[string]int, len(s.Players))
	knights := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		roads[p.SessionID] = LongestRoad(s, p.SessionID)
		knights[p.SessionID] = p.KnightsPlayed
	}
	e.award(&s.LongestRoadID, roads, minLongestRoad, "longest road")
	e.award(&s.LargestArmyID, knights, minLargestArmy, "largest army")

	for _, p := range s.Players {
		vp := p.VictoryCards()
		for _, st := range s.Structures {
			if st.OwnerID != p.SessionID {
				continue
			}
			if st.Kind == City {
				vp += 2
			} else {
				vp++
			}
		}
		if s.LongestRoadID == p.SessionID {
			vp += awardPoints
		}
		if s.LargestArmyID == p.SessionID {
			vp += awardPoints
		}
		if s.WatchBonusID == p.SessionID && s.Variant.Wall != nil {
			vp += s.Variant.Wall.WatchBonus
		}
		p.VictoryPoints = vp
	}
}

// award keeps the holder while nobody strictly beats them. Otherwise the
// award goes to the unique leader with at least minimum, or to nobody when
// the lead is shared.
func (e *Engine) award(holder *string, counts map[string]int, minimum int, name string) {
	best := 0
	for _, p := range e.State.Players {
		best = max(best, counts[p.SessionID])
	}
	if n, ok := counts[*holder]; ok && n >= minimum && n == best {
		return
	}

	next := ""
	if best >= minimum {
		for _, p := range e.State.Players {
			if counts[p.SessionID] != best {
				continue
			}
			if next != "" {
				next = ""
				break
			}
			next = p.SessionID
		}
	}
	if next == *holder {
		return
	}
	*holder = next
	if p, ok := e.State.Player(next); ok {
		notify(e.emit, NotifyAward, next, map[string]any{"award": name, "count": best},
			"%s takes the %s", p.Nickname, name)
	}
}

// LongestRoad is the length of ownerID's longest continuous road. A road
// does not continue through a slot held by an opponent.
func LongestRoad(s *State, ownerID string) int {
	g := s.Board.Grid
	own := make(map[board.Edge]bool)
	for _, r := range s.Roads {
		if r.OwnerID == ownerID {
			own[r.Edge] = true
		}
	}
	if len(own) == 0 {
		return 0
	}

	best := 0
	used := make(map[board.Edge]bool, len(own))
	var walk func(at board.Slot, length int)
	walk = func(at board.Slot, length int) {
		if length > best {
			best = length
		}
		if st := s.StructureAt(at); st != nil && st.OwnerID != ownerID && length > 0 {
			return
		}
		for _, e := range g.AdjacentRoadsOfStructure(g.StructureSlotType(at), at) {
			if !own[e] || used[e] {
				continue
			}
			used[e] = true
			for _, end := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
				if end != at {
					walk(end, length+1)
				}
			}
			used[e] = false
		}
	}
	for e := range own {
		for _, end := range g.IntersectionsOfRoad(g.RoadSlotType(e), e) {
			walk(end, 0)
		}
	}
	return best
}

// checkWinner ends the game when the current player reaches the target.
func (e *Engine) checkWinner() {
	s := e.State
	if s.Phase != PhaseMain {
		return
	}
	p := s.CurrentPlayer()
	if p != nil && p.VictoryPoints >= s.Variant.TargetPoints {
		e.Turns.finish(s, p)
	}
}
