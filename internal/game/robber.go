package game

import (
	"slices"

	"github.com/lox/settlersforbots/internal/board"
)

// MoveRobber puts the robber on a new land tile. If any opponent with cards
// borders it the player must then steal.
func (e *Engine) MoveRobber(p *Player, h board.Hex) error {
	s := e.State
	if err := s.requireTurn(p, PhaseMain); err != nil {
		return err
	}
	if !p.MustMoveRobber {
		return ErrWrongPhase
	}
	if !s.Board.IsLand(h) {
		return ErrInvalidPlacement
	}
	idx := s.Board.Grid.Index(h)
	if idx == s.Robber {
		return ErrInvalidPlacement
	}
	s.Robber = idx
	p.MustMoveRobber = false
	s.PendingSteal = len(StealVictims(s, p.SessionID)) > 0
	notify(e.emit, NotifyRobberMoved, p.SessionID, map[string]any{"row": h.Row, "col": h.Col},
		"%s moved the robber", p.Nickname)
	return nil
}

// StealVictims lists opponents with cards that have a structure on the
// robber's tile, in turn order.
func StealVictims(s *State, thiefID string) []*Player {
	g := s.Board.Grid
	var out []*Player
	for _, slot := range g.AdjacentStructureSlots(g.HexAt(s.Robber)) {
		st := s.StructureAt(slot)
		if st == nil || st.OwnerID == thiefID {
			continue
		}
		victim, ok := s.Player(st.OwnerID)
		if !ok || victim.HandSize() == 0 || slices.Contains(out, victim) {
			continue
		}
		out = append(out, victim)
	}
	slices.SortFunc(out, func(a, b *Player) int { return a.TurnIndex - b.TurnIndex })
	return out
}

// StealCard takes a random card from one of the robber's victims.
func (e *Engine) StealCard(p *Player, victimID string) error {
	s := e.State
	if err := s.requireTurn(p, PhaseMain); err != nil {
		return err
	}
	if !s.PendingSteal {
		return ErrWrongPhase
	}
	victims := StealVictims(s, p.SessionID)
	if len(victims) == 0 {
		// the victims left or emptied their hands since the robber moved
		s.PendingSteal = false
		return nil
	}
	for _, v := range victims {
		if v.SessionID == victimID {
			e.Trades.OnStealCard(s, p, v)
			s.PendingSteal = false
			return nil
		}
	}
	return ErrUnknownPlayer
}
