package game

import (
	"github.com/lox/settlersforbots/internal/board"
)

// PlaceStructure builds a settlement on an empty slot or upgrades the
// player's own settlement to a city. Setup placements are free.
func (e *Engine) PlaceStructure(p *Player, slot board.Slot, sub *Substitution) error {
	s := e.State
	if s.Phase == PhaseSetup {
		if err := s.requireTurn(p, PhaseSetup); err != nil {
			return err
		}
		if s.SetupPlacedSettlement || p.Pieces.Settlements == 0 {
			return ErrInvalidPlacement
		}
		if !IsValidSettlement(s, p.SessionID, slot) {
			return ErrInvalidPlacement
		}
		e.settle(p, slot)
		s.SetupPlacedSettlement = true
		return nil
	}

	if err := s.requireMainAction(p); err != nil {
		return err
	}
	if IsValidCity(s, p.SessionID, slot) {
		if p.Pieces.Cities == 0 {
			return ErrNoPiecesLeft
		}
		if err := e.Bank.OnBankPayment(s, p, PurchaseCity, sub); err != nil {
			return err
		}
		st := s.StructureAt(slot)
		st.Kind = City
		p.Pieces.Cities--
		p.Pieces.Settlements++
		p.LastStructure = st
		notify(e.emit, NotifyStructurePlaced, p.SessionID,
			map[string]any{"kind": City, "row": slot.Row, "col": slot.Col},
			"%s built a city", p.Nickname)
		return nil
	}

	if !IsValidSettlement(s, p.SessionID, slot) {
		return ErrInvalidPlacement
	}
	if p.Pieces.Settlements == 0 {
		return ErrNoPiecesLeft
	}
	if err := e.Bank.OnBankPayment(s, p, PurchaseSettlement, sub); err != nil {
		return err
	}
	e.settle(p, slot)
	return nil
}

func (e *Engine) settle(p *Player, slot board.Slot) {
	st := &Structure{OwnerID: p.SessionID, Kind: Settlement, Slot: slot}
	e.State.addStructure(st)
	p.Pieces.Settlements--
	p.LastStructure = st
	if res, ok := e.State.Board.HarborAt(slot); ok {
		p.OwnedHarbors[res] = true
	}
	notify(e.emit, NotifyStructurePlaced, p.SessionID,
		map[string]any{"kind": Settlement, "row": slot.Row, "col": slot.Col},
		"%s built a settlement", p.Nickname)
}

// PlaceRoad builds a road. Setup roads and road building roads are free.
func (e *Engine) PlaceRoad(p *Player, edge board.Edge, sub *Substitution) error {
	s := e.State
	if s.Phase == PhaseSetup {
		if err := s.requireTurn(p, PhaseSetup); err != nil {
			return err
		}
		if !s.SetupPlacedSettlement || s.SetupPlacedRoad {
			return ErrInvalidPlacement
		}
		if !IsValidRoad(s, p.SessionID, edge) {
			return ErrInvalidPlacement
		}
		e.pave(p, edge)
		s.SetupPlacedRoad = true
		return nil
	}

	if err := s.requireMainAction(p); err != nil {
		return err
	}
	if !IsValidRoad(s, p.SessionID, edge) {
		return ErrInvalidPlacement
	}
	if p.Pieces.Roads == 0 {
		return ErrNoPiecesLeft
	}
	if p.FreeRoads > 0 {
		p.FreeRoads--
	} else if err := e.Bank.OnBankPayment(s, p, PurchaseRoad, sub); err != nil {
		return err
	}
	e.pave(p, edge)
	return nil
}

func (e *Engine) pave(p *Player, edge board.Edge) {
	e.State.addRoad(&Road{OwnerID: p.SessionID, Edge: edge})
	p.Pieces.Roads--
	notify(e.emit, NotifyRoadPlaced, p.SessionID, map[string]any{"row": edge.Row, "col": edge.Col},
		"%s built a road", p.Nickname)
}

// RemoveRoad picks up a dead-end road and returns it to the owner's supply.
func (e *Engine) RemoveRoad(p *Player, edge board.Edge) error {
	s := e.State
	if err := s.requireMainAction(p); err != nil {
		return err
	}
	if !CanRemoveRoad(s, p.SessionID, edge) {
		return ErrInvalidPlacement
	}
	s.removeRoad(edge)
	p.Pieces.Roads++
	notify(e.emit, NotifyRoadRemoved, p.SessionID, map[string]any{"row": edge.Row, "col": edge.Col},
		"%s removed a road", p.Nickname)
	return nil
}
