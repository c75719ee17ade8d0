package game

import (
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/settlersforbots/internal/board"
)

// WallKeeper runs the expansion's wall: guards bought onto sections and a
// wildling counter that grows on the outer dice totals until it attacks.
type WallKeeper struct {
	bank   *Bank
	emit   Emitter
	rng    *rand.Rand
	logger *log.Logger
}

// NewWallKeeper creates the wall service for one room.
func NewWallKeeper(bank *Bank, emit Emitter, rng *rand.Rand, logger *log.Logger) *WallKeeper {
	return &WallKeeper{bank: bank, emit: emit, rng: rng, logger: logger.WithPrefix("wall")}
}

// PlaceGuard posts one of p's guards on section. The guard is free during
// the guard setup round and bought afterwards.
func (w *WallKeeper) PlaceGuard(s *State, p *Player, section int) error {
	switch s.Phase {
	case PhaseGuardSetup:
		if err := s.requireTurn(p, PhaseGuardSetup); err != nil {
			return err
		}
		if s.SetupPlacedGuard {
			return ErrInvalidPlacement
		}
	case PhaseMain:
		if err := s.requireMainAction(p); err != nil {
			return err
		}
	default:
		return ErrWrongPhase
	}
	if !IsValidGuard(s, section) {
		return ErrInvalidPlacement
	}
	if p.Pieces.Guards == 0 {
		return ErrNoPiecesLeft
	}
	if s.Phase == PhaseMain {
		if err := w.bank.OnBankPayment(s, p, PurchaseGuard, nil); err != nil {
			return err
		}
	} else {
		s.SetupPlacedGuard = true
	}
	s.Wall.Sections[section] = append(s.Wall.Sections[section], p.SessionID)
	p.Pieces.Guards--
	notify(w.emit, NotifyGuardPlaced, p.SessionID, map[string]any{"section": section},
		"%s posted a guard on section %d", p.Nickname, section+1)
	return nil
}

// OnRoll adds a wildling on the configured totals and resolves an attack
// once the threshold is reached.
func (w *WallKeeper) OnRoll(s *State, total int) {
	rules := s.Variant.Wall
	if s.Wall == nil || rules == nil || !slices.Contains(rules.WildlingDice, total) {
		return
	}
	s.Wall.Wildlings++
	notify(w.emit, NotifyWildlings, SystemSender, map[string]any{"wildlings": s.Wall.Wildlings},
		"the wildlings grow to %d", s.Wall.Wildlings)
	if s.Wall.Wildlings >= rules.AttackThreshold {
		w.attack(s)
	}
}

// Guards counts posted guards per owner.
func (w *Wall) Guards() map[string]int {
	out := make(map[string]int)
	for _, sec := range w.Sections {
		for _, id := range sec {
			out[id]++
		}
	}
	return out
}

func (w *WallKeeper) attack(s *State) {
	guards := s.Wall.Guards()
	total := 0
	for _, n := range guards {
		total += n
	}
	wildlings := s.Wall.Wildlings
	s.Wall.Wildlings = 0

	if total >= wildlings {
		w.defended(s, guards)
		attention(w.emit, NotifyWallAttack, SystemSender,
			map[string]any{"defended": true, "guards": total, "wildlings": wildlings},
			"the wall held against %d wildlings", wildlings)
		return
	}
	w.breached(s)
	attention(w.emit, NotifyWallAttack, SystemSender,
		map[string]any{"defended": false, "guards": total, "wildlings": wildlings},
		"%d wildlings broke through the wall", wildlings)
}

// defended awards the watch to the strict leader in guards, sends one
// guard per section home and clears wildling occupants.
func (w *WallKeeper) defended(s *State, guards map[string]int) {
	leader, most, tied := "", 0, false
	for _, p := range s.Players {
		switch n := guards[p.SessionID]; {
		case n > most:
			leader, most, tied = p.SessionID, n, false
		case n == most && n > 0:
			tied = true
		}
	}
	if leader != "" && !tied {
		s.WatchBonusID = leader
	}
	for i, sec := range s.Wall.Sections {
		if len(sec) == 0 {
			continue
		}
		w.returnGuard(s, sec[len(sec)-1])
		s.Wall.Sections[i] = sec[:len(sec)-1]
	}
	for i := range s.Board.Tiles {
		s.Board.Tiles[i].Occupant = board.NoOccupant
	}
}

// breached sends every guard home, makes every player give up one card of
// their most held resource and drops a wildling token on a producing tile.
func (w *WallKeeper) breached(s *State) {
	for i, sec := range s.Wall.Sections {
		for _, id := range sec {
			w.returnGuard(s, id)
		}
		s.Wall.Sections[i] = nil
	}
	for _, p := range s.Players {
		if r, n := p.Resources.Most(); n > 0 {
			_ = w.bank.ReturnToBank(s, p, Resources{r: 1})
		}
	}

	var targets []int
	for i := range s.Board.Tiles {
		s.Board.Tiles[i].Occupant = board.NoOccupant
		if s.Board.Tiles[i].Produces() && i != s.Robber {
			targets = append(targets, i)
		}
	}
	if len(targets) > 0 {
		s.Board.Tiles[targets[w.rng.IntN(len(targets))]].Occupant = board.Wildlings
	}
}

func (w *WallKeeper) returnGuard(s *State, ownerID string) {
	if p, ok := s.Player(ownerID); ok {
		p.Pieces.Guards++
	}
}
