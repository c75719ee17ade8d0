package game

import (
	"slices"

	"github.com/charmbracelet/log"
)

// Turns advances the game through its phases:
//
//	lobby -> turn-order -> setup -> guard-setup (expansion) -> main -> finished
//
// Turn order lets every seat roll once; the lowest roll starts, ties going
// to the lower turn index. Setup visits seats in snake order from the
// starter, so the last seat plays twice in a row. The guard setup round
// visits each seat once more going forward.
type Turns struct {
	bank   *Bank
	trades *Trades
	wall   *WallKeeper
	emit   Emitter
	logger *log.Logger
}

// NewTurns wires the turn machine to the services it triggers. wall may be
// nil for variants without one.
func NewTurns(bank *Bank, trades *Trades, wall *WallKeeper, emit Emitter, logger *log.Logger) *Turns {
	return &Turns{bank: bank, trades: trades, wall: wall, emit: emit, logger: logger.WithPrefix("turns")}
}

// StartGame leaves the lobby. The lowest occupied seat rolls first.
func (t *Turns) StartGame(s *State) error {
	if s.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(s.Players) == 0 {
		return ErrUnknownPlayer
	}
	s.Phase = PhaseTurnOrder
	s.CurrentTurn = s.Seats()[0]
	s.HasRolled = false
	clear(s.InitialRolls)
	t.phaseChanged(s, "rolling for turn order")
	t.turnChanged(s)
	return nil
}

// RollDice applies a roll by the current player.
func (t *Turns) RollDice(s *State, p *Player, d1, d2 int) error {
	if s.Phase == PhaseFinished {
		return ErrGameOver
	}
	if s.Phase != PhaseTurnOrder && s.Phase != PhaseMain {
		return ErrWrongPhase
	}
	if p.TurnIndex != s.CurrentTurn {
		return ErrNotYourTurn
	}
	if s.HasRolled {
		return ErrAlreadyRolled
	}
	if p.hasObligation() || s.PendingSteal {
		return ErrPendingObligation
	}

	total := d1 + d2
	s.HasRolled = true
	s.LastRoll = [2]int{d1, d2}
	attention(t.emit, NotifyDiceRolled, p.SessionID, map[string]any{"dice": s.LastRoll, "total": total},
		"%s rolled %d", p.Nickname, total)

	if s.Phase == PhaseTurnOrder {
		s.InitialRolls[p.TurnIndex] = total
		return nil
	}

	if t.wall != nil {
		t.wall.OnRoll(s, total)
	}
	if total == 7 {
		for _, q := range s.Players {
			if q.HandSize() > s.Variant.HandLimit {
				q.MustDiscardHalfDeck = true
				attention(t.emit, NotifyMustDiscard, SystemSender, map[string]any{"player": q.SessionID},
					"%s must discard %d cards", q.Nickname, q.HandSize()/2)
			}
		}
		p.MustMoveRobber = true
		return nil
	}
	t.bank.SetResourcesLoot(s, &total, false)
	return nil
}

// FinishTurn ends p's turn and moves the game on.
func (t *Turns) FinishTurn(s *State, p *Player) error {
	if s.Phase == PhaseFinished {
		return ErrGameOver
	}
	if s.Phase == PhaseLobby {
		return ErrWrongPhase
	}
	if p.TurnIndex != s.CurrentTurn {
		return ErrNotYourTurn
	}

	switch s.Phase {
	case PhaseTurnOrder:
		if !s.HasRolled {
			return ErrNotRolled
		}
		t.advanceTurnOrder(s)
	case PhaseSetup:
		if !s.SetupPlacedSettlement || !s.SetupPlacedRoad {
			return ErrPendingObligation
		}
		s.SetupTurn++
		t.advanceSetup(s)
	case PhaseGuardSetup:
		if !s.SetupPlacedGuard {
			return ErrPendingObligation
		}
		s.SetupTurn++
		t.advanceGuardSetup(s)
	case PhaseMain:
		if !s.HasRolled {
			return ErrNotRolled
		}
		if s.PendingSteal {
			return ErrPendingObligation
		}
		for _, q := range s.Players {
			if q.hasObligation() {
				return ErrPendingObligation
			}
		}
		t.endMainTurn(s, p)
	}
	return nil
}

// advanceTurnOrder moves to the next seat, or picks the starter once the
// highest seat has rolled.
func (t *Turns) advanceTurnOrder(s *State) {
	s.HasRolled = false
	seats := s.Seats()
	for _, seat := range seats {
		if seat > s.CurrentTurn {
			s.CurrentTurn = seat
			t.turnChanged(s)
			return
		}
	}

	starter, low := seats[0], -1
	for _, seat := range seats {
		roll, ok := s.InitialRolls[seat]
		if !ok {
			continue
		}
		if low < 0 || roll < low {
			starter, low = seat, roll
		}
	}
	s.RoundStarter = starter
	s.SeatOrder = rotate(seats, starter)
	s.SetupTurn = 0
	s.Phase = PhaseSetup
	t.phaseChanged(s, "placing starting settlements")
	t.advanceSetup(s)
}

// rotate returns seats starting from first.
func rotate(seats []int, first int) []int {
	i := slices.Index(seats, first)
	if i < 0 {
		return slices.Clone(seats)
	}
	return append(slices.Clone(seats[i:]), seats[:i]...)
}

// SetupSeat maps a setup turn to a seat: forward through SeatOrder on even
// rounds and backward on odd ones.
func SetupSeat(order []int, turn int) int {
	n := len(order)
	round, pos := turn/n, turn%n
	if round%2 == 1 {
		pos = n - 1 - pos
	}
	return order[pos]
}

// advanceSetup seats the player for SetupTurn, skipping vacated seats, or
// moves on when the placement rounds are done.
func (t *Turns) advanceSetup(s *State) {
	s.SetupPlacedSettlement, s.SetupPlacedRoad = false, false
	total := s.Variant.SetupRounds * len(s.SeatOrder)
	for ; s.SetupTurn < total; s.SetupTurn++ {
		seat := SetupSeat(s.SeatOrder, s.SetupTurn)
		if s.PlayerAtSeat(seat) != nil {
			s.CurrentTurn = seat
			t.turnChanged(s)
			return
		}
	}
	if s.Wall != nil {
		s.SetupTurn = 0
		s.Phase = PhaseGuardSetup
		t.phaseChanged(s, "posting guards on the wall")
		t.advanceGuardSetup(s)
		return
	}
	t.startMain(s)
}

func (t *Turns) advanceGuardSetup(s *State) {
	s.SetupPlacedGuard = false
	for ; s.SetupTurn < len(s.SeatOrder); s.SetupTurn++ {
		seat := s.SeatOrder[s.SetupTurn]
		if s.PlayerAtSeat(seat) != nil {
			s.CurrentTurn = seat
			t.turnChanged(s)
			return
		}
	}
	t.startMain(s)
}

// startMain pays the starting loot and hands the first turn to the starter.
func (t *Turns) startMain(s *State) {
	s.Phase = PhaseMain
	s.CurrentRound = 1
	s.CurrentTurn = s.RoundStarter
	s.HasRolled = false
	if s.Variant.Heroes {
		for _, p := range s.Players {
			p.Hero = heroForSeat(p.TurnIndex)
		}
	}
	t.bank.SetResourcesLoot(s, nil, true)
	if s.Settings.AutoPickup {
		t.bank.ForcePickup(s)
	}
	t.phaseChanged(s, "the game begins")
	t.turnChanged(s)
}

func (t *Turns) endMainTurn(s *State, p *Player) {
	t.trades.CancelAll(s, p)
	p.resetTurnFlags()
	s.HasRolled = false
	s.TurnNumber++

	next := t.nextSeat(s, s.CurrentTurn)
	if next == s.RoundStarter {
		s.CurrentRound++
		notify(t.emit, NotifyRoundChanged, SystemSender, map[string]any{"round": s.CurrentRound},
			"round %d", s.CurrentRound)
		if limit := s.Settings.MaxRounds; limit > 0 && s.CurrentRound > limit {
			t.finishByRounds(s)
			return
		}
	}
	s.CurrentTurn = next
	if s.Settings.AutoPickup {
		t.bank.ForcePickup(s)
	}
	t.turnChanged(s)
}

// nextSeat is the next occupied seat after seat, wrapping at MaxClients.
func (t *Turns) nextSeat(s *State, seat int) int {
	n := s.Settings.MaxClients
	for i := 1; i <= n; i++ {
		candidate := (seat + i) % n
		if s.PlayerAtSeat(candidate) != nil {
			return candidate
		}
	}
	return seat
}

// finishByRounds ends a round-capped game; the highest score wins and ties
// go to the lower turn index.
func (t *Turns) finishByRounds(s *State) {
	var winner *Player
	for _, seat := range s.Seats() {
		p := s.PlayerAtSeat(seat)
		if winner == nil || p.VictoryPoints > winner.VictoryPoints {
			winner = p
		}
	}
	t.finish(s, winner)
}

func (t *Turns) finish(s *State, winner *Player) {
	s.Phase = PhaseFinished
	data := map[string]any{}
	msg := "the game is over"
	if winner != nil {
		s.WinnerID = winner.SessionID
		data["winner"] = winner.SessionID
		data["points"] = winner.VictoryPoints
		msg = winner.Nickname + " wins"
	}
	t.logger.Info("Game finished", "winner", s.WinnerID, "round", s.CurrentRound)
	attention(t.emit, NotifyGameOver, SystemSender, data, msg)
}

// VacateSeat moves play on when the seat's player is leaving for good. The
// player must already be removed from the state.
func (t *Turns) VacateSeat(s *State, seat int) {
	if len(s.Players) == 0 {
		return
	}
	if seat == s.RoundStarter && s.Phase != PhaseTurnOrder {
		s.RoundStarter = t.nextSeat(s, seat)
	}
	if seat != s.CurrentTurn {
		return
	}
	switch s.Phase {
	case PhaseTurnOrder:
		s.CurrentTurn = seat
		t.advanceTurnOrder(s)
	case PhaseSetup:
		s.SetupTurn++
		t.advanceSetup(s)
	case PhaseGuardSetup:
		s.SetupTurn++
		t.advanceGuardSetup(s)
	case PhaseMain:
		s.HasRolled = false
		s.PendingSteal = false
		s.TurnNumber++
		s.CurrentTurn = t.nextSeat(s, seat)
		t.turnChanged(s)
	}
}

func (t *Turns) phaseChanged(s *State, msg string) {
	t.logger.Debug("Phase changed", "phase", s.Phase)
	notify(t.emit, NotifyPhaseChanged, SystemSender, map[string]any{"phase": s.Phase}, msg)
}

func (t *Turns) turnChanged(s *State) {
	p := s.PlayerAtSeat(s.CurrentTurn)
	if p == nil {
		return
	}
	attention(t.emit, NotifyTurnChanged, SystemSender,
		map[string]any{"player": p.SessionID, "turnIndex": p.TurnIndex, "phase": s.Phase},
		"%s to play", p.Nickname)
}
