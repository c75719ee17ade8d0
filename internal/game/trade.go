package game

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/settlersforbots/internal/board"
)

// Trades runs player to player negotiations and the single-shot transfers
// (steal, monopoly, bank trade).
//
// A negotiation goes request, then accept or refuse. While active each side
// stages cards into TradeCounts and toggles IsTradeConfirmed; the swap
// happens the moment both sides are confirmed. Staged cards stay counted
// in TradeCounts, so the bank invariant holds at every step.
type Trades struct {
	emit   Emitter
	rng    *rand.Rand
	logger *log.Logger
}

// NewTrades creates the trade service for one room.
func NewTrades(emit Emitter, rng *rand.Rand, logger *log.Logger) *Trades {
	return &Trades{emit: emit, rng: rng, logger: logger.WithPrefix("trades")}
}

// canNegotiate checks that one side is the current player and both are free.
func (t *Trades) canNegotiate(s *State, from, to *Player) error {
	if s.Phase != PhaseMain {
		return ErrWrongPhase
	}
	if !s.HasRolled {
		return ErrNotRolled
	}
	if from == to {
		return ErrTradeState
	}
	if from.TurnIndex != s.CurrentTurn && to.TurnIndex != s.CurrentTurn {
		return ErrNotYourTurn
	}
	if from.IsTrading() || to.IsTrading() {
		return ErrTradeState
	}
	return nil
}

// RequestTrade proposes a negotiation from one player to another.
func (t *Trades) RequestTrade(s *State, from, to *Player) error {
	if err := t.canNegotiate(s, from, to); err != nil {
		return err
	}
	from.PendingTradeWithID = to.SessionID
	to.IncomingTradeFromID = from.SessionID
	attention(t.emit, NotifyTradeRequested, from.SessionID, map[string]any{"to": to.SessionID},
		"%s wants to trade with %s", from.Nickname, to.Nickname)
	return nil
}

// AcceptTrade opens the negotiation p was invited to by from.
func (t *Trades) AcceptTrade(s *State, p, from *Player) error {
	if p.IncomingTradeFromID != from.SessionID || from.PendingTradeWithID != p.SessionID {
		return ErrTradeState
	}
	from.PendingTradeWithID, p.IncomingTradeFromID = "", ""
	from.TradingWithID, p.TradingWithID = p.SessionID, from.SessionID
	from.IsTradeConfirmed, p.IsTradeConfirmed = false, false
	notify(t.emit, NotifyTradeStarted, p.SessionID, map[string]any{"with": from.SessionID},
		"%s and %s are trading", from.Nickname, p.Nickname)
	return nil
}

// RefuseTrade declines or withdraws a proposal, or cancels an active
// negotiation.
func (t *Trades) RefuseTrade(s *State, p *Player) error {
	switch {
	case p.TradingWithID != "":
		return t.CancelTrade(s, p)
	case p.IncomingTradeFromID != "":
		if other, ok := s.Player(p.IncomingTradeFromID); ok {
			other.PendingTradeWithID = ""
		}
		p.IncomingTradeFromID = ""
	case p.PendingTradeWithID != "":
		if other, ok := s.Player(p.PendingTradeWithID); ok {
			other.IncomingTradeFromID = ""
		}
		p.PendingTradeWithID = ""
	default:
		return ErrTradeState
	}
	notify(t.emit, NotifyTradeRefused, p.SessionID, nil, "%s refused the trade", p.Nickname)
	return nil
}

func (t *Trades) partner(s *State, p *Player) (*Player, error) {
	if p.TradingWithID == "" {
		return nil, ErrTradeState
	}
	other, ok := s.Player(p.TradingWithID)
	if !ok {
		return nil, ErrTradeState
	}
	return other, nil
}

// AddCard stages one card of res. Any change clears both confirmations.
func (t *Trades) AddCard(s *State, p *Player, res Resource) error {
	other, err := t.partner(s, p)
	if err != nil {
		return err
	}
	if !validResource(res) || p.Resources[res] == 0 {
		return ErrInsufficientResources
	}
	p.Resources[res]--
	p.TradeCounts[res]++
	t.staged(p, other)
	return nil
}

// RemoveCard takes one staged card of res back into the hand.
func (t *Trades) RemoveCard(s *State, p *Player, res Resource) error {
	other, err := t.partner(s, p)
	if err != nil {
		return err
	}
	if !validResource(res) || p.TradeCounts[res] == 0 {
		return ErrInsufficientResources
	}
	p.TradeCounts[res]--
	p.Resources[res]++
	t.staged(p, other)
	return nil
}

func (t *Trades) staged(p, other *Player) {
	p.IsTradeConfirmed, other.IsTradeConfirmed = false, false
	notify(t.emit, NotifyTradeUpdated, p.SessionID, map[string]any{"offer": p.TradeCounts.Clone()},
		"%s offers %s", p.Nickname, p.TradeCounts)
}

// ConfirmTrade toggles p's confirmation and executes the swap once both
// sides have confirmed.
func (t *Trades) ConfirmTrade(s *State, p *Player) error {
	other, err := t.partner(s, p)
	if err != nil {
		return err
	}
	p.IsTradeConfirmed = !p.IsTradeConfirmed
	if !p.IsTradeConfirmed || !other.IsTradeConfirmed {
		return nil
	}

	p.Resources.Add(other.TradeCounts)
	other.Resources.Add(p.TradeCounts)
	gave, got := p.TradeCounts.Clone(), other.TradeCounts.Clone()
	p.TradeCounts.Clear()
	other.TradeCounts.Clear()
	closeTrade(p, other)

	t.logger.Debug("Trade completed", "a", p.SessionID, "b", other.SessionID, "gave", gave, "got", got)
	notify(t.emit, NotifyTradeCompleted, p.SessionID,
		map[string]any{"with": other.SessionID, "gave": gave, "got": got},
		"%s traded %s for %s with %s", p.Nickname, gave, got, other.Nickname)
	return nil
}

// CancelTrade ends p's negotiation and hands staged cards back to their
// owners.
func (t *Trades) CancelTrade(s *State, p *Player) error {
	other, err := t.partner(s, p)
	if err != nil {
		return err
	}
	for _, q := range []*Player{p, other} {
		q.Resources.Add(q.TradeCounts)
		q.TradeCounts.Clear()
	}
	closeTrade(p, other)
	notify(t.emit, NotifyTradeCancelled, p.SessionID, map[string]any{"with": other.SessionID},
		"%s cancelled the trade with %s", p.Nickname, other.Nickname)
	return nil
}

func closeTrade(a, b *Player) {
	a.TradingWithID, b.TradingWithID = "", ""
	a.IsTradeConfirmed, b.IsTradeConfirmed = false, false
}

// CancelAll clears every negotiation and proposal involving p.
func (t *Trades) CancelAll(s *State, p *Player) {
	for p.IsTrading() {
		if err := t.RefuseTrade(s, p); err != nil {
			t.logger.Warn("Could not clear trade", "player", p.SessionID, "error", err)
			p.TradingWithID, p.PendingTradeWithID, p.IncomingTradeFromID = "", "", ""
			return
		}
	}
}

// OnStealCard moves one random card from victim to thief.
func (t *Trades) OnStealCard(s *State, thief, victim *Player) {
	total := victim.HandSize()
	if total == 0 {
		return
	}
	pick := t.rng.IntN(total)
	for _, r := range board.AllResources {
		if pick < victim.Resources[r] {
			victim.Resources[r]--
			thief.Resources[r]++
			notify(t.emit, NotifyCardStolen, thief.SessionID, map[string]any{"victim": victim.SessionID},
				"%s stole a card from %s", thief.Nickname, victim.Nickname)
			return
		}
		pick -= victim.Resources[r]
	}
}

// OnMonopoly takes every card of res from all other players.
func (t *Trades) OnMonopoly(s *State, p *Player, res Resource) {
	taken := 0
	for _, other := range s.Players {
		if other == p {
			continue
		}
		n := other.Resources[res]
		other.Resources[res] = 0
		p.Resources[res] += n
		taken += n
	}
	notify(t.emit, NotifyMonopoly, p.SessionID, map[string]any{"resource": res, "amount": taken},
		"%s took %d %s", p.Nickname, taken, res)
}

// BankRate is what p pays in give for one card from the bank.
func BankRate(p *Player, give Resource) int {
	switch {
	case p.OwnedHarbors[give]:
		return 2
	case p.OwnedHarbors[board.NoResource]:
		return 3
	}
	return 4
}

// OnBankTrade exchanges cards of give for one card of get at p's best rate.
func (t *Trades) OnBankTrade(s *State, p *Player, give, get Resource) error {
	if !validResource(give) || !validResource(get) || give == get {
		return ErrInsufficientResources
	}
	rate := BankRate(p, give)
	if p.Resources[give] < rate {
		return ErrInsufficientResources
	}
	if s.Bank[get] < 1 {
		return ErrBankEmpty
	}
	p.Resources[give] -= rate
	s.Bank[give] += rate
	s.Bank[get]--
	p.Resources[get]++
	notify(t.emit, NotifyBankTrade, p.SessionID, map[string]any{"give": give, "get": get, "rate": rate},
		"%s traded %d %s for 1 %s", p.Nickname, rate, give, get)
	return nil
}
