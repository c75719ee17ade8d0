package game

import (
	"github.com/charmbracelet/log"

	"github.com/lox/settlersforbots/internal/board"
)

// Substitution lets one resource stand in for another on a purchase.
type Substitution struct {
	From Resource `json:"from"` // paid instead
	To   Resource `json:"to"`   // normally required
}

// Bank moves resources between the shared supply and players. Every
// method is a matched debit and credit so the total issued never changes.
type Bank struct {
	emit   Emitter
	logger *log.Logger
}

// NewBank creates the bank service for one room.
func NewBank(emit Emitter, logger *log.Logger) *Bank {
	return &Bank{emit: emit, logger: logger.WithPrefix("bank")}
}

type lootClaim struct {
	player *Player
	amount int
}

// SetResourcesLoot credits loot for every producing tile that is not
// blocked and, when dice is given, matches it. Settlements earn one card
// and cities two. With isFirstLoot only each player's most recent
// structure pays out.
//
// A resource the bank cannot cover for every claim pays nobody, unless a
// single player claims it, in which case they take what is left.
func (b *Bank) SetResourcesLoot(s *State, dice *int, isFirstLoot bool) {
	claims := make(map[Resource][]lootClaim)
	g := s.Board.Grid
	for i, t := range s.Board.Tiles {
		if !t.Produces() || i == s.Robber || t.Occupant != board.NoOccupant {
			continue
		}
		if dice != nil && t.Dice != *dice {
			continue
		}
		for _, slot := range g.AdjacentStructureSlots(g.HexAt(i)) {
			st := s.StructureAt(slot)
			if st == nil {
				continue
			}
			owner, ok := s.Player(st.OwnerID)
			if !ok {
				continue
			}
			if isFirstLoot && owner.LastStructure != st {
				continue
			}
			amount := 1
			if st.Kind == City {
				amount = 2
			}
			claims[t.Resource] = addClaim(claims[t.Resource], owner, amount)
		}
	}

	for _, r := range board.AllResources {
		list := claims[r]
		if len(list) == 0 {
			continue
		}
		want := 0
		for _, c := range list {
			want += c.amount
		}
		if want > s.Bank[r] {
			if len(list) > 1 {
				b.logger.Debug("Bank short, nobody paid", "resource", r, "want", want, "have", s.Bank[r])
				notify(b.emit, NotifyLoot, SystemSender, map[string]any{"resource": r},
					"the bank is short of %s", r)
				continue
			}
			list[0].amount = s.Bank[r]
		}
		for _, c := range list {
			if c.amount == 0 {
				continue
			}
			s.Bank[r] -= c.amount
			c.player.AvailableLoot[r] += c.amount
			notify(b.emit, NotifyLoot, c.player.SessionID,
				map[string]any{"resource": r, "amount": c.amount},
				"%s gets %d %s", c.player.Nickname, c.amount, r)
		}
	}
}

func addClaim(list []lootClaim, p *Player, amount int) []lootClaim {
	for i := range list {
		if list[i].player == p {
			list[i].amount += amount
			return list
		}
	}
	return append(list, lootClaim{player: p, amount: amount})
}

// ReturnToBank moves r from p's hand into the bank.
func (b *Bank) ReturnToBank(s *State, p *Player, r Resources) error {
	for _, n := range r {
		if n < 0 {
			return ErrInsufficientResources
		}
	}
	if !p.Resources.Covers(r) {
		return ErrInsufficientResources
	}
	p.Resources.Sub(r)
	s.Bank.Add(r)
	return nil
}

// PayFromBank moves r from the bank into p's hand.
func (b *Bank) PayFromBank(s *State, p *Player, r Resources) error {
	for res, n := range r {
		if n < 0 || (n > 0 && !validResource(res)) {
			return ErrInsufficientResources
		}
	}
	if !s.Bank.Covers(r) {
		return ErrBankEmpty
	}
	s.Bank.Sub(r)
	p.Resources.Add(r)
	return nil
}

// OnBankPayment charges p for purchase, applying sub when the player's
// steward allows a flexible purchase. Unaffordable purchases are rejected.
func (b *Bank) OnBankPayment(s *State, p *Player, purchase Purchase, sub *Substitution) error {
	cost := s.Variant.Cost(purchase)
	if cost == nil {
		return ErrWrongPhase
	}
	if sub != nil {
		if !p.FlexiblePurchase || cost[sub.To] == 0 || !validResource(sub.From) || sub.From == sub.To {
			return ErrInsufficientResources
		}
		cost[sub.To]--
		cost[sub.From]++
	}
	if err := b.ReturnToBank(s, p, cost); err != nil {
		return err
	}
	if sub != nil {
		p.FlexiblePurchase = false
	}
	b.logger.Debug("Payment", "player", p.SessionID, "purchase", purchase, "cost", cost)
	return nil
}

// CollectLoot moves p's pending loot into their hand: one resource when
// res is given, everything otherwise.
func (b *Bank) CollectLoot(s *State, p *Player, res *Resource) error {
	var moved Resources
	if res != nil {
		if !validResource(*res) || p.AvailableLoot[*res] == 0 {
			return ErrInsufficientResources
		}
		moved = Resources{*res: p.AvailableLoot[*res]}
	} else {
		if p.AvailableLoot.IsZero() {
			return ErrInsufficientResources
		}
		moved = p.AvailableLoot.Clone()
	}
	p.AvailableLoot.Sub(moved)
	p.Resources.Add(moved)
	notify(b.emit, NotifyLootCollected, p.SessionID, map[string]any{"resources": moved},
		"%s collected %s", p.Nickname, moved)
	return nil
}

// ForcePickup collects every player's loot.
func (b *Bank) ForcePickup(s *State) {
	for _, p := range s.Players {
		if !p.AvailableLoot.IsZero() {
			_ = b.CollectLoot(s, p, nil)
		}
	}
}

// DiscardHalf returns exactly half of p's hand, rounded down, to the bank.
func (b *Bank) DiscardHalf(s *State, p *Player, r Resources) error {
	if !p.MustDiscardHalfDeck {
		return ErrWrongPhase
	}
	if r.Total() != p.HandSize()/2 {
		return ErrInsufficientResources
	}
	if err := b.ReturnToBank(s, p, r); err != nil {
		return err
	}
	p.MustDiscardHalfDeck = false
	notify(b.emit, NotifyDiscard, p.SessionID, map[string]any{"count": r.Total()},
		"%s discarded %d cards", p.Nickname, r.Total())
	return nil
}

// evict returns everything p holds to the bank.
func (b *Bank) evict(s *State, p *Player) {
	for _, bag := range []Resources{p.Resources, p.AvailableLoot, p.TradeCounts} {
		s.Bank.Add(bag)
		bag.Clear()
	}
}
