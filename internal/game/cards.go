package game

import (
	rand "math/rand/v2"
)

// CardKind identifies a purchasable game card.
type CardKind string

const (
	Knight       CardKind = "knight"
	VictoryPoint CardKind = "victory-point"
	RoadBuilding CardKind = "road-building"
	YearOfPlenty CardKind = "year-of-plenty"
	Monopoly     CardKind = "monopoly"
)

// deckOrder is the canonical order cards are laid out in before shuffling.
var deckOrder = []CardKind{Knight, VictoryPoint, RoadBuilding, YearOfPlenty, Monopoly}

// Card is a game card in a player's hand.
type Card struct {
	Kind         CardKind `json:"kind"`
	BoughtOnTurn int      `json:"boughtOnTurn"`
}

// Hero is the expansion's per-player reusable ability.
type Hero string

const (
	NoHero Hero = ""
	// Steward allows one resource to stand in for another on a purchase.
	Steward Hero = "steward"
	// Ranger moves the robber.
	Ranger Hero = "ranger"
)

// heroForSeat hands out heroes alternately around the table.
func heroForSeat(seat int) Hero {
	if seat%2 == 0 {
		return Steward
	}
	return Ranger
}

// NewDeck lays out counts in canonical order and shuffles it with rng.
func NewDeck(counts map[CardKind]int, rng *rand.Rand) []CardKind {
	var deck []CardKind
	for _, k := range deckOrder {
		for i := 0; i < counts[k]; i++ {
			deck = append(deck, k)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// PurchaseGameCard pays for and draws the top card of the deck.
func (e *Engine) PurchaseGameCard(p *Player) error {
	s := e.State
	if err := s.requireMainAction(p); err != nil {
		return err
	}
	if len(s.Deck) == 0 {
		return ErrCardUnavailable
	}
	if err := e.Bank.OnBankPayment(s, p, PurchaseGameCard, nil); err != nil {
		return err
	}
	kind := s.Deck[0]
	s.Deck = s.Deck[1:]
	s.DeckSize = len(s.Deck)
	p.GameCards = append(p.GameCards, Card{Kind: kind, BoughtOnTurn: s.TurnNumber})
	notify(e.emit, NotifyCardPurchased, p.SessionID, map[string]any{"remaining": len(s.Deck)},
		"%s bought a game card", p.Nickname)
	return nil
}

// PlayGameCard plays the card at index. Cards bought this turn and victory
// point cards cannot be played, and only one card may be played per turn.
// Year of plenty takes its two resources from picks.
func (e *Engine) PlayGameCard(p *Player, index int, picks Resources) error {
	s := e.State
	if err := s.requireTurn(p, PhaseMain); err != nil {
		return err
	}
	if index < 0 || index >= len(p.GameCards) {
		return ErrCardUnavailable
	}
	card := p.GameCards[index]
	if card.Kind == VictoryPoint || card.BoughtOnTurn == s.TurnNumber || p.HasPlayedCardThisTurn {
		return ErrCardUnavailable
	}
	if card.Kind != Knight {
		// knights may be played before rolling
		if err := s.requireMainAction(p); err != nil {
			return err
		}
	} else if p.hasObligation() || s.PendingSteal {
		return ErrPendingObligation
	}

	switch card.Kind {
	case Knight:
		p.MustMoveRobber = true
		p.KnightsPlayed++
	case RoadBuilding:
		p.FreeRoads = min(2, p.Pieces.Roads)
	case YearOfPlenty:
		if picks.Total() != 2 {
			return ErrCardUnavailable
		}
		if err := e.Bank.PayFromBank(s, p, picks); err != nil {
			return err
		}
	case Monopoly:
		p.IsDeclaringMonopoly = true
	default:
		e.logger.Warn("Unknown card kind", "kind", card.Kind)
		return ErrCardUnavailable
	}

	p.GameCards = append(p.GameCards[:index], p.GameCards[index+1:]...)
	p.HasPlayedCardThisTurn = true
	notify(e.emit, NotifyCardPlayed, p.SessionID, map[string]any{"card": card.Kind},
		"%s played %s", p.Nickname, card.Kind)
	return nil
}

// SelectMonopolyResource resolves a pending monopoly.
func (e *Engine) SelectMonopolyResource(p *Player, res Resource) error {
	if !p.IsDeclaringMonopoly {
		return ErrWrongPhase
	}
	if !validResource(res) {
		return ErrCardUnavailable
	}
	e.Trades.OnMonopoly(e.State, p, res)
	p.IsDeclaringMonopoly = false
	return nil
}

// PlayHero uses the player's hero for this turn.
func (e *Engine) PlayHero(p *Player) error {
	s := e.State
	if !s.Variant.Heroes || p.Hero == NoHero {
		return ErrCardUnavailable
	}
	if err := s.requireMainAction(p); err != nil {
		return err
	}
	if p.HasPlayedHeroThisTurn {
		return ErrCardUnavailable
	}
	switch p.Hero {
	case Steward:
		p.FlexiblePurchase = true
	case Ranger:
		p.MustMoveRobber = true
	}
	p.HasPlayedHeroThisTurn = true
	notify(e.emit, NotifyHeroPlayed, p.SessionID, map[string]any{"hero": p.Hero},
		"%s called on the %s", p.Nickname, p.Hero)
	return nil
}
