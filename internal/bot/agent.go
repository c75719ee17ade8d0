package bot

import (
	"github.com/charmbracelet/log"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/game"
)

// Agent plays a seat without network input. It reads the state and returns
// the seat's next action; pacing and dispatch belong to the room. Given the
// same state it always makes the same choice.
type Agent struct {
	logger *log.Logger
}

// NewAgent creates a bot agent.
func NewAgent(logger *log.Logger) *Agent {
	return &Agent{logger: logger.WithPrefix("bot")}
}

// NextAction returns what the bot holding sessionID does next, or false when
// it has nothing to do until the state changes.
func (a *Agent) NextAction(s *game.State, sessionID string) (game.Action, bool) {
	p, ok := s.Player(sessionID)
	if !ok || s.Phase == game.PhaseFinished {
		return game.Action{}, false
	}
	thinking := &ThinkingContext{}
	action, ok := a.decide(s, p, thinking)
	if ok {
		a.logger.Debug("Bot decision made",
			"player", p.Nickname,
			"phase", s.Phase,
			"action", action.Type,
			"reasoning", thinking.GetThoughts())
	}
	return action, ok
}

func (a *Agent) decide(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	if s.Phase == game.PhaseLobby {
		if p.Ready {
			return game.Action{}, false
		}
		thinking.AddThought("Ready to play")
		return game.Action{Type: game.ActionReady}, true
	}

	// Reactions come first and do not wait for our turn.
	switch {
	case p.TradingWithID != "" || p.IncomingTradeFromID != "":
		thinking.AddThought("Bots do not trade with players")
		return game.Action{Type: game.ActionTradeRefuse}, true
	case p.MustDiscardHalfDeck:
		return discardHalf(p, thinking), true
	case p.IsDeclaringMonopoly:
		return game.Action{Type: game.ActionSelectMonopolyResource, Resource: monopolyPick(s, p, thinking)}, true
	case !p.AvailableLoot.IsZero():
		thinking.AddThought("Collecting %s", p.AvailableLoot)
		return game.Action{Type: game.ActionCollectAllLoot}, true
	}

	if p.TurnIndex != s.CurrentTurn {
		return game.Action{}, false
	}

	switch s.Phase {
	case game.PhaseTurnOrder:
		if !s.HasRolled {
			thinking.AddThought("Rolling for turn order")
			return game.Action{Type: game.ActionRollDice}, true
		}
		return game.Action{Type: game.ActionFinishTurn}, true

	case game.PhaseSetup:
		switch {
		case !s.SetupPlacedSettlement:
			slot, ok := game.BestSettlement(s, p.SessionID)
			if !ok {
				a.logger.Warn("No setup settlement available", "player", p.Nickname)
				return game.Action{}, false
			}
			thinking.AddThought("Settling the most diverse corner")
			return game.Action{Type: game.ActionPlaceStructure, Row: slot.Row, Col: slot.Col}, true
		case !s.SetupPlacedRoad:
			edge, ok := bestRoad(s, p)
			if !ok {
				a.logger.Warn("No setup road available", "player", p.Nickname)
				return game.Action{}, false
			}
			thinking.AddThought("Pointing the road at open ground")
			return game.Action{Type: game.ActionPlaceRoad, Row: edge.Row, Col: edge.Col}, true
		}
		return game.Action{Type: game.ActionFinishTurn}, true

	case game.PhaseGuardSetup:
		if !s.SetupPlacedGuard {
			if section, ok := weakestSection(s); ok {
				thinking.AddThought("Posting a guard on section %d", section+1)
				return game.Action{Type: game.ActionPlaceGuard, Section: section}, true
			}
		}
		return game.Action{Type: game.ActionFinishTurn}, true

	case game.PhaseMain:
		return a.mainTurn(s, p, thinking)
	}
	return game.Action{}, false
}

func (a *Agent) mainTurn(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	if s.PendingSteal {
		return steal(s, p, thinking), true
	}
	if p.MustMoveRobber {
		h := robberTarget(s, p, thinking)
		return game.Action{Type: game.ActionMoveRobber, Row: h.Row, Col: h.Col}, true
	}
	if !s.HasRolled {
		if i, ok := playableCard(s, p, game.Knight); ok && robbedByRobber(s, p) {
			thinking.AddThought("The robber sits on our land, sending a knight first")
			return game.Action{Type: game.ActionPlayGameCard, CardIndex: i}, true
		}
		thinking.AddThought("Rolling")
		return game.Action{Type: game.ActionRollDice}, true
	}
	for _, q := range s.Players {
		if q != p && q.MustDiscardHalfDeck {
			thinking.AddThought("Waiting for %s to discard", q.Nickname)
			return game.Action{}, false
		}
	}

	if action, ok := playCard(s, p, thinking); ok {
		return action, true
	}
	if action, ok := playHero(s, p, thinking); ok {
		return action, true
	}
	if action, ok := purchase(s, p, thinking); ok {
		return action, true
	}
	if action, ok := bankTrade(s, p, thinking); ok {
		return action, true
	}
	thinking.AddThought("Nothing left to do")
	return game.Action{Type: game.ActionFinishTurn}, true
}

// discardHalf gives up half the hand, always from the largest pile.
func discardHalf(p *game.Player, thinking *ThinkingContext) game.Action {
	hand := p.Resources.Clone()
	out := game.NewResources()
	for range p.HandSize() / 2 {
		r, _ := hand.Most()
		hand[r]--
		out[r]++
	}
	thinking.AddThought("Discarding %s", out)
	return game.Action{Type: game.ActionDiscardHalfDeck, Resources: out}
}

// monopolyPick names the resource opponents hold most of.
func monopolyPick(s *game.State, p *game.Player, thinking *ThinkingContext) game.Resource {
	held := game.NewResources()
	for _, q := range s.Players {
		if q != p {
			held.Add(q.Resources)
		}
	}
	r, n := held.Most()
	if n == 0 {
		r = board.Ore
	}
	thinking.AddThought("Opponents hold %d %s", n, r)
	return r
}

// steal picks the victim with the largest single pile.
func steal(s *game.State, p *game.Player, thinking *ThinkingContext) game.Action {
	var victim *game.Player
	most := -1
	for _, v := range game.StealVictims(s, p.SessionID) {
		if _, n := v.Resources.Most(); n > most {
			victim, most = v, n
		}
	}
	if victim == nil {
		thinking.AddThought("Nobody left to rob")
		return game.Action{Type: game.ActionStealCard}
	}
	thinking.AddThought("Robbing %s who holds %d of one resource", victim.Nickname, most)
	return game.Action{Type: game.ActionStealCard, TargetID: victim.SessionID}
}

// playableCard finds a card of kind that may be played this turn.
func playableCard(s *game.State, p *game.Player, kind game.CardKind) (int, bool) {
	if p.HasPlayedCardThisTurn {
		return 0, false
	}
	for i, c := range p.GameCards {
		if c.Kind == kind && c.BoughtOnTurn != s.TurnNumber {
			return i, true
		}
	}
	return 0, false
}

// playCard plays at most one card after the roll.
func playCard(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	if i, ok := playableCard(s, p, game.Knight); ok && (robbedByRobber(s, p) || winsArmy(s, p)) {
		thinking.AddThought("Playing a knight")
		return game.Action{Type: game.ActionPlayGameCard, CardIndex: i}, true
	}
	if i, ok := playableCard(s, p, game.RoadBuilding); ok && p.Pieces.Roads > 0 && len(game.ValidRoads(s, p.SessionID)) > 0 {
		thinking.AddThought("Building roads for free")
		return game.Action{Type: game.ActionPlayGameCard, CardIndex: i}, true
	}
	if i, ok := playableCard(s, p, game.YearOfPlenty); ok {
		if picks, ok := plentyPicks(s, p); ok {
			thinking.AddThought("Taking %s from the bank", picks)
			return game.Action{Type: game.ActionPlayGameCard, CardIndex: i, Resources: picks}, true
		}
	}
	if i, ok := playableCard(s, p, game.Monopoly); ok {
		held := game.NewResources()
		for _, q := range s.Players {
			if q != p {
				held.Add(q.Resources)
			}
		}
		if _, n := held.Most(); n >= 3 {
			thinking.AddThought("Opponents are sitting on %d of one resource", n)
			return game.Action{Type: game.ActionPlayGameCard, CardIndex: i}, true
		}
	}
	return game.Action{}, false
}

// winsArmy reports whether one more knight takes the largest army.
func winsArmy(s *game.State, p *game.Player) bool {
	if s.LargestArmyID == p.SessionID {
		return false
	}
	next := p.KnightsPlayed + 1
	if next < 3 {
		return false
	}
	for _, q := range s.Players {
		if q != p && q.KnightsPlayed >= next {
			return false
		}
	}
	return true
}

// plentyPicks chooses two resources towards the next purchase.
func plentyPicks(s *game.State, p *game.Player) (game.Resources, bool) {
	picks := game.NewResources()
	for _, t := range purchaseOrder {
		cost := s.Variant.Cost(t)
		if cost == nil {
			continue
		}
		if _, ok := placementFor(s, p, t); !ok {
			continue
		}
		missing := p.Resources.Missing(cost)
		for _, r := range board.AllResources {
			for missing[r] > 0 && picks.Total() < 2 {
				picks[r]++
				missing[r]--
			}
		}
		break
	}
	for picks.Total() < 2 {
		picks[board.Ore]++
	}
	return picks, s.Bank.Covers(picks)
}

func playHero(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	if p.Hero == game.NoHero || p.HasPlayedHeroThisTurn {
		return game.Action{}, false
	}
	switch p.Hero {
	case game.Ranger:
		if robbedByRobber(s, p) {
			thinking.AddThought("Sending the ranger after the robber")
			return game.Action{Type: game.ActionPlayHero}, true
		}
	case game.Steward:
		if p.FlexiblePurchase {
			return game.Action{}, false
		}
		for _, t := range []game.Purchase{game.PurchaseCity, game.PurchaseSettlement} {
			cost := s.Variant.Cost(t)
			if _, ok := placementFor(s, p, t); !ok || p.Resources.Covers(cost) {
				continue
			}
			if _, ok := substitution(p, cost); ok {
				thinking.AddThought("The steward can cover the %s", t)
				return game.Action{Type: game.ActionPlayHero}, true
			}
		}
	}
	return game.Action{}, false
}

// purchaseOrder is the order the bot spends in.
var purchaseOrder = []game.Purchase{
	game.PurchaseCity,
	game.PurchaseSettlement,
	game.PurchaseGuard,
	game.PurchaseGameCard,
	game.PurchaseRoad,
}

// purchase buys the first affordable item in purchaseOrder that has
// somewhere to go.
func purchase(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	for _, t := range purchaseOrder {
		cost := s.Variant.Cost(t)
		if cost == nil {
			continue
		}
		action, ok := placementFor(s, p, t)
		if !ok {
			continue
		}
		switch {
		case t == game.PurchaseRoad && p.FreeRoads > 0:
			thinking.AddThought("Placing a free road")
		case p.Resources.Covers(cost):
			thinking.AddThought("Buying a %s", t)
		case p.FlexiblePurchase && t != game.PurchaseGuard && t != game.PurchaseGameCard:
			sub, ok := substitution(p, cost)
			if !ok {
				continue
			}
			action.Substitute = sub
			thinking.AddThought("Buying a %s with %s standing in for %s", t, sub.From, sub.To)
		default:
			continue
		}
		return action, true
	}
	return game.Action{}, false
}

// substitution finds a one-for-one swap that makes cost affordable.
func substitution(p *game.Player, cost game.Resources) (*game.Substitution, bool) {
	missing := p.Resources.Missing(cost)
	if missing.Total() != 1 {
		return nil, false
	}
	need, _ := missing.Most()
	for _, r := range board.AllResources {
		if r != need && p.Resources[r] > cost[r] {
			return &game.Substitution{From: r, To: need}, true
		}
	}
	return nil, false
}

// bankTrade trades a surplus for the single card blocking a city,
// settlement or game card.
func bankTrade(s *game.State, p *game.Player, thinking *ThinkingContext) (game.Action, bool) {
	for _, t := range []game.Purchase{game.PurchaseCity, game.PurchaseSettlement, game.PurchaseGameCard} {
		cost := s.Variant.Cost(t)
		if _, ok := placementFor(s, p, t); !ok {
			continue
		}
		missing := p.Resources.Missing(cost)
		if missing.Total() != 1 {
			continue
		}
		get, _ := missing.Most()
		if s.Bank[get] == 0 {
			continue
		}
		give, surplus := board.NoResource, 0
		for _, r := range board.AllResources {
			spare := p.Resources[r] - cost[r]
			if r != get && spare >= game.BankRate(p, r) && spare > surplus {
				give, surplus = r, spare
			}
		}
		if give == board.NoResource {
			continue
		}
		thinking.AddThought("Trading %d %s with the bank for the %s", game.BankRate(p, give), give, t)
		return game.Action{Type: game.ActionTradeWithBank, Give: give, Get: get}, true
	}
	return game.Action{}, false
}
