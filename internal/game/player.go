package game

import "github.com/lox/settlersforbots/internal/board"

// Resource is re-exported so callers of the game package rarely need to
// import board for resource names.
type Resource = board.Resource

// ConnectionStatus tracks a seat's transport state.
type ConnectionStatus string

const (
	Connected    ConnectionStatus = "connected"
	Reconnecting ConnectionStatus = "reconnecting"
	Disconnected ConnectionStatus = "disconnected"
)

// Player is one seat at the table. A seat keeps its Player across
// disconnects and bot takeovers; only eviction removes it.
type Player struct {
	SessionID     string           `json:"sessionId"`
	Nickname      string           `json:"nickname"`
	Color         string           `json:"color"`
	TurnIndex     int              `json:"turnIndex"`
	IsBot         bool             `json:"isBot"`
	IsReplacement bool             `json:"isReplacement,omitempty"`
	Connection    ConnectionStatus `json:"connection"`
	Ready         bool             `json:"ready"`

	Resources     Resources         `json:"resources"`
	AvailableLoot Resources         `json:"availableLoot"`
	TradeCounts   Resources         `json:"tradeCounts"`
	OwnedHarbors  map[Resource]bool `json:"ownedHarbors"` // NoResource is a generic harbor

	Pieces        Pieces `json:"pieces"` // remaining in supply
	VictoryPoints int    `json:"victoryPoints"`
	KnightsPlayed int    `json:"knightsPlayed"`

	MustDiscardHalfDeck   bool `json:"mustDiscardHalfDeck"`
	MustMoveRobber        bool `json:"mustMoveRobber"`
	IsDeclaringMonopoly   bool `json:"isDeclaringMonopoly"`
	HasPlayedCardThisTurn bool `json:"hasPlayedCardThisTurn"`
	HasPlayedHeroThisTurn bool `json:"hasPlayedHeroThisTurn"`
	FlexiblePurchase      bool `json:"flexiblePurchase"`
	FreeRoads             int  `json:"freeRoads"`

	TradingWithID       string `json:"tradingWithId,omitempty"`
	PendingTradeWithID  string `json:"pendingTradeWithId,omitempty"`
	IncomingTradeFromID string `json:"incomingTradeFromId,omitempty"`
	IsTradeConfirmed    bool   `json:"isTradeConfirmed"`

	GameCards []Card `json:"gameCards"`
	Hero      Hero   `json:"hero,omitempty"`

	// LastStructure points into State.Structures; it is never the owner.
	LastStructure *Structure `json:"lastStructure,omitempty"`
}

var seatColors = []string{"red", "blue", "white", "orange", "green", "brown"}

func newPlayer(sessionID, nickname string, seat int, pieces Pieces) *Player {
	return &Player{
		SessionID:     sessionID,
		Nickname:      nickname,
		Color:         seatColors[seat%len(seatColors)],
		TurnIndex:     seat,
		Connection:    Connected,
		Resources:     NewResources(),
		AvailableLoot: NewResources(),
		TradeCounts:   NewResources(),
		OwnedHarbors:  make(map[Resource]bool),
		Pieces:        pieces,
	}
}

// HandSize is the number of resource cards in the player's hand.
func (p *Player) HandSize() int {
	return p.Resources.Total()
}

// IsTrading reports whether the player is negotiating or has a proposal
// in flight in either direction.
func (p *Player) IsTrading() bool {
	return p.TradingWithID != "" || p.PendingTradeWithID != "" || p.IncomingTradeFromID != ""
}

// hasObligation reports whether the player owes an action before playing on.
func (p *Player) hasObligation() bool {
	return p.MustDiscardHalfDeck || p.MustMoveRobber || p.IsDeclaringMonopoly
}

func (p *Player) resetTurnFlags() {
	p.HasPlayedCardThisTurn = false
	p.HasPlayedHeroThisTurn = false
	p.FlexiblePurchase = false
	p.FreeRoads = 0
}

// VictoryCards counts unplayed victory point cards.
func (p *Player) VictoryCards() int {
	n := 0
	for _, c := range p.GameCards {
		if c.Kind == VictoryPoint {
			n++
		}
	}
	return n
}
