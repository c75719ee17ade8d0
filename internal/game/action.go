package game

import (
	"github.com/lox/settlersforbots/internal/board"
)

// ActionType tags an inbound action.
type ActionType string

const (
	ActionReady                  ActionType = "ready"
	ActionChat                   ActionType = "chat"
	ActionRollDice               ActionType = "roll-dice"
	ActionFinishTurn             ActionType = "finish-turn"
	ActionPlaceRoad              ActionType = "place-road"
	ActionRemoveRoad             ActionType = "remove-road"
	ActionPlaceStructure         ActionType = "place-structure"
	ActionPlaceGuard             ActionType = "place-guard"
	ActionPurchaseGameCard       ActionType = "purchase-game-card"
	ActionPlayGameCard           ActionType = "play-game-card"
	ActionPlayHero               ActionType = "play-hero"
	ActionSelectMonopolyResource ActionType = "select-monopoly-resource"
	ActionDiscardHalfDeck        ActionType = "discard-half-deck"
	ActionMoveRobber             ActionType = "move-robber"
	ActionStealCard              ActionType = "steal-card"
	ActionCollectAllLoot         ActionType = "collect-all-loot"
	ActionCollectResourceLoot    ActionType = "collect-resource-loot"
	ActionTradeRequest           ActionType = "trade-request"
	ActionTradeStartAgreed       ActionType = "trade-start-agreed"
	ActionTradeRefuse            ActionType = "trade-refuse"
	ActionTradeConfirm           ActionType = "trade-confirm"
	ActionTradeAddCard           ActionType = "trade-add-card"
	ActionTradeRemoveCard        ActionType = "trade-remove-card"
	ActionTradeWithBank          ActionType = "trade-with-bank"
)

// Action is an inbound request from a player or bot. Which fields matter
// depends on Type; unknown types are ignored.
type Action struct {
	Type ActionType `json:"type"`

	// Row and Col address a slot, edge or hex depending on the action.
	Row int `json:"row"`
	Col int `json:"col"`

	Resource   Resource      `json:"resource,omitempty"`
	Give       Resource      `json:"give,omitempty"`
	Get        Resource      `json:"get,omitempty"`
	Resources  Resources     `json:"resources,omitempty"`
	TargetID   string        `json:"targetId,omitempty"`
	Section    int           `json:"section,omitempty"`
	CardIndex  int           `json:"cardIndex,omitempty"`
	Substitute *Substitution `json:"substitute,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Slot interprets Row and Col as a structure slot.
func (a Action) Slot() board.Slot { return board.Slot{Row: a.Row, Col: a.Col} }

// Edge interprets Row and Col as a road slot.
func (a Action) Edge() board.Edge { return board.Edge{Row: a.Row, Col: a.Col} }

// Hex interprets Row and Col as a tile.
func (a Action) Hex() board.Hex { return board.Hex{Row: a.Row, Col: a.Col} }

// IsTradeReaction reports whether the action answers a trade proposal.
// Rooms resolve bot reactions to trades synchronously.
func (t ActionType) IsTradeReaction() bool {
	switch t {
	case ActionTradeRequest, ActionTradeStartAgreed, ActionTradeRefuse,
		ActionTradeConfirm, ActionTradeAddCard, ActionTradeRemoveCard:
		return true
	}
	return false
}
