package game

import (
	"fmt"

	"github.com/lox/settlersforbots/internal/board"
)

// Purchase names something a player can pay the bank for.
type Purchase string

const (
	PurchaseRoad       Purchase = "road"
	PurchaseSettlement Purchase = "settlement"
	PurchaseCity       Purchase = "city"
	PurchaseGameCard   Purchase = "game-card"
	PurchaseGuard      Purchase = "guard"
)

// Pieces counts the pieces each player starts with.
type Pieces struct {
	Settlements int
	Cities      int
	Roads       int
	Guards      int
}

// WallRules configures the expansion's wall and wildling track.
type WallRules struct {
	Sections         int
	GuardsPerSection int
	WildlingDice     []int // dice totals that add a wildling
	AttackThreshold  int
	WatchBonus       int // victory points for the wall's best defender
}

// Variant bundles everything that differs between rule sets. Rooms are
// parameterised by a Variant instead of specialising the engine.
type Variant struct {
	Name         string
	Layout       board.Layout
	MaxClients   int
	BankSupply   int
	HandLimit    int
	TargetPoints int
	SetupRounds  int
	Pieces       Pieces
	Costs        map[Purchase]Resources
	Deck         map[CardKind]int

	Wall           *WallRules // nil disables guards and wildlings
	Heroes         bool
	RemovableRoads bool
}

func standardCosts() map[Purchase]Resources {
	return map[Purchase]Resources{
		PurchaseRoad:       {board.Lumber: 1, board.Brick: 1},
		PurchaseSettlement: {board.Lumber: 1, board.Brick: 1, board.Wool: 1, board.Grain: 1},
		PurchaseCity:       {board.Grain: 2, board.Ore: 3},
		PurchaseGameCard:   {board.Wool: 1, board.Grain: 1, board.Ore: 1},
	}
}

func standardDeck() map[CardKind]int {
	return map[CardKind]int{
		Knight:       14,
		VictoryPoint: 5,
		RoadBuilding: 2,
		YearOfPlenty: 2,
		Monopoly:     2,
	}
}

// BaseVariant is the standard four player game.
func BaseVariant() Variant {
	return Variant{
		Name:         "base",
		Layout:       board.BaseLayout(),
		MaxClients:   4,
		BankSupply:   19,
		HandLimit:    7,
		TargetPoints: 10,
		SetupRounds:  2,
		Pieces:       Pieces{Settlements: 5, Cities: 4, Roads: 15},
		Costs:        standardCosts(),
		Deck:         standardDeck(),
	}
}

// ExpansionVariant adds the wall, guards, wildlings, heroes and removable
// roads on a taller grid.
func ExpansionVariant() Variant {
	v := BaseVariant()
	v.Name = "expansion"
	v.Layout = board.ExpansionLayout()
	v.Pieces.Guards = 7
	v.Costs[PurchaseGuard] = Resources{board.Lumber: 1, board.Wool: 1, board.Grain: 1}
	v.Wall = &WallRules{
		Sections:         4,
		GuardsPerSection: 2,
		WildlingDice:     []int{2, 3, 11, 12},
		AttackThreshold:  7,
		WatchBonus:       2,
	}
	v.Heroes = true
	v.RemovableRoads = true
	return v
}

// VariantByName resolves the variant names accepted in room options.
func VariantByName(name string) (Variant, error) {
	switch name {
	case "", "base":
		return BaseVariant(), nil
	case "expansion":
		return ExpansionVariant(), nil
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}

// Cost returns a copy of the price of p, or nil if the variant does not
// sell it.
func (v Variant) Cost(p Purchase) Resources {
	c, ok := v.Costs[p]
	if !ok {
		return nil
	}
	return c.Clone()
}

// SetupTurns is the number of turns in the placement phase.
func (v Variant) SetupTurns(players int) int {
	return v.SetupRounds * players
}
