package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/board"
)

// rolledMain returns a two player game in the main phase where the current
// player has rolled and holds no cards.
func rolledMain(t *testing.T) (*testGame, *Player, *Player) {
	t.Helper()
	g := toMain(t, 2, WithSettings(Settings{AutoPickup: true}))
	a := g.current(t)
	g.dice.push([2]int{6, 6})
	g.apply(t, a.SessionID, Action{Type: ActionRollDice})
	var b *Player
	for _, p := range g.State.Players {
		require.NoError(t, g.Bank.ReturnToBank(g.State, p, p.Resources.Clone()))
		if p != a {
			b = p
		}
	}
	return g, a, b
}

func TestTradeAtomicity(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, a, Resources{board.Lumber: 1})
	g.give(t, b, Resources{board.Ore: 1})

	g.apply(t, a.SessionID, Action{Type: ActionTradeRequest, TargetID: b.SessionID})
	assert.Equal(t, b.SessionID, a.PendingTradeWithID)
	assert.Equal(t, a.SessionID, b.IncomingTradeFromID)

	g.apply(t, b.SessionID, Action{Type: ActionTradeStartAgreed, TargetID: a.SessionID})
	assert.Equal(t, b.SessionID, a.TradingWithID)
	assert.Equal(t, a.SessionID, b.TradingWithID)

	g.apply(t, a.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Lumber})
	g.apply(t, b.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Ore})
	require.NoError(t, g.State.CheckConservation(), "staged cards stay counted")

	g.apply(t, a.SessionID, Action{Type: ActionTradeConfirm})
	assert.Zero(t, a.Resources[board.Ore], "nothing moves on one confirmation")
	g.apply(t, b.SessionID, Action{Type: ActionTradeConfirm})

	assert.Equal(t, 1, a.Resources[board.Ore])
	assert.Zero(t, a.Resources[board.Lumber])
	assert.Equal(t, 1, b.Resources[board.Lumber])
	assert.Zero(t, b.Resources[board.Ore])
	assert.True(t, a.TradeCounts.IsZero())
	assert.True(t, b.TradeCounts.IsZero())
	assert.False(t, a.IsTrading())
	assert.False(t, b.IsTrading())
	require.NoError(t, g.State.CheckConservation())
}

func TestTradeChangeClearsConfirmation(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, a, Resources{board.Grain: 2})
	g.apply(t, a.SessionID, Action{Type: ActionTradeRequest, TargetID: b.SessionID})
	g.apply(t, b.SessionID, Action{Type: ActionTradeStartAgreed, TargetID: a.SessionID})

	g.apply(t, a.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Grain})
	g.apply(t, b.SessionID, Action{Type: ActionTradeConfirm})
	assert.True(t, b.IsTradeConfirmed)

	g.apply(t, a.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Grain})
	assert.False(t, b.IsTradeConfirmed)
	g.apply(t, a.SessionID, Action{Type: ActionTradeRemoveCard, Resource: board.Grain})
	assert.Equal(t, 1, a.TradeCounts[board.Grain])
	assert.Equal(t, 1, a.Resources[board.Grain])
}

func TestTradeCancelReturnsStagedCards(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, a, Resources{board.Wool: 3})
	g.give(t, b, Resources{board.Brick: 1})
	g.apply(t, a.SessionID, Action{Type: ActionTradeRequest, TargetID: b.SessionID})
	g.apply(t, b.SessionID, Action{Type: ActionTradeStartAgreed, TargetID: a.SessionID})
	g.apply(t, a.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Wool})
	g.apply(t, a.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Wool})
	g.apply(t, b.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Brick})

	g.apply(t, b.SessionID, Action{Type: ActionTradeRefuse})
	assert.Equal(t, 3, a.Resources[board.Wool])
	assert.Equal(t, 1, b.Resources[board.Brick])
	assert.False(t, a.IsTrading())
	assert.False(t, b.IsTrading())
	require.NoError(t, g.State.CheckConservation())
}

func TestTradeRefuseProposal(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.apply(t, a.SessionID, Action{Type: ActionTradeRequest, TargetID: b.SessionID})
	assert.ErrorIs(t, g.Apply(b.SessionID, Action{Type: ActionTradeRequest, TargetID: a.SessionID}), ErrTradeState)

	g.apply(t, b.SessionID, Action{Type: ActionTradeRefuse})
	assert.False(t, a.IsTrading())
	assert.False(t, b.IsTrading())
	assert.ErrorIs(t, g.Apply(b.SessionID, Action{Type: ActionTradeStartAgreed, TargetID: a.SessionID}), ErrTradeState)
}

func TestTradesCancelAtTurnEnd(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, b, Resources{board.Ore: 2})
	g.apply(t, a.SessionID, Action{Type: ActionTradeRequest, TargetID: b.SessionID})
	g.apply(t, b.SessionID, Action{Type: ActionTradeStartAgreed, TargetID: a.SessionID})
	g.apply(t, b.SessionID, Action{Type: ActionTradeAddCard, Resource: board.Ore})

	g.apply(t, a.SessionID, Action{Type: ActionFinishTurn})
	assert.False(t, b.IsTrading())
	assert.Equal(t, 2, b.Resources[board.Ore])
	require.NoError(t, g.State.CheckConservation())
}

func TestTradeNeedsCurrentPlayer(t *testing.T) {
	t.Parallel()
	g := newTestGame(t, BaseVariant(), 3)
	g.rollTurnOrder(t, 3, 8, 9)
	g.playSetup(t)
	g.dice.push([2]int{5, 5})
	cur := g.current(t)
	g.apply(t, cur.SessionID, Action{Type: ActionRollDice})

	var others []*Player
	for _, p := range g.State.Players {
		if p != cur {
			others = append(others, p)
		}
	}
	err := g.Apply(others[0].SessionID, Action{Type: ActionTradeRequest, TargetID: others[1].SessionID})
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestStealMovesOneCard(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, b, Resources{board.Grain: 2, board.Ore: 1})
	g.Trades.OnStealCard(g.State, a, b)
	assert.Equal(t, 1, a.HandSize())
	assert.Equal(t, 2, b.HandSize())
	require.NoError(t, g.State.CheckConservation())

	// an empty hand yields nothing
	g.Trades.OnStealCard(g.State, b, &Player{Resources: NewResources()})
	assert.Equal(t, 2, b.HandSize())
}

func TestMonopoly(t *testing.T) {
	t.Parallel()
	g, a, b := rolledMain(t)
	g.give(t, b, Resources{board.Brick: 3, board.Wool: 1})
	g.Trades.OnMonopoly(g.State, a, board.Brick)
	assert.Equal(t, 3, a.Resources[board.Brick])
	assert.Zero(t, b.Resources[board.Brick])
	assert.Equal(t, 1, b.Resources[board.Wool])
	require.NoError(t, g.State.CheckConservation())
}

func TestBankTradeRates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		harbors map[Resource]bool
		rate    int
	}{
		{"no harbor", nil, 4},
		{"generic harbor", map[Resource]bool{board.NoResource: true}, 3},
		{"matching harbor", map[Resource]bool{board.Lumber: true, board.NoResource: true}, 2},
		{"other harbor", map[Resource]bool{board.Ore: true}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, a, _ := rolledMain(t)
			a.OwnedHarbors = map[Resource]bool{}
			for r, ok := range tt.harbors {
				a.OwnedHarbors[r] = ok
			}
			g.give(t, a, Resources{board.Lumber: tt.rate})
			assert.Equal(t, tt.rate, BankRate(a, board.Lumber))

			g.apply(t, a.SessionID, Action{Type: ActionTradeWithBank, Give: board.Lumber, Get: board.Ore})
			assert.Zero(t, a.Resources[board.Lumber])
			assert.Equal(t, 1, a.Resources[board.Ore])
			assert.ErrorIs(t, g.Apply(a.SessionID, Action{Type: ActionTradeWithBank, Give: board.Lumber, Get: board.Ore}),
				ErrInsufficientResources)
			require.NoError(t, g.State.CheckConservation())
		})
	}
}
