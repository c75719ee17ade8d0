package bot

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/randutil"
)

func newBotGame(t *testing.T, v game.Variant, players int, seed int64, settings game.Settings) *game.Engine {
	t.Helper()
	logger := log.New(io.Discard)
	e, err := game.NewEngine(v, randutil.New(seed), game.WithLogger(logger), game.WithSettings(settings))
	require.NoError(t, err)
	for i := 0; i < players; i++ {
		_, err := e.AddPlayer(fmt.Sprintf("bot-%d", i), fmt.Sprintf("Bot %d", i), true)
		require.NoError(t, err)
	}
	return e
}

// step lets the first bot with something to do act. It returns false when
// no bot has a move.
func step(t *testing.T, e *game.Engine, agent *Agent) bool {
	t.Helper()
	s := e.State
	if s.Phase == game.PhaseLobby && e.AllReady() {
		require.NoError(t, e.StartGame())
		return true
	}
	for _, p := range s.Players {
		action, ok := agent.NextAction(s, p.SessionID)
		if !ok {
			continue
		}
		require.NoError(t, e.Apply(p.SessionID, action), "%s %s in %s", p.SessionID, action.Type, s.Phase)
		return true
	}
	return false
}

// runUntil steps bots until done reports true.
func runUntil(t *testing.T, e *game.Engine, agent *Agent, done func(*game.State) bool) {
	t.Helper()
	for i := 0; i < 50000 && !done(e.State); i++ {
		require.True(t, step(t, e, agent), "bots stalled in %s", e.State.Phase)
		require.NoError(t, e.State.CheckConservation())
	}
	require.True(t, done(e.State), "bots never got there")
}

func inPhase(phase game.Phase) func(*game.State) bool {
	return func(s *game.State) bool { return s.Phase == phase }
}

func TestBotGameRunsToCompletion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		variant game.Variant
		players int
		seed    uint64
	}{
		{"base four players", game.BaseVariant(), 4, 1},
		{"base two players", game.BaseVariant(), 2, 2},
		{"base three players", game.BaseVariant(), 3, 3},
		{"expansion four players", game.ExpansionVariant(), 4, 4},
		{"expansion three players", game.ExpansionVariant(), 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newBotGame(t, tt.variant, tt.players, tt.seed, game.Settings{MaxRounds: 300})
			agent := NewAgent(log.New(io.Discard))
			runUntil(t, e, agent, inPhase(game.PhaseFinished))

			s := e.State
			assert.NotEmpty(t, s.WinnerID)
			for _, p := range s.Players {
				assert.Equal(t, game.Connected, p.Connection)
				assert.False(t, p.IsTrading())
			}
			_, ok := agent.NextAction(s, s.Players[0].SessionID)
			assert.False(t, ok, "nothing to do once the game is over")
		})
	}
}

func TestBotGameIsDeterministic(t *testing.T) {
	t.Parallel()
	play := func() *game.State {
		e := newBotGame(t, game.BaseVariant(), 3, 11, game.Settings{MaxRounds: 20})
		runUntil(t, e, NewAgent(log.New(io.Discard)), inPhase(game.PhaseFinished))
		return e.State
	}
	a, b := play(), play()
	assert.Equal(t, a.WinnerID, b.WinnerID)
	assert.Equal(t, a.Bank, b.Bank)
	assert.Equal(t, len(a.Structures), len(b.Structures))
	assert.Equal(t, len(a.Roads), len(b.Roads))
}

// mainGame plays bots through setup, collects the starting loot and stops
// before the first roll.
func mainGame(t *testing.T, players int) (*game.Engine, *Agent) {
	t.Helper()
	e := newBotGame(t, game.BaseVariant(), players, 21, game.Settings{})
	agent := NewAgent(log.New(io.Discard))
	runUntil(t, e, agent, inPhase(game.PhaseMain))
	for _, p := range e.State.Players {
		if !p.AvailableLoot.IsZero() {
			require.NoError(t, e.Apply(p.SessionID, game.Action{Type: game.ActionCollectAllLoot}))
		}
	}
	return e, agent
}

// pending reports whether p owes an action or has loot to collect.
func pending(s *game.State, p *game.Player) bool {
	if s.PendingSteal && p.TurnIndex == s.CurrentTurn {
		return true
	}
	return p.MustDiscardHalfDeck || p.MustMoveRobber || p.IsDeclaringMonopoly || !p.AvailableLoot.IsZero()
}

// settle lets only the seats with something pending act, so the turn does
// not move on.
func settle(t *testing.T, e *game.Engine, agent *Agent) {
	t.Helper()
	for i := 0; i < 100; i++ {
		acted := false
		for _, p := range e.State.Players {
			if !pending(e.State, p) {
				continue
			}
			action, ok := agent.NextAction(e.State, p.SessionID)
			require.True(t, ok, "%s has nothing to do", p.SessionID)
			require.NoError(t, e.Apply(p.SessionID, action))
			acted = true
		}
		if !acted {
			return
		}
	}
	t.Fatal("obligations never cleared")
}

func TestBotWaitsForItsTurn(t *testing.T) {
	t.Parallel()
	e, agent := mainGame(t, 3)
	s := e.State
	for _, p := range s.Players {
		action, ok := agent.NextAction(s, p.SessionID)
		if p.TurnIndex == s.CurrentTurn {
			require.True(t, ok)
			assert.Equal(t, game.ActionRollDice, action.Type)
		} else {
			assert.False(t, ok)
		}
	}
}

func TestBotRefusesTrades(t *testing.T) {
	t.Parallel()
	e, agent := mainGame(t, 2)
	s := e.State
	cur := s.CurrentPlayer()
	other := s.Players[0]
	if other == cur {
		other = s.Players[1]
	}
	require.NoError(t, e.Apply(cur.SessionID, game.Action{Type: game.ActionRollDice}))
	settle(t, e, agent)

	require.NoError(t, e.Apply(cur.SessionID, game.Action{Type: game.ActionTradeRequest, TargetID: other.SessionID}))
	action, ok := agent.NextAction(s, other.SessionID)
	require.True(t, ok)
	assert.Equal(t, game.ActionTradeRefuse, action.Type)
	require.NoError(t, e.Apply(other.SessionID, action))
	assert.False(t, cur.IsTrading())
}

func TestBotDiscardsFromLargestPile(t *testing.T) {
	t.Parallel()
	p := &game.Player{Resources: game.Resources{board.Ore: 5, board.Wool: 3, board.Grain: 1}}
	action := discardHalf(p, &ThinkingContext{})
	assert.Equal(t, game.ActionDiscardHalfDeck, action.Type)
	assert.Equal(t, 4, action.Resources.Total())
	assert.Equal(t, 3, action.Resources[board.Ore])
	assert.Equal(t, 1, action.Resources[board.Wool])
}

func TestBotPicksMonopolyResource(t *testing.T) {
	t.Parallel()
	e, agent := mainGame(t, 3)
	s := e.State
	p := s.Players[0]
	for _, q := range s.Players {
		q.Resources.Clear()
	}
	s.Players[1].Resources[board.Brick] = 2
	s.Players[2].Resources[board.Brick] = 2
	s.Players[2].Resources[board.Grain] = 3
	p.Resources[board.Grain] = 9
	p.IsDeclaringMonopoly = true

	action, ok := agent.NextAction(s, p.SessionID)
	require.True(t, ok)
	assert.Equal(t, game.ActionSelectMonopolyResource, action.Type)
	assert.Equal(t, board.Brick, action.Resource)
}

func TestBotStealsFromLargestPile(t *testing.T) {
	t.Parallel()
	e, _ := mainGame(t, 3)
	s := e.State
	thief := s.CurrentPlayer()
	var victims []*game.Player
	for _, p := range s.Players {
		if p != thief {
			victims = append(victims, p)
		}
	}
	for _, p := range s.Players {
		p.Resources.Clear()
	}
	// put the robber on a tile of the first victim only
	g := s.Board.Grid
	found := false
	for i, tile := range s.Board.Tiles {
		if !tile.IsLand() {
			continue
		}
		owners := map[string]bool{}
		for _, slot := range g.AdjacentStructureSlots(g.HexAt(i)) {
			if st := s.StructureAt(slot); st != nil {
				owners[st.OwnerID] = true
			}
		}
		if owners[victims[0].SessionID] && !owners[thief.SessionID] {
			s.Robber, found = i, true
			break
		}
	}
	require.True(t, found)
	victims[0].Resources[board.Lumber] = 4
	victims[1].Resources[board.Wool] = 1
	action := steal(s, thief, &ThinkingContext{})
	assert.Equal(t, game.ActionStealCard, action.Type)
	assert.Equal(t, victims[0].SessionID, action.TargetID)
}

func TestBotRobberAvoidsOwnTiles(t *testing.T) {
	t.Parallel()
	e, _ := mainGame(t, 4)
	s := e.State
	g := s.Board.Grid
	for _, p := range s.Players {
		h := robberTarget(s, p, &ThinkingContext{})
		i := g.Index(h)
		assert.NotEqual(t, s.Robber, i)
		require.True(t, s.Board.IsLand(h))
		for _, slot := range g.AdjacentStructureSlots(h) {
			if st := s.StructureAt(slot); st != nil {
				assert.NotEqual(t, p.SessionID, st.OwnerID)
			}
		}
	}
}

func TestBotPurchaseOrder(t *testing.T) {
	t.Parallel()
	e, agent := mainGame(t, 2)
	s := e.State
	p := s.CurrentPlayer()
	require.NoError(t, e.Apply(p.SessionID, game.Action{Type: game.ActionRollDice}))
	settle(t, e, agent)

	// enough for a city and a card: the city comes first
	require.NoError(t, e.Bank.ReturnToBank(s, p, p.Resources.Clone()))
	require.NoError(t, e.Bank.PayFromBank(s, p, game.Resources{board.Grain: 3, board.Ore: 4, board.Wool: 1}))
	action, ok := agent.NextAction(s, p.SessionID)
	require.True(t, ok)
	require.Equal(t, game.ActionPlaceStructure, action.Type)
	assert.True(t, game.IsValidCity(s, p.SessionID, action.Slot()))
	require.NoError(t, e.Apply(p.SessionID, action))

	action, ok = agent.NextAction(s, p.SessionID)
	require.True(t, ok)
	assert.Equal(t, game.ActionPurchaseGameCard, action.Type)
	require.NoError(t, e.Apply(p.SessionID, action))

	action, ok = agent.NextAction(s, p.SessionID)
	require.True(t, ok)
	assert.Equal(t, game.ActionFinishTurn, action.Type)
}

func TestBotTradesSurplusWithBank(t *testing.T) {
	t.Parallel()
	e, agent := mainGame(t, 2)
	s := e.State
	p := s.CurrentPlayer()
	require.NoError(t, e.Apply(p.SessionID, game.Action{Type: game.ActionRollDice}))
	settle(t, e, agent)

	require.NoError(t, e.Bank.ReturnToBank(s, p, p.Resources.Clone()))
	clear(p.OwnedHarbors)
	p.GameCards = nil
	// one ore short of a city, four spare lumber
	require.NoError(t, e.Bank.PayFromBank(s, p, game.Resources{board.Grain: 2, board.Ore: 2, board.Lumber: 4}))
	action, ok := agent.NextAction(s, p.SessionID)
	require.True(t, ok)
	assert.Equal(t, game.Action{Type: game.ActionTradeWithBank, Give: board.Lumber, Get: board.Ore}, action)
}
