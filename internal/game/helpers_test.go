package game

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/randutil"
)

// recorder captures notifications in emission order.
type recorder struct {
	notes []Notification
}

func (r *recorder) Emit(n Notification) { r.notes = append(r.notes, n) }

func (r *recorder) ofType(t NotificationType) []Notification {
	var out []Notification
	for _, n := range r.notes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// scriptedDice returns queued rolls first and random ones after.
type scriptedDice struct {
	rolls    [][2]int
	fallback *rand.Rand
}

func (d *scriptedDice) push(rolls ...[2]int) { d.rolls = append(d.rolls, rolls...) }

func (d *scriptedDice) roll() (int, int) {
	if len(d.rolls) > 0 {
		r := d.rolls[0]
		d.rolls = d.rolls[1:]
		return r[0], r[1]
	}
	return randutil.Dice(d.fallback)
}

type testGame struct {
	*Engine
	rec  *recorder
	dice *scriptedDice
	ids  []string
}

func newTestGame(t *testing.T, v Variant, players int, opts ...EngineOption) *testGame {
	t.Helper()
	rec := &recorder{}
	dice := &scriptedDice{fallback: randutil.New(99)}
	opts = append([]EngineOption{
		WithEmitter(rec),
		WithLogger(log.New(io.Discard)),
		WithDice(dice.roll),
	}, opts...)
	e, err := NewEngine(v, randutil.New(42), opts...)
	require.NoError(t, err)

	g := &testGame{Engine: e, rec: rec, dice: dice}
	for i := 0; i < players; i++ {
		id := fmt.Sprintf("p%d", i)
		_, err := e.AddPlayer(id, fmt.Sprintf("Player %d", i), false)
		require.NoError(t, err)
		g.ids = append(g.ids, id)
	}
	return g
}

func (g *testGame) player(t *testing.T, id string) *Player {
	t.Helper()
	p, ok := g.State.Player(id)
	require.True(t, ok, "player %s", id)
	return p
}

func (g *testGame) current(t *testing.T) *Player {
	t.Helper()
	p := g.State.CurrentPlayer()
	require.NotNil(t, p)
	return p
}

func (g *testGame) apply(t *testing.T, id string, a Action) {
	t.Helper()
	require.NoError(t, g.Apply(id, a))
}

// rollTurnOrder plays the turn-order phase with the given totals per seat.
func (g *testGame) rollTurnOrder(t *testing.T, totals ...int) {
	t.Helper()
	require.NoError(t, g.StartGame())
	for _, total := range totals {
		g.dice.push([2]int{total / 2, total - total/2})
		p := g.current(t)
		g.apply(t, p.SessionID, Action{Type: ActionRollDice})
		g.apply(t, p.SessionID, Action{Type: ActionFinishTurn})
	}
}

// playSetup places the best settlement and the first valid road for every
// setup turn and returns the seats in the order they played.
func (g *testGame) playSetup(t *testing.T) []int {
	t.Helper()
	var order []int
	for g.State.Phase == PhaseSetup {
		p := g.current(t)
		order = append(order, p.TurnIndex)
		slot, ok := BestSettlement(g.State, p.SessionID)
		require.True(t, ok)
		g.apply(t, p.SessionID, Action{Type: ActionPlaceStructure, Row: slot.Row, Col: slot.Col})
		roads := ValidRoads(g.State, p.SessionID)
		require.NotEmpty(t, roads)
		g.apply(t, p.SessionID, Action{Type: ActionPlaceRoad, Row: roads[0].Row, Col: roads[0].Col})
		g.apply(t, p.SessionID, Action{Type: ActionFinishTurn})
	}
	return order
}

// give moves resources from the bank to p, keeping the ledger balanced.
func (g *testGame) give(t *testing.T, p *Player, r Resources) {
	t.Helper()
	require.NoError(t, g.Bank.PayFromBank(g.State, p, r))
}

// toMain runs a base game through turn order and setup.
func toMain(t *testing.T, players int, opts ...EngineOption) *testGame {
	t.Helper()
	g := newTestGame(t, BaseVariant(), players, opts...)
	totals := []int{8, 5, 9, 10, 11, 12}
	g.rollTurnOrder(t, totals[:players]...)
	g.playSetup(t)
	require.Equal(t, PhaseMain, g.State.Phase)
	return g
}

// producingTile returns the first producing tile that is not under the
// robber.
func producingTile(t *testing.T, s *State) (int, board.Tile) {
	t.Helper()
	for i, tile := range s.Board.Tiles {
		if tile.Produces() && i != s.Robber {
			return i, tile
		}
	}
	t.Fatal("no producing tile")
	return 0, board.Tile{}
}
