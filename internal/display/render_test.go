package display

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/randutil"
)

// plainRenderer renders without colours or borders so output can be
// compared as text.
func plainRenderer() *Renderer {
	return NewRendererWithStyles(&Styles{Resource: map[board.Resource]lipgloss.Style{}})
}

func newEngine(t *testing.T, v game.Variant) *game.Engine {
	t.Helper()
	e, err := game.NewEngine(v, randutil.New(11), game.WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	return e
}

func TestBoard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant game.Variant
	}{
		{"base", game.BaseVariant()},
		{"expansion", game.ExpansionVariant()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, tt.variant)
			b := e.State.Board

			out := plainRenderer().Board(b, -1)
			lines := strings.Split(out, "\n")
			assert.Len(t, lines, b.Grid.Height)

			var land, harbors int
			for _, tile := range b.Tiles {
				if tile.IsLand() {
					land++
				}
				if tile.Harbor != nil {
					harbors++
				}
			}
			assert.Equal(t, 19, land)
			assert.Equal(t, land, strings.Count(out, "["))
			assert.Equal(t, harbors, strings.Count(out, "<"))
			assert.Equal(t, 1, strings.Count(out, "[De  ]"))
		})
	}
}

func TestTileLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tile board.Tile
		want string
	}{
		{"resource", board.Tile{Kind: board.ResourceTile, Resource: board.Ore, Dice: 8}, "[Or 8]"},
		{"two digit dice", board.Tile{Kind: board.ResourceTile, Resource: board.Grain, Dice: 11}, "[Gr11]"},
		{"desert", board.Tile{Kind: board.ResourceTile}, "[De  ]"},
		{"wildlings", board.Tile{Kind: board.ResourceTile, Resource: board.Wool, Dice: 4, Occupant: board.Wildlings}, "[Wo W]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tileLabel(tt.tile), tt.name)
		assert.Len(t, tileLabel(tt.tile), cellWidth, tt.name)
	}

	assert.Equal(t, " <3:1>", harborLabel(board.Harbor{}))
	assert.Equal(t, " <Br2>", harborLabel(board.Harbor{Resource: board.Brick}))
}

func TestScoreboard(t *testing.T) {
	t.Parallel()
	e := newEngine(t, game.ExpansionVariant())
	_, err := e.AddPlayer("alice", "Alice", false)
	require.NoError(t, err)
	_, err = e.AddPlayer("bot-1", "Bot 1", true)
	require.NoError(t, err)

	out := plainRenderer().Scoreboard(e.State)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "player"))
	assert.True(t, strings.HasPrefix(lines[1], "Alice"))
	assert.True(t, strings.HasPrefix(lines[2], "Bot 1"))
	assert.Contains(t, lines[2], "bot")
	assert.Contains(t, out, "wall: 0 guards, 0 wildlings")
	assert.Contains(t, out, "bank: ")
}

func TestState(t *testing.T) {
	t.Parallel()
	e := newEngine(t, game.BaseVariant())
	_, err := e.AddPlayer("alice", "Alice", false)
	require.NoError(t, err)
	_, err = e.AddPlayer("bob", "Bob", false)
	require.NoError(t, err)

	r := plainRenderer()
	assert.True(t, strings.HasPrefix(r.State(e.State), "lobby"))

	require.NoError(t, e.StartGame())
	header := r.Header(e.State)
	assert.Contains(t, header, "turn-order")
	assert.Contains(t, header, "round")
	assert.Contains(t, header, "turn: Alice")
	assert.NotContains(t, r.Scoreboard(e.State), "wall:")
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", truncate("short", 14))
	assert.Equal(t, "abcd~", truncate("abcdefgh", 5))
}
