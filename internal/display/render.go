// Package display renders rooms for terminals.
package display

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/game"
)

// cellWidth is the printed width of one hex. Shifted rows are indented by
// half of it.
const cellWidth = 6

var abbreviations = map[board.Resource]string{
	board.NoResource: "De",
	board.Lumber:     "Lu",
	board.Brick:      "Br",
	board.Wool:       "Wo",
	board.Grain:      "Gr",
	board.Ore:        "Or",
}

// Renderer draws boards and scoreboards.
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a renderer with the default styles
func NewRenderer() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

// NewRendererWithStyles creates a renderer with custom styles
func NewRendererWithStyles(styles *Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Board draws the hex grid row by row. robber is the index of the tile the
// robber stands on, or -1.
func (r *Renderer) Board(b *board.Board, robber int) string {
	g := b.Grid
	lines := make([]string, 0, g.Height)
	for row := 0; row < g.Height; row++ {
		var sb strings.Builder
		if (row+g.ParityShift)&1 == 1 {
			sb.WriteString(strings.Repeat(" ", cellWidth/2))
		}
		for col := 0; col < g.Width; col++ {
			i := g.Index(board.Hex{Row: row, Col: col})
			sb.WriteString(r.tile(b.Tiles[i], i == robber))
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) tile(t board.Tile, robber bool) string {
	switch {
	case t.Kind == board.SpacerTile:
		return strings.Repeat(" ", cellWidth)
	case t.Kind == board.WaterTile && t.Harbor != nil:
		return r.styles.Harbor.Render(harborLabel(*t.Harbor))
	case t.Kind == board.WaterTile:
		return r.styles.Water.Render(" ~~~~ ")
	}

	label := tileLabel(t)
	if robber {
		return r.styles.Robber.Render(label)
	}
	if t.Resource == board.NoResource {
		return r.styles.Desert.Render(label)
	}
	if t.Dice == 6 || t.Dice == 8 {
		return r.styles.HotDice.Render(label)
	}
	return r.styles.Resource[t.Resource].Render(label)
}

// tileLabel is the fixed-width text of a land tile, e.g. "[Lu 8]".
func tileLabel(t board.Tile) string {
	if t.Occupant == board.Wildlings {
		return fmt.Sprintf("[%s W]", abbreviations[t.Resource])
	}
	if t.Dice == 0 {
		return fmt.Sprintf("[%s  ]", abbreviations[t.Resource])
	}
	return fmt.Sprintf("[%s%2d]", abbreviations[t.Resource], t.Dice)
}

func harborLabel(h board.Harbor) string {
	if h.Generic() {
		return " <3:1>"
	}
	return fmt.Sprintf(" <%s2>", abbreviations[h.Resource])
}

// Header is the one-line status of the game.
func (r *Renderer) Header(s *game.State) string {
	parts := []string{string(s.Phase)}
	if s.Phase != game.PhaseLobby {
		parts = append(parts, fmt.Sprintf("round %d", s.CurrentRound))
	}
	if p := s.CurrentPlayer(); p != nil && s.Phase != game.PhaseFinished {
		parts = append(parts, "turn: "+p.Nickname)
	}
	if s.HasRolled {
		parts = append(parts, fmt.Sprintf("rolled %d", s.LastRoll[0]+s.LastRoll[1]))
	}
	return r.styles.Header.Render(strings.Join(parts, " | "))
}

// Scoreboard lists the players in turn order.
func (r *Renderer) Scoreboard(s *game.State) string {
	players := slices.Clone(s.Players)
	slices.SortFunc(players, func(a, b *game.Player) int { return a.TurnIndex - b.TurnIndex })

	lines := []string{fmt.Sprintf("%-14s %3s %5s %4s %-10s %s", "player", "vp", "cards", "army", "pieces", "status")}
	for _, p := range players {
		line := fmt.Sprintf("%-14s %3d %5d %4d %-10s %s",
			truncate(p.Nickname, 14),
			p.VictoryPoints,
			p.HandSize(),
			p.KnightsPlayed,
			fmt.Sprintf("%d/%d/%d", p.Pieces.Roads, p.Pieces.Settlements, p.Pieces.Cities),
			status(p))
		if p.SessionID == s.WinnerID {
			line = r.styles.Winner.Render(line)
		} else if p.Connection != game.Connected {
			line = r.styles.Muted.Render(line)
		}
		lines = append(lines, line)
	}

	if s.Wall != nil {
		guards := 0
		for _, section := range s.Wall.Sections {
			guards += len(section)
		}
		lines = append(lines, "", fmt.Sprintf("wall: %d guards, %d wildlings", guards, s.Wall.Wildlings))
	}
	lines = append(lines, "bank: "+s.Bank.String())
	return r.styles.Panel.Render(strings.Join(lines, "\n"))
}

func status(p *game.Player) string {
	var tags []string
	if p.IsBot {
		tags = append(tags, "bot")
	}
	if p.IsReplacement {
		tags = append(tags, "covered")
	}
	if p.Connection != game.Connected {
		tags = append(tags, string(p.Connection))
	}
	return strings.Join(tags, ",")
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "~"
}

// State draws the header, the board and the scoreboard stacked.
func (r *Renderer) State(s *game.State) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		r.Header(s),
		"",
		r.Board(s.Board, s.Robber),
		"",
		r.Scoreboard(s),
	)
}
