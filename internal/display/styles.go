package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/settlersforbots/internal/board"
)

// Styles contains all styling for the renderers
type Styles struct {
	// Board styles
	Water    lipgloss.Style
	Desert   lipgloss.Style
	Harbor   lipgloss.Style
	Robber   lipgloss.Style
	HotDice  lipgloss.Style
	Resource map[board.Resource]lipgloss.Style

	// Panel styles
	Header lipgloss.Style
	Panel  lipgloss.Style
	Winner lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the standard colour scheme
func DefaultStyles() *Styles {
	return &Styles{
		Water: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5DADE2")),
		Desert: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0E68C")),
		Harbor: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1B4F72")),
		Robber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#000000")).
			Bold(true),
		HotDice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Resource: map[board.Resource]lipgloss.Style{
			board.Lumber: lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")),
			board.Brick:  lipgloss.NewStyle().Foreground(lipgloss.Color("#CD5C5C")),
			board.Wool:   lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")),
			board.Grain:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
			board.Ore:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A9A9A9")),
		},
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}
