package bot

import (
	"fmt"
	"strings"
)

// ThinkingContext accumulates the reasons behind one decision so they can
// be logged alongside it.
type ThinkingContext struct {
	thoughts []string
}

// AddThought records one step of the reasoning.
func (tc *ThinkingContext) AddThought(format string, args ...any) {
	tc.thoughts = append(tc.thoughts, fmt.Sprintf(format, args...))
}

// GetThoughts returns the reasoning as one line.
func (tc *ThinkingContext) GetThoughts() string {
	if len(tc.thoughts) == 0 {
		return "no clear reasoning"
	}
	return strings.Join(tc.thoughts, ". ")
}
