package game

import (
	"fmt"
	"strings"

	"github.com/lox/settlersforbots/internal/board"
)

// Resources is a bag of resource counts. A nil map reads as empty.
type Resources map[board.Resource]int

// NewResources returns an empty bag with every resource present.
func NewResources() Resources {
	r := make(Resources, len(board.AllResources))
	for _, res := range board.AllResources {
		r[res] = 0
	}
	return r
}

// Total counts every card in the bag.
func (r Resources) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// IsZero reports whether the bag holds nothing.
func (r Resources) IsZero() bool {
	for _, n := range r {
		if n != 0 {
			return false
		}
	}
	return true
}

// Covers reports whether r holds at least cost of every resource.
func (r Resources) Covers(cost Resources) bool {
	for res, n := range cost {
		if n > 0 && r[res] < n {
			return false
		}
	}
	return true
}

// Add adds other into r.
func (r Resources) Add(other Resources) {
	for res, n := range other {
		r[res] += n
	}
}

// Sub subtracts other from r.
func (r Resources) Sub(other Resources) {
	for res, n := range other {
		r[res] -= n
	}
}

// Clone returns an independent copy.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for res, n := range r {
		out[res] = n
	}
	return out
}

// Clear zeroes every count.
func (r Resources) Clear() {
	for res := range r {
		r[res] = 0
	}
}

// Most returns the resource with the highest count, ties going to the
// earlier resource in canonical order.
func (r Resources) Most() (board.Resource, int) {
	best, count := board.NoResource, 0
	for _, res := range board.AllResources {
		if r[res] > count {
			best, count = res, r[res]
		}
	}
	return best, count
}

// Missing returns what r lacks to cover cost.
func (r Resources) Missing(cost Resources) Resources {
	out := NewResources()
	for res, n := range cost {
		if short := n - r[res]; short > 0 {
			out[res] = short
		}
	}
	return out
}

// String renders the bag for logs, e.g. "2 lumber, 1 ore".
func (r Resources) String() string {
	var parts []string
	for _, res := range board.AllResources {
		if r[res] != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", r[res], res))
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
