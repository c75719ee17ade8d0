package board

import (
	"fmt"
	"math"
	rand "math/rand/v2"
	"sort"
)

// Layout is the static description of a variant's board: a template of
// tile kinds plus the pools that are shuffled onto it.
//
// Template characters: '.' spacer, 'w' water, 'L' land.
type Layout struct {
	Grid     Grid
	Template []string
	Terrain  map[Resource]int // land tiles per resource; NoResource is desert
	Dice     []int
	Harbors  map[Resource]int // harbors per resource; NoResource is generic
}

var standardDice = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

func standardTerrain() map[Resource]int {
	return map[Resource]int{NoResource: 1, Lumber: 4, Wool: 4, Grain: 4, Brick: 3, Ore: 3}
}

func standardHarbors() map[Resource]int {
	return map[Resource]int{NoResource: 4, Lumber: 1, Brick: 1, Wool: 1, Grain: 1, Ore: 1}
}

// BaseLayout is the classic 19-tile island inside a ring of water.
func BaseLayout() Layout {
	return Layout{
		Grid: Grid{Width: 7, Height: 7},
		Template: []string{
			"..wwww.",
			".wLLLw.",
			".wLLLLw",
			"wLLLLLw",
			".wLLLLw",
			".wLLLw.",
			"..wwww.",
		},
		Terrain: standardTerrain(),
		Dice:    standardDice,
		Harbors: standardHarbors(),
	}
}

// ExpansionLayout adds a northern row for the wall. The extra row flips
// the row parity of the island, hence ParityShift.
func ExpansionLayout() Layout {
	return Layout{
		Grid: Grid{Width: 7, Height: 8, ParityShift: 1},
		Template: []string{
			".......",
			"..wwww.",
			".wLLLw.",
			".wLLLLw",
			"wLLLLLw",
			".wLLLLw",
			".wLLLw.",
			"..wwww.",
		},
		Terrain: standardTerrain(),
		Dice:    standardDice,
		Harbors: standardHarbors(),
	}
}

// expand flattens a count map in canonical resource order so shuffles are
// reproducible for a given seed.
func expand(counts map[Resource]int) []Resource {
	var out []Resource
	for _, r := range append([]Resource{NoResource}, AllResources[:]...) {
		for i := 0; i < counts[r]; i++ {
			out = append(out, r)
		}
	}
	return out
}

// Generate builds a board from the layout, shuffling terrain, dice and
// harbors with rng.
func Generate(l Layout, rng *rand.Rand) (*Board, error) {
	g := l.Grid
	if len(l.Template) != g.Height {
		return nil, fmt.Errorf("layout has %d rows, grid expects %d", len(l.Template), g.Height)
	}

	b := &Board{Grid: g, Tiles: make([]Tile, g.Size())}
	var land []int
	for r, row := range l.Template {
		if len(row) != g.Width {
			return nil, fmt.Errorf("layout row %d has %d tiles, grid expects %d", r, len(row), g.Width)
		}
		for c, ch := range row {
			t := Tile{Row: r, Col: c}
			switch ch {
			case '.':
				t.Kind = SpacerTile
			case 'w':
				t.Kind = WaterTile
			case 'L':
				t.Kind = ResourceTile
				land = append(land, g.Index(Hex{Row: r, Col: c}))
			default:
				return nil, fmt.Errorf("layout row %d: unknown tile %q", r, ch)
			}
			b.Tiles[g.Index(Hex{Row: r, Col: c})] = t
		}
	}

	terrain := expand(l.Terrain)
	if len(terrain) != len(land) {
		return nil, fmt.Errorf("layout has %d land tiles but %d terrain tiles", len(land), len(terrain))
	}
	rng.Shuffle(len(terrain), func(i, j int) { terrain[i], terrain[j] = terrain[j], terrain[i] })

	dice := append([]int(nil), l.Dice...)
	rng.Shuffle(len(dice), func(i, j int) { dice[i], dice[j] = dice[j], dice[i] })

	next := 0
	for i, idx := range land {
		b.Tiles[idx].Resource = terrain[i]
		if terrain[i] == NoResource {
			continue
		}
		if next >= len(dice) {
			return nil, fmt.Errorf("layout needs more than %d dice tokens", len(dice))
		}
		b.Tiles[idx].Dice = dice[next]
		next++
	}

	b.placeHarbors(expand(l.Harbors), rng)
	b.IndexHarbors()
	return b, nil
}

// placeHarbors puts harbors on every other coastal water tile, walking the
// coast by angle around the island's centre.
func (b *Board) placeHarbors(kinds []Resource, rng *rand.Rand) {
	if len(kinds) == 0 {
		return
	}
	rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })

	g := b.Grid
	var cx, cy float64
	var landCount int
	var coast []Hex
	for i, t := range b.Tiles {
		h := g.HexAt(i)
		switch t.Kind {
		case ResourceTile:
			cx += float64(g.centerX(h))
			cy += float64(h.Row) * math.Sqrt(3)
			landCount++
		case WaterTile:
			for _, n := range g.Neighbors(h) {
				if b.IsLand(n) {
					coast = append(coast, h)
					break
				}
			}
		}
	}
	if landCount == 0 {
		return
	}
	cx /= float64(landCount)
	cy /= float64(landCount)

	angle := func(h Hex) float64 {
		return math.Atan2(float64(h.Row)*math.Sqrt(3)-cy, float64(g.centerX(h))-cx)
	}
	sort.SliceStable(coast, func(i, j int) bool { return angle(coast[i]) < angle(coast[j]) })

	k := 0
	for i := 0; i < len(coast) && k < len(kinds); i += 2 {
		h := coast[i]
		corners := g.AdjacentStructureSlots(h)
		var sides []int
		for c := 0; c < len(corners); c++ {
			a, z := corners[c], corners[(c+1)%len(corners)]
			if b.SlotType(a) != SlotNone && b.SlotType(z) != SlotNone {
				sides = append(sides, c)
			}
		}
		if len(sides) == 0 {
			continue
		}
		side := sides[rng.IntN(len(sides))]
		b.Tiles[g.Index(h)].Harbor = &Harbor{
			Resource: kinds[k],
			Ports:    [2]int{side, (side + 1) % len(corners)},
		}
		k++
	}
}
