package game

import (
	"fmt"
	"slices"

	"github.com/lox/settlersforbots/internal/board"
)

// Phase is the coarse stage of a game.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseTurnOrder  Phase = "turn-order"
	PhaseSetup      Phase = "setup"
	PhaseGuardSetup Phase = "guard-setup"
	PhaseMain       Phase = "main"
	PhaseFinished   Phase = "finished"
)

// StructureKind distinguishes settlements from cities.
type StructureKind string

const (
	Settlement StructureKind = "settlement"
	City       StructureKind = "city"
)

// Structure is a settlement or city on the structure grid.
type Structure struct {
	OwnerID string        `json:"ownerId"`
	Kind    StructureKind `json:"kind"`
	Slot    board.Slot    `json:"slot"`
}

// Road is a road on the road grid.
type Road struct {
	OwnerID string     `json:"ownerId"`
	Edge    board.Edge `json:"edge"`
}

// Wall is the expansion's guard track and wildling counter.
type Wall struct {
	Sections  [][]string `json:"sections"` // guard owner ids per section, in placement order
	Wildlings int        `json:"wildlings"`
}

// Settings are per-room switches that do not depend on the variant.
type Settings struct {
	MaxClients int  `json:"maxClients"`
	AutoPickup bool `json:"autoPickup"`
	MaxRounds  int  `json:"maxRounds,omitempty"` // 0 means play to the target score
}

// State is the authoritative snapshot of one room. Only the room's actor
// touches it; every exported field is plain data so the host can encode it.
type State struct {
	Variant  Variant      `json:"-"`
	Settings Settings     `json:"settings"`
	Board    *board.Board `json:"board"`
	Phase    Phase        `json:"phase"`

	// Players is in join order. Turn order comes from TurnIndex only.
	Players []*Player `json:"players"`

	Bank        Resources  `json:"bank"`
	TotalIssued Resources  `json:"totalIssued"`
	Deck        []CardKind `json:"-"`
	DeckSize    int        `json:"deckSize"`

	CurrentTurn  int         `json:"currentTurn"`
	CurrentRound int         `json:"currentRound"`
	RoundStarter int         `json:"roundStarter"`
	TurnNumber   int         `json:"turnNumber"`
	SeatOrder    []int       `json:"seatOrder,omitempty"` // seats from the round starter, fixed at the end of turn order
	InitialRolls map[int]int `json:"initialRolls"`

	SetupTurn             int  `json:"setupTurn"`
	SetupPlacedSettlement bool `json:"setupPlacedSettlement"`
	SetupPlacedRoad       bool `json:"setupPlacedRoad"`
	SetupPlacedGuard      bool `json:"setupPlacedGuard"`

	HasRolled    bool   `json:"hasRolled"`
	LastRoll     [2]int `json:"lastRoll"`
	Robber       int    `json:"robber"` // tile index
	PendingSteal bool   `json:"pendingSteal"`

	Structures []*Structure `json:"structures"`
	Roads      []*Road      `json:"roads"`
	Wall       *Wall        `json:"wall,omitempty"`

	LongestRoadID string `json:"longestRoadId,omitempty"`
	LargestArmyID string `json:"largestArmyId,omitempty"`
	WatchBonusID  string `json:"watchBonusId,omitempty"`
	WinnerID      string `json:"winnerId,omitempty"`

	index       map[string]*Player
	structureAt map[board.Slot]*Structure
	roadAt      map[board.Edge]*Road
}

// NewState seeds a lobby for the variant: the board and the bank.
func NewState(v Variant, b *board.Board, deck []CardKind, settings Settings) *State {
	if settings.MaxClients <= 0 || settings.MaxClients > v.MaxClients {
		settings.MaxClients = v.MaxClients
	}
	s := &State{
		Variant:      v,
		Settings:     settings,
		Board:        b,
		Phase:        PhaseLobby,
		Bank:         NewResources(),
		TotalIssued:  NewResources(),
		Deck:         deck,
		DeckSize:     len(deck),
		InitialRolls: make(map[int]int),
		Robber:       b.DesertIndex(),
		index:        make(map[string]*Player),
		structureAt:  make(map[board.Slot]*Structure),
		roadAt:       make(map[board.Edge]*Road),
	}
	for _, r := range board.AllResources {
		s.Bank[r] = v.BankSupply
		s.TotalIssued[r] = v.BankSupply
	}
	if v.Wall != nil {
		s.Wall = &Wall{Sections: make([][]string, v.Wall.Sections)}
	}
	return s
}

// Player looks a player up by session id.
func (s *State) Player(sessionID string) (*Player, bool) {
	p, ok := s.index[sessionID]
	return p, ok
}

// PlayerAtSeat returns the player holding a turn index.
func (s *State) PlayerAtSeat(seat int) *Player {
	for _, p := range s.Players {
		if p.TurnIndex == seat {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, if any.
func (s *State) CurrentPlayer() *Player {
	switch s.Phase {
	case PhaseLobby, PhaseFinished:
		return nil
	}
	return s.PlayerAtSeat(s.CurrentTurn)
}

// Seats returns the occupied turn indices in ascending order.
func (s *State) Seats() []int {
	seats := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		seats = append(seats, p.TurnIndex)
	}
	slices.Sort(seats)
	return seats
}

// freeSeat returns the lowest unoccupied turn index, or -1 when full.
func (s *State) freeSeat() int {
	taken := make(map[int]bool, len(s.Players))
	for _, p := range s.Players {
		taken[p.TurnIndex] = true
	}
	for i := 0; i < s.Settings.MaxClients; i++ {
		if !taken[i] {
			return i
		}
	}
	return -1
}

func (s *State) addPlayer(p *Player) {
	s.Players = append(s.Players, p)
	s.index[p.SessionID] = p
}

func (s *State) removePlayer(sessionID string) {
	delete(s.index, sessionID)
	s.Players = slices.DeleteFunc(s.Players, func(p *Player) bool { return p.SessionID == sessionID })
}

// StructureAt returns the structure on slot, or nil.
func (s *State) StructureAt(slot board.Slot) *Structure {
	return s.structureAt[slot]
}

// RoadAt returns the road on edge, or nil.
func (s *State) RoadAt(e board.Edge) *Road {
	return s.roadAt[e]
}

func (s *State) addStructure(st *Structure) {
	s.Structures = append(s.Structures, st)
	s.structureAt[st.Slot] = st
}

func (s *State) addRoad(r *Road) {
	s.Roads = append(s.Roads, r)
	s.roadAt[r.Edge] = r
}

func (s *State) removeRoad(e board.Edge) {
	delete(s.roadAt, e)
	s.Roads = slices.DeleteFunc(s.Roads, func(r *Road) bool { return r.Edge == e })
}

// requireTurn checks that p is the current player in phase.
func (s *State) requireTurn(p *Player, phase Phase) error {
	if s.Phase == PhaseFinished {
		return ErrGameOver
	}
	if s.Phase != phase {
		return ErrWrongPhase
	}
	if p.TurnIndex != s.CurrentTurn {
		return ErrNotYourTurn
	}
	return nil
}

// requireMainAction checks the common preconditions of main phase actions:
// own turn, dice rolled and nothing owed.
func (s *State) requireMainAction(p *Player) error {
	if err := s.requireTurn(p, PhaseMain); err != nil {
		return err
	}
	if !s.HasRolled {
		return ErrNotRolled
	}
	if p.hasObligation() || s.PendingSteal {
		return ErrPendingObligation
	}
	return nil
}

// CheckConservation verifies that no resource was created or destroyed:
// bank plus every hand, loot pile and staged trade equals what was issued.
func (s *State) CheckConservation() error {
	for _, r := range board.AllResources {
		sum := s.Bank[r]
		if sum < 0 {
			return fmt.Errorf("bank holds %d %s", sum, r)
		}
		for _, p := range s.Players {
			if p.Resources[r] < 0 || p.AvailableLoot[r] < 0 || p.TradeCounts[r] < 0 {
				return fmt.Errorf("player %s holds negative %s", p.SessionID, r)
			}
			sum += p.Resources[r] + p.AvailableLoot[r] + p.TradeCounts[r]
		}
		if sum != s.TotalIssued[r] {
			return fmt.Errorf("%s: %d in play, %d issued", r, sum, s.TotalIssued[r])
		}
	}
	return nil
}

func validResource(r Resource) bool {
	return r >= board.Lumber && r <= board.Ore
}
