package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/settlersforbots/internal/board"
	"github.com/lox/settlersforbots/internal/randutil"
)

// DiceFunc produces one roll of two dice.
type DiceFunc func() (int, int)

// Engine owns a room's State and the per-room services that mutate it.
// It is not safe for concurrent use; the room serialises every call.
type Engine struct {
	State  *State
	Bank   *Bank
	Trades *Trades
	Turns  *Turns
	Wall   *WallKeeper

	rng    *rand.Rand
	dice   DiceFunc
	emit   Emitter
	logger *log.Logger
}

// EngineOption configures an Engine during creation.
type EngineOption func(*engineConfig)

type engineConfig struct {
	emit     Emitter
	logger   *log.Logger
	dice     DiceFunc
	settings Settings
	board    *board.Board
}

// WithEmitter sets the sink for notifications.
func WithEmitter(e Emitter) EngineOption {
	return func(c *engineConfig) { c.emit = e }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// WithDice overrides the dice, mostly for tests.
func WithDice(d DiceFunc) EngineOption {
	return func(c *engineConfig) { c.dice = d }
}

// WithSettings sets room level switches.
func WithSettings(s Settings) EngineOption {
	return func(c *engineConfig) { c.settings = s }
}

// WithBoard uses a prepared board instead of generating one.
func WithBoard(b *board.Board) EngineOption {
	return func(c *engineConfig) { c.board = b }
}

// NewEngine creates a game in the lobby: board generated, deck shuffled and
// bank seeded. The RNG is required so games are reproducible.
func NewEngine(v Variant, rng *rand.Rand, opts ...EngineOption) (*Engine, error) {
	if rng == nil {
		return nil, errors.New("rng is required")
	}
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	if cfg.emit == nil {
		cfg.emit = NewBus()
	}
	if cfg.dice == nil {
		cfg.dice = func() (int, int) { return randutil.Dice(rng) }
	}

	b := cfg.board
	if b == nil {
		var err error
		if b, err = board.Generate(v.Layout, rng); err != nil {
			return nil, fmt.Errorf("generate %s board: %w", v.Name, err)
		}
	} else {
		b.IndexHarbors()
	}

	e := &Engine{
		State:  NewState(v, b, NewDeck(v.Deck, rng), cfg.settings),
		rng:    rng,
		dice:   cfg.dice,
		emit:   cfg.emit,
		logger: cfg.logger,
	}
	e.Bank = NewBank(e.emit, e.logger)
	e.Trades = NewTrades(e.emit, rng, e.logger)
	if v.Wall != nil {
		e.Wall = NewWallKeeper(e.Bank, e.emit, rng, e.logger)
	}
	e.Turns = NewTurns(e.Bank, e.Trades, e.Wall, e.emit, e.logger)
	return e, nil
}

// AddPlayer seats a new player on the lowest free turn index. Players can
// only join in the lobby.
func (e *Engine) AddPlayer(sessionID, nickname string, isBot bool) (*Player, error) {
	s := e.State
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if _, ok := s.Player(sessionID); ok {
		return nil, fmt.Errorf("%w: %s already seated", ErrIllegalAction, sessionID)
	}
	seat := s.freeSeat()
	if seat < 0 {
		return nil, fmt.Errorf("%w: room is full", ErrIllegalAction)
	}
	p := newPlayer(sessionID, nickname, seat, s.Variant.Pieces)
	p.IsBot = isBot
	s.addPlayer(p)
	notify(e.emit, NotifyPlayerJoined, sessionID, map[string]any{"turnIndex": seat, "bot": isBot},
		"%s joined", nickname)
	return p, nil
}

// RemovePlayer takes a player out of the game for good. Their cards go back
// to the bank, their pieces stay on the board and play moves past their
// seat.
func (e *Engine) RemovePlayer(sessionID string) error {
	s := e.State
	p, ok := s.Player(sessionID)
	if !ok {
		return ErrUnknownPlayer
	}
	e.Trades.CancelAll(s, p)
	e.Bank.evict(s, p)
	s.removePlayer(sessionID)
	if s.Phase != PhaseLobby && s.Phase != PhaseFinished {
		e.Turns.VacateSeat(s, p.TurnIndex)
	}
	notify(e.emit, NotifyPlayerLeft, sessionID, nil, "%s left the game", p.Nickname)
	e.UpdateScores()
	return nil
}

// StartGame leaves the lobby.
func (e *Engine) StartGame() error {
	return e.Turns.StartGame(e.State)
}

// Apply dispatches one action from sessionID. Rule violations come back as
// errors wrapping ErrIllegalAction and leave the state untouched.
func (e *Engine) Apply(sessionID string, a Action) error {
	s := e.State
	p, ok := s.Player(sessionID)
	if !ok {
		return ErrUnknownPlayer
	}
	if s.Phase == PhaseFinished && a.Type != ActionChat {
		return ErrGameOver
	}

	var err error
	switch a.Type {
	case ActionReady:
		if s.Phase != PhaseLobby {
			return ErrWrongPhase
		}
		p.Ready = true
		notify(e.emit, NotifyPlayerReady, sessionID, nil, "%s is ready", p.Nickname)
	case ActionChat:
		e.emit.Emit(Notification{Type: NotifyChat, Sender: sessionID, Message: a.Message})
	case ActionRollDice:
		d1, d2 := e.dice()
		err = e.Turns.RollDice(s, p, d1, d2)
	case ActionFinishTurn:
		err = e.Turns.FinishTurn(s, p)
	case ActionPlaceStructure:
		err = e.PlaceStructure(p, a.Slot(), a.Substitute)
	case ActionPlaceRoad:
		err = e.PlaceRoad(p, a.Edge(), a.Substitute)
	case ActionRemoveRoad:
		err = e.RemoveRoad(p, a.Edge())
	case ActionPlaceGuard:
		if e.Wall == nil {
			return ErrWrongPhase
		}
		err = e.Wall.PlaceGuard(s, p, a.Section)
	case ActionPurchaseGameCard:
		err = e.PurchaseGameCard(p)
	case ActionPlayGameCard:
		err = e.PlayGameCard(p, a.CardIndex, a.Resources)
	case ActionPlayHero:
		err = e.PlayHero(p)
	case ActionSelectMonopolyResource:
		err = e.SelectMonopolyResource(p, a.Resource)
	case ActionDiscardHalfDeck:
		err = e.Bank.DiscardHalf(s, p, a.Resources)
	case ActionMoveRobber:
		err = e.MoveRobber(p, a.Hex())
	case ActionStealCard:
		err = e.StealCard(p, a.TargetID)
	case ActionCollectAllLoot:
		err = e.Bank.CollectLoot(s, p, nil)
	case ActionCollectResourceLoot:
		res := a.Resource
		err = e.Bank.CollectLoot(s, p, &res)
	case ActionTradeRequest:
		var to *Player
		if to, err = e.target(a.TargetID); err == nil {
			err = e.Trades.RequestTrade(s, p, to)
		}
	case ActionTradeStartAgreed:
		var from *Player
		if from, err = e.target(a.TargetID); err == nil {
			err = e.Trades.AcceptTrade(s, p, from)
		}
	case ActionTradeRefuse:
		err = e.Trades.RefuseTrade(s, p)
	case ActionTradeConfirm:
		err = e.Trades.ConfirmTrade(s, p)
	case ActionTradeAddCard:
		err = e.Trades.AddCard(s, p, a.Resource)
	case ActionTradeRemoveCard:
		err = e.Trades.RemoveCard(s, p, a.Resource)
	case ActionTradeWithBank:
		if err = s.requireMainAction(p); err == nil {
			err = e.Trades.OnBankTrade(s, p, a.Give, a.Get)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	if err != nil {
		return err
	}

	e.UpdateScores()
	e.checkWinner()
	return nil
}

func (e *Engine) target(id string) (*Player, error) {
	p, ok := e.State.Player(id)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// AllReady reports whether the lobby can start: at least two players and
// every one of them ready.
func (e *Engine) AllReady() bool {
	s := e.State
	if s.Phase != PhaseLobby || len(s.Players) < 2 {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Emitter returns the engine's notification sink.
func (e *Engine) Emitter() Emitter {
	return e.emit
}
