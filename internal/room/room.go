// Package room runs one game instance as a serialised actor.
//
// Every entry point (OnCreate, OnJoin, OnLeave, OnMessage, OnDispose) hands
// a closure to the room's mailbox; Run drains it on a single goroutine, so
// the engine never sees concurrent calls. Bot moves are scheduled on a
// quartz clock and re-enter through the same mailbox.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/settlersforbots/internal/bot"
	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/randutil"
	"github.com/lox/settlersforbots/internal/roomid"
)

const (
	// DefaultReconnectWindow is how long a dropped seat is held.
	DefaultReconnectWindow = 5 * time.Minute
	// DefaultBotDelay paces bot moves so humans can follow them.
	DefaultBotDelay = time.Second
)

var (
	// ErrDisposed is returned by entry points once the room has shut down.
	ErrDisposed = errors.New("room disposed")
	// ErrNotCreated is returned when a room is used before OnCreate.
	ErrNotCreated = errors.New("room not created")
	// ErrPanicked is returned when a call panicked inside the actor.
	ErrPanicked = errors.New("room call panicked")
)

// Host is what a room needs from the process hosting it.
type Host interface {
	// Broadcast delivers a notification to every client in the room.
	Broadcast(n game.Notification)
	// Lock stops new clients from joining; Unlock reopens the room.
	Lock()
	Unlock()
	// AllowReconnection blocks until sessionID comes back, the window
	// elapses or ctx is cancelled. A nil error means the client is back.
	AllowReconnection(ctx context.Context, sessionID string, window time.Duration) error
}

// Options configure a room at creation.
type Options struct {
	Variant  string        `json:"variant"`
	Seed     int64         `json:"seed,omitempty"`
	Settings game.Settings `json:"settings"`
	// Bots seats this many bots straight away.
	Bots     int           `json:"bots,omitempty"`
	BotDelay time.Duration `json:"botDelay,omitempty"`
	// BotReplacement keeps a seat in play under bot control when its
	// player fails to reconnect. Otherwise the player is evicted.
	BotReplacement  bool          `json:"botReplacement,omitempty"`
	ReconnectWindow time.Duration `json:"reconnectWindow,omitempty"`
}

// JoinOptions describe a joining client.
type JoinOptions struct {
	Nickname string `json:"nickname"`
	IsBot    bool   `json:"isBot,omitempty"`
}

// Summary is a room's public listing entry.
type Summary struct {
	ID         string     `json:"id"`
	Variant    string     `json:"variant"`
	Phase      game.Phase `json:"phase"`
	Players    int        `json:"players"`
	Bots       int        `json:"bots"`
	MaxClients int        `json:"maxClients"`
	Round      int        `json:"round"`
	WinnerID   string     `json:"winnerId,omitempty"`
}

// Room is a single game instance. Create one with New, start Run, then call
// OnCreate.
type Room struct {
	id     string
	host   Host
	clock  quartz.Clock
	logger *log.Logger
	agent  *bot.Agent

	mail *mailbox
	done chan struct{}

	// root is cancelled on disposal and parents every reconnection wait.
	root   context.Context
	cancel context.CancelFunc

	// owned by the Run goroutine
	engine     *game.Engine
	opts       Options
	disposed   bool
	locked     bool
	stalled    bool
	botTimer   *quartz.Timer
	reconnects map[string]*hold
	botCount   int
}

// hold is a seat waiting out its reconnection window.
type hold struct {
	cancel context.CancelFunc
}

// New creates an idle room. Nothing happens until Run is started.
func New(id string, host Host, clock quartz.Clock, logger *log.Logger) *Room {
	if id == "" {
		id = roomid.Generate()
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.Default()
	}
	root, cancel := context.WithCancel(context.Background())
	return &Room{
		id:         id,
		host:       host,
		clock:      clock,
		logger:     logger.WithPrefix("room").With("room", id),
		agent:      bot.NewAgent(logger),
		mail:       newMailbox(),
		done:       make(chan struct{}),
		root:       root,
		cancel:     cancel,
		reconnects: make(map[string]*hold),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Done is closed when Run has returned.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run drains the mailbox until the room is disposed or ctx is cancelled.
func (r *Room) Run(ctx context.Context) error {
	defer close(r.done)
	for {
		for {
			fn, ok := r.mail.pop()
			if !ok {
				break
			}
			r.process(fn)
			if r.disposed {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			r.dispose("context cancelled")
			return ctx.Err()
		case <-r.mail.wake:
		}
	}
}

// process runs one mailbox item and then lets the bots react to whatever
// changed. A panic is logged and the room carries on.
func (r *Room) process(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Recovered from panic in room dispatch", "panic", rec)
		}
	}()
	fn()
	r.afterDispatch()
}

// enqueue hands fn to the actor without waiting.
func (r *Room) enqueue(fn func()) bool {
	return r.mail.push(fn)
}

// call runs fn on the actor and waits for its result.
func (r *Room) call(fn func() error) error {
	result := make(chan error, 1)
	ok := r.mail.push(func() {
		err := ErrPanicked
		defer func() { result <- err }()
		err = fn()
	})
	if !ok {
		return ErrDisposed
	}
	select {
	case err := <-result:
		return err
	case <-r.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrDisposed
		}
	}
}

// Sync waits until everything queued before it has been processed.
func (r *Room) Sync() error {
	return r.call(func() error { return nil })
}

// OnCreate builds the engine and seats the initial bots.
func (r *Room) OnCreate(opts Options) error {
	return r.call(func() error { return r.create(opts) })
}

func (r *Room) create(opts Options) error {
	if r.engine != nil {
		return fmt.Errorf("room %s already created", r.id)
	}
	v, err := game.VariantByName(opts.Variant)
	if err != nil {
		return err
	}
	if opts.BotDelay <= 0 {
		opts.BotDelay = DefaultBotDelay
	}
	if opts.ReconnectWindow <= 0 {
		opts.ReconnectWindow = DefaultReconnectWindow
	}
	opts.Variant = v.Name
	opts.Seed = randutil.Seed(opts.Seed)

	e, err := game.NewEngine(v, randutil.New(opts.Seed),
		game.WithEmitter(game.EmitterFunc(r.host.Broadcast)),
		game.WithLogger(r.logger),
		game.WithSettings(opts.Settings))
	if err != nil {
		return err
	}
	r.engine = e
	r.opts = opts
	r.logger.Info("Room created", "variant", v.Name, "seed", opts.Seed, "bots", opts.Bots)

	for i := 0; i < opts.Bots; i++ {
		if err := r.addBot(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Room) addBot() error {
	r.botCount++
	_, err := r.engine.AddPlayer(roomid.Session("bot"), fmt.Sprintf("Bot %d", r.botCount), true)
	return err
}

// OnJoin seats a client. It fails once the game has started or the room is
// full.
func (r *Room) OnJoin(sessionID string, opts JoinOptions) error {
	return r.call(func() error {
		if r.engine == nil {
			return ErrNotCreated
		}
		nick := opts.Nickname
		if nick == "" {
			nick = sessionID
		}
		if _, err := r.engine.AddPlayer(sessionID, nick, opts.IsBot); err != nil {
			return err
		}
		r.logger.Info("Player joined", "session", sessionID, "nickname", nick, "bot", opts.IsBot)
		return nil
	})
}

// OnLeave handles a client going away. A consented leave, or any leave in
// the lobby, gives the seat up. Otherwise the seat is held for the
// reconnection window and a bot plays it meanwhile.
func (r *Room) OnLeave(sessionID string, consented bool) {
	r.enqueue(func() { r.leave(sessionID, consented) })
}

func (r *Room) leave(sessionID string, consented bool) {
	if r.engine == nil {
		return
	}
	s := r.engine.State
	p, ok := s.Player(sessionID)
	if !ok {
		return
	}
	if s.Phase == game.PhaseLobby || s.Phase == game.PhaseFinished {
		r.evict(p)
		return
	}
	if consented {
		r.abandon(p)
		return
	}
	if p.Connection == game.Reconnecting {
		return
	}

	p.Connection = game.Reconnecting
	p.IsReplacement = true
	r.stalled = false
	r.broadcast(game.NotifyReconnecting, sessionID, "%s lost connection, a bot is playing for them", p.Nickname)
	r.logger.Info("Holding seat for reconnection", "session", sessionID, "window", r.opts.ReconnectWindow)

	ctx, cancel := context.WithCancel(r.root)
	h := &hold{cancel: cancel}
	r.reconnects[sessionID] = h
	window := r.opts.ReconnectWindow
	go func() {
		err := r.host.AllowReconnection(ctx, sessionID, window)
		r.enqueue(func() { r.reconnected(sessionID, h, err) })
	}()
}

// reconnected applies the outcome of a reconnection window.
func (r *Room) reconnected(sessionID string, h *hold, err error) {
	h.cancel()
	if r.disposed || r.reconnects[sessionID] != h {
		r.logger.Debug("Dropping stale reconnection result", "session", sessionID)
		return
	}
	delete(r.reconnects, sessionID)
	p, ok := r.engine.State.Player(sessionID)
	if !ok || p.Connection != game.Reconnecting {
		r.logger.Debug("Dropping stale reconnection result", "session", sessionID)
		return
	}

	if err == nil {
		r.restore(p)
		return
	}
	r.logger.Warn("Reconnection failed", "session", sessionID, "error", err)
	r.abandon(p)
}

// Reconnect settles sessionID's open reconnection window with resolve,
// normally the host's Reconnector.Reconnect, and hands the seat back to the
// player before returning. Bots no longer act for the seat once it returns
// nil. The waiting goroutine's own result is dropped as stale afterwards.
func (r *Room) Reconnect(sessionID string, resolve func(sessionID string) error) error {
	return r.call(func() error {
		if r.engine == nil {
			return ErrNotCreated
		}
		h, ok := r.reconnects[sessionID]
		if !ok {
			return ErrNoReconnection
		}
		p, ok := r.engine.State.Player(sessionID)
		if !ok || p.Connection != game.Reconnecting {
			return ErrNoReconnection
		}
		if err := resolve(sessionID); err != nil {
			return err
		}
		h.cancel()
		delete(r.reconnects, sessionID)
		r.restore(p)
		return nil
	})
}

// restore returns a held seat to its player.
func (r *Room) restore(p *game.Player) {
	p.Connection = game.Connected
	p.IsReplacement = false
	r.stalled = false
	r.broadcast(game.NotifyReconnected, p.SessionID, "%s is back", p.Nickname)
	r.logger.Info("Player reconnected", "session", p.SessionID)
}

// abandon settles a seat whose player is gone for good.
func (r *Room) abandon(p *game.Player) {
	if !r.opts.BotReplacement {
		r.evict(p)
		return
	}
	p.Connection = game.Disconnected
	p.IsReplacement = true
	r.stalled = false
	r.broadcast(game.NotifyBotTakeover, p.SessionID, "A bot has taken over %s's seat", p.Nickname)
	r.logger.Info("Bot took over seat", "session", p.SessionID)
}

func (r *Room) evict(p *game.Player) {
	if h, ok := r.reconnects[p.SessionID]; ok {
		h.cancel()
		delete(r.reconnects, p.SessionID)
	}
	if err := r.engine.RemovePlayer(p.SessionID); err != nil {
		r.logger.Error("Failed to remove player", "session", p.SessionID, "error", err)
		return
	}
	r.stalled = false
	if r.engine.State.Phase != game.PhaseLobby {
		r.broadcast(game.NotifyPlayerEvicted, p.SessionID, "%s was removed from the game", p.Nickname)
	}
	r.logger.Info("Player removed", "session", p.SessionID)
}

// OnMessage queues an action from a client.
func (r *Room) OnMessage(sessionID string, a game.Action) {
	r.enqueue(func() {
		if r.engine == nil {
			return
		}
		if r.dispatch(sessionID, a) {
			r.stalled = false
		}
	})
}

// dispatch applies one action and runs the bot reactions it triggers. It
// reports whether the action was accepted.
func (r *Room) dispatch(sessionID string, a game.Action) bool {
	if err := r.engine.Apply(sessionID, a); err != nil {
		if errors.Is(err, game.ErrUnknownAction) {
			r.logger.Warn("Ignoring unknown action", "session", sessionID, "type", a.Type)
		} else {
			r.logger.Debug("Dropping illegal action", "session", sessionID, "type", a.Type, "error", err)
		}
		return false
	}
	if a.Type.IsTradeReaction() {
		r.botTradeReactions()
	}
	return true
}

// botTradeReactions lets bot seats answer trade offers at once.
func (r *Room) botTradeReactions() {
	for _, p := range r.engine.State.Players {
		if !controlled(p) || (p.IncomingTradeFromID == "" && p.TradingWithID == "") {
			continue
		}
		a, ok := r.agent.NextAction(r.engine.State, p.SessionID)
		if !ok || !a.Type.IsTradeReaction() {
			continue
		}
		r.dispatch(p.SessionID, a)
	}
}

func controlled(p *game.Player) bool {
	return p.IsBot || p.IsReplacement
}

// afterDispatch starts the game once everyone is ready, keeps the host's
// lock in step with the lobby and schedules the next bot move.
func (r *Room) afterDispatch() {
	if r.disposed || r.engine == nil {
		return
	}
	e := r.engine
	if e.AllReady() {
		if err := e.StartGame(); err != nil {
			r.logger.Error("Failed to start game", "error", err)
		} else {
			r.logger.Info("Game started", "players", len(e.State.Players))
		}
	}

	s := e.State
	full := s.Phase != game.PhaseLobby || len(s.Players) >= s.Settings.MaxClients
	if full != r.locked {
		r.locked = full
		if full {
			r.host.Lock()
		} else {
			r.host.Unlock()
		}
	}
	r.scheduleBot()
}

// scheduleBot arms the bot timer when a bot seat has something to do.
func (r *Room) scheduleBot() {
	if r.botTimer != nil || r.stalled || r.engine.State.Phase == game.PhaseFinished {
		return
	}
	if _, _, ok := r.nextBotAction(); !ok {
		return
	}
	r.botTimer = r.clock.AfterFunc(r.opts.BotDelay, func() {
		r.enqueue(r.botStep)
	}, "room", "bot")
}

func (r *Room) botStep() {
	r.botTimer = nil
	sessionID, a, ok := r.nextBotAction()
	if !ok {
		return
	}
	if r.dispatch(sessionID, a) {
		return
	}
	r.logger.Warn("Bot action rejected", "session", sessionID, "type", a.Type)
	s := r.engine.State
	if p, ok := s.Player(sessionID); ok && p.TurnIndex == s.CurrentTurn {
		if r.dispatch(sessionID, game.Action{Type: game.ActionFinishTurn}) {
			return
		}
	}
	// wait for a human to change something before trying again
	r.stalled = true
}

// nextBotAction finds the first bot-controlled seat with a move.
func (r *Room) nextBotAction() (string, game.Action, bool) {
	s := r.engine.State
	for _, p := range s.Players {
		if !controlled(p) {
			continue
		}
		if a, ok := r.agent.NextAction(s, p.SessionID); ok {
			return p.SessionID, a, true
		}
	}
	return "", game.Action{}, false
}

// OnDispose shuts the room down: timers stop, reconnection windows are
// cancelled and Run returns.
func (r *Room) OnDispose() error {
	err := r.call(func() error {
		r.dispose("disposed")
		return nil
	})
	if errors.Is(err, ErrDisposed) {
		return nil
	}
	return err
}

func (r *Room) dispose(reason string) {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
	for id, h := range r.reconnects {
		h.cancel()
		delete(r.reconnects, id)
	}
	r.cancel()
	r.mail.close()
	r.logger.Info("Room disposed", "reason", reason)
}

// Snapshot encodes the game state as JSON.
func (r *Room) Snapshot() ([]byte, error) {
	var out []byte
	err := r.call(func() error {
		if r.engine == nil {
			return ErrNotCreated
		}
		var err error
		out, err = json.Marshal(r.engine.State)
		return err
	})
	return out, err
}

// Summary describes the room for listings.
func (r *Room) Summary() (Summary, error) {
	var sum Summary
	err := r.call(func() error {
		if r.engine == nil {
			return ErrNotCreated
		}
		s := r.engine.State
		sum = Summary{
			ID:         r.id,
			Variant:    r.opts.Variant,
			Phase:      s.Phase,
			Players:    len(s.Players),
			MaxClients: s.Settings.MaxClients,
			Round:      s.CurrentRound,
			WinnerID:   s.WinnerID,
		}
		for _, p := range s.Players {
			if p.IsBot {
				sum.Bots++
			}
		}
		return nil
	})
	return sum, err
}

// Inspect runs fn against the engine on the room's goroutine. fn must not
// keep references to the state.
func (r *Room) Inspect(fn func(*game.Engine)) error {
	return r.call(func() error {
		if r.engine == nil {
			return ErrNotCreated
		}
		fn(r.engine)
		return nil
	})
}

func (r *Room) broadcast(t game.NotificationType, sender, format string, args ...any) {
	r.host.Broadcast(game.Notification{
		Type:        t,
		Sender:      sender,
		Message:     fmt.Sprintf(format, args...),
		IsAttention: true,
	})
}
