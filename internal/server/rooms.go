package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
	"github.com/lox/settlersforbots/internal/roomid"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomLocked   = errors.New("room is not accepting players")
	ErrTooManyRooms = errors.New("room limit reached")
)

// hostedRoom is a running room plus the connections attached to it. It is
// the room's Host.
type hostedRoom struct {
	*room.Reconnector

	id     string
	room   *room.Room
	mirror Mirror
	logger *log.Logger

	mu     sync.RWMutex
	conns  map[string]*Connection
	locked bool
}

// Broadcast sends n to every attached connection and the mirror.
func (h *hostedRoom) Broadcast(n game.Notification) {
	msg, err := NewMessage(MessageTypeNotification, n)
	if err != nil {
		h.logger.Error("Failed to encode notification", "error", err)
		return
	}
	msg.RoomID = h.id

	h.mu.RLock()
	for session, conn := range h.conns {
		if err := conn.SendMessage(msg); err != nil {
			h.logger.Debug("Failed to deliver notification", "session", session, "error", err)
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil {
		h.mirror.Publish(h.id, n)
	}
}

func (h *hostedRoom) Lock() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locked = true
}

func (h *hostedRoom) Unlock() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locked = false
}

func (h *hostedRoom) isLocked() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.locked
}

// attach routes the session's notifications to conn, replacing any older
// connection for the same session.
func (h *hostedRoom) attach(sessionID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = conn
}

// attachNew attaches conn unless the session already has a connection.
func (h *hostedRoom) attachNew(sessionID string, conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[sessionID]; ok {
		return false
	}
	h.conns[sessionID] = conn
	return true
}

// detach forgets conn if it is still the session's connection. It returns
// how many connections remain.
func (h *hostedRoom) detach(sessionID string, conn *Connection) (bool, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[sessionID] != conn {
		return false, len(h.conns)
	}
	delete(h.conns, sessionID)
	return true, len(h.conns)
}

// RoomManager tracks the running rooms.
type RoomManager struct {
	ctx      context.Context
	clock    quartz.Clock
	logger   *log.Logger
	mirror   Mirror
	defaults room.Options
	maxRooms int

	mu    sync.RWMutex
	rooms map[string]*hostedRoom
}

// ManagerOption configures a RoomManager.
type ManagerOption func(*RoomManager)

// WithClock sets the clock rooms schedule bots and reconnections on.
func WithClock(clock quartz.Clock) ManagerOption {
	return func(m *RoomManager) { m.clock = clock }
}

// WithMirror copies every notification to mirror.
func WithMirror(mirror Mirror) ManagerOption {
	return func(m *RoomManager) { m.mirror = mirror }
}

// WithRoomDefaults sets the options new rooms start from.
func WithRoomDefaults(opts room.Options) ManagerOption {
	return func(m *RoomManager) { m.defaults = opts }
}

// WithMaxRooms caps the number of concurrent rooms.
func WithMaxRooms(n int) ManagerOption {
	return func(m *RoomManager) { m.maxRooms = n }
}

// NewRoomManager constructs an empty manager. Rooms stop when ctx is
// cancelled.
func NewRoomManager(ctx context.Context, logger *log.Logger, opts ...ManagerOption) *RoomManager {
	m := &RoomManager{
		ctx:      ctx,
		clock:    quartz.NewReal(),
		logger:   logger.WithPrefix("rooms"),
		maxRooms: defaultMaxRooms,
		rooms:    make(map[string]*hostedRoom),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Defaults returns the options new rooms start from.
func (m *RoomManager) Defaults() room.Options {
	return m.defaults
}

// Create starts a room. An empty id gets a generated one.
func (m *RoomManager) Create(id string, opts room.Options) (*hostedRoom, error) {
	if id == "" {
		id = roomid.Generate()
	}
	h := &hostedRoom{
		Reconnector: room.NewReconnector(m.clock),
		id:          id,
		mirror:      m.mirror,
		logger:      m.logger.With("room", id),
		conns:       make(map[string]*Connection),
	}
	h.room = room.New(id, h, m.clock, m.logger)

	m.mu.Lock()
	if _, ok := m.rooms[id]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("room %s already exists", id)
	}
	if len(m.rooms) >= m.maxRooms {
		m.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	m.rooms[id] = h
	m.mu.Unlock()

	go func() {
		if err := h.room.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Error("Room stopped", "error", err)
		}
		m.forget(h)
	}()

	if err := h.room.OnCreate(opts); err != nil {
		_ = h.room.OnDispose()
		return nil, err
	}
	m.logger.Info("Room opened", "room", id, "variant", opts.Variant, "bots", opts.Bots)
	return h, nil
}

func (m *RoomManager) forget(h *hostedRoom) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[h.id] == h {
		delete(m.rooms, h.id)
	}
}

// Get retrieves a room by ID.
func (m *RoomManager) Get(id string) (*hostedRoom, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.rooms[id]
	return h, ok
}

// List returns a snapshot of the running rooms ordered by ID.
func (m *RoomManager) List() []room.Summary {
	m.mu.RLock()
	hosted := make([]*hostedRoom, 0, len(m.rooms))
	for _, h := range m.rooms {
		hosted = append(hosted, h)
	}
	m.mu.RUnlock()

	summaries := make([]room.Summary, 0, len(hosted))
	for _, h := range hosted {
		sum, err := h.room.Summary()
		if err != nil {
			continue
		}
		summaries = append(summaries, sum)
	}
	slices.SortFunc(summaries, func(a, b room.Summary) int { return strings.Compare(a.ID, b.ID) })
	return summaries
}

// Remove disposes a room.
func (m *RoomManager) Remove(id string) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrRoomNotFound
	}
	m.forget(h)
	return h.room.OnDispose()
}

// reap disposes h once nobody is left to play or watch it.
func (m *RoomManager) reap(h *hostedRoom) {
	sum, err := h.room.Summary()
	if err != nil {
		return
	}
	if sum.Players == 0 || sum.Phase == game.PhaseFinished {
		m.logger.Info("Closing idle room", "room", h.id, "phase", sum.Phase)
		_ = m.Remove(h.id)
	}
}

// Close disposes every room.
func (m *RoomManager) Close() {
	m.mu.Lock()
	hosted := make([]*hostedRoom, 0, len(m.rooms))
	for _, h := range m.rooms {
		hosted = append(hosted, h)
	}
	clear(m.rooms)
	m.mu.Unlock()

	for _, h := range hosted {
		_ = h.room.OnDispose()
	}
	if m.mirror != nil {
		m.mirror.Close()
	}
}
