package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
	"github.com/lox/settlersforbots/internal/roomid"
)

// Connection represents a WebSocket connection to a client. A connection
// speaks for at most one session in one room at a time.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	sessionID string
	roomID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	rooms     *RoomManager
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, rooms *RoomManager) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		rooms:  rooms,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.cancel()
		close(c.send)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. It never blocks: a client
// that cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "session", c.sessionID)
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

// seat associates this connection with a session in a room
func (c *Connection) seat(roomID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID, c.sessionID = roomID, sessionID
}

// Seat returns the room and session this connection speaks for
func (c *Connection) Seat() (roomID, sessionID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.sessionID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "room", msg.RoomID, "session", msg.SessionID)

	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := decodeData(msg, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create room data")
			return
		}
		c.handleCreateRoom(msg.SessionID, data)

	case MessageTypeJoin:
		var data JoinData
		if err := decodeData(msg, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(msg.RoomID, msg.SessionID, data)

	case MessageTypeReconnect:
		c.handleReconnect(msg.RoomID, msg.SessionID)

	case MessageTypeLeave:
		c.handleLeave()

	case MessageTypeAction:
		var action game.Action
		if err := decodeData(msg, &action); err != nil {
			c.sendError("invalid_message", "Failed to parse action")
			return
		}
		c.handleAction(action)

	case MessageTypeListRooms:
		c.handleListRooms()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// decodeData unmarshals a message payload; an absent payload is fine.
func decodeData(msg *Message, v any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	return json.Unmarshal(msg.Data, v)
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

func (c *Connection) handleCreateRoom(sessionID string, data CreateRoomData) {
	if roomID, _ := c.Seat(); roomID != "" {
		c.sendError("already_seated", "Leave the current room first")
		return
	}
	if sessionID == "" {
		sessionID = roomid.Session("player")
	}

	opts := c.rooms.Defaults()
	opts.Variant = data.Variant
	opts.Settings = data.Settings
	opts.Bots = data.Bots
	opts.Seed = data.Seed
	if data.BotReplacement != nil {
		opts.BotReplacement = *data.BotReplacement
	}
	c.logger.Info("Create room request", "session", sessionID, "variant", data.Variant, "bots", data.Bots)

	h, err := c.rooms.Create("", opts)
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}
	c.join(h, sessionID, data.Nickname)
}

func (c *Connection) handleJoin(roomID, sessionID string, data JoinData) {
	if current, _ := c.Seat(); current != "" {
		c.sendError("already_seated", "Leave the current room first")
		return
	}
	h, ok := c.rooms.Get(roomID)
	if !ok {
		c.sendError("room_not_found", ErrRoomNotFound.Error())
		return
	}
	if h.isLocked() {
		c.sendError("join_failed", ErrRoomLocked.Error())
		return
	}
	if sessionID == "" {
		sessionID = roomid.Session("player")
	}
	c.logger.Info("Join request", "room", roomID, "session", sessionID)
	c.join(h, sessionID, data.Nickname)
}

func (c *Connection) join(h *hostedRoom, sessionID, nickname string) {
	// attach first so the join notification reaches the joiner
	if !h.attachNew(sessionID, c) {
		c.sendError("join_failed", "session already connected")
		return
	}
	if err := h.room.OnJoin(sessionID, room.JoinOptions{Nickname: nickname}); err != nil {
		h.detach(sessionID, c)
		c.sendError("join_failed", err.Error())
		return
	}
	c.seat(h.id, sessionID)
	c.sendJoined(h, sessionID)
}

func (c *Connection) handleReconnect(roomID, sessionID string) {
	h, ok := c.rooms.Get(roomID)
	if !ok {
		c.sendError("room_not_found", ErrRoomNotFound.Error())
		return
	}
	c.logger.Info("Reconnect request", "room", roomID, "session", sessionID)
	if err := h.room.Reconnect(sessionID, h.Reconnector.Reconnect); err != nil {
		c.sendError("reconnect_failed", err.Error())
		return
	}
	h.attach(sessionID, c)
	c.seat(roomID, sessionID)
	c.sendJoined(h, sessionID)
}

func (c *Connection) sendJoined(h *hostedRoom, sessionID string) {
	state, err := h.room.Snapshot()
	if err != nil {
		c.logger.Warn("Failed to snapshot room", "room", h.id, "error", err)
	}
	response, _ := NewMessage(MessageTypeJoined, JoinedData{
		RoomID:    h.id,
		SessionID: sessionID,
		State:     state,
	})
	response.RoomID, response.SessionID = h.id, sessionID
	_ = c.SendMessage(response) // Ignore send errors
}

// handleLeave gives the seat up for good.
func (c *Connection) handleLeave() {
	roomID, sessionID := c.Seat()
	if roomID == "" {
		c.sendError("not_seated", "Not in a room")
		return
	}
	c.logger.Info("Leave request", "room", roomID, "session", sessionID)
	c.release(true)

	response, _ := NewMessage(MessageTypeLeft, map[string]string{"roomId": roomID})
	_ = c.SendMessage(response) // Ignore send errors
}

// release detaches the connection from its room. A connection that drops
// without leaving keeps its seat for the reconnection window.
func (c *Connection) release(consented bool) {
	roomID, sessionID := c.Seat()
	if roomID == "" {
		return
	}
	c.seat("", "")
	h, ok := c.rooms.Get(roomID)
	if !ok {
		return
	}
	current, remaining := h.detach(sessionID, c)
	if !current {
		// a newer connection took the session over
		return
	}
	h.room.OnLeave(sessionID, consented)
	if remaining == 0 {
		go c.rooms.reap(h)
	}
}

func (c *Connection) handleAction(action game.Action) {
	roomID, sessionID := c.Seat()
	if roomID == "" {
		c.sendError("not_seated", "Join a room first")
		return
	}
	h, ok := c.rooms.Get(roomID)
	if !ok {
		c.sendError("room_not_found", ErrRoomNotFound.Error())
		return
	}
	// illegal actions are dropped by the room without a reply
	h.room.OnMessage(sessionID, action)
}

func (c *Connection) handleListRooms() {
	response, _ := NewMessage(MessageTypeRoomList, RoomListData{Rooms: c.rooms.List()})
	_ = c.SendMessage(response) // Ignore send errors
}
