package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
)

// recordingMirror keeps every mirrored notification.
type recordingMirror struct {
	mu     sync.Mutex
	events map[string][]game.Notification
	closed bool
}

func (m *recordingMirror) Publish(roomID string, n game.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[string][]game.Notification)
	}
	m.events[roomID] = append(m.events[roomID], n)
}

func (m *recordingMirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *recordingMirror) count(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events[roomID])
}

type testServer struct {
	*Server
	rooms  *RoomManager
	mirror *recordingMirror
	http   *httptest.Server
}

func newTestServer(t *testing.T, defaults room.Options) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mirror := &recordingMirror{}
	rooms := NewRoomManager(ctx, testLogger(), WithRoomDefaults(defaults), WithMirror(mirror), WithMaxRooms(4))
	srv := NewServer("", rooms, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Stop(context.Background())
	})
	return &testServer{Server: srv, rooms: rooms, mirror: mirror, http: ts}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ MessageType, roomID, sessionID string, data any) {
	t.Helper()
	msg, err := NewMessage(typ, data)
	require.NoError(t, err)
	msg.RoomID, msg.SessionID = roomID, sessionID
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(*Message) bool) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(&msg) {
			return &msg
		}
	}
}

func ofType(typ MessageType) func(*Message) bool {
	return func(m *Message) bool { return m.Type == typ }
}

func notification(typ game.NotificationType) func(*Message) bool {
	return func(m *Message) bool {
		if m.Type != MessageTypeNotification {
			return false
		}
		var n game.Notification
		return json.Unmarshal(m.Data, &n) == nil && n.Type == typ
	}
}

func errorCode(t *testing.T, msg *Message) string {
	t.Helper()
	require.Equal(t, MessageTypeError, msg.Type)
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data.Code
}

// createRoom opens a room with one bot and returns its ID.
func createRoom(t *testing.T, conn *websocket.Conn, sessionID string, replacement bool) string {
	t.Helper()
	send(t, conn, MessageTypeCreateRoom, "", sessionID, CreateRoomData{
		Variant:        "base",
		Bots:           1,
		Nickname:       "Alice",
		BotReplacement: &replacement,
	})
	msg := readUntil(t, conn, ofType(MessageTypeJoined))
	var joined JoinedData
	require.NoError(t, json.Unmarshal(msg.Data, &joined))
	assert.Equal(t, sessionID, joined.SessionID)
	assert.NotEmpty(t, joined.State)
	return joined.RoomID
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{})

	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{BotDelay: time.Hour})
	_, err := ts.rooms.Create("lobby", room.Options{Variant: "expansion", Bots: 2, BotDelay: time.Hour})
	require.NoError(t, err)

	resp, err := http.Get(ts.http.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var list RoomListData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "lobby", list.Rooms[0].ID)
	assert.Equal(t, "expansion", list.Rooms[0].Variant)
	assert.Equal(t, 2, list.Rooms[0].Bots)
	assert.Equal(t, game.PhaseLobby, list.Rooms[0].Phase)
}

func TestRoomLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{})
	for i := 0; i < 4; i++ {
		_, err := ts.rooms.Create("", room.Options{BotDelay: time.Hour})
		require.NoError(t, err)
	}
	_, err := ts.rooms.Create("", room.Options{})
	assert.ErrorIs(t, err, ErrTooManyRooms)
}

func TestWebSocketGameFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{BotDelay: time.Millisecond})
	conn := ts.dial(t)

	roomID := createRoom(t, conn, "alice", true)

	send(t, conn, MessageTypeListRooms, "", "", nil)
	msg := readUntil(t, conn, ofType(MessageTypeRoomList))
	var list RoomListData
	require.NoError(t, json.Unmarshal(msg.Data, &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, roomID, list.Rooms[0].ID)
	assert.Equal(t, 2, list.Rooms[0].Players)

	// the bot readies on its own, alice's ready starts the game
	send(t, conn, MessageTypeAction, "", "", game.Action{Type: game.ActionReady})
	readUntil(t, conn, notification(game.NotifyPhaseChanged))
	assert.Positive(t, ts.mirror.count(roomID))

	// someone else cannot join a started game
	other := ts.dial(t)
	send(t, other, MessageTypeJoin, roomID, "bob", JoinData{Nickname: "Bob"})
	assert.Equal(t, "join_failed", errorCode(t, readUntil(t, other, ofType(MessageTypeError))))

	send(t, conn, MessageTypeLeave, "", "", nil)
	readUntil(t, conn, ofType(MessageTypeLeft))
	send(t, conn, MessageTypeAction, "", "", game.Action{Type: game.ActionRollDice})
	assert.Equal(t, "not_seated", errorCode(t, readUntil(t, conn, ofType(MessageTypeError))))
}

func TestWebSocketErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{})
	conn := ts.dial(t)

	tests := []struct {
		name   string
		typ    MessageType
		roomID string
		data   any
		code   string
	}{
		{"unknown type", "teleport", "", nil, "unknown_message_type"},
		{"join missing room", MessageTypeJoin, "nowhere", JoinData{}, "room_not_found"},
		{"reconnect missing room", MessageTypeReconnect, "nowhere", nil, "room_not_found"},
		{"leave unseated", MessageTypeLeave, "", nil, "not_seated"},
		{"action unseated", MessageTypeAction, "", game.Action{Type: game.ActionReady}, "not_seated"},
		{"bad variant", MessageTypeCreateRoom, "", CreateRoomData{Variant: "seafarers"}, "create_failed"},
	}
	for _, tt := range tests {
		send(t, conn, tt.typ, tt.roomID, "alice", tt.data)
		assert.Equal(t, tt.code, errorCode(t, readUntil(t, conn, ofType(MessageTypeError))), tt.name)
	}
}

// reconnect retries until the server has noticed the old socket is gone.
func reconnect(t *testing.T, conn *websocket.Conn, roomID, sessionID string) *Message {
	t.Helper()
	for i := 0; i < 100; i++ {
		send(t, conn, MessageTypeReconnect, roomID, sessionID, nil)
		msg := readUntil(t, conn, func(m *Message) bool {
			return m.Type == MessageTypeJoined || m.Type == MessageTypeError
		})
		if msg.Type == MessageTypeJoined {
			return msg
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("never reconnected")
	return nil
}

func TestWebSocketReconnect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{BotDelay: time.Millisecond, ReconnectWindow: time.Minute})
	conn := ts.dial(t)
	roomID := createRoom(t, conn, "alice", true)
	send(t, conn, MessageTypeAction, "", "", game.Action{Type: game.ActionReady})
	readUntil(t, conn, notification(game.NotifyPhaseChanged))

	require.NoError(t, conn.Close())
	again := ts.dial(t)
	msg := reconnect(t, again, roomID, "alice")
	assert.Equal(t, "alice", msg.SessionID)

	// the joined snapshot already shows the seat handed back
	var joined JoinedData
	require.NoError(t, json.Unmarshal(msg.Data, &joined))
	var state struct {
		Players []struct {
			SessionID     string                `json:"sessionId"`
			IsReplacement bool                  `json:"isReplacement"`
			Connection    game.ConnectionStatus `json:"connection"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(joined.State, &state))
	var found bool
	for _, p := range state.Players {
		if p.SessionID == "alice" {
			found = true
			assert.False(t, p.IsReplacement)
			assert.Equal(t, game.Connected, p.Connection)
		}
	}
	assert.True(t, found, "alice is in the snapshot")

	h, ok := ts.rooms.Get(roomID)
	require.True(t, ok)
	require.NoError(t, h.room.Inspect(func(e *game.Engine) {
		p, ok := e.State.Player("alice")
		if assert.True(t, ok) {
			assert.False(t, p.IsReplacement)
			assert.Equal(t, game.Connected, p.Connection)
		}
	}))
}

func TestWebSocketLateReconnect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, room.Options{BotDelay: time.Hour, ReconnectWindow: 20 * time.Millisecond})
	conn := ts.dial(t)
	roomID := createRoom(t, conn, "alice", false)
	send(t, conn, MessageTypeAction, "", "", game.Action{Type: game.ActionReady})

	h, ok := ts.rooms.Get(roomID)
	require.True(t, ok)
	// start by hand so the bot timer never matters
	require.NoError(t, h.room.Inspect(func(e *game.Engine) {
		for _, p := range e.State.Players {
			p.Ready = true
		}
	}))
	require.Eventually(t, func() bool {
		sum, err := h.room.Summary()
		return err == nil && sum.Phase == game.PhaseTurnOrder
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		sum, err := h.room.Summary()
		return err == nil && sum.Players == 1
	}, 5*time.Second, 5*time.Millisecond, "alice is evicted once the window closes")

	again := ts.dial(t)
	send(t, again, MessageTypeReconnect, roomID, "alice", nil)
	assert.Equal(t, "reconnect_failed", errorCode(t, readUntil(t, again, ofType(MessageTypeError))))
}
