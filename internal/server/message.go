package server

import (
	"encoding/json"
	"time"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
)

// Message is the envelope of every WebSocket frame in either direction.
// Clients name the session they speak for; the server trusts it.
type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateRoomData struct {
	Variant        string        `json:"variant"`
	Settings       game.Settings `json:"settings"`
	Bots           int           `json:"bots,omitempty"`
	BotReplacement *bool         `json:"botReplacement,omitempty"`
	Seed           int64         `json:"seed,omitempty"`
	Nickname       string        `json:"nickname"`
}

type JoinData struct {
	Nickname string `json:"nickname"`
}

// Action frames carry a game.Action as their data.

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JoinedData answers create-room, join and reconnect. State is the room's
// snapshot at the time of joining.
type JoinedData struct {
	RoomID    string          `json:"roomId"`
	SessionID string          `json:"sessionId"`
	State     json.RawMessage `json:"state,omitempty"`
}

type RoomListData struct {
	Rooms []room.Summary `json:"rooms"`
}
