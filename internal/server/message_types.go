package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeCreateRoom MessageType = "create-room"
	MessageTypeJoin       MessageType = "join"
	MessageTypeReconnect  MessageType = "reconnect"
	MessageTypeLeave      MessageType = "leave"
	MessageTypeAction     MessageType = "action"
	MessageTypeListRooms  MessageType = "list-rooms"

	// Server to client messages
	MessageTypeError        MessageType = "error"
	MessageTypeJoined       MessageType = "joined"
	MessageTypeLeft         MessageType = "left"
	MessageTypeRoomList     MessageType = "room-list"
	MessageTypeNotification MessageType = "notification"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
