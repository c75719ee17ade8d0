package game

import "fmt"

// NotificationType identifies an outbound event.
type NotificationType string

// Notification types emitted by the engine and the room.
const (
	NotifyLog             NotificationType = "log"
	NotifyChat            NotificationType = "chat"
	NotifyPlayerJoined    NotificationType = "player-joined"
	NotifyPlayerLeft      NotificationType = "player-left"
	NotifyPlayerReady     NotificationType = "player-ready"
	NotifyReconnecting    NotificationType = "player-reconnecting"
	NotifyReconnected     NotificationType = "player-reconnected"
	NotifyBotTakeover     NotificationType = "bot-takeover"
	NotifyPlayerEvicted   NotificationType = "player-evicted"
	NotifyPhaseChanged    NotificationType = "phase-changed"
	NotifyTurnChanged     NotificationType = "turn-changed"
	NotifyRoundChanged    NotificationType = "round-changed"
	NotifyDiceRolled      NotificationType = "dice-rolled"
	NotifyLoot            NotificationType = "loot"
	NotifyLootCollected   NotificationType = "loot-collected"
	NotifyStructurePlaced NotificationType = "structure-placed"
	NotifyRoadPlaced      NotificationType = "road-placed"
	NotifyRoadRemoved     NotificationType = "road-removed"
	NotifyGuardPlaced     NotificationType = "guard-placed"
	NotifyCardPurchased   NotificationType = "card-purchased"
	NotifyCardPlayed      NotificationType = "card-played"
	NotifyHeroPlayed      NotificationType = "hero-played"
	NotifyDiscard         NotificationType = "discard"
	NotifyMustDiscard     NotificationType = "must-discard"
	NotifyRobberMoved     NotificationType = "robber-moved"
	NotifyCardStolen      NotificationType = "card-stolen"
	NotifyMonopoly        NotificationType = "monopoly"
	NotifyTradeRequested  NotificationType = "trade-requested"
	NotifyTradeStarted    NotificationType = "trade-started"
	NotifyTradeRefused    NotificationType = "trade-refused"
	NotifyTradeUpdated    NotificationType = "trade-updated"
	NotifyTradeCompleted  NotificationType = "trade-completed"
	NotifyTradeCancelled  NotificationType = "trade-cancelled"
	NotifyBankTrade       NotificationType = "bank-trade"
	NotifyWildlings       NotificationType = "wildlings"
	NotifyWallAttack      NotificationType = "wall-attack"
	NotifyAward           NotificationType = "award"
	NotifyGameOver        NotificationType = "game-over"
)

// Notification is one entry of a room's outbound event stream. IsAttention
// marks events the transport should deliver with priority.
type Notification struct {
	Type        NotificationType `json:"type"`
	Sender      string           `json:"sender"`
	Message     string           `json:"message,omitempty"`
	Data        map[string]any   `json:"data,omitempty"`
	IsAttention bool             `json:"isAttention,omitempty"`
}

// Emitter receives notifications. Implementations must not call back into
// the engine.
type Emitter interface {
	Emit(n Notification)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Notification)

func (f EmitterFunc) Emit(n Notification) { f(n) }

// Bus fans notifications out to subscribers in subscription order.
type Bus struct {
	subscribers []Emitter
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make([]Emitter, 0)}
}

// Subscribe adds a subscriber to receive notifications
func (b *Bus) Subscribe(e Emitter) {
	b.subscribers = append(b.subscribers, e)
}

// Emit delivers n to every subscriber
func (b *Bus) Emit(n Notification) {
	for _, s := range b.subscribers {
		s.Emit(n)
	}
}

// notify is a small helper the services use to build notifications.
func notify(e Emitter, t NotificationType, sender string, data map[string]any, format string, args ...any) {
	if e == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	e.Emit(Notification{Type: t, Sender: sender, Message: msg, Data: data})
}

// attention is notify for latency-sensitive events.
func attention(e Emitter, t NotificationType, sender string, data map[string]any, format string, args ...any) {
	if e == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	e.Emit(Notification{Type: t, Sender: sender, Message: msg, Data: data, IsAttention: true})
}

// SystemSender is the sender of engine-originated notifications.
const SystemSender = "system"
