package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/lox/settlersforbots/internal/game"
)

// Mirror receives a copy of every room notification.
type Mirror interface {
	Publish(roomID string, n game.Notification)
	Close()
}

// NATSMirror publishes room notifications to NATS, one subject per room:
// <prefix>.<roomID>.
type NATSMirror struct {
	conn   *nats.Conn
	prefix string
	logger *log.Logger
}

// NewNATSMirror connects to url. The connection keeps retrying in the
// background if the server goes away.
func NewNATSMirror(url, prefix string, logger *log.Logger) (*NATSMirror, error) {
	logger = logger.WithPrefix("nats")
	conn, err := nats.Connect(url,
		nats.Name("settlersforbots"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	logger.Info("Mirroring room events to NATS", "url", url, "prefix", prefix)
	return &NATSMirror{conn: conn, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject a room's notifications go to.
func (m *NATSMirror) Subject(roomID string) string {
	return m.prefix + "." + roomID
}

// Publish sends n to the room's subject. Failures are logged; the game
// never waits on the mirror.
func (m *NATSMirror) Publish(roomID string, n game.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		m.logger.Error("Failed to encode notification", "room", roomID, "error", err)
		return
	}
	if err := m.conn.Publish(m.Subject(roomID), data); err != nil {
		m.logger.Warn("Failed to publish notification", "room", roomID, "type", n.Type, "error", err)
	}
}

// Close flushes pending messages and closes the connection.
func (m *NATSMirror) Close() {
	if err := m.conn.Drain(); err != nil {
		m.logger.Debug("Drain failed, closing", "error", err)
		m.conn.Close()
	}
}
