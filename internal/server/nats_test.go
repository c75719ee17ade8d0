package server

import (
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
)

// runNATS starts an in-process NATS server on a random port.
func runNATS(t *testing.T) string {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)
	ns.Start()
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	require.True(t, ns.ReadyForConnections(10*time.Second), "nats server not ready")
	return ns.ClientURL()
}

func TestNATSMirrorPublishes(t *testing.T) {
	t.Parallel()
	url := runNATS(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 16)
	s, err := sub.ChanSubscribe("test.rooms.>", msgs)
	require.NoError(t, err)
	defer func() { _ = s.Unsubscribe() }()
	require.NoError(t, sub.Flush())

	mirror, err := NewNATSMirror(url, "test.rooms", testLogger())
	require.NoError(t, err)
	defer mirror.Close()
	assert.Equal(t, "test.rooms.abc", mirror.Subject("abc"))

	mirror.Publish("abc", game.Notification{Type: game.NotifyDiceRolled, Sender: "alice", Message: "rolled 8"})

	select {
	case msg := <-msgs:
		assert.Equal(t, "test.rooms.abc", msg.Subject)
		var n game.Notification
		require.NoError(t, json.Unmarshal(msg.Data, &n))
		assert.Equal(t, game.NotifyDiceRolled, n.Type)
		assert.Equal(t, "alice", n.Sender)
		assert.Equal(t, "rolled 8", n.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("no message mirrored")
	}
}

func TestNATSMirrorCarriesRoomEvents(t *testing.T) {
	t.Parallel()
	url := runNATS(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1024)
	s, err := sub.ChanSubscribe("settlers.rooms.mirrored", msgs)
	require.NoError(t, err)
	defer func() { _ = s.Unsubscribe() }()
	require.NoError(t, sub.Flush())

	mirror, err := NewNATSMirror(url, DefaultNATSSubject, testLogger())
	require.NoError(t, err)

	rooms := NewRoomManager(t.Context(), testLogger(), WithMirror(mirror))
	defer rooms.Close()
	_, err = rooms.Create("mirrored", room.Options{Bots: 2, BotDelay: time.Hour})
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		var n game.Notification
		require.NoError(t, json.Unmarshal(msg.Data, &n))
		assert.Equal(t, game.NotifyPlayerJoined, n.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("room events were not mirrored")
	}
}
