package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/settlersforbots/internal/server"
)

func TestSplitAddr(t *testing.T) {
	tests := []struct {
		addr    string
		host    string
		port    int
		wantErr bool
	}{
		{addr: "localhost:9000", host: "localhost", port: 9000},
		{addr: ":8080", host: "", port: 8080},
		{addr: "[::1]:7000", host: "::1", port: 7000},
		{addr: "localhost", wantErr: true},
		{addr: "localhost:http", wantErr: true},
	}
	for _, tt := range tests {
		host, port, err := splitAddr(tt.addr)
		if tt.wantErr {
			assert.Error(t, err, tt.addr)
			continue
		}
		require.NoError(t, err, tt.addr)
		assert.Equal(t, tt.host, host)
		assert.Equal(t, tt.port, port)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := server.DefaultServerConfig()
	cmd := &ServerCmd{Addr: "0.0.0.0:9999", LogLevel: "debug", NATSURL: "nats://localhost:4222"}
	require.NoError(t, cmd.applyFlags(cfg))

	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	require.NotNil(t, cfg.NATS)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, server.DefaultNATSSubject, cfg.NATS.SubjectPrefix)
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&ServerCmd{Addr: "nowhere"}).applyFlags(cfg))
}
