package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/lox/settlersforbots/cmd/settlersforbots/shared"
	"github.com/lox/settlersforbots/internal/server"
)

// ServerCmd runs the websocket room server
type ServerCmd struct {
	Config   string `short:"c" default:"settlersforbots.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to, host:port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	JSONLogs bool   `help:"Log as JSON"`
	NATSURL  string `name:"nats-url" help:"Mirror room events to this NATS server (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := c.applyFlags(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out, closeLog, err := shared.OpenLogFile(cfg.Server.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	setup := shared.SetupLogger
	if c.JSONLogs {
		setup = shared.SetupStructuredLogger
	}
	logger, err := setup(out, cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)

	opts := []server.ManagerOption{
		server.WithRoomDefaults(cfg.RoomDefaults()),
		server.WithMaxRooms(cfg.Server.MaxRooms),
	}
	if cfg.NATS != nil {
		mirror, err := server.NewNATSMirror(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithMirror(mirror))
	}
	rooms := server.NewRoomManager(ctx, logger, opts...)

	for _, rc := range cfg.Rooms {
		if _, err := rooms.Create(rc.Name, rc.Options(cfg.RoomDefaults())); err != nil {
			rooms.Close()
			return fmt.Errorf("room %s: %w", rc.Name, err)
		}
	}

	logger.Info("Starting settlersforbots server",
		"addr", cfg.GetServerAddress(),
		"rooms", len(cfg.Rooms),
		"max_rooms", cfg.Server.MaxRooms,
		"bot_delay", cfg.Server.BotDelay,
		"reconnect_window", cfg.Server.ReconnectWindow,
		"nats", cfg.NATS != nil)

	s := server.NewServer(cfg.GetServerAddress(), rooms, logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-serverErr:
		rooms.Close()
		return err
	}
}

// applyFlags layers command line overrides over the file and environment.
func (c *ServerCmd) applyFlags(cfg *server.ServerConfig) error {
	if c.Addr != "" {
		host, port, err := splitAddr(c.Addr)
		if err != nil {
			return err
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.NATSURL != "" {
		if cfg.NATS == nil {
			cfg.NATS = &server.NATSConfig{SubjectPrefix: server.DefaultNATSSubject}
		}
		cfg.NATS.URL = c.NATSURL
	}
	return nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return host, port, nil
}
