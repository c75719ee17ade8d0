package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joeshaw/envdecode"

	"github.com/lox/settlersforbots/internal/game"
	"github.com/lox/settlersforbots/internal/room"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  []RoomConfig   `hcl:"room,block"`
	NATS   *NATSConfig    `hcl:"nats,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	Port            int    `hcl:"port,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	LogFile         string `hcl:"log_file,optional"`
	MaxRooms        int    `hcl:"max_rooms,optional"`
	BotDelay        string `hcl:"bot_delay,optional"`
	ReconnectWindow string `hcl:"reconnect_window,optional"`
	BotReplacement  bool   `hcl:"bot_replacement,optional"`
}

// RoomConfig defines a room opened when the server starts
type RoomConfig struct {
	Name       string `hcl:"name,label"`
	Variant    string `hcl:"variant,optional"`
	MaxClients int    `hcl:"max_clients,optional"`
	AutoPickup bool   `hcl:"auto_pickup,optional"`
	MaxRounds  int    `hcl:"max_rounds,optional"`
	Bots       int    `hcl:"bots,optional"`
	Seed       int64  `hcl:"seed,optional"`
}

// NATSConfig enables mirroring room notifications to NATS
type NATSConfig struct {
	URL           string `hcl:"url"`
	SubjectPrefix string `hcl:"subject_prefix,optional"`
}

// envOverrides are the settings the environment may override.
type envOverrides struct {
	Address  string `env:"SETTLERS_ADDRESS"`
	Port     int    `env:"SETTLERS_PORT"`
	LogLevel string `env:"SETTLERS_LOG_LEVEL"`
	NATSURL  string `env:"SETTLERS_NATS_URL"`
}

const (
	defaultAddress     = "localhost"
	defaultPort        = 8080
	defaultLogLevel    = "info"
	defaultMaxRooms    = 100
	DefaultNATSSubject = "settlers.rooms"
)

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:         defaultAddress,
			Port:            defaultPort,
			LogLevel:        defaultLogLevel,
			MaxRooms:        defaultMaxRooms,
			BotDelay:        room.DefaultBotDelay.String(),
			ReconnectWindow: room.DefaultReconnectWindow.String(),
			BotReplacement:  true,
		},
	}
}

// LoadServerConfig loads server configuration from HCL file. A missing file
// yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.MaxRooms == 0 {
		c.Server.MaxRooms = defaultMaxRooms
	}
	if c.Server.BotDelay == "" {
		c.Server.BotDelay = room.DefaultBotDelay.String()
	}
	if c.Server.ReconnectWindow == "" {
		c.Server.ReconnectWindow = room.DefaultReconnectWindow.String()
	}

	for i := range c.Rooms {
		if c.Rooms[i].Variant == "" {
			c.Rooms[i].Variant = "base"
		}
	}

	if c.NATS != nil && c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = DefaultNATSSubject
	}
}

// ApplyEnv overrides settings from SETTLERS_* environment variables.
func (c *ServerConfig) ApplyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}
	if env.Address != "" {
		c.Server.Address = env.Address
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.Server.LogLevel = env.LogLevel
	}
	if env.NATSURL != "" {
		if c.NATS == nil {
			c.NATS = &NATSConfig{SubjectPrefix: DefaultNATSSubject}
		}
		c.NATS.URL = env.NATSURL
	}
	return nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	if c.Server.MaxRooms < 1 {
		return fmt.Errorf("max rooms must be positive, got %d", c.Server.MaxRooms)
	}
	if d, err := time.ParseDuration(c.Server.BotDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid bot delay: %q", c.Server.BotDelay)
	}
	if d, err := time.ParseDuration(c.Server.ReconnectWindow); err != nil || d <= 0 {
		return fmt.Errorf("invalid reconnect window: %q", c.Server.ReconnectWindow)
	}

	names := make(map[string]bool)
	for _, r := range c.Rooms {
		if names[r.Name] {
			return fmt.Errorf("room %s: defined twice", r.Name)
		}
		names[r.Name] = true

		v, err := game.VariantByName(r.Variant)
		if err != nil {
			return fmt.Errorf("room %s: %w", r.Name, err)
		}
		if r.MaxClients != 0 && (r.MaxClients < 2 || r.MaxClients > v.MaxClients) {
			return fmt.Errorf("room %s: max clients must be between 2 and %d", r.Name, v.MaxClients)
		}
		if r.Bots < 0 || r.Bots > v.MaxClients {
			return fmt.Errorf("room %s: bots must be between 0 and %d", r.Name, v.MaxClients)
		}
		if r.MaxRounds < 0 {
			return fmt.Errorf("room %s: max rounds cannot be negative", r.Name)
		}
	}
	if len(c.Rooms) > c.Server.MaxRooms {
		return fmt.Errorf("%d rooms configured but max rooms is %d", len(c.Rooms), c.Server.MaxRooms)
	}

	if c.NATS != nil && c.NATS.URL == "" {
		return errors.New("nats: url is required")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomDefaults returns the room options every room starts from. The
// durations must already have passed Validate.
func (c *ServerConfig) RoomDefaults() room.Options {
	delay, _ := time.ParseDuration(c.Server.BotDelay)
	window, _ := time.ParseDuration(c.Server.ReconnectWindow)
	return room.Options{
		BotDelay:        delay,
		ReconnectWindow: window,
		BotReplacement:  c.Server.BotReplacement,
	}
}

// Options returns the room options for a configured room.
func (rc RoomConfig) Options(defaults room.Options) room.Options {
	opts := defaults
	opts.Variant = rc.Variant
	opts.Seed = rc.Seed
	opts.Bots = rc.Bots
	opts.Settings = game.Settings{
		MaxClients: rc.MaxClients,
		AutoPickup: rc.AutoPickup,
		MaxRounds:  rc.MaxRounds,
	}
	return opts
}
