package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	rooms       *RoomManager
	logger      *log.Logger
	mu          sync.RWMutex
	httpServer  *http.Server
}

// NewServer creates a new WebSocket server hosting rooms
func NewServer(addr string, rooms *RoomManager, logger *log.Logger) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// Sessions are not authenticated, so neither are origins
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		rooms:       rooms,
		logger:      logger.WithPrefix("server"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes: /ws, /rooms and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /health", s.handleHealth)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel})),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)
	return recovery(cors(mux))
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes every connection and disposes the rooms
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	s.rooms.Close()
	return err
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

// unregister forgets conn. A client that dropped without leaving keeps its
// seat for the reconnection window.
func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[conn]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()

	if roomID, sessionID := conn.Seat(); roomID != "" {
		s.logger.Info("Seated client dropped", "room", roomID, "session", sessionID)
	}
	conn.release(false)
	_ = conn.Close() // Ignore close errors during unregistration
	s.logger.Info("Client disconnected", "total", total)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.rooms)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

// handleRooms lists the running rooms as JSON
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RoomListData{Rooms: s.rooms.List()}); err != nil {
		s.logger.Error("Failed to encode room list", "error", err)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// ConnectionCount returns the number of open client connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
