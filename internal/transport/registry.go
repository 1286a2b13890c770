package transport

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/projectbackdoor/game-server/pkg/protocol"
)

// Session is one live player connection. Writes are serialized by the
// session's mutex because gorilla/websocket allows only one concurrent
// writer per connection.
type Session struct {
	ID      uuid.UUID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:   uuid.New(),
		conn: conn,
	}
}

// Send writes one outbound message to the client.
func (s *Session) Send(msg protocol.Outbound) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Registry tracks live sessions. It owns session membership so the
// handler never touches a shared map directly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.logger.Info("Session connected", "session_id", s.ID, "active", len(r.sessions))
}

// Remove deregisters a session. Removing an unknown session is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return
	}
	delete(r.sessions, s.ID)
	r.logger.Info("Session disconnected", "session_id", s.ID, "active", len(r.sessions))
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast sends a message to every live session. Write failures are
// logged and skipped; the read loop owns disconnect handling.
func (r *Registry) Broadcast(msg protocol.Outbound) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(msg); err != nil {
			r.logger.Warn("Broadcast write failed", "session_id", s.ID, "error", err)
		}
	}
}

// CloseAll closes every live session, used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if err := s.Close(); err != nil {
			r.logger.Warn("Failed to close session", "session_id", id, "error", err)
		}
		delete(r.sessions, id)
	}
}
