package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/projectbackdoor/game-server/internal/engine"
	"github.com/projectbackdoor/game-server/internal/logger"
	"github.com/projectbackdoor/game-server/pkg/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// WSHandler upgrades HTTP requests to game sessions and runs each
// session's read loop. Messages on one session are processed in order;
// each inbound message is answered with exactly one outbound message.
type WSHandler struct {
	registry   *Registry
	dispatcher *engine.Dispatcher
	logger     *slog.Logger
}

// NewWSHandler creates the websocket endpoint handler.
func NewWSHandler(registry *Registry, dispatcher *engine.Dispatcher, log *slog.Logger) *WSHandler {
	return &WSHandler{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     log,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	session := NewSession(conn)
	log := logger.WithSessionID(h.logger, session.ID.String())

	h.registry.Add(session)
	defer func() {
		h.registry.Remove(session)
		_ = session.Close()
	}()

	// Greet the new session with its current surroundings.
	if err := session.Send(h.dispatcher.Welcome(r.Context())); err != nil {
		log.Warn("Failed to send welcome", "error", err)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Unexpected connection close", "error", err)
			}
			return
		}

		var msg protocol.Inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			// Unparseable frames get an error reply, not a disconnect.
			if err := session.Send(protocol.Error("Invalid message format. Expected JSON.")); err != nil {
				log.Warn("Failed to send error reply", "error", err)
				return
			}
			continue
		}

		out := h.dispatcher.HandleMessage(r.Context(), msg)
		if err := session.Send(out); err != nil {
			log.Warn("Failed to send response", "error", err)
			return
		}
	}
}
