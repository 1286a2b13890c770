package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectbackdoor/game-server/internal/engine"
	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/protocol"
	"github.com/projectbackdoor/game-server/pkg/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testStore(t *testing.T) *storage.MockStorage {
	t.Helper()
	store := storage.NewMockStorage()
	store.AddScene(&world.Scene{
		ID:          "pod_interior",
		Description: "A cramped sleeping pod.",
		Details: world.SceneDetails{
			AllowedDirections: []string{"north"},
			Exits:             map[string]string{"north": "hallway"},
		},
	})
	store.AddScene(&world.Scene{
		ID:          "hallway",
		Description: "A flickering hallway.",
	})
	require.NoError(t, store.PutPlayerState(context.Background(), world.NewPlayerState()))
	return store
}

func dialTestServer(t *testing.T) (*websocket.Conn, *Registry) {
	t.Helper()

	log := testLogger()
	dispatcher := engine.NewDispatcher(testStore(t), services.NewMockLLM(), "c", "n", nil, log)
	registry := NewRegistry(log)
	server := httptest.NewServer(NewWSHandler(registry, dispatcher, log))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn, registry
}

func readOutbound(t *testing.T, conn *websocket.Conn) protocol.Outbound {
	t.Helper()
	var out protocol.Outbound
	require.NoError(t, conn.ReadJSON(&out))
	require.NoError(t, out.Validate())
	return out
}

func TestWSHandler_WelcomeAndMovement(t *testing.T) {
	conn, _ := dialTestServer(t)

	welcome := readOutbound(t, conn)
	assert.Equal(t, protocol.TypeDescription, welcome.Type)
	assert.Equal(t, "A cramped sleeping pod.", welcome.Payload["description"])

	payload, err := json.Marshal(protocol.ProcessInputPayload{InputText: "go north"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(protocol.Inbound{
		Command: protocol.CommandProcessInput,
		Payload: payload,
	}))

	out := readOutbound(t, conn)
	assert.Equal(t, protocol.TypeSceneChange, out.Type)
	assert.Equal(t, "hallway", out.Payload["new_scene_id"])
}

func TestWSHandler_InvalidJSONKeepsConnection(t *testing.T) {
	conn, _ := dialTestServer(t)
	readOutbound(t, conn) // welcome

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))

	out := readOutbound(t, conn)
	assert.Equal(t, protocol.TypeError, out.Type)
	assert.Equal(t, "Invalid message format. Expected JSON.", out.Payload["message"])

	// The connection survives the bad frame.
	payload, err := json.Marshal(protocol.ProcessInputPayload{InputText: "go north"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(protocol.Inbound{
		Command: protocol.CommandProcessInput,
		Payload: payload,
	}))
	out = readOutbound(t, conn)
	assert.Equal(t, protocol.TypeSceneChange, out.Type)
}

func TestWSHandler_UnknownCommand(t *testing.T) {
	conn, _ := dialTestServer(t)
	readOutbound(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(protocol.Inbound{Command: "SAVE_GAME"}))

	out := readOutbound(t, conn)
	assert.Equal(t, protocol.TypeError, out.Type)
	assert.Equal(t, "Unknown command: SAVE_GAME", out.Payload["message"])
}

func TestRegistry_AddRemove(t *testing.T) {
	registry := NewRegistry(testLogger())

	a := &Session{ID: uuid.New()}
	b := &Session{ID: uuid.New()}

	registry.Add(a)
	registry.Add(b)
	assert.Equal(t, 2, registry.Len())

	registry.Remove(a)
	assert.Equal(t, 1, registry.Len())

	// Double-remove is a no-op.
	registry.Remove(a)
	assert.Equal(t, 1, registry.Len())
}
