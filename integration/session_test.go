//go:build integration
// +build integration

// Package integration plays a scripted session against a RUNNING game
// server. It needs a live stack (server + Redis + a real LLM backend),
// so it is kept behind the integration build tag:
//
//	go test -tags integration ./integration/ -v
//
// SERVER_WS_URL overrides the default ws://localhost:8080/ws.
package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/projectbackdoor/game-server/pkg/protocol"
)

const readTimeout = 60 * time.Second

func dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := os.Getenv("SERVER_WS_URL")
	if url == "" {
		url = "ws://localhost:8080/ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial %s (is the server running?): %v", url, err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, input string) {
	t.Helper()

	payload, err := json.Marshal(protocol.ProcessInputPayload{InputText: input})
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	msg := protocol.Inbound{Command: protocol.CommandProcessInput, Payload: payload}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to send %q: %v", input, err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Outbound {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var out protocol.Outbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("Invalid outbound frame: %v", err)
	}
	return out
}

func payloadString(t *testing.T, out protocol.Outbound, key string) string {
	t.Helper()

	v, ok := out.Payload[key]
	if !ok {
		t.Fatalf("Payload missing %q: %+v", key, out.Payload)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("Payload %q is not a string: %T", key, v)
	}
	return s
}

// TestScriptedSession walks one connection through the core loop:
// welcome message, free-text narration, dialogue, and movement.
func TestScriptedSession(t *testing.T) {
	conn := dial(t)
	defer conn.Close()

	welcome := receive(t, conn)
	if welcome.Type != protocol.TypeDescription {
		t.Fatalf("Expected description welcome, got %s: %+v", welcome.Type, welcome.Payload)
	}
	fmt.Printf("  welcome: %s\n", payloadString(t, welcome, "description"))

	steps := []struct {
		input string
		types []protocol.MessageType
	}{
		{"look around", []protocol.MessageType{protocol.TypeDescription}},
		{"pick up the trophy", []protocol.MessageType{protocol.TypeDescription}},
		{"talk to clippy: hello there!", []protocol.MessageType{protocol.TypeDialogue}},
		{"go north", []protocol.MessageType{protocol.TypeSceneChange, protocol.TypeDescription}},
		{"go south", []protocol.MessageType{protocol.TypeSceneChange, protocol.TypeDescription}},
	}

	for _, step := range steps {
		send(t, conn, step.input)
		out := receive(t, conn)

		allowed := false
		for _, want := range step.types {
			if out.Type == want {
				allowed = true
				break
			}
		}
		if !allowed {
			t.Errorf("Input %q: expected one of %v, got %s: %+v",
				step.input, step.types, out.Type, out.Payload)
			continue
		}
		fmt.Printf("  %q -> %s\n", step.input, out.Type)
	}
}

// TestOneResponsePerInput verifies the server never sends unsolicited
// frames: two inputs yield exactly two responses and nothing more.
func TestOneResponsePerInput(t *testing.T) {
	conn := dial(t)
	defer conn.Close()

	receive(t, conn) // welcome

	send(t, conn, "look around")
	receive(t, conn)
	send(t, conn, "look around")
	receive(t, conn)

	// No third frame should arrive
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var extra protocol.Outbound
	if err := conn.ReadJSON(&extra); err == nil {
		t.Errorf("Received unsolicited frame: %+v", extra)
	}
}

// TestInvalidFramesKeepConnection exercises the protocol error paths
// over a live connection.
func TestInvalidFramesKeepConnection(t *testing.T) {
	conn := dial(t)
	defer conn.Close()

	receive(t, conn) // welcome

	// Unknown command
	if err := conn.WriteJSON(protocol.Inbound{Command: "RESET_WORLD"}); err != nil {
		t.Fatalf("Failed to send unknown command: %v", err)
	}
	out := receive(t, conn)
	if out.Type != protocol.TypeError {
		t.Errorf("Expected error for unknown command, got %s", out.Type)
	}

	// Malformed JSON
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Failed to send malformed frame: %v", err)
	}
	out = receive(t, conn)
	if out.Type != protocol.TypeError {
		t.Errorf("Expected error for malformed frame, got %s", out.Type)
	}

	// Connection still works afterwards
	send(t, conn, "look around")
	out = receive(t, conn)
	if out.Type == protocol.TypeError {
		t.Errorf("Expected working connection after bad frames, got error: %+v", out.Payload)
	}
}
