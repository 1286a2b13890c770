package protocol

import (
	"encoding/json"
	"fmt"
)

// CommandProcessInput is the only live inbound command. Any other
// command name yields an error-typed outbound message.
const CommandProcessInput = "PROCESS_INPUT"

// Inbound is a client-to-server frame.
type Inbound struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// ProcessInputPayload carries the raw player text for PROCESS_INPUT.
type ProcessInputPayload struct {
	InputText string `json:"inputText"`
}

// MessageType enumerates the outbound message kinds.
type MessageType string

const (
	TypeDescription MessageType = "description"
	TypeDialogue    MessageType = "dialogue"
	TypeSceneChange MessageType = "scene_change"
	TypeError       MessageType = "error"
)

// Outbound is a server-to-client frame. Every processed inbound message
// produces exactly one Outbound.
type Outbound struct {
	Type    MessageType    `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Description builds a description message.
func Description(text string) Outbound {
	return Outbound{
		Type:    TypeDescription,
		Payload: map[string]any{"description": text},
	}
}

// Dialogue builds a dialogue message.
func Dialogue(speaker, line string) Outbound {
	return Outbound{
		Type:    TypeDialogue,
		Payload: map[string]any{"speaker": speaker, "line": line},
	}
}

// SceneChange builds a scene_change message.
func SceneChange(sceneID, description string) Outbound {
	return Outbound{
		Type:    TypeSceneChange,
		Payload: map[string]any{"new_scene_id": sceneID, "new_description": description},
	}
}

// Error builds an error message.
func Error(message string) Outbound {
	return Outbound{
		Type:    TypeError,
		Payload: map[string]any{"message": message},
	}
}

// Validate checks the outbound invariants: a type from the fixed
// enumeration and a non-nil payload.
func (o Outbound) Validate() error {
	switch o.Type {
	case TypeDescription, TypeDialogue, TypeSceneChange, TypeError:
	default:
		return fmt.Errorf("protocol: unknown outbound type %q", o.Type)
	}
	if o.Payload == nil {
		return fmt.Errorf("protocol: outbound %s has nil payload", o.Type)
	}
	return nil
}
