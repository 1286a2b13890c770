package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/intent"
	"github.com/projectbackdoor/game-server/pkg/protocol"
)

// Player-facing lines for the failure taxonomy. Internal detail stays
// in the logs; the player only ever sees these.
const (
	msgUnknownDirection  = "You can't move in that direction here."
	msgArrivedUnknown    = "You arrive in an unknown area."
	msgClassifierFailure = "Sorry, I didn't quite catch that. Could you rephrase?"
	msgInternalFailure   = "Something went wrong behind the scenes. Please try again."
	msgEmptyInput        = "Say something first."
)

// Dispatcher routes each player input through the processing pipeline
// and always produces exactly one outbound message. Every failure path
// collapses into a player-facing message here; errors never escape.
type Dispatcher struct {
	assembler *ContextAssembler
	movement  *MovementResolver
	classify  *Classifier
	dialogue  *DialogueResponder
	narrator  *NarratorResponder
	store     storage.Storage
	logger    *slog.Logger
}

// NewDispatcher wires the full input pipeline. The classifier model may
// differ from the narrative model; pass the same name for both to use
// one model throughout. memories may be nil to disable medium-term
// memory summarization.
func NewDispatcher(store storage.Storage, llm services.LLMService, classifierModel, narrativeModel string, memories MemoryEnqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		assembler: NewContextAssembler(store, logger),
		movement:  NewMovementResolver(store, logger),
		classify:  NewClassifier(llm, classifierModel, logger),
		dialogue:  NewDialogueResponder(store, llm, narrativeModel, memories, logger),
		narrator:  NewNarratorResponder(llm, narrativeModel, logger),
		store:     store,
		logger:    logger,
	}
}

// Welcome produces the description of the player's current scene, sent
// once when a session connects.
func (d *Dispatcher) Welcome(ctx context.Context) protocol.Outbound {
	snapshot, err := d.assembler.Snapshot(ctx)
	if err != nil {
		d.logger.Error("Failed to assemble welcome snapshot", "error", err)
		return protocol.Error(msgInternalFailure)
	}
	return protocol.Description(snapshot.SceneDescription)
}

// HandleMessage processes one inbound message and returns the single
// outbound message owed for it.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg protocol.Inbound) protocol.Outbound {
	if msg.Command != protocol.CommandProcessInput {
		return protocol.Error(fmt.Sprintf("Unknown command: %s", msg.Command))
	}

	var payload protocol.ProcessInputPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return protocol.Error("Invalid payload. Expected an inputText field.")
	}

	input := strings.TrimSpace(payload.InputText)
	if input == "" {
		return protocol.Error(msgEmptyInput)
	}

	return d.processInput(ctx, input)
}

func (d *Dispatcher) processInput(ctx context.Context, input string) protocol.Outbound {
	// Deterministic fast path: plain movement never consults a model.
	if direction, ok := ParseMovementPhrase(input); ok {
		return d.handleMove(ctx, direction)
	}

	snapshot, err := d.assembler.Snapshot(ctx)
	if err != nil {
		d.logger.Error("Failed to assemble snapshot", "error", err)
		return protocol.Error(msgInternalFailure)
	}

	resolved, err := d.classify.Classify(ctx, snapshot, input)
	if err != nil {
		kind, _ := KindOf(err)
		d.logger.Error("Classification failed", "kind", kind, "error", err)
		return protocol.Error(msgClassifierFailure)
	}

	switch resolved.Action {
	case intent.ActionGo:
		direction := NormalizeDirection(resolved.Target)
		if direction == "" {
			return protocol.Description(msgUnknownDirection)
		}
		return d.handleMove(ctx, direction)

	case intent.ActionTalkTo:
		// The classifier does not always extract an utterance; the raw
		// input is what the player actually said.
		utterance := resolved.Utterance
		if utterance == "" {
			utterance = input
		}
		out, err := d.dialogue.Respond(ctx, snapshot, resolved.Target, utterance)
		if err != nil {
			kind, _ := KindOf(err)
			d.logger.Error("Dialogue failed", "kind", kind, "npc_id", resolved.Target, "error", err)
			return protocol.Error(msgInternalFailure)
		}
		return out

	default:
		// LOOK, GET, USE and UNKNOWN all narrate against the snapshot.
		out, err := d.narrator.Respond(ctx, snapshot, resolved, input)
		if err != nil {
			kind, _ := KindOf(err)
			d.logger.Error("Narration failed", "kind", kind, "action", resolved.Action, "error", err)
			return protocol.Error(msgInternalFailure)
		}
		return out
	}
}

func (d *Dispatcher) handleMove(ctx context.Context, direction string) protocol.Outbound {
	result, err := d.movement.Move(ctx, direction)
	if err != nil {
		switch kind, _ := KindOf(err); kind {
		case FailureDirectionNotRecognized:
			return protocol.Description(msgUnknownDirection)
		case FailureBlockedPath:
			return protocol.Description(fmt.Sprintf("You try to go %s, but find no way through.", direction))
		default:
			d.logger.Error("Movement failed", "kind", kind, "direction", direction, "error", err)
			return protocol.Error(msgInternalFailure)
		}
	}

	description := result.Description
	if description == "" {
		description = msgArrivedUnknown
	}
	return protocol.SceneChange(result.SceneID, description)
}
