package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/protocol"
	"github.com/projectbackdoor/game-server/pkg/prompts"
	"github.com/projectbackdoor/game-server/pkg/textfilter"
	"github.com/projectbackdoor/game-server/pkg/world"
)

// GeneratorTimeout bounds a single narrative generation call.
const GeneratorTimeout = 30 * time.Second

// SystemSpeaker is the speaker attributed to engine-generated dialogue
// lines such as "Talk to who exactly?".
const SystemSpeaker = "System"

// MemoryEnqueuer hands interactions that fell out of short-term memory
// to the background summarization worker. May be nil, in which case
// evicted interactions are simply dropped.
type MemoryEnqueuer interface {
	EnqueueSummary(ctx context.Context, npcID string, interaction string) error
}

// DialogueResponder handles TALK_TO intents: it drives the NPC's
// roleplay prompt and records the exchange in the NPC's memory.
type DialogueResponder struct {
	store    storage.Storage
	llm      services.LLMService
	model    string
	memories MemoryEnqueuer
	logger   *slog.Logger
}

// NewDialogueResponder creates a dialogue responder. memories may be nil.
func NewDialogueResponder(store storage.Storage, llm services.LLMService, model string, memories MemoryEnqueuer, logger *slog.Logger) *DialogueResponder {
	return &DialogueResponder{
		store:    store,
		llm:      llm,
		model:    model,
		memories: memories,
		logger:   logger,
	}
}

// Respond produces the NPC's reply to the player's utterance. Targets
// that are not NPCs and NPCs that do not exist produce canned system
// dialogue rather than errors; those paths never touch the model or
// NPC memory.
func (d *DialogueResponder) Respond(ctx context.Context, snapshot *world.WorldSnapshot, target, utterance string) (protocol.Outbound, error) {
	if !world.IsNPCID(target) {
		return protocol.Dialogue(SystemSpeaker, "Talk to who exactly?"), nil
	}

	npc, err := d.store.GetNPC(ctx, target)
	if err != nil {
		return protocol.Outbound{}, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load npc %q: %w", target, err))
	}
	if npc == nil {
		return protocol.Dialogue(SystemSpeaker, fmt.Sprintf("You can't talk to %s.", target)), nil
	}

	prompt := prompts.BuildDialoguePrompt(npc, snapshot, utterance)

	genCtx, cancel := context.WithTimeout(ctx, GeneratorTimeout)
	defer cancel()

	line, err := d.llm.Generate(genCtx, services.GenerateRequest{
		Prompt:      prompt,
		Model:       d.model,
		Temperature: services.NarrativeTemperature,
		MaxTokens:   services.NarrativeMaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.Outbound{}, NewFailure(FailureGeneratorTimeout, err)
		}
		return protocol.Outbound{}, NewFailure(FailureGeneratorUnavailable, fmt.Errorf("dialogue generation failed: %w", err))
	}

	line = textfilter.CleanNarrative(line)
	if line == "" {
		// No reply means no interaction worth remembering.
		return protocol.Dialogue(npc.ID, fmt.Sprintf("%s doesn't respond.", world.DisplayName(npc.ID))), nil
	}

	var evicted string
	if len(npc.Memory.ShortTerm) >= world.ShortTermMemoryLimit {
		evicted = npc.Memory.ShortTerm[len(npc.Memory.ShortTerm)-1]
	}

	npc.Memory.Remember(fmt.Sprintf("Player said: %q. You replied: %q.", utterance, line))
	if err := d.store.PutNPC(ctx, npc); err != nil {
		// The reply already exists; losing one memory entry is better
		// than eating the NPC's line.
		d.logger.Error("Failed to save NPC memory", "npc_id", npc.ID, "error", err)
	} else if evicted != "" && d.memories != nil {
		if err := d.memories.EnqueueSummary(ctx, npc.ID, evicted); err != nil {
			d.logger.Error("Failed to enqueue memory summary", "npc_id", npc.ID, "error", err)
		}
	}

	return protocol.Dialogue(npc.ID, line), nil
}
