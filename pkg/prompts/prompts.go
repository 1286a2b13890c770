package prompts

import (
	"fmt"
	"strings"

	"github.com/projectbackdoor/game-server/pkg/intent"
	"github.com/projectbackdoor/game-server/pkg/world"
)

// GeneratorSystemPrompt frames every call to the text-generation backend.
const GeneratorSystemPrompt = `You are the game engine of a retro text adventure. Keep responses short and concise.`

// IntentInstructions asks the model to classify one player input into the
// fixed action vocabulary. The reply must be a single JSON object.
const IntentInstructions = `You are the command parser for a text adventure game. Classify the player's input into a single structured intent.

Respond with ONE JSON object and nothing else, in this exact shape:
{"action": "<ACTION>", "target": "<identifier or direction, or omit>", "utterance": "<what the player wants to say, or omit>"}

"action" MUST be one of: LOOK, TALK_TO, GO, GET, USE, UNKNOWN.
- Use GO when the player wants to move; set "target" to the direction (north, south, east or west).
- Use TALK_TO when the player addresses a character; set "target" to the character id from the world state and "utterance" to what they want to say.
- Use GET / USE / LOOK for item and scenery interaction; set "target" to the id of the thing involved when one is named.
- Use UNKNOWN when nothing fits.

Current world state:
%s

Player input: %q`

// DialogueInstructions produces an in-character line of NPC speech.
const DialogueInstructions = `You are roleplaying %s in a text adventure game. Stay in character and reply with a single line of spoken dialogue, no narration, no quotation marks.

Your persona:
%s
%s
The player is at %s (alignment %d, where -100 is pure evil and +100 is pure good).

The player says: %q`

// NarratorInstructions describes the outcome of a non-dialogue action.
// The generator must not invent state changes; it only narrates.
const NarratorInstructions = `You are the narrator of a text adventure game. Describe ONLY the outcome of the player's action in 1-3 short sentences, second person, present tense. Do not change the game state: do not grant items, open paths, or move the player. Do not ask questions.

Current world state:
%s

Parsed action: %s
Parsed target: %s

Player input: %q`

// SummaryInstructions compresses an interaction that fell out of an
// NPC's short-term memory into one durable medium-term sentence.
const SummaryInstructions = `You maintain the long-term memory of %s, a character in a text adventure game. Compress the following exchange into ONE short sentence from the character's point of view, keeping only what would matter to them later. Reply with the sentence and nothing else.

The exchange:
%s`

// IntentSchemaName labels the structured-output request for classifier calls.
const IntentSchemaName = "resolved_intent"

// IntentJSONSchema is the structured-output schema for classifier calls,
// passed through to providers that support strict JSON output.
func IntentJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{"LOOK", "TALK_TO", "GO", "GET", "USE", "UNKNOWN"},
			},
			"target":    map[string]any{"type": []string{"string", "null"}},
			"utterance": map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"action"},
	}
}

// BuildIntentPrompt renders the classifier prompt from the snapshot and
// the verbatim player input.
func BuildIntentPrompt(snapshot *world.WorldSnapshot, input string) (string, error) {
	rendered, err := snapshot.Render()
	if err != nil {
		return "", fmt.Errorf("failed to render snapshot: %w", err)
	}
	return fmt.Sprintf(IntentInstructions, rendered, input), nil
}

// BuildDialoguePrompt renders the NPC dialogue prompt from persona,
// memory and situational framing. Medium-term memory is joined
// oldest-first; short-term memory is joined as stored (most-recent-first).
func BuildDialoguePrompt(npc *world.NPC, snapshot *world.WorldSnapshot, utterance string) string {
	var memory strings.Builder
	if len(npc.Memory.MediumTerm) > 0 {
		memory.WriteString("\nWhat you remember from further back:\n")
		memory.WriteString("- " + strings.Join(npc.Memory.MediumTerm, "\n- ") + "\n")
	}
	if len(npc.Memory.ShortTerm) > 0 {
		memory.WriteString("\nYour most recent exchanges, newest first:\n")
		memory.WriteString("- " + strings.Join(npc.Memory.ShortTerm, "\n- ") + "\n")
	}

	return fmt.Sprintf(DialogueInstructions,
		world.DisplayName(npc.ID),
		npc.Persona,
		memory.String(),
		snapshot.PlayerLocation,
		snapshot.PlayerAlignment,
		utterance,
	)
}

// BuildSummaryPrompt renders the memory-compression prompt for the
// background worker.
func BuildSummaryPrompt(npcID string, interaction string) string {
	return fmt.Sprintf(SummaryInstructions, world.DisplayName(npcID), interaction)
}

// BuildNarratorPrompt renders the world-simulation prompt from the
// snapshot, the parsed intent and the verbatim original input.
func BuildNarratorPrompt(snapshot *world.WorldSnapshot, in *intent.Resolved, rawInput string) (string, error) {
	rendered, err := snapshot.Render()
	if err != nil {
		return "", fmt.Errorf("failed to render snapshot: %w", err)
	}
	target := in.Target
	if target == "" {
		target = "(none)"
	}
	return fmt.Sprintf(NarratorInstructions, rendered, string(in.Action), target, rawInput), nil
}
