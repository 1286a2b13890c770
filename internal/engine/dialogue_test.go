package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/pkg/protocol"
	"github.com/projectbackdoor/game-server/pkg/world"
)

func TestDialogueResponder_NonNPCTarget(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "item_keycard", "hello?")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out.Type != protocol.TypeDialogue {
		t.Fatalf("Expected dialogue message, got %s", out.Type)
	}
	if out.Payload["speaker"] != SystemSpeaker {
		t.Errorf("Expected system speaker, got %v", out.Payload["speaker"])
	}
	if len(llm.GetGenerateCalls()) != 0 {
		t.Error("Non-NPC target must not reach the model")
	}
}

func TestDialogueResponder_UnknownNPC(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "npc_ghost", "hello?")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out.Payload["line"] != "You can't talk to npc_ghost." {
		t.Errorf("Unexpected line: %v", out.Payload["line"])
	}
	if len(llm.GetGenerateCalls()) != 0 {
		t.Error("Unknown NPC must not reach the model")
	}
}

func TestDialogueResponder_Success(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	llm.SetGenerateResponse("It looks like you're trying to flee. Need help?")
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "how do I get out of here?")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out.Type != protocol.TypeDialogue {
		t.Fatalf("Expected dialogue message, got %s", out.Type)
	}
	if out.Payload["speaker"] != "npc_clippy" {
		t.Errorf("Expected speaker 'npc_clippy', got %v", out.Payload["speaker"])
	}

	calls := llm.GetGenerateCalls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 model call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Prompt, "An overly helpful paperclip.") {
		t.Error("Expected persona in dialogue prompt")
	}
	if calls[0].Temperature != services.NarrativeTemperature {
		t.Errorf("Expected narrative temperature, got %v", calls[0].Temperature)
	}

	// The exchange is written back to the NPC's short-term memory.
	npc, _ := store.GetNPC(context.Background(), "npc_clippy")
	if len(npc.Memory.ShortTerm) != 1 {
		t.Fatalf("Expected 1 memory entry, got %d", len(npc.Memory.ShortTerm))
	}
	if !strings.Contains(npc.Memory.ShortTerm[0], "how do I get out of here?") {
		t.Errorf("Memory entry missing utterance: %q", npc.Memory.ShortTerm[0])
	}
}

func TestDialogueResponder_EmptyGeneration(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	llm.SetGenerateResponse("   ")
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "hello")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if out.Payload["line"] != "Clippy doesn't respond." {
		t.Errorf("Unexpected line: %v", out.Payload["line"])
	}

	// An empty reply is not an interaction; memory stays untouched.
	npc, _ := store.GetNPC(context.Background(), "npc_clippy")
	if len(npc.Memory.ShortTerm) != 0 {
		t.Error("Empty generation must not write memory")
	}
}

func TestDialogueResponder_MemorySaveFailureKeepsLine(t *testing.T) {
	store := testWorld()
	store.PutNPCErr = errors.New("redis down")
	llm := services.NewMockLLM()
	llm.SetGenerateResponse("Have you tried turning it off and on again?")
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "help")
	if err != nil {
		t.Fatalf("Expected line despite save failure, got error: %v", err)
	}
	if out.Payload["line"] != "Have you tried turning it off and on again?" {
		t.Errorf("Unexpected line: %v", out.Payload["line"])
	}
}

func TestDialogueResponder_GenerationFailure(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	llm.SetGenerateError(errors.New("model unavailable"))
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	_, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "hello")
	kind, ok := KindOf(err)
	if !ok || kind != FailureGeneratorUnavailable {
		t.Fatalf("Expected generator unavailable failure, got %v", err)
	}
}

func TestDialogueResponder_GenerationTimeout(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	llm.SetGenerateError(fmt.Errorf("generate: %w", context.DeadlineExceeded))
	responder := NewDialogueResponder(store, llm, "test-model", nil, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	_, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "hello")
	kind, ok := KindOf(err)
	if !ok || kind != FailureGeneratorTimeout {
		t.Fatalf("Expected generator timeout failure, got %v", err)
	}
}

type recordingEnqueuer struct {
	npcIDs       []string
	interactions []string
	err          error
}

func (r *recordingEnqueuer) EnqueueSummary(ctx context.Context, npcID, interaction string) error {
	if r.err != nil {
		return r.err
	}
	r.npcIDs = append(r.npcIDs, npcID)
	r.interactions = append(r.interactions, interaction)
	return nil
}

func TestDialogueResponder_EvictionEnqueuesSummary(t *testing.T) {
	store := testWorld()
	npc, _ := store.GetNPC(context.Background(), "npc_clippy")
	for i := 0; i < world.ShortTermMemoryLimit; i++ {
		npc.Memory.Remember(fmt.Sprintf("old exchange %d", i))
	}
	oldest := npc.Memory.ShortTerm[len(npc.Memory.ShortTerm)-1]
	if err := store.PutNPC(context.Background(), npc); err != nil {
		t.Fatalf("Failed to seed NPC: %v", err)
	}

	llm := services.NewMockLLM()
	llm.SetGenerateResponse("Did you know pods come with a complimentary eviction?")
	enqueuer := &recordingEnqueuer{}
	responder := NewDialogueResponder(store, llm, "test-model", enqueuer, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	if _, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "tell me more"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	if len(enqueuer.npcIDs) != 1 {
		t.Fatalf("Expected 1 enqueued summary, got %d", len(enqueuer.npcIDs))
	}
	if enqueuer.npcIDs[0] != "npc_clippy" {
		t.Errorf("Expected npc_clippy, got %q", enqueuer.npcIDs[0])
	}
	if enqueuer.interactions[0] != oldest {
		t.Errorf("Expected the evicted (oldest) interaction %q, got %q", oldest, enqueuer.interactions[0])
	}
}

func TestDialogueResponder_NoEvictionNoEnqueue(t *testing.T) {
	store := testWorld()
	llm := services.NewMockLLM()
	llm.SetGenerateResponse("Hello! Great to meet a fellow tenant!")
	enqueuer := &recordingEnqueuer{}
	responder := NewDialogueResponder(store, llm, "test-model", enqueuer, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	if _, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "hi"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	if len(enqueuer.npcIDs) != 0 {
		t.Errorf("Expected no enqueued summaries below the memory cap, got %d", len(enqueuer.npcIDs))
	}
}

func TestDialogueResponder_EnqueueFailureKeepsLine(t *testing.T) {
	store := testWorld()
	npc, _ := store.GetNPC(context.Background(), "npc_clippy")
	for i := 0; i < world.ShortTermMemoryLimit; i++ {
		npc.Memory.Remember(fmt.Sprintf("old exchange %d", i))
	}
	if err := store.PutNPC(context.Background(), npc); err != nil {
		t.Fatalf("Failed to seed NPC: %v", err)
	}

	llm := services.NewMockLLM()
	llm.SetGenerateResponse("Queue? What queue?")
	enqueuer := &recordingEnqueuer{err: errors.New("redis down")}
	responder := NewDialogueResponder(store, llm, "test-model", enqueuer, testLogger())

	snapshot, _ := NewContextAssembler(store, testLogger()).Snapshot(context.Background())

	out, err := responder.Respond(context.Background(), snapshot, "npc_clippy", "hello")
	if err != nil {
		t.Fatalf("Expected line despite enqueue failure, got error: %v", err)
	}
	if out.Payload["line"] != "Queue? What queue?" {
		t.Errorf("Unexpected line: %v", out.Payload["line"])
	}
}
