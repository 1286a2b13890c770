package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/world"
)

func TestContextAssembler_Snapshot(t *testing.T) {
	store := testWorld()
	assembler := NewContextAssembler(store, testLogger())

	snapshot, err := assembler.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if snapshot.PlayerLocation != "pod_interior" {
		t.Errorf("Expected location 'pod_interior', got %q", snapshot.PlayerLocation)
	}
	if snapshot.SceneDescription == "" {
		t.Error("Expected scene description")
	}
	if len(snapshot.SceneNPCs) != 1 || snapshot.SceneNPCs[0].ID != "npc_clippy" {
		t.Errorf("Unexpected scene NPCs: %v", snapshot.SceneNPCs)
	}
	if snapshot.SceneNPCs[0].State["mood"] != "chipper" {
		t.Error("Expected NPC state in snapshot")
	}
}

func TestContextAssembler_ExcludesCarriedObjects(t *testing.T) {
	store := testWorld()
	assembler := NewContextAssembler(store, testLogger())

	// item_laptop_old is in the default inventory, so only the keycard
	// should appear even though the scene lists both.
	snapshot, err := assembler.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if len(snapshot.SceneObjects) != 1 {
		t.Fatalf("Expected 1 scene object, got %d", len(snapshot.SceneObjects))
	}
	if snapshot.SceneObjects[0].ID != "item_keycard" {
		t.Errorf("Expected 'item_keycard', got %q", snapshot.SceneObjects[0].ID)
	}
}

func TestContextAssembler_SkipsDanglingReferences(t *testing.T) {
	store := testWorld()
	store.AddScene(&world.Scene{
		ID:          "pod_interior",
		Description: "A cramped sleeping pod.",
		Details: world.SceneDetails{
			NPCs:    []string{"npc_ghost"},
			Objects: []string{"item_missing"},
		},
	})
	assembler := NewContextAssembler(store, testLogger())

	snapshot, err := assembler.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snapshot.SceneNPCs) != 0 || len(snapshot.SceneObjects) != 0 {
		t.Error("Dangling references must be skipped, not fail assembly")
	}
}

func TestContextAssembler_StorageFailure(t *testing.T) {
	store := testWorld()
	store.GetSceneErr = errors.New("redis down")
	assembler := NewContextAssembler(store, testLogger())

	_, err := assembler.Snapshot(context.Background())
	kind, ok := KindOf(err)
	if !ok || kind != FailureContextUnavailable {
		t.Fatalf("Expected context_unavailable failure, got %v", err)
	}
}

func TestContextAssembler_MissingPlayerState(t *testing.T) {
	assembler := NewContextAssembler(storage.NewMockStorage(), testLogger())

	_, err := assembler.Snapshot(context.Background())
	kind, ok := KindOf(err)
	if !ok || kind != FailureContextUnavailable {
		t.Fatalf("Expected context_unavailable failure, got %v", err)
	}
}
