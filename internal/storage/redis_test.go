package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/projectbackdoor/game-server/pkg/world"
)

func testRedisStorage(t *testing.T, dataDir string) *RedisStorage {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	rs, err := NewRedisStorage("redis://"+mr.Addr(), dataDir, logger)
	if err != nil {
		t.Fatalf("Failed to create Redis storage: %v", err)
	}
	t.Cleanup(func() {
		if err := rs.Close(); err != nil {
			t.Errorf("Failed to close Redis storage: %v", err)
		}
	})
	return rs
}

func TestRedisStorage_PlayerState(t *testing.T) {
	rs := testRedisStorage(t, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	// Missing player state is (nil, nil)
	ps, err := rs.GetPlayerState(ctx)
	if err != nil {
		t.Fatalf("GetPlayerState failed: %v", err)
	}
	if ps != nil {
		t.Fatal("Expected nil player state before seeding")
	}

	seed := world.NewPlayerState()
	seed.Location = "rooftop"
	seed.Flags.AlignmentScore = 25
	if err := rs.PutPlayerState(ctx, seed); err != nil {
		t.Fatalf("PutPlayerState failed: %v", err)
	}

	loaded, err := rs.GetPlayerState(ctx)
	if err != nil {
		t.Fatalf("GetPlayerState failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected player state after save")
	}
	if loaded.Location != "rooftop" {
		t.Errorf("Expected location 'rooftop', got '%s'", loaded.Location)
	}
	if loaded.Flags.AlignmentScore != 25 {
		t.Errorf("Expected alignment 25, got %d", loaded.Flags.AlignmentScore)
	}
	if !loaded.Holds("item_laptop_old") {
		t.Error("Expected default inventory to survive the roundtrip")
	}
}

func TestRedisStorage_NPCRoundtrip(t *testing.T) {
	rs := testRedisStorage(t, t.TempDir())

	ctx := context.Background()

	npc, err := rs.GetNPC(ctx, "npc_clippy")
	if err != nil {
		t.Fatalf("GetNPC failed: %v", err)
	}
	if npc != nil {
		t.Fatal("Expected nil for missing NPC")
	}

	saved := &world.NPC{
		ID:      "npc_clippy",
		Persona: "An overly helpful paperclip.",
		State:   map[string]string{"mood": "chipper"},
	}
	saved.Memory.Remember("The player glared at me.")
	if err := rs.PutNPC(ctx, saved); err != nil {
		t.Fatalf("PutNPC failed: %v", err)
	}

	loaded, err := rs.GetNPC(ctx, "npc_clippy")
	if err != nil {
		t.Fatalf("GetNPC failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected NPC after save")
	}
	if loaded.State["mood"] != "chipper" {
		t.Errorf("Expected mood 'chipper', got '%s'", loaded.State["mood"])
	}
	if len(loaded.Memory.ShortTerm) != 1 || loaded.Memory.ShortTerm[0] != "The player glared at me." {
		t.Errorf("Unexpected short-term memory: %v", loaded.Memory.ShortTerm)
	}
}

func TestRedisStorage_ObjectRoundtrip(t *testing.T) {
	rs := testRedisStorage(t, t.TempDir())

	ctx := context.Background()

	obj, err := rs.GetObject(ctx, "item_keycard")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if obj != nil {
		t.Fatal("Expected nil for missing object")
	}

	saved := &world.GameObject{
		ID:          "item_keycard",
		Description: "A scuffed building keycard.",
		Scene:       "hallway",
		State:       map[string]string{"active": "true"},
	}
	if err := rs.PutObject(ctx, saved); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	loaded, err := rs.GetObject(ctx, "item_keycard")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected object after save")
	}
	if loaded.Scene != "hallway" {
		t.Errorf("Expected scene 'hallway', got '%s'", loaded.Scene)
	}
}

func TestRedisStorage_Scenes(t *testing.T) {
	dataDir := t.TempDir()
	scenesDir := filepath.Join(dataDir, "scenes")
	if err := os.MkdirAll(scenesDir, 0o755); err != nil {
		t.Fatalf("Failed to create scenes dir: %v", err)
	}

	scene := world.Scene{
		Description: "A cramped sleeping pod.",
		Details: world.SceneDetails{
			NPCs:              []string{"npc_clippy"},
			Objects:           []string{"item_keycard"},
			AllowedDirections: []string{"north"},
			Exits:             map[string]string{"north": "hallway"},
		},
	}
	data, err := json.Marshal(scene)
	if err != nil {
		t.Fatalf("Failed to marshal scene: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scenesDir, "pod_interior.json"), data, 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}

	rs := testRedisStorage(t, dataDir)
	ctx := context.Background()

	loaded, err := rs.GetScene(ctx, "pod_interior")
	if err != nil {
		t.Fatalf("GetScene failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected scene")
	}
	if loaded.ID != "pod_interior" {
		t.Errorf("Expected scene ID from filename, got '%s'", loaded.ID)
	}
	if loaded.Details.Exits["north"] != "hallway" {
		t.Errorf("Unexpected exits: %v", loaded.Details.Exits)
	}

	missing, err := rs.GetScene(ctx, "does_not_exist")
	if err != nil {
		t.Fatalf("GetScene failed for missing scene: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing scene")
	}

	ids, err := rs.ListScenes(ctx)
	if err != nil {
		t.Fatalf("ListScenes failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "pod_interior" {
		t.Errorf("Unexpected scene list: %v", ids)
	}
}

func TestRedisStorage_SeedWorld(t *testing.T) {
	dataDir := t.TempDir()
	npcsDir := filepath.Join(dataDir, "npcs")
	if err := os.MkdirAll(npcsDir, 0o755); err != nil {
		t.Fatalf("Failed to create npcs dir: %v", err)
	}

	npc := world.NPC{Persona: "An overly helpful paperclip."}
	data, err := json.Marshal(npc)
	if err != nil {
		t.Fatalf("Failed to marshal NPC: %v", err)
	}
	if err := os.WriteFile(filepath.Join(npcsDir, "npc_clippy.json"), data, 0o644); err != nil {
		t.Fatalf("Failed to write NPC seed: %v", err)
	}

	rs := testRedisStorage(t, dataDir)
	ctx := context.Background()

	if err := rs.SeedWorld(ctx); err != nil {
		t.Fatalf("SeedWorld failed: %v", err)
	}

	ps, err := rs.GetPlayerState(ctx)
	if err != nil {
		t.Fatalf("GetPlayerState failed: %v", err)
	}
	if ps == nil {
		t.Fatal("Expected seeded player state")
	}
	if ps.Location != "pod_interior" {
		t.Errorf("Expected default location 'pod_interior', got '%s'", ps.Location)
	}

	seeded, err := rs.GetNPC(ctx, "npc_clippy")
	if err != nil {
		t.Fatalf("GetNPC failed: %v", err)
	}
	if seeded == nil {
		t.Fatal("Expected seeded NPC")
	}

	// Seeding again must not clobber mutated records
	seeded.Memory.Remember("The player said hello.")
	if err := rs.PutNPC(ctx, seeded); err != nil {
		t.Fatalf("PutNPC failed: %v", err)
	}
	ps.Location = "rooftop"
	if err := rs.PutPlayerState(ctx, ps); err != nil {
		t.Fatalf("PutPlayerState failed: %v", err)
	}

	if err := rs.SeedWorld(ctx); err != nil {
		t.Fatalf("Second SeedWorld failed: %v", err)
	}

	after, err := rs.GetNPC(ctx, "npc_clippy")
	if err != nil {
		t.Fatalf("GetNPC failed: %v", err)
	}
	if len(after.Memory.ShortTerm) != 1 {
		t.Error("Seeding overwrote an existing NPC")
	}
	psAfter, err := rs.GetPlayerState(ctx)
	if err != nil {
		t.Fatalf("GetPlayerState failed: %v", err)
	}
	if psAfter.Location != "rooftop" {
		t.Error("Seeding overwrote an existing player state")
	}
}
