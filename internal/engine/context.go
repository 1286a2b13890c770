package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/projectbackdoor/game-server/internal/storage"
	"github.com/projectbackdoor/game-server/pkg/world"
)

// ContextAssembler builds the world snapshot that grounds every
// LLM-backed decision. A snapshot is assembled fresh per input and
// discarded after the response is sent.
type ContextAssembler struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewContextAssembler creates a context assembler backed by the given storage.
func NewContextAssembler(store storage.Storage, logger *slog.Logger) *ContextAssembler {
	return &ContextAssembler{
		store:  store,
		logger: logger,
	}
}

// Snapshot reads the player state, the current scene, and every NPC and
// object present in it. Objects carried by the player are excluded even
// when the scene still lists them. Any read failure aborts assembly;
// a partial snapshot is never returned.
func (a *ContextAssembler) Snapshot(ctx context.Context) (*world.WorldSnapshot, error) {
	ps, err := a.store.GetPlayerState(ctx)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load player state: %w", err))
	}
	if ps == nil {
		return nil, Failuref(FailureContextUnavailable, "player state missing")
	}

	scene, err := a.store.GetScene(ctx, ps.Location)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load scene %q: %w", ps.Location, err))
	}
	if scene == nil {
		return nil, Failuref(FailureContextUnavailable, "scene %q missing", ps.Location)
	}

	snapshot := &world.WorldSnapshot{
		PlayerLocation:   ps.Location,
		PlayerInventory:  ps.Inventory,
		PlayerAlignment:  ps.Flags.AlignmentScore,
		SceneDescription: scene.Description,
		SceneNPCs:        make([]world.SnapshotNPC, 0, len(scene.Details.NPCs)),
		SceneObjects:     make([]world.SnapshotObject, 0, len(scene.Details.Objects)),
	}

	for _, npcID := range scene.Details.NPCs {
		npc, err := a.store.GetNPC(ctx, npcID)
		if err != nil {
			return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load npc %q: %w", npcID, err))
		}
		if npc == nil {
			a.logger.Warn("Scene references unknown NPC", "scene_id", scene.ID, "npc_id", npcID)
			continue
		}
		snapshot.SceneNPCs = append(snapshot.SceneNPCs, world.SnapshotNPC{
			ID:    npc.ID,
			State: npc.State,
		})
	}

	for _, objectID := range scene.Details.Objects {
		if ps.Holds(objectID) {
			continue
		}
		obj, err := a.store.GetObject(ctx, objectID)
		if err != nil {
			return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load object %q: %w", objectID, err))
		}
		if obj == nil {
			a.logger.Warn("Scene references unknown object", "scene_id", scene.ID, "object_id", objectID)
			continue
		}
		snapshot.SceneObjects = append(snapshot.SceneObjects, world.SnapshotObject{
			ID:          obj.ID,
			Description: obj.Description,
			State:       obj.State,
		})
	}

	return snapshot, nil
}
