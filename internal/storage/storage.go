package storage

import (
	"context"

	"github.com/projectbackdoor/game-server/pkg/world"
)

// Storage defines the persistence interface for the game world.
// Mutable records (player state, NPCs, objects) live in Redis;
// scenes are immutable and served from the data directory.
//
// Lookup methods return (nil, nil) when the record does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Player state (singleton)
	GetPlayerState(ctx context.Context) (*world.PlayerState, error)
	PutPlayerState(ctx context.Context, ps *world.PlayerState) error

	// Scenes (filesystem-backed, read-only)
	GetScene(ctx context.Context, sceneID string) (*world.Scene, error)
	ListScenes(ctx context.Context) ([]string, error)

	// NPCs
	GetNPC(ctx context.Context, npcID string) (*world.NPC, error)
	PutNPC(ctx context.Context, npc *world.NPC) error

	// Game objects
	GetObject(ctx context.Context, objectID string) (*world.GameObject, error)
	PutObject(ctx context.Context, obj *world.GameObject) error

	// SeedWorld loads NPC and object seed files into storage and creates
	// the default player state. Existing records are left untouched.
	SeedWorld(ctx context.Context) error
}
