package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/projectbackdoor/game-server/pkg/world"
)

const (
	playerStateKey  = "player_state"
	npcKeyPrefix    = "npc:"
	objectKeyPrefix = "object:"
)

// RedisStorage implements the Storage interface using Redis for mutable
// records and the filesystem for static resources (scenes, seed data)
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opts),
		logger:  logger,
		dataDir: dataDir,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Player state operations (Redis-backed, singleton key)

func (r *RedisStorage) GetPlayerState(ctx context.Context) (*world.PlayerState, error) {
	data, err := r.client.Get(ctx, playerStateKey).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Warn("Player state not found")
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load player state", "error", err)
		return nil, fmt.Errorf("failed to load player state: %w", err)
	}

	var ps world.PlayerState
	if err := json.Unmarshal([]byte(data), &ps); err != nil {
		r.logger.Error("Failed to unmarshal player state", "error", err)
		return nil, fmt.Errorf("failed to unmarshal player state: %w", err)
	}

	return &ps, nil
}

func (r *RedisStorage) PutPlayerState(ctx context.Context, ps *world.PlayerState) error {
	data, err := json.Marshal(ps)
	if err != nil {
		r.logger.Error("Failed to marshal player state", "error", err)
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	if err := r.client.Set(ctx, playerStateKey, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save player state", "error", err)
		return fmt.Errorf("failed to save player state: %w", err)
	}

	return nil
}

// Scene operations (filesystem-backed)

func (r *RedisStorage) GetScene(ctx context.Context, sceneID string) (*world.Scene, error) {
	path := filepath.Join(r.dataDir, "scenes", sceneID+".json")

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var s world.Scene
	if err := json.Unmarshal(file, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene: %w", err)
	}
	s.ID = sceneID // Filename overrides any ID in the JSON

	return &s, nil
}

func (r *RedisStorage) ListScenes(ctx context.Context) ([]string, error) {
	scenesPath := filepath.Join(r.dataDir, "scenes")

	entries, err := os.ReadDir(scenesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read scenes directory: %w", err)
	}

	var sceneIDs []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			sceneIDs = append(sceneIDs, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}

	return sceneIDs, nil
}

// NPC operations (Redis-backed)

func (r *RedisStorage) GetNPC(ctx context.Context, npcID string) (*world.NPC, error) {
	data, err := r.client.Get(ctx, npcKeyPrefix+npcID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to load NPC", "npc_id", npcID, "error", err)
		return nil, fmt.Errorf("failed to load npc: %w", err)
	}

	var npc world.NPC
	if err := json.Unmarshal([]byte(data), &npc); err != nil {
		r.logger.Error("Failed to unmarshal NPC", "npc_id", npcID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal npc: %w", err)
	}

	return &npc, nil
}

func (r *RedisStorage) PutNPC(ctx context.Context, npc *world.NPC) error {
	data, err := json.Marshal(npc)
	if err != nil {
		r.logger.Error("Failed to marshal NPC", "npc_id", npc.ID, "error", err)
		return fmt.Errorf("failed to marshal npc: %w", err)
	}

	if err := r.client.Set(ctx, npcKeyPrefix+npc.ID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save NPC", "npc_id", npc.ID, "error", err)
		return fmt.Errorf("failed to save npc: %w", err)
	}

	return nil
}

// Game object operations (Redis-backed)

func (r *RedisStorage) GetObject(ctx context.Context, objectID string) (*world.GameObject, error) {
	data, err := r.client.Get(ctx, objectKeyPrefix+objectID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to load object", "object_id", objectID, "error", err)
		return nil, fmt.Errorf("failed to load object: %w", err)
	}

	var obj world.GameObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		r.logger.Error("Failed to unmarshal object", "object_id", objectID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal object: %w", err)
	}

	return &obj, nil
}

func (r *RedisStorage) PutObject(ctx context.Context, obj *world.GameObject) error {
	data, err := json.Marshal(obj)
	if err != nil {
		r.logger.Error("Failed to marshal object", "object_id", obj.ID, "error", err)
		return fmt.Errorf("failed to marshal object: %w", err)
	}

	if err := r.client.Set(ctx, objectKeyPrefix+obj.ID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save object", "object_id", obj.ID, "error", err)
		return fmt.Errorf("failed to save object: %w", err)
	}

	return nil
}

// SeedWorld loads NPC and object seed files from the data directory into
// Redis and creates the default player state. Records that already exist
// are left untouched, so a restart never clobbers a running game.
func (r *RedisStorage) SeedWorld(ctx context.Context) error {
	ps, err := r.GetPlayerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to check player state: %w", err)
	}
	if ps == nil {
		if err := r.PutPlayerState(ctx, world.NewPlayerState()); err != nil {
			return fmt.Errorf("failed to seed player state: %w", err)
		}
		r.logger.Info("Seeded default player state")
	}

	if err := r.seedNPCs(ctx); err != nil {
		return err
	}
	if err := r.seedObjects(ctx); err != nil {
		return err
	}

	return nil
}

func (r *RedisStorage) seedNPCs(ctx context.Context) error {
	files, err := seedFiles(filepath.Join(r.dataDir, "npcs"))
	if err != nil {
		return fmt.Errorf("failed to read npcs directory: %w", err)
	}

	for _, path := range files {
		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read NPC seed file", "path", path, "error", err)
			continue
		}

		var npc world.NPC
		if err := json.Unmarshal(file, &npc); err != nil {
			r.logger.Warn("Failed to unmarshal NPC seed file", "path", path, "error", err)
			continue
		}
		npc.ID = strings.TrimSuffix(filepath.Base(path), ".json")

		existing, err := r.GetNPC(ctx, npc.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if err := r.PutNPC(ctx, &npc); err != nil {
			return err
		}
		r.logger.Info("Seeded NPC", "npc_id", npc.ID)
	}

	return nil
}

func (r *RedisStorage) seedObjects(ctx context.Context) error {
	files, err := seedFiles(filepath.Join(r.dataDir, "objects"))
	if err != nil {
		return fmt.Errorf("failed to read objects directory: %w", err)
	}

	for _, path := range files {
		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read object seed file", "path", path, "error", err)
			continue
		}

		var obj world.GameObject
		if err := json.Unmarshal(file, &obj); err != nil {
			r.logger.Warn("Failed to unmarshal object seed file", "path", path, "error", err)
			continue
		}
		obj.ID = strings.TrimSuffix(filepath.Base(path), ".json")

		existing, err := r.GetObject(ctx, obj.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if err := r.PutObject(ctx, &obj); err != nil {
			return err
		}
		r.logger.Info("Seeded object", "object_id", obj.ID)
	}

	return nil
}

func seedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
