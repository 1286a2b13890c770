package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/projectbackdoor/game-server/pkg/world"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	playerState *world.PlayerState
	scenes      map[string]*world.Scene
	npcs        map[string]*world.NPC
	objects     map[string]*world.GameObject

	pingError error

	// Per-method error injection
	GetPlayerStateErr error
	PutPlayerStateErr error
	GetSceneErr       error
	GetNPCErr         error
	PutNPCErr         error
	GetObjectErr      error
	PutObjectErr      error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		scenes:  make(map[string]*world.Scene),
		npcs:    make(map[string]*world.NPC),
		objects: make(map[string]*world.GameObject),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.pingError = err
}

// AddScene registers a scene in the mock
func (m *MockStorage) AddScene(s *world.Scene) {
	m.scenes[s.ID] = s
}

// AddNPC registers an NPC in the mock
func (m *MockStorage) AddNPC(npc *world.NPC) {
	m.npcs[npc.ID] = npc
}

// AddObject registers a game object in the mock
func (m *MockStorage) AddObject(obj *world.GameObject) {
	m.objects[obj.ID] = obj
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// GetPlayerState mocks loading the player state
func (m *MockStorage) GetPlayerState(ctx context.Context) (*world.PlayerState, error) {
	if m.GetPlayerStateErr != nil {
		return nil, m.GetPlayerStateErr
	}
	return m.playerState, nil
}

// PutPlayerState mocks saving the player state
func (m *MockStorage) PutPlayerState(ctx context.Context, ps *world.PlayerState) error {
	if m.PutPlayerStateErr != nil {
		return m.PutPlayerStateErr
	}
	if ps == nil {
		return errors.New("player state cannot be nil")
	}
	m.playerState = ps
	return nil
}

// GetScene mocks loading a scene
func (m *MockStorage) GetScene(ctx context.Context, sceneID string) (*world.Scene, error) {
	if m.GetSceneErr != nil {
		return nil, m.GetSceneErr
	}
	return m.scenes[sceneID], nil
}

// ListScenes mocks listing scene IDs
func (m *MockStorage) ListScenes(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.scenes))
	for id := range m.scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetNPC mocks loading an NPC
func (m *MockStorage) GetNPC(ctx context.Context, npcID string) (*world.NPC, error) {
	if m.GetNPCErr != nil {
		return nil, m.GetNPCErr
	}
	return m.npcs[npcID], nil
}

// PutNPC mocks saving an NPC
func (m *MockStorage) PutNPC(ctx context.Context, npc *world.NPC) error {
	if m.PutNPCErr != nil {
		return m.PutNPCErr
	}
	if npc == nil {
		return errors.New("npc cannot be nil")
	}
	m.npcs[npc.ID] = npc
	return nil
}

// GetObject mocks loading a game object
func (m *MockStorage) GetObject(ctx context.Context, objectID string) (*world.GameObject, error) {
	if m.GetObjectErr != nil {
		return nil, m.GetObjectErr
	}
	return m.objects[objectID], nil
}

// PutObject mocks saving a game object
func (m *MockStorage) PutObject(ctx context.Context, obj *world.GameObject) error {
	if m.PutObjectErr != nil {
		return m.PutObjectErr
	}
	if obj == nil {
		return errors.New("object cannot be nil")
	}
	m.objects[obj.ID] = obj
	return nil
}

// SeedWorld mocks seeding; it only installs a default player state
// when none is present.
func (m *MockStorage) SeedWorld(ctx context.Context) error {
	if m.playerState == nil {
		m.playerState = world.NewPlayerState()
	}
	return nil
}
