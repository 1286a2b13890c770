package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/projectbackdoor/game-server/internal/storage"
)

// movementVerbs are the leading words the deterministic movement
// grammar strips before reading a direction.
var movementVerbs = map[string]bool{
	"go":   true,
	"move": true,
	"walk": true,
}

// directionAliases normalizes accepted direction words to their
// canonical form.
var directionAliases = map[string]string{
	"north": "north",
	"south": "south",
	"east":  "east",
	"west":  "west",
	"n":     "north",
	"s":     "south",
	"e":     "east",
	"w":     "west",
}

// ParseMovementPhrase reports whether the input matches the movement
// grammar: an optional movement verb followed by a direction word.
// Matching inputs skip the classifier entirely.
func ParseMovementPhrase(input string) (string, bool) {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(input)))

	switch len(words) {
	case 1:
		dir, ok := directionAliases[words[0]]
		return dir, ok
	case 2:
		if !movementVerbs[words[0]] {
			return "", false
		}
		dir, ok := directionAliases[words[1]]
		return dir, ok
	}
	return "", false
}

// NormalizeDirection maps a classifier-produced target to a canonical
// direction, or "" when it is not a direction at all.
func NormalizeDirection(target string) string {
	return directionAliases[strings.ToLower(strings.TrimSpace(target))]
}

// MoveResult describes a completed scene transition.
type MoveResult struct {
	SceneID     string
	Description string
}

// MovementResolver applies scene transitions deterministically. No
// model is consulted; the scene graph alone decides the outcome.
type MovementResolver struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewMovementResolver creates a movement resolver backed by the given storage.
func NewMovementResolver(store storage.Storage, logger *slog.Logger) *MovementResolver {
	return &MovementResolver{
		store:  store,
		logger: logger,
	}
}

// Move attempts to walk the player in the given canonical direction.
// The player's location is updated only after the destination is known;
// a failed save leaves the stored location unchanged.
func (m *MovementResolver) Move(ctx context.Context, direction string) (*MoveResult, error) {
	ps, err := m.store.GetPlayerState(ctx)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load player state: %w", err))
	}
	if ps == nil {
		return nil, Failuref(FailureContextUnavailable, "player state missing")
	}

	scene, err := m.store.GetScene(ctx, ps.Location)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load scene %q: %w", ps.Location, err))
	}
	if scene == nil {
		return nil, Failuref(FailureContextUnavailable, "scene %q missing", ps.Location)
	}

	if !scene.AllowsDirection(direction) {
		return nil, Failuref(FailureDirectionNotRecognized, "direction %q not allowed in scene %q", direction, scene.ID)
	}

	destinationID, ok := scene.Details.Exits[direction]
	if !ok || destinationID == "" {
		return nil, Failuref(FailureBlockedPath, "no exit %q from scene %q", direction, scene.ID)
	}

	destination, err := m.store.GetScene(ctx, destinationID)
	if err != nil {
		return nil, NewFailure(FailureContextUnavailable, fmt.Errorf("failed to load destination scene %q: %w", destinationID, err))
	}

	ps.Location = destinationID
	if err := m.store.PutPlayerState(ctx, ps); err != nil {
		return nil, NewFailure(FailurePersistence, fmt.Errorf("failed to save player location: %w", err))
	}

	result := &MoveResult{SceneID: destinationID}
	if destination != nil {
		result.Description = destination.Description
	} else {
		// Authoring gap: the exit points at a scene with no file.
		// The move still happened, so report it and carry on.
		m.logger.Warn("Exit points to unknown scene", "scene_id", scene.ID, "direction", direction, "destination", destinationID)
	}

	m.logger.Debug("Player moved", "from", scene.ID, "to", destinationID, "direction", direction)
	return result, nil
}
