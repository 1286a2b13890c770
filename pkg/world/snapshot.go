package world

import "encoding/json"

// SnapshotNPC is the bounded projection of an NPC carried in a snapshot.
// Persona and memory are deliberately omitted to keep prompts small.
type SnapshotNPC struct {
	ID    string            `json:"id"`
	State map[string]string `json:"state,omitempty"`
}

// SnapshotObject is the projection of a scene object carried in a snapshot.
type SnapshotObject struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	State       map[string]string `json:"state,omitempty"`
}

// WorldSnapshot is a denormalized read of the player's surroundings,
// rebuilt fresh for every input and never cached. It grounds every
// downstream narrative decision.
type WorldSnapshot struct {
	PlayerLocation   string           `json:"player_location"`
	PlayerInventory  []string         `json:"player_inventory"`
	PlayerAlignment  int              `json:"player_alignment"`
	SceneDescription string           `json:"scene_description"`
	SceneNPCs        []SnapshotNPC    `json:"scene_npcs"`
	SceneObjects     []SnapshotObject `json:"scene_objects"`
}

// Render returns the snapshot as indented JSON for prompt embedding.
func (s *WorldSnapshot) Render() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
