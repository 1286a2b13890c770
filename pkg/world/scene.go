package world

import "fmt"

// SceneDetails lists what a scene contains and where it leads.
// Directions present in AllowedDirections but absent from Exits are
// valid-but-blocked: the scene recognizes them, but there is no way through.
type SceneDetails struct {
	NPCs              []string          `json:"npcs,omitempty"`
	Objects           []string          `json:"objects,omitempty"`
	AllowedDirections []string          `json:"allowed_directions,omitempty"`
	Exits             map[string]string `json:"exits,omitempty"` // direction -> destination scene id
}

// Scene is one location in the world graph.
type Scene struct {
	ID          string       `json:"scene_id"`
	Description string       `json:"description"`
	Details     SceneDetails `json:"details"`
}

// AllowsDirection reports whether the scene recognizes the direction at all.
func (s *Scene) AllowsDirection(direction string) bool {
	for _, d := range s.Details.AllowedDirections {
		if d == direction {
			return true
		}
	}
	return false
}

// Validate checks the authoring invariant that every exit direction is
// also listed in allowed_directions.
func (s *Scene) Validate() error {
	for direction := range s.Details.Exits {
		if !s.AllowsDirection(direction) {
			return fmt.Errorf("scene %s: exit direction %q is not in allowed_directions", s.ID, direction)
		}
	}
	return nil
}
