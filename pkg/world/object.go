package world

// GameObject is an interactable item. Scene is the owning scene id;
// empty means the object is in the player's inventory.
type GameObject struct {
	ID          string            `json:"object_id"`
	Description string            `json:"description"`
	Scene       string            `json:"scene,omitempty"`
	State       map[string]string `json:"state,omitempty"`
}
