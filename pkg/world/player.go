package world

// PlayerFlags holds the narrative switches and alignment for the player.
type PlayerFlags struct {
	IsBitter             bool `json:"is_bitter"`
	IsEvicted            bool `json:"is_evicted"`
	KnowsProjectBackdoor bool `json:"knows_project_backdoor"`
	AlignmentScore       int  `json:"alignment_score"` // -100 = pure evil, +100 = pure good
}

// PlayerState is the singleton player record. Exactly one exists per
// game session; the movement resolver mutates Location and future action
// handlers may mutate Inventory and Flags.
type PlayerState struct {
	Location  string      `json:"location"`
	Inventory []string    `json:"inventory"`
	Flags     PlayerFlags `json:"flags"`
}

// NewPlayerState returns the default starting state for a fresh session.
func NewPlayerState() *PlayerState {
	return &PlayerState{
		Location:  "pod_interior",
		Inventory: []string{"item_laptop_old", "item_trophy_hackathon", "item_ramen_cup_empty"},
		Flags: PlayerFlags{
			IsBitter: true,
		},
	}
}

// Holds reports whether the player is carrying the given item.
func (p *PlayerState) Holds(itemID string) bool {
	for _, id := range p.Inventory {
		if id == itemID {
			return true
		}
	}
	return false
}

// AdjustAlignment shifts the alignment score by delta, clamped to [-100, 100].
func (p *PlayerState) AdjustAlignment(delta int) {
	score := p.Flags.AlignmentScore + delta
	if score > 100 {
		score = 100
	}
	if score < -100 {
		score = -100
	}
	p.Flags.AlignmentScore = score
}
