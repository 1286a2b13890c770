package queue

import (
	"encoding/json"
	"time"
)

// SummaryRequest asks the background worker to compress one interaction
// that fell out of an NPC's short-term memory into a medium-term summary.
type SummaryRequest struct {
	RequestID   string    `json:"request_id"`
	NPCID       string    `json:"npc_id"`
	Interaction string    `json:"interaction"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// ToJSON converts the request to JSON bytes for Redis
func (r *SummaryRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*SummaryRequest, error) {
	var req SummaryRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
