package world

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NPCPrefix is the naming convention for NPC identifiers. The dialogue
// path only accepts targets carrying this prefix.
const NPCPrefix = "npc_"

// ShortTermMemoryLimit caps an NPC's short-term memory. The oldest
// interaction is evicted once the cap is reached.
const ShortTermMemoryLimit = 10

// NPCMemory holds what an NPC remembers about past exchanges.
// ShortTerm is most-recent-first and bounded; MediumTerm is an unbounded,
// append-only list of summaries rendered oldest-first in prompts.
type NPCMemory struct {
	ShortTerm  []string `json:"short_term"`
	MediumTerm []string `json:"medium_term"`
}

// Remember prepends an interaction record, truncating to the cap.
func (m *NPCMemory) Remember(interaction string) {
	m.ShortTerm = append([]string{interaction}, m.ShortTerm...)
	if len(m.ShortTerm) > ShortTermMemoryLimit {
		m.ShortTerm = m.ShortTerm[:ShortTermMemoryLimit]
	}
}

// Summarize appends a medium-term summary.
func (m *NPCMemory) Summarize(summary string) {
	m.MediumTerm = append(m.MediumTerm, summary)
}

// NPC is a non-player character. Persona is static characterization fed
// into every dialogue prompt; State is free-form authored data such as
// loyalty or mode.
type NPC struct {
	ID      string            `json:"npc_id"`
	Persona string            `json:"persona"`
	State   map[string]string `json:"state,omitempty"`
	Memory  NPCMemory         `json:"memory"`
}

var titleCaser = cases.Title(language.English)

// DisplayName derives a human-readable name from an NPC identifier,
// e.g. "npc_clippy" -> "Clippy".
func DisplayName(id string) string {
	name := strings.TrimPrefix(id, NPCPrefix)
	name = strings.ReplaceAll(name, "_", " ")
	return titleCaser.String(name)
}

// IsNPCID reports whether the identifier follows the NPC naming convention.
func IsNPCID(id string) bool {
	return strings.HasPrefix(id, NPCPrefix) && len(id) > len(NPCPrefix)
}
