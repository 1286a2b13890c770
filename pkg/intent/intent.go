package intent

import (
	"encoding/json"
	"errors"
	"strings"
)

// Action is the closed vocabulary of player intents the classifier may
// produce. Anything outside the vocabulary decodes to ActionUnknown.
type Action string

const (
	ActionLook    Action = "LOOK"
	ActionTalkTo  Action = "TALK_TO"
	ActionGo      Action = "GO"
	ActionGet     Action = "GET"
	ActionUse     Action = "USE"
	ActionUnknown Action = "UNKNOWN"
)

// Valid reports whether the action is part of the fixed vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionLook, ActionTalkTo, ActionGo, ActionGet, ActionUse, ActionUnknown:
		return true
	}
	return false
}

// Resolved is the classifier's structured reading of one player input.
// It is consumed once by the dispatcher and discarded.
type Resolved struct {
	Action    Action `json:"action"`
	Target    string `json:"target,omitempty"`
	Utterance string `json:"utterance,omitempty"`
}

// ErrEmpty is returned when the classifier produced no usable text.
var ErrEmpty = errors.New("intent: empty classifier response")

// ErrMalformed is returned when classifier output does not parse as the
// expected JSON shape.
var ErrMalformed = errors.New("intent: malformed classifier response")

// Parse decodes raw classifier output into a Resolved intent. Markdown
// code fences and surrounding prose are tolerated; the decoder extracts
// the first JSON object it finds. Unrecognized action values are coerced
// to UNKNOWN rather than rejected.
func Parse(raw string) (*Resolved, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmpty
	}

	body := extractJSONObject(trimmed)
	if body == "" {
		return nil, ErrMalformed
	}

	var decoded struct {
		Action    string `json:"action"`
		Target    string `json:"target"`
		Utterance string `json:"utterance"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, ErrMalformed
	}
	if decoded.Action == "" {
		return nil, ErrMalformed
	}

	action := Action(strings.ToUpper(strings.TrimSpace(decoded.Action)))
	if !action.Valid() {
		action = ActionUnknown
	}

	return &Resolved{
		Action:    action,
		Target:    strings.TrimSpace(decoded.Target),
		Utterance: strings.TrimSpace(decoded.Utterance),
	}, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// the text, or "" when none exists. Models sometimes wrap the object in
// code fences or add commentary around it.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
