package conversation

import (
	"bytes"
	"encoding/json"

	"github.com/nikhilbhutani/gethelp/internal/apperr"
	"github.com/nikhilbhutani/gethelp/internal/llm"
)

// Turn is one prior message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is supplied by the caller on every request, oldest turn first.
type History []Turn

// Validate rejects turns the engine would not be able to forward.
func (h History) Validate() error {
	for i, t := range h {
		switch t.Role {
		case llm.RoleUser, llm.RoleAssistant:
		default:
			return apperr.Validation("history", "turn %d has invalid role %q", i, t.Role)
		}
	}
	return nil
}

// ParseHistory decodes a JSON array of turns. Empty input means no history.
func ParseHistory(raw []byte) (History, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var h History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, apperr.Validation("history", "history must be a JSON array of {role, content}: %v", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h History) messages() []llm.Message {
	out := make([]llm.Message, len(h))
	for i, t := range h {
		out[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	return out
}
