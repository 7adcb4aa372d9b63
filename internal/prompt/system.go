package prompt

import (
	"fmt"
	"strings"
)

// SystemTemplate is the instruction sent ahead of every conversation.
const SystemTemplate = `You are a helpful customer service AI assistant for {{assistant_name}}. You can help users with:
{{task_list}}

Always be polite, helpful, and ask clarifying questions when needed.
If a user wants to perform a specific task, guide them through the process.`

// Capability is one line of the assistant's advertised skills.
type Capability struct {
	Name        string
	Description string
}

// SystemPrompt renders SystemTemplate for the given assistant and task list.
func SystemPrompt(assistantName string, caps []Capability) (string, error) {
	if strings.TrimSpace(assistantName) == "" {
		return "", fmt.Errorf("assistant name is required")
	}

	var list strings.Builder
	for i, c := range caps {
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "%d. %s", i+1, c.Description)
	}

	return Render(SystemTemplate, map[string]string{
		"assistant_name": assistantName,
		"task_list":      list.String(),
	})
}
