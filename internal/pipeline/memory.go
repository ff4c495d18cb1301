package pipeline

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// memoryWindow is the number of most recent turns folded into a prompt.
const memoryWindow = 5

// Memory is the ordered conversation history of one session. Turns are only
// appended, never mutated or deleted; prompts see a bounded window of the
// most recent ones.
type Memory struct {
	turns []Turn
}

func (m *Memory) Append(role Role, content string) {
	m.turns = append(m.turns, Turn{Role: role, Content: content})
}

func (m *Memory) Turns() []Turn {
	copied := make([]Turn, len(m.turns))
	copy(copied, m.turns)
	return copied
}

// Window renders the most recent turns, oldest first, for prompt embedding.
func (m *Memory) Window() string {
	start := len(m.turns) - memoryWindow
	if start < 0 {
		start = 0
	}
	contents := make([]string, 0, memoryWindow)
	for _, turn := range m.turns[start:] {
		contents = append(contents, turn.Content)
	}
	return strings.Join(contents, "\n")
}
