package store

// Turn is one exchange in a chat session.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Session represents the active conversation state in memory. History is
// bounded; older turns fall off the front.
type Session struct {
	ID        string `json:"id"`
	History   []Turn `json:"history"`
	LastQuery string `json:"last_query"`
}

// MaxHistoryTurns bounds how much conversation the synthesis prompt carries.
const MaxHistoryTurns = 10

// Append records a turn, trimming the oldest ones past the cap.
func (s *Session) Append(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}
