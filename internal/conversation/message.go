package conversation

// Role tags who produced a message. Every message entering the core is
// normalized to one of these four values; no other shapes cross the boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Message is one unit of dialogue. Seq is the insertion index within the
// working set of a single turn (and within session history after a save);
// ordering is chronological and never rewritten.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	Producer string `json:"producer,omitempty"`
	Seq      int    `json:"seq"`
}

// Turn is one user utterance plus the optional dataset hint from the front
// door. Immutable once created.
type Turn struct {
	Text        string
	HintDataset string
}

// WorkerOutput is the uniform result of invoking a capability provider.
// A failing provider reports through Error; it never panics across the
// boundary and never returns a partial final answer alongside Error.
type WorkerOutput struct {
	Messages  []Message
	Artifacts []string
	Error     string
}

// Tail returns the last n messages of history (the whole slice when
// len(history) <= n). The returned slice aliases history and is read-only
// by convention.
func Tail(history []Message, n int) []Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
