package chat

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message in the conversation.
// The shape matches the chat completion APIs the backends talk to.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
