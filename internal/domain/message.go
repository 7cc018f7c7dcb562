package domain

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message exchanged with a completion provider.
type Message struct {
	Role    string
	Content string
}
