package llmgate

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message represents a single message sent to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// BuildMessages returns the message sequence for a request.
// The system message comes first and is present only when the request
// carries a non-empty system prompt; the user message is always last.
func BuildMessages(req ChatRequest) []Message {
	messages := make([]Message, 0, 2)
	if req.SystemPrompt() != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.SystemPrompt()})
	}
	return append(messages, Message{Role: RoleUser, Content: req.UserPrompt()})
}
