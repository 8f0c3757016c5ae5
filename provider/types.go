package provider

import "time"

// Request configures a chat-completion call.
type Request struct {
	// SystemPrompt is sent as the first message when non-empty.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages is the conversation to send after the system prompt.
	Messages []Message `json:"messages"`

	// Model overrides the profile's model. Ignored for Azure, where the
	// deployment selects the model.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the response length. 0 leaves it to the service.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls response randomness. 0 leaves it to the service.
	Temperature float64 `json:"temperature,omitempty"`
}

// NewPromptRequest builds the request the extension sends: one system message
// and one user message holding the rendered prompt.
func NewPromptRequest(systemPrompt, prompt string) Request {
	return Request{
		SystemPrompt: systemPrompt,
		Messages:     []Message{NewTextMessage(RoleUser, prompt)},
	}
}

// Message is a conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTextMessage creates a text message.
func NewTextMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Role identifies the message sender.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Response is the output of a completion call.
type Response struct {
	// Content is the text of the first choice.
	Content string `json:"content"`

	// Usage is the token consumption reported by the service. Only
	// meaningful when HasUsage is true.
	Usage TokenUsage `json:"usage"`

	// HasUsage is false when the service omitted usage accounting.
	HasUsage bool `json:"has_usage"`

	// Model is the model reported by the service.
	Model string `json:"model"`

	// FinishReason indicates why the model stopped generating.
	// Common values: "stop", "length", "content_filter"
	FinishReason string `json:"finish_reason"`

	// Duration is the time taken for the completion.
	Duration time.Duration `json:"duration"`

	// RequestID is the service-assigned completion id.
	RequestID string `json:"request_id,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`

	// CachedInputTokens is the part of InputTokens served from the prompt
	// cache. Zero when the service does not report it.
	CachedInputTokens int `json:"cached_input_tokens,omitempty"`
}

// Add combines token usage from another TokenUsage.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	u.CachedInputTokens += other.CachedInputTokens
}
