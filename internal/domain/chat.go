package domain

import "errors"

// Roles understood by chat-completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrCredentialMissing is returned by an LLM integration when no API key is configured.
var ErrCredentialMissing = errors.New("domain: model credential is not configured")

// ChatMessage is the provider-agnostic chat message shape sent to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single chat-completion call.
type CompletionRequest struct {
	Messages  []ChatMessage
	MaxTokens int
}
