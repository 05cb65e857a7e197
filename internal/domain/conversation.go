package domain

import (
	"errors"
	"time"
)

var (
	// ErrConversationNotFound is returned when no conversation has the requested id.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationExists is returned when creating a conversation whose id is taken.
	ErrConversationExists = errors.New("conversation already exists")
	// ErrConversationConflict is returned when another writer changed the
	// conversation between read and write.
	ErrConversationConflict = errors.New("conversation modified concurrently")
)

// WelcomeText seeds every new conversation.
const WelcomeText = "Welcome to the Policy Lens chatbot. I can answer simple, educational questions about cancer policy, insurance barriers, and how advocacy can improve access to screening—not medical or personal health questions."

// Message is a single turn in a conversation.
type Message struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`
}

// Conversation is the append-only message list owned by one chat session.
type Conversation struct {
	ID            string    `json:"id"`
	Messages      []Message `json:"messages"`
	Thinking      bool      `json:"thinking"`
	ThinkingSince time.Time `json:"-"`
	Version       int       `json:"-"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewConversation returns a conversation seeded with the welcome message.
func NewConversation(id string, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Messages:  []Message{{ID: 1, Role: RoleAssistant, Text: WelcomeText}},
		UpdatedAt: now,
	}
}

// NextID returns the id the next appended message will receive.
func (c *Conversation) NextID() int {
	if len(c.Messages) == 0 {
		return 1
	}
	return c.Messages[len(c.Messages)-1].ID + 1
}

// Append adds a message with the next sequence id and returns it.
func (c *Conversation) Append(role, text string) Message {
	m := Message{ID: c.NextID(), Role: role, Text: text}
	c.Messages = append(c.Messages, m)
	return m
}

// Busy reports whether a model call is outstanding. A thinking flag older
// than lease is considered abandoned.
func (c *Conversation) Busy(now time.Time, lease time.Duration) bool {
	if !c.Thinking {
		return false
	}
	if lease <= 0 || c.ThinkingSince.IsZero() {
		return true
	}
	return now.Sub(c.ThinkingSince) < lease
}

// StartThinking marks a model call as outstanding.
func (c *Conversation) StartThinking(now time.Time) {
	c.Thinking = true
	c.ThinkingSince = now
}

// StopThinking clears the outstanding model call marker.
func (c *Conversation) StopThinking() {
	c.Thinking = false
	c.ThinkingSince = time.Time{}
}

// ChatHistory strips ids and returns the role/content pairs sent to the model.
func (c *Conversation) ChatHistory() []ChatMessage {
	out := make([]ChatMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Text})
	}
	return out
}

// Clone returns a deep copy safe to mutate.
func (c Conversation) Clone() Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}
