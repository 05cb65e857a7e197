package repository

import (
	"context"

	"policy-lens/internal/domain"
)

// Sentinel errors are defined in domain so callers need not import this package.
var (
	ErrConversationNotFound = domain.ErrConversationNotFound
	ErrConversationExists   = domain.ErrConversationExists
	ErrConflict             = domain.ErrConversationConflict
)

// UpdateFunc mutates a conversation in place. Returning an error aborts the
// write and the error is returned from Update unchanged.
type UpdateFunc = func(conv *domain.Conversation) error

// ConversationStore holds conversation state between requests.
type ConversationStore interface {
	Create(ctx context.Context, conv domain.Conversation) error
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (domain.Conversation, error)
}

var (
	_ ConversationStore = (*MemoryStore)(nil)
	_ ConversationStore = (*DynamoStore)(nil)
)
