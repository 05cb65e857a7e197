package repository

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"policy-lens/internal/domain"
)

// MemoryStore keeps conversations in process memory and forgets them after
// ttl of inactivity.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates a MemoryStore. Expired entries are swept every ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{cache: cache.New(ttl, ttl), ttl: ttl}
}

func (s *MemoryStore) Create(_ context.Context, conv domain.Conversation) error {
	if err := s.cache.Add(conv.ID, conv.Clone(), s.ttl); err != nil {
		return ErrConversationExists
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Conversation, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return domain.Conversation{}, ErrConversationNotFound
	}
	return v.(domain.Conversation).Clone(), nil
}

// Update applies fn under the store lock so concurrent updates of the same
// conversation are serialized.
func (s *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(id)
	if !ok {
		return domain.Conversation{}, ErrConversationNotFound
	}
	conv := v.(domain.Conversation).Clone()
	if err := fn(&conv); err != nil {
		return domain.Conversation{}, err
	}
	conv.Version++
	conv.UpdatedAt = time.Now().UTC()
	s.cache.Set(id, conv, s.ttl)
	return conv.Clone(), nil
}
