package testutils

import (
	"context"
	"sync"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/google/uuid"
)

// MemoryDraftStore stands in for the redis draft cache.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]domain.CourseDraft
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[uuid.UUID]domain.CourseDraft)}
}

func (s *MemoryDraftStore) Save(_ context.Context, draft *domain.CourseDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = *draft
	return nil
}

func (s *MemoryDraftStore) Get(_ context.Context, id uuid.UUID) (*domain.CourseDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &d, nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

// MemoryTokenStore stands in for the redis refresh token cache.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) SaveRefresh(_ context.Context, userID string, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[refreshToken] = userID
	return nil
}

func (s *MemoryTokenStore) ConsumeRefresh(_ context.Context, refreshToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[refreshToken]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	delete(s.tokens, refreshToken)
	return id, nil
}

func (s *MemoryTokenStore) DeleteRefresh(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, refreshToken)
	return nil
}
