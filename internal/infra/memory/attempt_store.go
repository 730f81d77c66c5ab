package memory

import (
	"context"
	"sync"

	"prep-quiz-service/internal/domain"
)

// AttemptStore is an in-memory append-only attempt history.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Append(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *AttemptStore) All(_ context.Context) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out, nil
}
