package memory

import (
	"context"
	"sync"

	"prep-quiz-service/internal/domain"
)

// MasteryStore keeps per-learner mastery records in memory. Merge is a set
// union under the lock, so concurrent finishes for the same learner both
// land.
type MasteryStore struct {
	mu      sync.Mutex
	records map[string]domain.MasteryRecord
}

func NewMasteryStore() *MasteryStore {
	return &MasteryStore{records: make(map[string]domain.MasteryRecord)}
}

func (s *MasteryStore) Get(_ context.Context, learnerID string) (domain.MasteryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[learnerID]
	if !ok {
		return domain.NewMasteryRecord(learnerID), nil
	}
	return record.Clone(), nil
}

func (s *MasteryStore) Merge(_ context.Context, learnerID string, delta domain.MasteryDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[learnerID]
	if !ok {
		record = domain.NewMasteryRecord(learnerID)
	}
	for _, id := range delta.MasteredIDs {
		record.MasteredIDs[id] = struct{}{}
	}
	for number, progress := range delta.Progress {
		existing := record.Lectures[number]
		// The mastered count never regresses even if the delta was computed
		// from a stale read.
		if progress.Mastered < existing.Mastered {
			progress.Mastered = existing.Mastered
		}
		progress.Completions = existing.Completions
		record.Lectures[number] = progress
	}
	for _, number := range delta.CompletedLectures {
		progress := record.Lectures[number]
		progress.Completions++
		record.Lectures[number] = progress
	}
	s.records[learnerID] = record
	return nil
}
