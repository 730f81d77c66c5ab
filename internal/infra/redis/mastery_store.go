package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"prep-quiz-service/internal/domain"
)

// MasteryStore persists learner mastery in Redis:
//
//	SADD    mastery:{learner}:questions   {questionID...}
//	HSET    mastery:{learner}:progress    {lecture} {json LectureProgress}
//	HINCRBY mastery:{learner}:completions {lecture} 1
//
// SADD gives the merge its union semantics: two attempts finishing at the
// same time for one learner both land, regardless of interleaving.
type MasteryStore struct {
	client *redis.Client
}

func NewMasteryStore(client *redis.Client) *MasteryStore {
	return &MasteryStore{client: client}
}

type storedProgress struct {
	Total      int    `json:"total"`
	Mastered   int    `json:"mastered"`
	LastPlayed string `json:"lastPlayed"`
}

func (s *MasteryStore) Get(ctx context.Context, learnerID string) (domain.MasteryRecord, error) {
	record := domain.NewMasteryRecord(learnerID)

	ids, err := s.client.SMembers(ctx, s.questionsKey(learnerID)).Result()
	if err != nil {
		return record, fmt.Errorf("read mastered set: %w", err)
	}
	for _, id := range ids {
		record.MasteredIDs[id] = struct{}{}
	}

	progress, err := s.client.HGetAll(ctx, s.progressKey(learnerID)).Result()
	if err != nil {
		return record, fmt.Errorf("read progress: %w", err)
	}
	completions, err := s.client.HGetAll(ctx, s.completionsKey(learnerID)).Result()
	if err != nil {
		return record, fmt.Errorf("read completions: %w", err)
	}

	for field, raw := range progress {
		number, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		var stored storedProgress
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			continue
		}
		entry := domain.LectureProgress{
			Total:    stored.Total,
			Mastered: stored.Mastered,
		}
		if stored.LastPlayed != "" {
			entry.LastPlayed = parseTime(stored.LastPlayed)
		}
		if countRaw, ok := completions[field]; ok {
			if count, err := strconv.Atoi(countRaw); err == nil {
				entry.Completions = count
			}
		}
		record.Lectures[number] = entry
	}
	return record, nil
}

func (s *MasteryStore) Merge(ctx context.Context, learnerID string, delta domain.MasteryDelta) error {
	pipe := s.client.Pipeline()

	if len(delta.MasteredIDs) > 0 {
		members := make([]interface{}, len(delta.MasteredIDs))
		for i, id := range delta.MasteredIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, s.questionsKey(learnerID), members...)
	}
	for number, progress := range delta.Progress {
		raw, err := json.Marshal(storedProgress{
			Total:      progress.Total,
			Mastered:   progress.Mastered,
			LastPlayed: formatTime(progress.LastPlayed),
		})
		if err != nil {
			return fmt.Errorf("encode progress: %w", err)
		}
		pipe.HSet(ctx, s.progressKey(learnerID), strconv.Itoa(number), raw)
	}
	for _, number := range delta.CompletedLectures {
		pipe.HIncrBy(ctx, s.completionsKey(learnerID), strconv.Itoa(number), 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMasteryPersistence, err)
	}
	return nil
}

func (s *MasteryStore) questionsKey(learnerID string) string {
	return "mastery:" + learnerID + ":questions"
}

func (s *MasteryStore) progressKey(learnerID string) string {
	return "mastery:" + learnerID + ":progress"
}

func (s *MasteryStore) completionsKey(learnerID string) string {
	return "mastery:" + learnerID + ":completions"
}
