package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prep-quiz-service/internal/domain"
)

// AttemptStore keeps the attempt history as a Redis list: RPUSH on append,
// LRANGE for the aggregator's full scan. Append-only, no locking needed.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

const attemptsKey = "attempts:history"

func (s *AttemptStore) Append(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	if err := s.client.RPush(ctx, attemptsKey, raw).Err(); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) All(ctx context.Context) ([]domain.Attempt, error) {
	rows, err := s.client.LRange(ctx, attemptsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("scan attempts: %w", err)
	}
	attempts := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		var attempt domain.Attempt
		if err := json.Unmarshal([]byte(row), &attempt); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
