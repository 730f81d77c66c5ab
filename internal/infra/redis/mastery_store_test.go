package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"prep-quiz-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestMasteryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMasteryStore(newTestClient(t))
	played := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	delta := domain.MasteryDelta{
		MasteredIDs: []string{"lecture1_q1", "lecture1_q2"},
		Progress: map[int]domain.LectureProgress{
			1: {Total: 3, Mastered: 2, LastPlayed: played},
		},
	}
	if err := store.Merge(ctx, "u1", delta); err != nil {
		t.Fatalf("merge: %v", err)
	}

	record, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.MasteredIDs) != 2 || !record.Mastered("lecture1_q1") {
		t.Fatalf("unexpected mastered set: %v", record.MasteredIDs)
	}
	progress := record.Lectures[1]
	if progress.Total != 3 || progress.Mastered != 2 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
	if !progress.LastPlayed.Equal(played) {
		t.Fatalf("lastPlayed lost: %v", progress.LastPlayed)
	}
}

func TestMasteryStoreMergeIsUnion(t *testing.T) {
	ctx := context.Background()
	store := NewMasteryStore(newTestClient(t))

	// Two deltas computed from the same stale snapshot must both land.
	_ = store.Merge(ctx, "u1", domain.MasteryDelta{MasteredIDs: []string{"lecture1_q1"}})
	_ = store.Merge(ctx, "u1", domain.MasteryDelta{MasteredIDs: []string{"lecture1_q2"}})
	// Duplicate merge is a no-op.
	_ = store.Merge(ctx, "u1", domain.MasteryDelta{MasteredIDs: []string{"lecture1_q1"}})

	record, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.MasteredIDs) != 2 {
		t.Fatalf("expected union of 2 ids, got %d", len(record.MasteredIDs))
	}
}

func TestMasteryStoreCompletionCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMasteryStore(newTestClient(t))

	delta := domain.MasteryDelta{
		MasteredIDs:       []string{"lecture2_q1"},
		Progress:          map[int]domain.LectureProgress{2: {Total: 1, Mastered: 1}},
		CompletedLectures: []int{2},
	}
	if err := store.Merge(ctx, "u1", delta); err != nil {
		t.Fatalf("merge: %v", err)
	}

	record, _ := store.Get(ctx, "u1")
	if record.Lectures[2].Completions != 1 {
		t.Fatalf("expected 1 completion, got %d", record.Lectures[2].Completions)
	}
}

func TestMasteryStoreEmptyLearner(t *testing.T) {
	store := NewMasteryStore(newTestClient(t))
	record, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.MasteredIDs) != 0 || len(record.Lectures) != 0 {
		t.Fatalf("expected empty record, got %+v", record)
	}
}
