package engine

import (
	"errors"
	"math/rand"
	"testing"

	"prep-quiz-service/internal/domain"
)

func TestSelectPoolPrefersUnmastered(t *testing.T) {
	bank := testBank(20, 20)
	mastered := make(map[string]struct{})
	// Master everything in lecture 2 so only lecture 1 holds fresh material.
	lecture2, _ := bank.Lecture(2)
	for _, q := range lecture2.Questions {
		mastered[q.ID] = struct{}{}
	}

	rnd := rand.New(rand.NewSource(1))
	pool, err := SelectPool(bank, mastered, []int{1, 2}, 16, rnd)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(pool) != 16 {
		t.Fatalf("expected 16 questions, got %d", len(pool))
	}
	for _, q := range pool {
		if _, done := mastered[q.ID]; done {
			t.Fatalf("expected only unmastered questions, got %s", q.ID)
		}
	}
}

func TestSelectPoolFallsBackToMastered(t *testing.T) {
	bank := testBank(18)
	lecture, _ := bank.Lecture(1)
	mastered := make(map[string]struct{})
	for _, q := range lecture.Questions[1:] { // all but one mastered
		mastered[q.ID] = struct{}{}
	}

	rnd := rand.New(rand.NewSource(7))
	pool, err := SelectPool(bank, mastered, []int{1}, 16, rnd)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(pool) != 16 {
		t.Fatalf("expected full pool of 16, got %d", len(pool))
	}
	found := false
	for _, q := range pool {
		if q.ID == lecture.Questions[0].ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the single unmastered question in the pool")
	}
}

func TestSelectPoolNoDuplicates(t *testing.T) {
	bank := testBank(10, 10, 10)
	for seed := int64(0); seed < 20; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		pool, err := SelectPool(bank, nil, []int{1, 2, 3}, 16, rnd)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		seen := make(map[string]struct{})
		for _, q := range pool {
			if _, dup := seen[q.ID]; dup {
				t.Fatalf("seed %d: duplicate question %s", seed, q.ID)
			}
			seen[q.ID] = struct{}{}
		}
	}
}

func TestSelectPoolSmallCandidateSet(t *testing.T) {
	bank := testBank(5)
	rnd := rand.New(rand.NewSource(3))
	pool, err := SelectPool(bank, nil, []int{1}, 16, rnd)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(pool) != 5 {
		t.Fatalf("expected the full 5-question set, got %d", len(pool))
	}
}

func TestSelectPoolFullyMasteredStillFills(t *testing.T) {
	bank := testBank(20)
	lecture, _ := bank.Lecture(1)
	mastered := make(map[string]struct{})
	for _, q := range lecture.Questions {
		mastered[q.ID] = struct{}{}
	}
	rnd := rand.New(rand.NewSource(11))
	pool, err := SelectPool(bank, mastered, []int{1}, 16, rnd)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(pool) != 16 {
		t.Fatalf("expected 16 review questions, got %d", len(pool))
	}
}

func TestSelectPoolErrors(t *testing.T) {
	bank := testBank(0)
	rnd := rand.New(rand.NewSource(1))

	if _, err := SelectPool(bank, nil, nil, 16, rnd); !errors.Is(err, domain.ErrNoLecturesSelected) {
		t.Fatalf("expected ErrNoLecturesSelected, got %v", err)
	}
	if _, err := SelectPool(bank, nil, []int{1}, 16, rnd); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestSelectPoolSeededReproducible(t *testing.T) {
	bank := testBank(18)
	first, err := SelectPool(bank, nil, []int{1}, 16, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	second, err := SelectPool(bank, nil, []int{1}, 16, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("same seed produced different pools at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}
