package engine

import (
	"errors"
	"testing"

	"prep-quiz-service/internal/domain"
)

func TestGradeBaseScenario(t *testing.T) {
	// 16 questions: 10 correct, 3 wrong, 3 skipped, 2 lectures, no speed data.
	bank := testBank(16)
	lecture, _ := bank.Lecture(1)
	questions := lecture.Questions

	answers := make([]string, 16)
	seconds := make([]float64, 16)
	for i := 0; i < 10; i++ {
		answers[i] = "A" // correct
		seconds[i] = 30  // too slow for any bonus
	}
	for i := 10; i < 13; i++ {
		answers[i] = "B" // wrong
		seconds[i] = 30
	}
	// remaining three skipped

	breakdown, err := Grade(questions, answers, seconds, 2)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if breakdown.CorrectCount != 10 || breakdown.WrongCount != 3 || breakdown.SkippedCount != 3 {
		t.Fatalf("unexpected counts: %+v", breakdown)
	}
	if breakdown.SimpleScore != 9.25 {
		t.Fatalf("expected simple 9.25, got %v", breakdown.SimpleScore)
	}
	if breakdown.LectureBonus != 0.2 {
		t.Fatalf("expected lecture bonus 0.2, got %v", breakdown.LectureBonus)
	}
	if breakdown.DynamicScore != 9.45 {
		t.Fatalf("expected dynamic 9.45, got %v", breakdown.DynamicScore)
	}
	if breakdown.Accuracy != 62.5 {
		t.Fatalf("expected accuracy 62.5, got %v", breakdown.Accuracy)
	}
}

func TestGradeSpeedBonusTiers(t *testing.T) {
	tests := []struct {
		seconds float64
		want    float64
	}{
		{4, 0.5},
		{5, 0.3},
		{9.9, 0.3},
		{10, 0.15},
		{14, 0.15},
		{15, 0.05},
		{19, 0.05},
		{20, 0},
		{25, 0},
	}
	for _, tc := range tests {
		if got := speedBonus(tc.seconds); got != tc.want {
			t.Errorf("speedBonus(%v) = %v, want %v", tc.seconds, got, tc.want)
		}
	}
}

func TestGradeNoBonusForWrongOrSkipped(t *testing.T) {
	bank := testBank(2)
	lecture, _ := bank.Lecture(1)

	breakdown, err := Grade(lecture.Questions, []string{"B", ""}, []float64{1, 1}, 1)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if breakdown.SpeedBonus != 0 {
		t.Fatalf("fast wrong/skipped answers must earn no bonus, got %v", breakdown.SpeedBonus)
	}
	for _, r := range breakdown.Results {
		if r.SpeedBonus != 0 {
			t.Fatalf("unexpected per-question bonus: %+v", r)
		}
	}
}

func TestGradeFloorsSimpleScoreAtZero(t *testing.T) {
	bank := testBank(4)
	lecture, _ := bank.Lecture(1)

	breakdown, err := Grade(lecture.Questions, []string{"B", "B", "B", "B"}, []float64{1, 1, 1, 1}, 1)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if breakdown.SimpleScore != 0 {
		t.Fatalf("expected floored simple score 0, got %v", breakdown.SimpleScore)
	}
	if breakdown.DynamicScore < breakdown.SimpleScore {
		t.Fatalf("dynamic %v below simple %v", breakdown.DynamicScore, breakdown.SimpleScore)
	}
}

func TestGradeDynamicNeverBelowSimple(t *testing.T) {
	bank := testBank(8)
	lecture, _ := bank.Lecture(1)
	answers := []string{"A", "A", "B", "", "A", "B", "", "A"}
	seconds := []float64{3, 12, 2, 0, 25, 8, 0, 17}

	breakdown, err := Grade(lecture.Questions, answers, seconds, 3)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if breakdown.DynamicScore < breakdown.SimpleScore {
		t.Fatalf("dynamic %v below simple %v", breakdown.DynamicScore, breakdown.SimpleScore)
	}
	total := breakdown.CorrectCount + breakdown.WrongCount + breakdown.SkippedCount
	if total != breakdown.TotalQuestions {
		t.Fatalf("counts %d do not add up to %d", total, breakdown.TotalQuestions)
	}
}

func TestGradeEmptyPool(t *testing.T) {
	breakdown, err := Grade(nil, nil, nil, 0)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if breakdown.Accuracy != 0 || breakdown.DynamicScore != 0 {
		t.Fatalf("expected zero scores for empty pool, got %+v", breakdown)
	}
}

func TestGradeInvalidInput(t *testing.T) {
	bank := testBank(2)
	lecture, _ := bank.Lecture(1)

	if _, err := Grade(lecture.Questions, []string{"A"}, []float64{1, 1}, 1); !errors.Is(err, domain.ErrInvalidAttempt) {
		t.Fatalf("expected ErrInvalidAttempt for short answers, got %v", err)
	}
	if _, err := Grade(lecture.Questions, []string{"A", "B"}, []float64{1}, 1); !errors.Is(err, domain.ErrInvalidAttempt) {
		t.Fatalf("expected ErrInvalidAttempt for short timings, got %v", err)
	}
	if _, err := Grade(lecture.Questions, []string{"A", "B"}, []float64{1, -2}, 1); !errors.Is(err, domain.ErrInvalidAttempt) {
		t.Fatalf("expected ErrInvalidAttempt for negative time, got %v", err)
	}
}

func TestVerifyClaim(t *testing.T) {
	bank := testBank(2)
	lecture, _ := bank.Lecture(1)
	breakdown, err := Grade(lecture.Questions, []string{"A", "A"}, []float64{3, 3}, 1)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}

	if err := VerifyClaim(breakdown, breakdown.SimpleScore, breakdown.DynamicScore, 0.01); err != nil {
		t.Fatalf("expected matching claim to pass: %v", err)
	}
	if err := VerifyClaim(breakdown, breakdown.SimpleScore+0.005, breakdown.DynamicScore, 0.01); err != nil {
		t.Fatalf("expected claim within tolerance to pass: %v", err)
	}
	if err := VerifyClaim(breakdown, breakdown.SimpleScore+5, breakdown.DynamicScore, 0.01); !errors.Is(err, domain.ErrScoreMismatch) {
		t.Fatalf("expected ErrScoreMismatch, got %v", err)
	}
	if err := VerifyClaim(breakdown, breakdown.SimpleScore, breakdown.DynamicScore-1, 0.01); !errors.Is(err, domain.ErrScoreMismatch) {
		t.Fatalf("expected ErrScoreMismatch on dynamic, got %v", err)
	}
}
