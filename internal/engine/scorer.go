package engine

import (
	"fmt"
	"math"

	"prep-quiz-service/internal/domain"
)

// Scoring constants. Bonuses are strictly additive, so the dynamic score can
// never drop below the simple score.
const (
	correctPoints      = 1.0
	wrongPenalty       = 0.25
	lectureBonusPerSet = 0.1
)

// speedBonus is a non-increasing step function of elapsed seconds, awarded
// only for correct answers.
func speedBonus(seconds float64) float64 {
	switch {
	case seconds < 5:
		return 0.5
	case seconds < 10:
		return 0.3
	case seconds < 15:
		return 0.15
	case seconds < 20:
		return 0.05
	default:
		return 0
	}
}

// Grade scores one completed attempt. answers[i] is the learner's option
// letter for questions[i], empty meaning skipped; seconds[i] is the elapsed
// time on that question. Accumulation runs at full precision and rounds once
// at the end.
func Grade(questions []domain.Question, answers []string, seconds []float64, lectureCount int) (domain.ScoreBreakdown, error) {
	if len(answers) != len(questions) {
		return domain.ScoreBreakdown{}, fmt.Errorf("%w: %d answers for %d questions", domain.ErrInvalidAttempt, len(answers), len(questions))
	}
	if len(seconds) != len(questions) {
		return domain.ScoreBreakdown{}, fmt.Errorf("%w: %d timings for %d questions", domain.ErrInvalidAttempt, len(seconds), len(questions))
	}
	for i, s := range seconds {
		if s < 0 {
			return domain.ScoreBreakdown{}, fmt.Errorf("%w: negative time %.2f at question %d", domain.ErrInvalidAttempt, s, i)
		}
	}

	breakdown := domain.ScoreBreakdown{
		TotalQuestions: len(questions),
		Results:        make([]domain.QuestionResult, 0, len(questions)),
	}

	var totalSpeed float64
	for i, q := range questions {
		result := domain.QuestionResult{
			QuestionID: q.ID,
			Lecture:    q.Lecture,
			Answer:     answers[i],
			Seconds:    seconds[i],
		}
		switch {
		case answers[i] == "":
			result.Skipped = true
			breakdown.SkippedCount++
		case answers[i] == q.CorrectOption:
			result.Correct = true
			result.SpeedBonus = speedBonus(seconds[i])
			totalSpeed += result.SpeedBonus
			breakdown.CorrectCount++
		default:
			breakdown.WrongCount++
		}
		breakdown.Results = append(breakdown.Results, result)
	}

	simple := float64(breakdown.CorrectCount)*correctPoints - float64(breakdown.WrongCount)*wrongPenalty
	if simple < 0 {
		simple = 0
	}
	lectureBonus := lectureBonusPerSet * float64(lectureCount)

	breakdown.SimpleScore = round2(simple)
	breakdown.SpeedBonus = round2(totalSpeed)
	breakdown.LectureBonus = round2(lectureBonus)
	breakdown.DynamicScore = round2(simple + totalSpeed + lectureBonus)
	if breakdown.TotalQuestions > 0 {
		breakdown.Accuracy = round1(float64(breakdown.CorrectCount) / float64(breakdown.TotalQuestions) * 100)
	}
	return breakdown, nil
}

// VerifyClaim checks caller-supplied scores against a server-side
// recomputation. The boundary calls this before accepting any submission that
// carries precomputed values; the Scorer stays the single source of truth.
func VerifyClaim(breakdown domain.ScoreBreakdown, claimedSimple, claimedDynamic, tolerance float64) error {
	if math.Abs(breakdown.SimpleScore-claimedSimple) > tolerance {
		return fmt.Errorf("%w: simple %.2f vs claimed %.2f", domain.ErrScoreMismatch, breakdown.SimpleScore, claimedSimple)
	}
	if math.Abs(breakdown.DynamicScore-claimedDynamic) > tolerance {
		return fmt.Errorf("%w: dynamic %.2f vs claimed %.2f", domain.ErrScoreMismatch, breakdown.DynamicScore, claimedDynamic)
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
