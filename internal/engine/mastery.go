package engine

import (
	"sort"
	"time"

	"prep-quiz-service/internal/domain"
)

// ApplyAttempt merges one attempt's graded results into a learner's mastery
// record. It returns a new record (the input is not mutated), the delta a
// store should union-merge, and the update events for the learner.
//
// The merge is idempotent: applying the same results twice converges to the
// same mastered set, and completion events fire only on the transition from
// not-fully-mastered to fully-mastered. Lecture membership comes from the
// bank's lookup table, never from the question-id format.
func ApplyAttempt(record domain.MasteryRecord, results []domain.QuestionResult, bank domain.QuestionBank, now time.Time) (domain.MasteryRecord, domain.MasteryDelta, domain.MasteryUpdate) {
	next := record.Clone()
	delta := domain.MasteryDelta{Progress: make(map[int]domain.LectureProgress)}
	update := domain.MasteryUpdate{}

	touched := make(map[int]struct{})
	for _, result := range results {
		lecture, ok := bank.LectureOf(result.QuestionID)
		if !ok {
			continue
		}
		touched[lecture] = struct{}{}
		if !result.Correct {
			continue
		}
		if next.Mastered(result.QuestionID) {
			continue
		}
		next.MasteredIDs[result.QuestionID] = struct{}{}
		delta.MasteredIDs = append(delta.MasteredIDs, result.QuestionID)
		update.NewlyMastered = append(update.NewlyMastered, result.QuestionID)
	}

	for number := range touched {
		lecture, ok := bank.Lecture(number)
		if !ok {
			continue
		}
		total := lecture.QuestionCount()
		masteredNow := 0
		for _, q := range lecture.Questions {
			if next.Mastered(q.ID) {
				masteredNow++
			}
		}

		prev := record.Lectures[number]
		progress := domain.LectureProgress{
			Total:       total,
			Mastered:    masteredNow,
			Completions: prev.Completions,
			LastPlayed:  now,
		}

		wasFull := total > 0 && countMastered(record, lecture) == total
		isFull := total > 0 && masteredNow == total
		if isFull && !wasFull {
			progress.Completions++
			delta.CompletedLectures = append(delta.CompletedLectures, number)
			update.CompletedLectures = append(update.CompletedLectures, number)
		}

		next.Lectures[number] = progress
		delta.Progress[number] = progress
	}

	sort.Strings(update.NewlyMastered)
	sort.Strings(delta.MasteredIDs)
	sort.Ints(update.CompletedLectures)
	sort.Ints(delta.CompletedLectures)
	return next, delta, update
}

func countMastered(record domain.MasteryRecord, lecture domain.Lecture) int {
	n := 0
	for _, q := range lecture.Questions {
		if record.Mastered(q.ID) {
			n++
		}
	}
	return n
}
