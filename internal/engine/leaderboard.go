package engine

import (
	"sort"

	"prep-quiz-service/internal/domain"
)

// Aggregate folds the full attempt history into the two leaderboard views.
// Privileged attempts carry their own flag and are excluded from both views;
// exclusion is owned here, not at the submission boundary.
func Aggregate(attempts []domain.Attempt) ([]domain.SingularEntry, []domain.CumulativeEntry) {
	best := make(map[string]domain.Attempt)
	totals := make(map[string]*domain.CumulativeEntry)
	lecturesSeen := make(map[string]map[int]struct{})
	accuracySum := make(map[string]float64)

	for _, attempt := range attempts {
		if attempt.Privileged {
			continue
		}
		id := attempt.LearnerID

		if current, ok := best[id]; !ok || betterAttempt(attempt, current) {
			best[id] = attempt
		}

		entry, ok := totals[id]
		if !ok {
			entry = &domain.CumulativeEntry{LearnerID: id}
			totals[id] = entry
			lecturesSeen[id] = make(map[int]struct{})
		}
		entry.DisplayName = attempt.DisplayName
		entry.TotalDynamicScore = round2(entry.TotalDynamicScore + attempt.Breakdown.DynamicScore)
		entry.TotalSimpleScore = round2(entry.TotalSimpleScore + attempt.Breakdown.SimpleScore)
		entry.Attempts++
		accuracySum[id] += attempt.Breakdown.Accuracy
		for _, n := range attempt.Lectures {
			lecturesSeen[id][n] = struct{}{}
		}
	}

	singular := make([]domain.SingularEntry, 0, len(best))
	for id, attempt := range best {
		singular = append(singular, domain.SingularEntry{
			LearnerID:    id,
			DisplayName:  attempt.DisplayName,
			DynamicScore: attempt.Breakdown.DynamicScore,
			SimpleScore:  attempt.Breakdown.SimpleScore,
			Accuracy:     attempt.Breakdown.Accuracy,
			LectureCount: len(attempt.Lectures),
			TotalSeconds: attempt.TotalSeconds,
			SubmittedAt:  attempt.SubmittedAt,
		})
	}
	sort.Slice(singular, func(i, j int) bool {
		if singular[i].DynamicScore != singular[j].DynamicScore {
			return singular[i].DynamicScore > singular[j].DynamicScore
		}
		if singular[i].TotalSeconds != singular[j].TotalSeconds {
			return singular[i].TotalSeconds < singular[j].TotalSeconds
		}
		return singular[i].SubmittedAt.Before(singular[j].SubmittedAt)
	})

	cumulative := make([]domain.CumulativeEntry, 0, len(totals))
	for id, entry := range totals {
		entry.AverageAccuracy = round1(accuracySum[id] / float64(entry.Attempts))
		entry.DistinctLectures = len(lecturesSeen[id])
		cumulative = append(cumulative, *entry)
	}
	sort.Slice(cumulative, func(i, j int) bool {
		if cumulative[i].TotalDynamicScore != cumulative[j].TotalDynamicScore {
			return cumulative[i].TotalDynamicScore > cumulative[j].TotalDynamicScore
		}
		return cumulative[i].LearnerID < cumulative[j].LearnerID
	})

	return singular, cumulative
}

// betterAttempt ranks a learner's own attempts: higher dynamic score, then
// lower elapsed time, then earlier submission.
func betterAttempt(a, b domain.Attempt) bool {
	if a.Breakdown.DynamicScore != b.Breakdown.DynamicScore {
		return a.Breakdown.DynamicScore > b.Breakdown.DynamicScore
	}
	if a.TotalSeconds != b.TotalSeconds {
		return a.TotalSeconds < b.TotalSeconds
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}
