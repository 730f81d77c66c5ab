package engine

import (
	"math/rand"

	"prep-quiz-service/internal/domain"
)

// DefaultPoolSize is the number of questions in a standard practice set.
const DefaultPoolSize = 16

// SelectPool builds a practice set from the chosen lectures, biased toward
// questions the learner has not yet mastered. Unmastered questions fill the
// pool first; mastered ones pad it up to size when needed. The combined pool
// is reshuffled so position carries no mastery signal.
//
// rnd is injected so seeded tests can reproduce a selection.
func SelectPool(bank domain.QuestionBank, mastered map[string]struct{}, lectures []int, size int, rnd *rand.Rand) ([]domain.Question, error) {
	if len(lectures) == 0 {
		return nil, domain.ErrNoLecturesSelected
	}
	if size <= 0 {
		size = DefaultPoolSize
	}

	var unmastered, reviewed []domain.Question
	for _, n := range lectures {
		lecture, ok := bank.Lecture(n)
		if !ok {
			continue
		}
		for _, q := range lecture.Questions {
			if _, done := mastered[q.ID]; done {
				reviewed = append(reviewed, q)
			} else {
				unmastered = append(unmastered, q)
			}
		}
	}
	if len(unmastered)+len(reviewed) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}

	rnd.Shuffle(len(unmastered), func(i, j int) {
		unmastered[i], unmastered[j] = unmastered[j], unmastered[i]
	})
	rnd.Shuffle(len(reviewed), func(i, j int) {
		reviewed[i], reviewed[j] = reviewed[j], reviewed[i]
	})

	pool := make([]domain.Question, 0, size)
	if len(unmastered) >= size {
		pool = append(pool, unmastered[:size]...)
	} else {
		pool = append(pool, unmastered...)
		need := size - len(pool)
		if need > len(reviewed) {
			need = len(reviewed)
		}
		pool = append(pool, reviewed[:need]...)
	}

	rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool, nil
}
