package engine

import (
	"fmt"

	"prep-quiz-service/internal/domain"
)

// testBank builds a bank where lecture n holds counts[n-1] questions with
// ids lecture<n>_q<k>.
func testBank(counts ...int) domain.QuestionBank {
	lectures := make([]domain.Lecture, 0, len(counts))
	for i, count := range counts {
		number := i + 1
		lecture := domain.Lecture{
			Number: number,
			Title:  fmt.Sprintf("Lecture %d", number),
		}
		for k := 1; k <= count; k++ {
			lecture.Questions = append(lecture.Questions, domain.Question{
				ID:      fmt.Sprintf("lecture%d_q%d", number, k),
				Lecture: number,
				Prompt:  fmt.Sprintf("question %d.%d", number, k),
				Options: map[string]string{
					"A": "first", "B": "second", "C": "third", "D": "fourth",
				},
				CorrectOption: "A",
			})
		}
		lectures = append(lectures, lecture)
	}
	return domain.NewQuestionBank(lectures)
}
