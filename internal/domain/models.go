package domain

import "time"

// Question is one multiple-choice item in the bank. Immutable once published.
type Question struct {
	ID            string            `json:"id"`
	Lecture       int               `json:"lecture"`
	Section       string            `json:"section"`
	Prompt        string            `json:"question"`
	Options       map[string]string `json:"options"` // option letter (A-E) -> text
	CorrectOption string            `json:"correctAnswer"`
	Explanation   string            `json:"explanation"`
}

// Lecture groups a fixed set of questions. A lecture with no questions is
// "not yet available" and must be filtered out before pool selection.
type Lecture struct {
	Number    int        `json:"lectureNumber"`
	Title     string     `json:"title"`
	Topics    string     `json:"topics"`
	Questions []Question `json:"questions"`
}

// QuestionCount returns the number of questions in the lecture.
func (l Lecture) QuestionCount() int { return len(l.Questions) }

// QuestionBank is an immutable snapshot of all lectures, loaded once and
// shared. Lookup tables are built eagerly so mastery accounting never
// depends on the question-id format.
type QuestionBank struct {
	Lectures []Lecture

	byID      map[string]Question
	lectureOf map[string]int
	byLecture map[int]Lecture
}

// NewQuestionBank builds a bank snapshot with its lookup tables.
func NewQuestionBank(lectures []Lecture) QuestionBank {
	bank := QuestionBank{
		Lectures:  lectures,
		byID:      make(map[string]Question),
		lectureOf: make(map[string]int),
		byLecture: make(map[int]Lecture),
	}
	for _, lecture := range lectures {
		bank.byLecture[lecture.Number] = lecture
		for _, q := range lecture.Questions {
			bank.byID[q.ID] = q
			bank.lectureOf[q.ID] = lecture.Number
		}
	}
	return bank
}

// Question returns a question by id.
func (b QuestionBank) Question(id string) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// LectureOf maps a question id to its owning lecture number.
func (b QuestionBank) LectureOf(id string) (int, bool) {
	n, ok := b.lectureOf[id]
	return n, ok
}

// Lecture returns a lecture by number.
func (b QuestionBank) Lecture(number int) (Lecture, bool) {
	l, ok := b.byLecture[number]
	return l, ok
}

// AvailableLectures lists lectures that have at least one question.
func (b QuestionBank) AvailableLectures() []Lecture {
	out := make([]Lecture, 0, len(b.Lectures))
	for _, l := range b.Lectures {
		if len(l.Questions) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// QuestionResult is the per-question outcome inside a graded attempt.
type QuestionResult struct {
	QuestionID string  `json:"questionId"`
	Lecture    int     `json:"lecture"`
	Answer     string  `json:"answer"` // empty when skipped
	Correct    bool    `json:"correct"`
	Skipped    bool    `json:"skipped"`
	Seconds    float64 `json:"seconds"`
	SpeedBonus float64 `json:"speedBonus"`
}

// ScoreBreakdown is the full grading output for one attempt.
type ScoreBreakdown struct {
	CorrectCount   int              `json:"correctCount"`
	WrongCount     int              `json:"wrongCount"`
	SkippedCount   int              `json:"skippedCount"`
	TotalQuestions int              `json:"totalQuestions"`
	SimpleScore    float64          `json:"simpleScore"`
	SpeedBonus     float64          `json:"speedBonus"`
	LectureBonus   float64          `json:"lectureBonus"`
	DynamicScore   float64          `json:"dynamicScore"`
	Accuracy       float64          `json:"accuracy"`
	Results        []QuestionResult `json:"results"`
}

// Attempt is one completed practice session. Immutable after creation.
type Attempt struct {
	ID           string         `json:"id"`
	LearnerID    string         `json:"learnerId"`
	DisplayName  string         `json:"displayName"`
	Privileged   bool           `json:"privileged"`
	QuestionIDs  []string       `json:"questionIds"`
	Lectures     []int          `json:"lectures"`
	TotalSeconds float64        `json:"totalSeconds"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// LectureProgress tracks one learner's standing within one lecture.
type LectureProgress struct {
	Total       int       `json:"total"`
	Mastered    int       `json:"mastered"`
	Completions int       `json:"completions"`
	LastPlayed  time.Time `json:"lastPlayed"`
}

// MasteryRecord is a learner's persistent mastery state. The mastered set
// only grows; merges are set unions, never overwrites.
type MasteryRecord struct {
	LearnerID   string                  `json:"learnerId"`
	MasteredIDs map[string]struct{}     `json:"-"`
	Lectures    map[int]LectureProgress `json:"lectures"`
}

// NewMasteryRecord returns an empty record for a learner.
func NewMasteryRecord(learnerID string) MasteryRecord {
	return MasteryRecord{
		LearnerID:   learnerID,
		MasteredIDs: make(map[string]struct{}),
		Lectures:    make(map[int]LectureProgress),
	}
}

// Mastered reports whether the learner has ever answered the question
// correctly.
func (r MasteryRecord) Mastered(id string) bool {
	_, ok := r.MasteredIDs[id]
	return ok
}

// Clone deep-copies the record so the tracker can return a modified copy
// without touching the stored state.
func (r MasteryRecord) Clone() MasteryRecord {
	out := NewMasteryRecord(r.LearnerID)
	for id := range r.MasteredIDs {
		out.MasteredIDs[id] = struct{}{}
	}
	for n, p := range r.Lectures {
		out.Lectures[n] = p
	}
	return out
}

// MasteryDelta is the increment one graded attempt contributes. Stores apply
// it as a union merge against their current state.
type MasteryDelta struct {
	MasteredIDs       []string
	Progress          map[int]LectureProgress
	CompletedLectures []int
}

// MasteryUpdate reports what changed for the learner after one attempt.
type MasteryUpdate struct {
	NewlyMastered     []string `json:"newlyMastered"`
	CompletedLectures []int    `json:"completedLectures"`
}

// SingularEntry is one row of the best-single-attempt leaderboard.
type SingularEntry struct {
	LearnerID    string    `json:"learnerId"`
	DisplayName  string    `json:"displayName"`
	DynamicScore float64   `json:"dynamicScore"`
	SimpleScore  float64   `json:"simpleScore"`
	Accuracy     float64   `json:"accuracy"`
	LectureCount int       `json:"lectureCount"`
	TotalSeconds float64   `json:"totalSeconds"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// CumulativeEntry is one row of the all-time leaderboard.
type CumulativeEntry struct {
	LearnerID         string  `json:"learnerId"`
	DisplayName       string  `json:"displayName"`
	TotalDynamicScore float64 `json:"totalDynamicScore"`
	TotalSimpleScore  float64 `json:"totalSimpleScore"`
	Attempts          int     `json:"attempts"`
	AverageAccuracy   float64 `json:"averageAccuracy"`
	DistinctLectures  int     `json:"distinctLectures"`
}

// Leaderboards bundles both ranking views.
type Leaderboards struct {
	Singular   []SingularEntry   `json:"singular"`
	Cumulative []CumulativeEntry `json:"cumulative"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
