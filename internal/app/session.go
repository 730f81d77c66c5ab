package app

import (
	"sync"
	"time"

	"prep-quiz-service/internal/domain"
)

// State is the lifecycle phase of one practice attempt.
type State string

const (
	StateSetup       State = "setup"
	StatePlaying     State = "playing"
	StateFinished    State = "finished"
	StateLeaderboard State = "leaderboard"
)

// Session tracks one learner's in-flight practice attempt. The pool is
// copied in at setup->playing, so a bank refresh never touches a running
// attempt. Per-question elapsed time is stamped the first time a question is
// left; revisits do not re-measure.
type Session struct {
	learnerID   string
	displayName string
	privileged  bool
	now         func() time.Time

	mu        sync.Mutex
	state     State
	lectures  []int
	pool      []domain.Question
	answers   map[string]string
	seconds   map[string]float64
	currentID string
	enteredAt time.Time
	startedAt time.Time
}

func newSession(learnerID, displayName string, privileged bool, now func() time.Time) *Session {
	return &Session{
		learnerID:   learnerID,
		displayName: displayName,
		privileged:  privileged,
		now:         now,
		state:       StateSetup,
	}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(learnerID, displayName string, privileged bool) *Session {
	return newSession(learnerID, displayName, privileged, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(learnerID, displayName string, privileged bool, now func() time.Time) *Session {
	return newSession(learnerID, displayName, privileged, now)
}

// LearnerID returns the session owner.
func (s *Session) LearnerID() string { return s.learnerID }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pool returns the materialized question pool.
func (s *Session) Pool() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// configure records the chosen lectures while in setup.
func (s *Session) configure(lectures []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSetup {
		return domain.ErrInvalidTransition
	}
	if len(lectures) == 0 {
		return domain.ErrNoLecturesSelected
	}
	s.lectures = append([]int(nil), lectures...)
	return nil
}

// begin moves setup->playing with a materialized pool and starts the clock.
func (s *Session) begin(pool []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSetup {
		return domain.ErrInvalidTransition
	}
	if len(s.lectures) == 0 {
		return domain.ErrNoLecturesSelected
	}
	s.pool = append([]domain.Question(nil), pool...)
	s.answers = make(map[string]string, len(pool))
	s.seconds = make(map[string]float64, len(pool))
	now := s.now()
	s.startedAt = now
	s.enteredAt = now
	if len(pool) > 0 {
		s.currentID = pool[0].ID
	}
	s.state = StatePlaying
	return nil
}

// view navigates to a question, stamping elapsed time for the question
// being left if it has not been stamped yet.
func (s *Session) view(questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return domain.ErrInvalidTransition
	}
	if !s.inPoolLocked(questionID) {
		return domain.ErrQuestionNotFound
	}
	if questionID == s.currentID {
		return nil
	}
	s.stampLocked(s.currentID)
	s.currentID = questionID
	s.enteredAt = s.now()
	return nil
}

// answer records (or overwrites) the learner's option for a question.
func (s *Session) answer(questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return domain.ErrInvalidTransition
	}
	if !s.inPoolLocked(questionID) {
		return domain.ErrQuestionNotFound
	}
	s.answers[questionID] = option
	return nil
}

// finishInputs finalizes the last question's elapsed time, moves
// playing->finished, and returns the raw grading inputs.
func (s *Session) finishInputs() ([]domain.Question, []string, []float64, []int, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePlaying {
		return nil, nil, nil, nil, 0, domain.ErrInvalidTransition
	}
	// The current question may never be "left", so its time is finalized here.
	s.stampLocked(s.currentID)

	answers := make([]string, len(s.pool))
	seconds := make([]float64, len(s.pool))
	for i, q := range s.pool {
		answers[i] = s.answers[q.ID]
		seconds[i] = s.seconds[q.ID]
	}
	total := s.now().Sub(s.startedAt).Seconds()
	s.state = StateFinished
	return s.pool, answers, seconds, s.lectures, total, nil
}

// showLeaderboard moves finished->leaderboard. Pure navigation.
func (s *Session) showLeaderboard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished && s.state != StateLeaderboard {
		return domain.ErrInvalidTransition
	}
	s.state = StateLeaderboard
	return nil
}

// reset starts a fresh setup. Disallowed mid-attempt: a playing session must
// finish first.
func (s *Session) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePlaying {
		return domain.ErrInvalidTransition
	}
	s.state = StateSetup
	s.lectures = nil
	s.pool = nil
	s.answers = nil
	s.seconds = nil
	s.currentID = ""
	return nil
}

func (s *Session) inPoolLocked(questionID string) bool {
	for _, q := range s.pool {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func (s *Session) stampLocked(questionID string) {
	if questionID == "" {
		return
	}
	if _, done := s.seconds[questionID]; done {
		return
	}
	s.seconds[questionID] = s.now().Sub(s.enteredAt).Seconds()
}
