package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"prep-quiz-service/internal/domain"
	"prep-quiz-service/internal/engine"
)

// SessionRepository abstracts how practice sessions are stored.
type SessionRepository interface {
	GetOrCreate(learnerID, displayName string, privileged bool) *Session
	Get(learnerID string) (*Session, bool)
	Delete(learnerID string)
}

// BankRepository loads the question-bank snapshot (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context) (domain.QuestionBank, error)
}

// MasteryStore reads and union-merges per-learner mastery records. Merge must
// be a set union against current state, never a blind overwrite, so two
// concurrent finishes for one learner cannot clobber each other.
type MasteryStore interface {
	Get(ctx context.Context, learnerID string) (domain.MasteryRecord, error)
	Merge(ctx context.Context, learnerID string, delta domain.MasteryDelta) error
}

// AttemptStore is the append-only attempt history.
type AttemptStore interface {
	Append(ctx context.Context, attempt domain.Attempt) error
	All(ctx context.Context) ([]domain.Attempt, error)
}

// Options carry the tunable engine parameters.
type Options struct {
	PoolSize           int
	ScoreTolerance     float64
	PrivilegedLearners map[string]struct{}
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = engine.DefaultPoolSize
	}
	if o.ScoreTolerance <= 0 {
		o.ScoreTolerance = 0.01
	}
	return o
}

// ScoreClaim carries client-computed scores for server-side re-validation.
type ScoreClaim struct {
	SimpleScore  float64
	DynamicScore float64
}

// FinishResult is everything the learner gets back after grading.
type FinishResult struct {
	Attempt          domain.Attempt       `json:"attempt"`
	Mastery          domain.MasteryUpdate `json:"mastery"`
	MasteryPersisted bool                 `json:"masteryPersisted"`
}

// PracticeService orchestrates the practice-attempt lifecycle: selection,
// play, grading, mastery bookkeeping, attempt persistence, and leaderboards.
type PracticeService struct {
	sessions SessionRepository
	bank     BankRepository
	mastery  MasteryStore
	attempts AttemptStore
	opts     Options
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewPracticeService(sessions SessionRepository, bank BankRepository, mastery MasteryStore, attempts AttemptStore, opts Options) *PracticeService {
	return &PracticeService{
		sessions: sessions,
		bank:     bank,
		mastery:  mastery,
		attempts: attempts,
		opts:     opts.withDefaults(),
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewPracticeServiceSeeded is test-only: fixed clock and shuffle seed make
// selection and timestamps reproducible.
func NewPracticeServiceSeeded(sessions SessionRepository, bank BankRepository, mastery MasteryStore, attempts AttemptStore, opts Options, now func() time.Time, seed int64) *PracticeService {
	s := NewPracticeService(sessions, bank, mastery, attempts, opts)
	s.now = now
	s.rnd = rand.New(rand.NewSource(seed))
	return s
}

// Join creates (or returns) the learner's session.
func (s *PracticeService) Join(learnerID, displayName string) *Session {
	_, privileged := s.opts.PrivilegedLearners[learnerID]
	return s.sessions.GetOrCreate(learnerID, displayName, privileged)
}

// AvailableLectures lists lectures that can be practiced (at least one
// question published).
func (s *PracticeService) AvailableLectures(ctx context.Context) ([]domain.Lecture, error) {
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBankUnavailable, err)
	}
	return bank.AvailableLectures(), nil
}

// Configure records the chosen lectures for a learner in setup.
func (s *PracticeService) Configure(learnerID string, lectures []int) error {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.configure(lectures)
}

// Start materializes the question pool and moves the session into playing.
// The pool is biased toward questions the learner has not yet mastered.
func (s *PracticeService) Start(ctx context.Context, learnerID string) ([]domain.Question, error) {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBankUnavailable, err)
	}

	record, err := s.mastery.Get(ctx, learnerID)
	if err != nil {
		// A missing or unreadable record selects as if nothing were mastered.
		record = domain.NewMasteryRecord(learnerID)
	}

	session.mu.Lock()
	lectures := append([]int(nil), session.lectures...)
	session.mu.Unlock()

	s.rndMu.Lock()
	pool, err := engine.SelectPool(bank, record.MasteredIDs, lectures, s.opts.PoolSize, s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := session.begin(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// View navigates the learner to a question.
func (s *PracticeService) View(learnerID, questionID string) error {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.view(questionID)
}

// Answer records the learner's option for a question, overwriting any
// previous answer.
func (s *PracticeService) Answer(learnerID, questionID, option string) error {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.answer(questionID, option)
}

// Finish grades the attempt, updates mastery (best effort, non-privileged
// learners only), and appends the attempt record. A non-nil claim is
// re-validated against the recomputed scores and rejected on mismatch before
// anything is persisted. A mastery-persistence failure never invalidates the
// graded attempt; it is surfaced via MasteryPersisted=false.
func (s *PracticeService) Finish(ctx context.Context, learnerID string, claim *ScoreClaim) (FinishResult, error) {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return FinishResult{}, domain.ErrSessionNotFound
	}

	questions, answers, seconds, lectures, total, err := session.finishInputs()
	if err != nil {
		return FinishResult{}, err
	}

	breakdown, err := engine.Grade(questions, answers, seconds, len(lectures))
	if err != nil {
		return FinishResult{}, err
	}
	if claim != nil {
		if err := engine.VerifyClaim(breakdown, claim.SimpleScore, claim.DynamicScore, s.opts.ScoreTolerance); err != nil {
			return FinishResult{}, err
		}
	}

	now := s.now()
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	attempt := domain.Attempt{
		ID:           fmt.Sprintf("%s-%d", learnerID, now.UnixNano()),
		LearnerID:    learnerID,
		DisplayName:  session.displayName,
		Privileged:   session.privileged,
		QuestionIDs:  ids,
		Lectures:     lectures,
		TotalSeconds: total,
		Breakdown:    breakdown,
		SubmittedAt:  now,
	}

	result := FinishResult{Attempt: attempt, MasteryPersisted: true}

	if !session.privileged {
		update, persisted := s.applyMastery(ctx, learnerID, breakdown.Results, now)
		result.Mastery = update
		result.MasteryPersisted = persisted
	}

	if err := s.attempts.Append(ctx, attempt); err != nil {
		return FinishResult{}, fmt.Errorf("store attempt: %w", err)
	}
	return result, nil
}

// applyMastery reads the freshest record, folds in the attempt, and merges
// the delta back. Failures are logged and reported, never fatal: the graded
// attempt stands.
func (s *PracticeService) applyMastery(ctx context.Context, learnerID string, results []domain.QuestionResult, now time.Time) (domain.MasteryUpdate, bool) {
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		log.Printf("mastery update skipped for %s: %v", learnerID, err)
		return domain.MasteryUpdate{}, false
	}
	record, err := s.mastery.Get(ctx, learnerID)
	if err != nil {
		record = domain.NewMasteryRecord(learnerID)
	}
	_, delta, update := engine.ApplyAttempt(record, results, bank, now)
	if err := s.mastery.Merge(ctx, learnerID, delta); err != nil {
		log.Printf("mastery merge failed for %s: %v", learnerID, err)
		return update, false
	}
	return update, true
}

// Pool returns the session's materialized question pool.
func (s *PracticeService) Pool(learnerID string) ([]domain.Question, error) {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Pool(), nil
}

// ShowLeaderboard transitions the session and returns both ranking views.
func (s *PracticeService) ShowLeaderboard(ctx context.Context, learnerID string) (domain.Leaderboards, error) {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return domain.Leaderboards{}, domain.ErrSessionNotFound
	}
	if err := session.showLeaderboard(); err != nil {
		return domain.Leaderboards{}, err
	}
	return s.Leaderboards(ctx)
}

// Leaderboards aggregates the stored attempt history on demand. The read is
// a snapshot; brief staleness is acceptable.
func (s *PracticeService) Leaderboards(ctx context.Context) (domain.Leaderboards, error) {
	history, err := s.attempts.All(ctx)
	if err != nil {
		return domain.Leaderboards{}, fmt.Errorf("load attempts: %w", err)
	}
	singular, cumulative := engine.Aggregate(history)
	return domain.Leaderboards{
		Singular:   singular,
		Cumulative: cumulative,
		UpdatedAt:  s.now(),
	}, nil
}

// Reset returns a session to setup for a fresh attempt.
func (s *PracticeService) Reset(learnerID string) error {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.reset()
}

// Mastery exposes the learner's current mastery record.
func (s *PracticeService) Mastery(ctx context.Context, learnerID string) (domain.MasteryRecord, error) {
	return s.mastery.Get(ctx, learnerID)
}

// Leave drops the learner's session.
func (s *PracticeService) Leave(learnerID string) {
	s.sessions.Delete(learnerID)
}
