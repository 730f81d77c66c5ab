package domain

import "errors"

var (
	// ErrNoQuestionsAvailable is returned when the chosen lectures hold no
	// questions to select from.
	ErrNoQuestionsAvailable = errors.New("no questions available for the chosen lectures")
	// ErrInvalidAttempt indicates malformed grading input (length mismatch,
	// negative time, or a pool-size violation).
	ErrInvalidAttempt = errors.New("invalid attempt")
	// ErrScoreMismatch indicates a caller-supplied score disagrees with the
	// server-side recomputation beyond tolerance.
	ErrScoreMismatch = errors.New("submitted score does not match recomputation")
	// ErrMasteryPersistence marks a best-effort mastery write that failed;
	// the graded attempt stands regardless.
	ErrMasteryPersistence = errors.New("mastery record could not be persisted")
	// ErrSessionNotFound is returned when a learner acts before a session exists.
	ErrSessionNotFound = errors.New("practice session not found")
	// ErrInvalidTransition is returned for a session action not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrBankUnavailable indicates the question bank could not be loaded.
	ErrBankUnavailable = errors.New("question bank unavailable")
	// ErrQuestionNotFound indicates a submitted question id is not in the pool.
	ErrQuestionNotFound = errors.New("question not in pool")
	// ErrNoLecturesSelected is returned when starting an attempt with no lectures.
	ErrNoLecturesSelected = errors.New("no lectures selected")
)
