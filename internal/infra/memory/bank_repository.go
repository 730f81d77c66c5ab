package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"prep-quiz-service/internal/domain"
)

// BankLoader fetches the question-bank snapshot from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Lecture, error)
}

// BankRepository caches the bank snapshot with TTL so repeated selections do
// not hit the backing store. In-flight playing sessions keep their copied
// pools, so a refresh here never disturbs a running attempt.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	bank      domain.QuestionBank
	loaded    bool
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context) (domain.QuestionBank, error) {
	now := r.clock()

	r.mu.RLock()
	if r.loaded && r.expiresAt.After(now) {
		bank := r.bank
		r.mu.RUnlock()
		return bank, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.loaded && r.expiresAt.After(now) {
			bank := r.bank
			r.mu.RUnlock()
			return bank, nil
		}
		r.mu.RUnlock()

		lectures, err := r.loader.LoadBank(ctx)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		bank := domain.NewQuestionBank(lectures)

		r.mu.Lock()
		r.bank = bank
		r.loaded = true
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves a fixed lecture set (useful for tests/demos).
type StaticBankLoader struct {
	lectures []domain.Lecture
}

func NewStaticBankLoader(lectures []domain.Lecture) *StaticBankLoader {
	return &StaticBankLoader{lectures: lectures}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.Lecture, error) {
	return l.lectures, nil
}
