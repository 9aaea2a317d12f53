package generation

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/domain/usecase/credit"
	"github.com/amirhossein-jamali/imagegen/internal/domain/usecase/history"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/metrics"
	coremocks "github.com/amirhossein-jamali/imagegen/mocks/port/core"
	eventmocks "github.com/amirhossein-jamali/imagegen/mocks/port/event"
	providermocks "github.com/amirhossein-jamali/imagegen/mocks/port/provider"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// memoryStore keeps balances and history in memory and acts as its own unit of work
type memoryStore struct {
	mu          sync.Mutex
	balances    map[string]int64
	generations map[string]*entity.Generation
	failCreate  bool
	lostAck     bool // CreatePending stores the row, then reports an error
	failAdd     bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		balances:    map[string]int64{},
		generations: map[string]*entity.Generation{},
	}
}

func (s *memoryStore) balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

func (s *memoryStore) generation(taskID string) *entity.Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[taskID]
	if !ok {
		return nil
	}
	cp := *gen
	return &cp
}

func (s *memoryStore) Get(_ context.Context, userID string) (int64, error) {
	return s.balance(userID), nil
}

func (s *memoryStore) Initialize(_ context.Context, userID string, n int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.balances[userID]; ok {
		return v, false, nil
	}
	s.balances[userID] = n
	return n, true, nil
}

func (s *memoryStore) Deduct(_ context.Context, userID string, n int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < n {
		return false, nil
	}
	s.balances[userID] -= n
	return true, nil
}

func (s *memoryStore) Add(_ context.Context, userID string, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdd {
		return 0, errs.ErrPersistence
	}
	s.balances[userID] += n
	return s.balances[userID], nil
}

func (s *memoryStore) CreatePending(_ context.Context, gen *entity.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errs.ErrPersistence
	}
	cp := *gen
	s.generations[gen.TaskID] = &cp
	if s.lostAck {
		return errs.ErrPersistence
	}
	return nil
}

func (s *memoryStore) MarkCompleted(_ context.Context, taskID, userID string, urls []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[taskID]
	if !ok || gen.UserID != userID || gen.Status != entity.StatusPending {
		return false, nil
	}
	gen.Status = entity.StatusCompleted
	gen.ImageURLs = append([]string(nil), urls...)
	return true, nil
}

func (s *memoryStore) MarkFailed(_ context.Context, taskID, userID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.generations[taskID]
	if !ok || gen.UserID != userID || gen.Status != entity.StatusPending {
		return false, nil
	}
	gen.Status = entity.StatusFailed
	gen.ImageURLs = []string{}
	gen.FailureReason = reason
	return true, nil
}

func (s *memoryStore) GetByTaskID(_ context.Context, taskID, userID string) (*entity.Generation, error) {
	gen := s.generation(taskID)
	if gen == nil || gen.UserID != userID {
		return nil, errs.ErrGenerationNotFound
	}
	return gen, nil
}

func (s *memoryStore) ListCompleted(_ context.Context, userID string, page entity.PageRequest) ([]*entity.Generation, int64, error) {
	return nil, 0, nil
}

func (s *memoryStore) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]*entity.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Generation
	for _, gen := range s.generations {
		if gen.Status == entity.StatusPending && gen.CreatedAt.Before(olderThan) {
			cp := *gen
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (s *memoryStore) Commit(context.Context) error                       { return nil }
func (s *memoryStore) Rollback(context.Context) error                     { return nil }

func (s *memoryStore) GetCreditRepository(context.Context) persistence.CreditRepository {
	return s
}

func (s *memoryStore) GetGenerationRepository(context.Context) persistence.GenerationRepository {
	return s
}

func (s *memoryStore) seedPending(userID, taskID string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[taskID] = &entity.Generation{
		ID:          "gen-" + taskID,
		UserID:      userID,
		Prompt:      "seeded",
		TaskID:      taskID,
		ImageURLs:   []string{},
		Status:      entity.StatusPending,
		CreditsUsed: 1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func newTestClock(t *testing.T) *coremocks.MockTimeProvider {
	tp := coremocks.NewMockTimeProvider(t)
	tp.On("Now").Return(fixedNow).Maybe()
	tp.On("Since", mock.Anything).Return(time.Second).Maybe()
	tp.On("WithTimeout", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, d)
		},
	).Maybe()
	return tp
}

func newQuietPublisher(t *testing.T) *eventmocks.MockPublisher {
	pub := eventmocks.NewMockPublisher(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return pub
}

func fastPoller(p *providermocks.MockImageProvider, maxAttempts int) *Poller {
	return NewPoller(p, PollerConfig{
		Interval:    time.Millisecond,
		Timeout:     time.Second,
		MaxAttempts: maxAttempts,
	}, metrics.NewNoop(), logger.NewNoopLogger())
}

type testRig struct {
	store     *memoryStore
	provider  *providermocks.MockImageProvider
	finalizer *Finalizer
	orch      *Orchestrator
}

func newTestRig(t *testing.T, maxAttempts int) *testRig {
	store := newMemoryStore()
	imageProvider := providermocks.NewMockImageProvider(t)
	clock := newTestClock(t)
	log := logger.NewNoopLogger()
	noop := metrics.NewNoop()
	pub := newQuietPublisher(t)
	validator := NewRequestValidator(0)

	finalizer := NewFinalizer(store, store, store, pub, noop, clock, log)
	orch := NewOrchestrator(
		credit.NewCreditUseCase(store, 5, noop, log),
		history.NewHistoryUseCase(store, clock, 0, log),
		validator,
		NewGateway(imageProvider, validator, GatewayConfig{}, log),
		fastPoller(imageProvider, maxAttempts),
		finalizer,
		imageProvider,
		pub,
		noop,
		clock,
		log,
	)
	return &testRig{store: store, provider: imageProvider, finalizer: finalizer, orch: orch}
}

func remote(taskID string, status entity.RemoteTaskStatus, urls ...string) *entity.RemoteTask {
	return &entity.RemoteTask{TaskID: taskID, Status: status, ImageURLs: urls}
}
