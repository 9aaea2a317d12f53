package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/imagegen/mocks/port/core"
	"github.com/amirhossein-jamali/imagegen/mocks/port/persistence"
)

func newTimeProvider(t *testing.T) *core.MockTimeProvider {
	tp := core.NewMockTimeProvider(t)
	tp.On("Now").Return(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)).Maybe()
	tp.On("WithTimeout", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, d)
		}).Maybe()
	return tp
}

func TestHistoryUseCase_RecordPending(t *testing.T) {
	t.Run("should persist a pending entry", func(t *testing.T) {
		// Arrange
		repo := persistence.NewMockGenerationRepository(t)
		repo.On("CreatePending", mock.Anything, mock.MatchedBy(func(g *entity.Generation) bool {
			return g.TaskID == "T1" && g.UserID == "user-1" && g.Status == entity.StatusPending && g.ID != ""
		})).Return(nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		// Act
		ok := useCase.RecordPending(context.Background(), "user-1", "a red fox in snow", "T1", 1)

		// Assert
		assert.True(t, ok)
	})

	t.Run("should swallow store failures", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		repo.On("CreatePending", mock.Anything, mock.Anything).Return(errs.ErrPersistence).Once()
		repo.On("GetByTaskID", mock.Anything, "T1", "user-1").Return(nil, errs.ErrGenerationNotFound).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		ok := useCase.RecordPending(context.Background(), "user-1", "prompt", "T1", 1)

		assert.False(t, ok)
	})

	t.Run("should report recorded when the row committed before the write errored", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		repo.On("CreatePending", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()
		repo.On("GetByTaskID", mock.Anything, "T1", "user-1").Return(&entity.Generation{
			TaskID: "T1",
			UserID: "user-1",
			Status: entity.StatusPending,
		}, nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		assert.True(t, useCase.RecordPending(context.Background(), "user-1", "prompt", "T1", 1))
	})

	t.Run("should not claim an entry another actor already finalized", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		repo.On("CreatePending", mock.Anything, mock.Anything).Return(errs.ErrPersistence).Once()
		repo.On("GetByTaskID", mock.Anything, "T1", "user-1").Return(&entity.Generation{
			TaskID: "T1",
			UserID: "user-1",
			Status: entity.StatusFailed,
		}, nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		assert.False(t, useCase.RecordPending(context.Background(), "user-1", "prompt", "T1", 1))
	})

	t.Run("should still write when the caller context is canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		repo := persistence.NewMockGenerationRepository(t)
		repo.On("CreatePending", mock.MatchedBy(func(c context.Context) bool {
			return c.Err() == nil
		}), mock.Anything).Return(nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		assert.True(t, useCase.RecordPending(ctx, "user-1", "prompt", "T1", 1))
	})
}

func TestHistoryUseCase_ListCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("should filter blank URLs and drop empty entries", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		rows := []*entity.Generation{
			{TaskID: "T3", Status: entity.StatusCompleted, ImageURLs: []string{"https://img/3a", "", "https://img/3b"}},
			{TaskID: "T2", Status: entity.StatusCompleted, ImageURLs: []string{" ", ""}},
			{TaskID: "T1", Status: entity.StatusCompleted, ImageURLs: []string{"https://img/1"}},
		}
		repo.On("ListCompleted", ctx, "user-1", entity.PageRequest{Page: 1, PageSize: 20}).Return(rows, int64(3), nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		page, err := useCase.ListCompleted(ctx, "user-1", 0, 0)

		require.NoError(t, err)
		require.Len(t, page.Entries, 2)
		assert.Equal(t, "T3", page.Entries[0].TaskID)
		assert.Equal(t, []string{"https://img/3a", "https://img/3b"}, page.Entries[0].ImageURLs)
		assert.Equal(t, "T1", page.Entries[1].TaskID)
		assert.Equal(t, 1, page.Pagination.TotalPages)
	})

	t.Run("should compute total pages", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		rows := make([]*entity.Generation, 5)
		for i := range rows {
			rows[i] = &entity.Generation{TaskID: "T", Status: entity.StatusCompleted, ImageURLs: []string{"https://img"}}
		}
		repo.On("ListCompleted", ctx, "user-1", entity.PageRequest{Page: 2, PageSize: 20}).Return(rows, int64(25), nil).Once()
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		page, err := useCase.ListCompleted(ctx, "user-1", 2, 20)

		require.NoError(t, err)
		assert.Len(t, page.Entries, 5)
		assert.Equal(t, int64(25), page.Pagination.Total)
		assert.Equal(t, 2, page.Pagination.TotalPages)
	})

	t.Run("should reject missing identity and bad page sizes", func(t *testing.T) {
		repo := persistence.NewMockGenerationRepository(t)
		useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

		_, err := useCase.ListCompleted(ctx, "", 1, 20)
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)

		_, err = useCase.ListCompleted(ctx, "user-1", 1, 500)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestHistoryUseCase_Find(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewMockGenerationRepository(t)
	repo.On("GetByTaskID", ctx, "T9", "user-1").Return(nil, errs.ErrGenerationNotFound).Once()
	useCase := NewHistoryUseCase(repo, newTimeProvider(t), time.Second, logger.NewNoopLogger())

	_, err := useCase.Find(ctx, "user-1", "T9")

	assert.ErrorIs(t, err, errs.ErrGenerationNotFound)
}
