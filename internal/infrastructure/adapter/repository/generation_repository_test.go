package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/repository"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newGenerationRepository(t *testing.T) *repository.GenerationRepository {
	t.Helper()
	testDB := database.NewTestDBManager(t, logger.NewNoopLogger())
	return repository.NewGenerationRepository(testDB.Manager.DB(), testDB.TimeProvider, testDB.Logger)
}

func pendingGeneration(i int, userID string, createdAt time.Time) *entity.Generation {
	return &entity.Generation{
		ID:          fmt.Sprintf("gen-%03d", i),
		UserID:      userID,
		Prompt:      fmt.Sprintf("prompt %d", i),
		TaskID:      fmt.Sprintf("task-%03d", i),
		ImageURLs:   []string{},
		Status:      entity.StatusPending,
		CreditsUsed: 1,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestGenerationRepository_CreateAndGet(t *testing.T) {
	repo := newGenerationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(1, "user-1", baseTime)))

	got, err := repo.GetByTaskID(ctx, "task-001", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "gen-001", got.ID)
	assert.Equal(t, "prompt 1", got.Prompt)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Empty(t, got.ImageURLs)
	assert.Equal(t, int64(1), got.CreditsUsed)
	assert.Nil(t, got.FinishedAt)

	_, err = repo.GetByTaskID(ctx, "task-001", "user-2")
	assert.ErrorIs(t, err, errs.ErrGenerationNotFound, "entries are scoped to their owner")

	err = repo.CreatePending(ctx, pendingGeneration(1, "user-1", baseTime))
	assert.ErrorIs(t, err, errs.ErrPersistence, "task ids are unique")
}

func TestGenerationRepository_TransitionsOnlyFromPending(t *testing.T) {
	repo := newGenerationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(1, "user-1", baseTime)))
	urls := []string{"https://img/1.png", "https://img/2.png", "https://img/3.png", "https://img/4.png"}

	ok, err := repo.MarkCompleted(ctx, "task-001", "user-2", urls)
	require.NoError(t, err)
	assert.False(t, ok, "another user's entry must not change")

	ok, err = repo.MarkCompleted(ctx, "task-001", "user-1", urls)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(ctx, "task-001", "user-1", urls)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkFailed(ctx, "task-001", "user-1", "late failure")
	require.NoError(t, err)
	assert.False(t, ok, "completed entries are terminal")

	got, err := repo.GetByTaskID(ctx, "task-001", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.Equal(t, urls, got.ImageURLs)
	assert.NotNil(t, got.FinishedAt)
}

func TestGenerationRepository_MarkFailedClearsImages(t *testing.T) {
	repo := newGenerationRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(1, "user-1", baseTime)))

	ok, err := repo.MarkFailed(ctx, "task-001", "user-1", "DataInspectionFailed")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByTaskID(ctx, "task-001", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, got.Status)
	assert.Empty(t, got.ImageURLs)
	assert.Equal(t, "DataInspectionFailed", got.FailureReason)
}

func TestGenerationRepository_ListCompletedPaginates(t *testing.T) {
	repo := newGenerationRepository(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		require.NoError(t, repo.CreatePending(ctx, pendingGeneration(i, "user-1", baseTime.Add(time.Duration(i)*time.Minute))))
		_, err := repo.MarkCompleted(ctx, fmt.Sprintf("task-%03d", i), "user-1", []string{fmt.Sprintf("https://img/%d.png", i)})
		require.NoError(t, err)
	}
	// Pending, failed and foreign entries stay out of the listing
	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(26, "user-1", baseTime)))
	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(27, "user-1", baseTime)))
	_, err := repo.MarkFailed(ctx, "task-027", "user-1", "failed")
	require.NoError(t, err)
	require.NoError(t, repo.CreatePending(ctx, pendingGeneration(28, "user-2", baseTime)))
	_, err = repo.MarkCompleted(ctx, "task-028", "user-2", []string{"https://img/other.png"})
	require.NoError(t, err)

	first, total, err := repo.ListCompleted(ctx, "user-1", entity.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, first, 20)
	assert.Equal(t, "task-025", first[0].TaskID, "newest first")
	assert.Equal(t, []string{"https://img/25.png"}, first[0].ImageURLs)

	second, total, err := repo.ListCompleted(ctx, "user-1", entity.PageRequest{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, second, 5)
	assert.Equal(t, "task-001", second[4].TaskID)

	empty, total, err := repo.ListCompleted(ctx, "user-3", entity.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, empty)
}

func TestGenerationRepository_ListStalePending(t *testing.T) {
	repo := newGenerationRepository(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.CreatePending(ctx, pendingGeneration(i, "user-1", baseTime.Add(time.Duration(i)*time.Hour))))
	}
	_, err := repo.MarkCompleted(ctx, "task-001", "user-1", []string{"https://img/1.png"})
	require.NoError(t, err)

	stale, err := repo.ListStalePending(ctx, baseTime.Add(150*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "task-002", stale[0].TaskID)

	stale, err = repo.ListStalePending(ctx, baseTime.Add(10*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "task-002", stale[0].TaskID, "oldest first")
}
