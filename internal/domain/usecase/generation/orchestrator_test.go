package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
)

var foxURLs = []string{
	"https://img.example/1.png",
	"https://img.example/2.png",
	"https://img.example/3.png",
	"https://img.example/4.png",
}

func TestOrchestrator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("should consume one credit and complete history on success", func(t *testing.T) {
		// Arrange
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 5
		rig.provider.On("CreateTask", mock.Anything, provider.CreateTaskRequest{
			Prompt:    "a red fox in snow",
			BatchSize: 4,
			Size:      "1024*1024",
		}).Return("T1", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T1").Return(remote("T1", entity.RemoteStatusPending), nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T1").Return(remote("T1", entity.RemoteStatusRunning), nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T1").Return(remote("T1", entity.RemoteStatusSucceeded, foxURLs...), nil).Once()

		// Act
		result, err := rig.orch.Generate(ctx, "user-1", "  a red fox in snow ")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "T1", result.TaskID)
		assert.Equal(t, foxURLs, result.ImageURLs)
		assert.Equal(t, int64(4), rig.store.balance("user-1"))

		gen := rig.store.generation("T1")
		require.NotNil(t, gen)
		assert.Equal(t, entity.StatusCompleted, gen.Status)
		assert.Equal(t, foxURLs, gen.ImageURLs)
		assert.Equal(t, "a red fox in snow", gen.Prompt)
	})

	t.Run("should refund and fail history when the task fails", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 5
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T2", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T2").Return(remote("T2", entity.RemoteStatusPending), nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T2").Return(&entity.RemoteTask{
			TaskID:  "T2",
			Status:  entity.RemoteStatusFailed,
			Code:    "DataInspectionFailed",
			Message: "input data may contain inappropriate content",
		}, nil).Once()

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrGenerationFailed)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
		gen := rig.store.generation("T2")
		require.NotNil(t, gen)
		assert.Equal(t, entity.StatusFailed, gen.Status)
		assert.Empty(t, gen.ImageURLs)
	})

	t.Run("should reject without a provider call when balance is zero", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 0

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)
		assert.Equal(t, int64(0), rig.store.balance("user-1"))
		assert.Empty(t, rig.store.generations)
		rig.provider.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
	})

	t.Run("should leave the balance unchanged when submission fails upstream", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 3
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).
			Return("", errs.NewUpstreamError("create task", 500, "InternalError", "boom")).Once()

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		var upstream *errs.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, 500, upstream.StatusCode)
		assert.Equal(t, int64(3), rig.store.balance("user-1"))
		assert.Empty(t, rig.store.generations)
	})

	t.Run("should reject an empty prompt before touching credits", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 3

		_, err := rig.orch.Generate(ctx, "user-1", "   ")

		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		assert.Equal(t, int64(3), rig.store.balance("user-1"))
	})

	t.Run("should reject a missing identity", func(t *testing.T) {
		rig := newTestRig(t, 10)

		_, err := rig.orch.Generate(ctx, "", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("should surface a persistence error when the refund fails", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 1
		rig.store.failAdd = true
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).
			Return("", errs.NewUpstreamError("create task", 400, "InvalidParameter", "bad")).Once()

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrPersistence)
		assert.Equal(t, int64(0), rig.store.balance("user-1"))
	})
}

func TestOrchestrator_Await(t *testing.T) {
	ctx := context.Background()

	t.Run("should leave a recorded entry pending on timeout", func(t *testing.T) {
		rig := newTestRig(t, 2)
		rig.store.balances["user-1"] = 5
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T3", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T3").Return(remote("T3", entity.RemoteStatusRunning), nil).Times(2)

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrTimeout)
		assert.Equal(t, int64(4), rig.store.balance("user-1"))
		assert.Equal(t, entity.StatusPending, rig.store.generation("T3").Status)
	})

	t.Run("should refund immediately on timeout when no entry was recorded", func(t *testing.T) {
		rig := newTestRig(t, 2)
		rig.store.balances["user-1"] = 5
		rig.store.failCreate = true
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T4", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T4").Return(remote("T4", entity.RemoteStatusPending), nil).Times(2)

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrTimeout)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
	})

	t.Run("should still return images when the history write failed", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 5
		rig.store.failCreate = true
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T5", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T5").Return(remote("T5", entity.RemoteStatusSucceeded, foxURLs...), nil).Once()

		result, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		require.NoError(t, err)
		assert.Len(t, result.ImageURLs, 4)
		assert.Equal(t, int64(4), rig.store.balance("user-1"))
		assert.Nil(t, rig.store.generation("T5"))
	})

	t.Run("should not refund twice when another actor already failed the task", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 4
		rig.store.seedPending("user-1", "T6", fixedNow)
		rig.provider.On("GetTask", mock.Anything, "T6").Return(remote("T6", entity.RemoteStatusFailed), nil)

		refunded, err := rig.finalizer.Fail(ctx, FailRequest{UserID: "user-1", TaskID: "T6", Credits: 1, Recorded: true})
		require.NoError(t, err)
		require.True(t, refunded)

		_, err = rig.orch.Await(ctx, &usecase.Submission{UserID: "user-1", TaskID: "T6", Credits: 1, Recorded: true})

		assert.ErrorIs(t, err, errs.ErrGenerationFailed)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
	})
}

func TestOrchestrator_LostPendingAck(t *testing.T) {
	ctx := context.Background()

	t.Run("should refund a failed task once when the pending write reported an error", func(t *testing.T) {
		// Arrange
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 5
		rig.store.lostAck = true
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T7", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T7").Return(remote("T7", entity.RemoteStatusFailed), nil).Once()

		// Act
		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")
		report, reconcileErr := newTestReconciler(t, rig.store, rig.provider).RunOnce(ctx)

		// Assert
		assert.ErrorIs(t, err, errs.ErrGenerationFailed)
		require.NoError(t, reconcileErr)
		assert.Equal(t, 0, report.Scanned)
		assert.Equal(t, entity.StatusFailed, rig.store.generation("T7").Status)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
	})

	t.Run("should leave a timed out task for the reconciler when the pending write reported an error", func(t *testing.T) {
		rig := newTestRig(t, 2)
		rig.store.balances["user-1"] = 5
		rig.store.lostAck = true
		rig.provider.On("CreateTask", mock.Anything, mock.Anything).Return("T8", nil).Once()
		rig.provider.On("GetTask", mock.Anything, "T8").Return(remote("T8", entity.RemoteStatusRunning), nil).Times(2)

		_, err := rig.orch.Generate(ctx, "user-1", "a red fox in snow")

		assert.ErrorIs(t, err, errs.ErrTimeout)
		assert.Equal(t, entity.StatusPending, rig.store.generation("T8").Status)
		assert.Equal(t, int64(4), rig.store.balance("user-1"))

		// Age the entry past the stale threshold, then let the task fail remotely
		rig.store.mu.Lock()
		rig.store.generations["T8"].CreatedAt = fixedNow.Add(-time.Hour)
		rig.store.mu.Unlock()
		rig.provider.On("GetTask", mock.Anything, "T8").Return(remote("T8", entity.RemoteStatusFailed), nil).Once()

		report, err := newTestReconciler(t, rig.store, rig.provider).RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
	})

	t.Run("should fail a committed entry instead of refunding beside it", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 4
		rig.store.seedPending("user-1", "T9", fixedNow.Add(-time.Hour))
		rig.provider.On("GetTask", mock.Anything, "T9").Return(remote("T9", entity.RemoteStatusFailed), nil).Once()

		_, err := rig.orch.Await(ctx, &usecase.Submission{UserID: "user-1", TaskID: "T9", Credits: 1, Recorded: false})
		report, reconcileErr := newTestReconciler(t, rig.store, rig.provider).RunOnce(ctx)

		assert.ErrorIs(t, err, errs.ErrGenerationFailed)
		require.NoError(t, reconcileErr)
		assert.Equal(t, 0, report.Scanned)
		assert.Equal(t, entity.StatusFailed, rig.store.generation("T9").Status)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
	})
}

func TestOrchestrator_TaskStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("should answer from history for a finished entry", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.seedPending("user-1", "T1", fixedNow)
		_, err := rig.store.MarkCompleted(ctx, "T1", "user-1", foxURLs)
		require.NoError(t, err)

		status, err := rig.orch.TaskStatus(ctx, "user-1", "T1")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, status.Status)
		assert.Equal(t, entity.RemoteStatusSucceeded, status.Remote)
		assert.Equal(t, foxURLs, status.ImageURLs)
		rig.provider.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
	})

	t.Run("should complete the pending entry when the task succeeded", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 4
		rig.store.seedPending("user-1", "T2", fixedNow)
		rig.provider.On("GetTask", mock.Anything, "T2").Return(remote("T2", entity.RemoteStatusSucceeded, foxURLs...), nil).Once()

		status, err := rig.orch.TaskStatus(ctx, "user-1", "T2")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, status.Status)
		assert.Equal(t, entity.StatusCompleted, rig.store.generation("T2").Status)
		assert.Equal(t, int64(4), rig.store.balance("user-1"))
	})

	t.Run("should refund the pending entry when the task failed", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["user-1"] = 4
		rig.store.seedPending("user-1", "T3", fixedNow)
		rig.provider.On("GetTask", mock.Anything, "T3").Return(&entity.RemoteTask{
			TaskID:  "T3",
			Status:  entity.RemoteStatusFailed,
			Message: "content rejected",
		}, nil).Once()

		status, err := rig.orch.TaskStatus(ctx, "user-1", "T3")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, status.Status)
		assert.Equal(t, "content rejected", status.Message)
		assert.Equal(t, int64(5), rig.store.balance("user-1"))
		assert.Equal(t, entity.StatusFailed, rig.store.generation("T3").Status)
	})

	t.Run("should not finalize another user's entry", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.store.balances["owner"] = 4
		rig.store.seedPending("owner", "T4", fixedNow)
		rig.provider.On("GetTask", mock.Anything, "T4").Return(remote("T4", entity.RemoteStatusFailed), nil).Once()

		status, err := rig.orch.TaskStatus(ctx, "intruder", "T4")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, status.Status)
		assert.Equal(t, entity.StatusPending, rig.store.generation("T4").Status)
		assert.Equal(t, int64(4), rig.store.balance("owner"))
	})

	t.Run("should pass through an in-progress task", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.provider.On("GetTask", mock.Anything, "T5").Return(remote("T5", entity.RemoteStatusRunning), nil).Once()

		status, err := rig.orch.TaskStatus(ctx, "user-1", "T5")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, status.Status)
		assert.Equal(t, entity.RemoteStatusRunning, status.Remote)
		assert.Empty(t, status.ImageURLs)
	})

	t.Run("should reject an empty task id", func(t *testing.T) {
		rig := newTestRig(t, 10)

		_, err := rig.orch.TaskStatus(ctx, "user-1", " ")

		assert.ErrorIs(t, err, errs.ErrInvalidTaskID)
	})

	t.Run("should propagate provider errors", func(t *testing.T) {
		rig := newTestRig(t, 10)
		rig.provider.On("GetTask", mock.Anything, "T6").
			Return(nil, errs.NewUpstreamError("query task", 404, "NotFound", "task not found")).Once()

		_, err := rig.orch.TaskStatus(ctx, "user-1", "T6")

		assert.ErrorIs(t, err, errs.ErrUpstream)
	})
}
