package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/queue"
)

func newTask(queueName string, priority queue.Priority, maxRetries int8) *queue.Task {
	now := time.Now()
	return &queue.Task{
		ID:          uuid.New(),
		Queue:       queueName,
		TaskName:    "test-task",
		Payload:     []byte(`{"data":"test"}`),
		Status:      queue.TaskStatusPending,
		Priority:    priority,
		MaxRetries:  maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	}
}

func TestMemoryStorage_CreateTask(t *testing.T) {
	t.Parallel()

	storage := queue.NewMemoryStorage()
	task := newTask(queue.DefaultQueueName, queue.PriorityMedium, 3)

	require.NoError(t, storage.CreateTask(context.Background(), task))
	assert.ErrorIs(t, storage.CreateTask(context.Background(), task), queue.ErrDuplicateTask)
	assert.Error(t, storage.CreateTask(context.Background(), nil))

	task.Payload[0] = 'X'
	stored, ok := storage.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, byte('{'), stored.Payload[0])
}

func TestMemoryStorage_ClaimTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	workerID := uuid.New()

	t.Run("empty storage", func(t *testing.T) {
		t.Parallel()

		_, err := queue.NewMemoryStorage().ClaimTask(ctx, workerID, []string{queue.DefaultQueueName}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
	})

	t.Run("priority first then schedule", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		low := newTask("q", queue.PriorityLow, 0)
		highLate := newTask("q", queue.PriorityHigh, 0)
		highEarly := newTask("q", queue.PriorityHigh, 0)
		highEarly.ScheduledAt = highLate.ScheduledAt.Add(-time.Second)

		for _, task := range []*queue.Task{low, highLate, highEarly} {
			require.NoError(t, storage.CreateTask(ctx, task))
		}

		var claimed []uuid.UUID
		for range 3 {
			task, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, queue.TaskStatusProcessing, task.Status)
			assert.Equal(t, workerID, *task.LockedBy)
			claimed = append(claimed, task.ID)
		}
		assert.Equal(t, []uuid.UUID{highEarly.ID, highLate.ID, low.ID}, claimed)

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
	})

	t.Run("respects queues and schedule", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		other := newTask("other", queue.PriorityMedium, 0)
		future := newTask("q", queue.PriorityMedium, 0)
		future.ScheduledAt = time.Now().Add(time.Hour)
		require.NoError(t, storage.CreateTask(ctx, other))
		require.NoError(t, storage.CreateTask(ctx, future))

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

		task, err := storage.ClaimTask(ctx, workerID, []string{"q", "other"}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, other.ID, task.ID)
	})

	t.Run("expired lock is reclaimed", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		task := newTask("q", queue.PriorityMedium, 0)
		require.NoError(t, storage.CreateTask(ctx, task))

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, 10*time.Millisecond)
		require.NoError(t, err)

		_, err = storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

		time.Sleep(20 * time.Millisecond)
		other := uuid.New()
		reclaimed, err := storage.ClaimTask(ctx, other, []string{"q"}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, task.ID, reclaimed.ID)
		assert.Equal(t, other, *reclaimed.LockedBy)
	})
}

func TestMemoryStorage_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	workerID := uuid.New()

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		task := newTask("q", queue.PriorityMedium, 3)
		require.NoError(t, storage.CreateTask(ctx, task))

		assert.ErrorIs(t, storage.CompleteTask(ctx, task.ID), queue.ErrTaskNotProcessing)
		assert.ErrorIs(t, storage.CompleteTask(ctx, uuid.New()), queue.ErrTaskNotFound)

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		require.NoError(t, err)
		require.NoError(t, storage.CompleteTask(ctx, task.ID))

		stored, _ := storage.Task(task.ID)
		assert.Equal(t, queue.TaskStatusCompleted, stored.Status)
		assert.NotNil(t, stored.ProcessedAt)
		assert.Nil(t, stored.LockedBy)
		assert.Equal(t, 1, storage.Count(queue.TaskStatusCompleted))
	})

	t.Run("fail retries then gives up", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage(queue.WithRetryBackoff(0))
		task := newTask("q", queue.PriorityMedium, 1)
		require.NoError(t, storage.CreateTask(ctx, task))

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		require.NoError(t, err)
		status, err := storage.FailTask(ctx, task.ID, "first")
		require.NoError(t, err)
		assert.Equal(t, queue.TaskStatusPending, status)

		_, err = storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		require.NoError(t, err)
		status, err = storage.FailTask(ctx, task.ID, "second")
		require.NoError(t, err)
		assert.Equal(t, queue.TaskStatusFailed, status)

		stored, _ := storage.Task(task.ID)
		assert.Equal(t, int8(2), stored.RetryCount)
		assert.Equal(t, "second", *stored.Error)

		_, err = storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
	})

	t.Run("fail applies backoff", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		task := newTask("q", queue.PriorityMedium, 3)
		require.NoError(t, storage.CreateTask(ctx, task))

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		require.NoError(t, err)
		_, err = storage.FailTask(ctx, task.ID, "boom")
		require.NoError(t, err)

		stored, _ := storage.Task(task.ID)
		assert.True(t, stored.ScheduledAt.After(time.Now().Add(queue.DefaultRetryBackoff-time.Second)))
	})

	t.Run("dead letter queue", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		task := newTask("q", queue.PriorityHigh, 0)
		require.NoError(t, storage.CreateTask(ctx, task))

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		require.NoError(t, err)
		_, err = storage.FailTask(ctx, task.ID, "fatal")
		require.NoError(t, err)
		require.NoError(t, storage.MoveToDLQ(ctx, task.ID))

		_, ok := storage.Task(task.ID)
		assert.False(t, ok)

		dlq := storage.DeadLetters()
		require.Len(t, dlq, 1)
		assert.Equal(t, task.ID, dlq[0].TaskID)
		assert.Equal(t, "fatal", dlq[0].Error)
		assert.Equal(t, queue.PriorityHigh, dlq[0].Priority)
		assert.JSONEq(t, `{"data":"test"}`, string(dlq[0].Payload))

		assert.ErrorIs(t, storage.MoveToDLQ(ctx, task.ID), queue.ErrTaskNotFound)
	})

	t.Run("extend lock", func(t *testing.T) {
		t.Parallel()

		storage := queue.NewMemoryStorage()
		task := newTask("q", queue.PriorityMedium, 0)
		require.NoError(t, storage.CreateTask(ctx, task))
		assert.ErrorIs(t, storage.ExtendLock(ctx, task.ID, time.Hour), queue.ErrTaskNotProcessing)

		_, err := storage.ClaimTask(ctx, workerID, []string{"q"}, 10*time.Millisecond)
		require.NoError(t, err)
		require.NoError(t, storage.ExtendLock(ctx, task.ID, time.Hour))

		time.Sleep(20 * time.Millisecond)
		_, err = storage.ClaimTask(ctx, workerID, []string{"q"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
	})
}

func TestMemoryStorage_Concurrency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := queue.NewMemoryStorage()
	const total = 100
	for range total {
		require.NoError(t, storage.CreateTask(ctx, newTask("q", queue.PriorityMedium, 0)))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := storage.ClaimTask(ctx, uuid.New(), []string{"q"}, time.Minute)
				if err != nil {
					return
				}
				mu.Lock()
				claimed[task.ID]++
				mu.Unlock()
				_ = storage.CompleteTask(ctx, task.ID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, total)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "task %s claimed more than once", id)
	}
	assert.Equal(t, total, storage.Count(queue.TaskStatusCompleted))
}
