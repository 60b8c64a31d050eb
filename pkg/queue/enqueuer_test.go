package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/queue"
)

type mockEnqueuerRepo struct {
	mu         sync.Mutex
	createFunc func(ctx context.Context, task *queue.Task) error
	tasks      []*queue.Task
}

func (m *mockEnqueuerRepo) CreateTask(ctx context.Context, task *queue.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockEnqueuerRepo) last(t *testing.T) *queue.Task {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.tasks)
	return m.tasks[len(m.tasks)-1]
}

type enqueueTestPayload struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

type unmarshalablePayload struct {
	Ch chan int
}

func TestEnqueuer_NewEnqueuer(t *testing.T) {
	t.Parallel()

	enqueuer, err := queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
	assert.Nil(t, enqueuer)

	enqueuer, err = queue.NewEnqueuer(&mockEnqueuerRepo{},
		queue.WithDefaultQueue("custom"),
		queue.WithDefaultPriority(queue.PriorityHigh),
		queue.WithDefaultMaxRetries(5),
	)
	require.NoError(t, err)
	require.NotNil(t, enqueuer)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		before := time.Now()
		id, err := enqueuer.Enqueue(context.Background(), enqueueTestPayload{Message: "hi", Value: 1})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		task := repo.last(t)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, queue.DefaultQueueName, task.Queue)
		assert.Equal(t, "queue_test.enqueueTestPayload", task.TaskName)
		assert.Equal(t, queue.TaskStatusPending, task.Status)
		assert.Equal(t, queue.PriorityDefault, task.Priority)
		assert.Equal(t, int8(3), task.MaxRetries)
		assert.Equal(t, int8(0), task.RetryCount)
		assert.False(t, task.ScheduledAt.Before(before))
		assert.JSONEq(t, `{"message":"hi","value":1}`, string(task.Payload))
	})

	t.Run("enqueuer defaults", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo,
			queue.WithDefaultQueue("custom"),
			queue.WithDefaultPriority(queue.PriorityHigh),
			queue.WithDefaultMaxRetries(5),
		)
		require.NoError(t, err)

		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{})
		require.NoError(t, err)

		task := repo.last(t)
		assert.Equal(t, "custom", task.Queue)
		assert.Equal(t, queue.PriorityHigh, task.Priority)
		assert.Equal(t, int8(5), task.MaxRetries)
	})

	t.Run("per call options", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{},
			queue.WithQueue("billing"),
			queue.WithPriority(queue.PriorityMax),
			queue.WithMaxRetries(0),
			queue.WithTaskName("billing.sync"),
			queue.WithDelay(time.Hour),
		)
		require.NoError(t, err)

		task := repo.last(t)
		assert.Equal(t, "billing", task.Queue)
		assert.Equal(t, queue.PriorityMax, task.Priority)
		assert.Equal(t, int8(0), task.MaxRetries)
		assert.Equal(t, "billing.sync", task.TaskName)
		assert.True(t, task.ScheduledAt.After(time.Now().Add(59*time.Minute)))
	})

	t.Run("scheduled at wins over delay", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{},
			queue.WithDelay(time.Minute),
			queue.WithScheduledAt(at),
		)
		require.NoError(t, err)
		assert.True(t, repo.last(t).ScheduledAt.Equal(at))
	})

	t.Run("out of range retries are ignored", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{}, queue.WithMaxRetries(11))
		require.NoError(t, err)
		assert.Equal(t, int8(3), repo.last(t).MaxRetries)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		storageErr := errors.New("disk full")
		repo := &mockEnqueuerRepo{createFunc: func(context.Context, *queue.Task) error { return storageErr }}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		_, err = enqueuer.Enqueue(context.Background(), nil)
		assert.ErrorIs(t, err, queue.ErrPayloadNil)

		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{}, queue.WithPriority(101))
		assert.ErrorIs(t, err, queue.ErrInvalidPriority)

		_, err = enqueuer.Enqueue(context.Background(), unmarshalablePayload{Ch: make(chan int)})
		assert.ErrorIs(t, err, queue.ErrPayloadMarshal)

		_, err = enqueuer.Enqueue(context.Background(), enqueueTestPayload{})
		assert.ErrorIs(t, err, queue.ErrTaskCreate)
		assert.ErrorIs(t, err, storageErr)
	})

	t.Run("pointer payload uses the element type name", func(t *testing.T) {
		t.Parallel()

		repo := &mockEnqueuerRepo{}
		enqueuer, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		_, err = enqueuer.Enqueue(context.Background(), &enqueueTestPayload{Message: "p"})
		require.NoError(t, err)

		task := repo.last(t)
		assert.Equal(t, "queue_test.enqueueTestPayload", task.TaskName)

		var decoded enqueueTestPayload
		require.NoError(t, json.Unmarshal(task.Payload, &decoded))
		assert.Equal(t, "p", decoded.Message)
	})
}
