package queue_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/migrations"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
)

func setupPostgresStorage(t *testing.T) *queue.PostgresStorage {
	t.Helper()

	url := os.Getenv("PG_URL")
	if url == "" {
		t.Skip("PG_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{URL: url, RetryAttempts: 1, MigrationsTable: "tenantkit_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.MigrateFS(ctx, pool, migrations.FS, cfg, slog.Default()))

	storage, err := queue.NewPostgresStorage(pool, time.Millisecond)
	require.NoError(t, err)
	return storage
}

func TestNewPostgresStorage(t *testing.T) {
	t.Parallel()

	_, err := queue.NewPostgresStorage(nil, 0)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}

func TestPostgresStorage(t *testing.T) {
	storage := setupPostgresStorage(t)
	ctx := context.Background()
	workerID := uuid.New()

	// A private queue name keeps runs against a shared database apart.
	queueName := "test-" + uuid.NewString()

	enqueuer, err := queue.NewEnqueuer(storage, queue.WithDefaultQueue(queueName))
	require.NoError(t, err)

	t.Run("claim and complete", func(t *testing.T) {
		id, err := enqueuer.Enqueue(ctx, testPayload{Message: "pg"})
		require.NoError(t, err)

		task, err := storage.ClaimTask(ctx, workerID, []string{queueName}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, queue.TaskStatusProcessing, task.Status)
		require.NotNil(t, task.LockedBy)
		assert.Equal(t, workerID, *task.LockedBy)
		assert.JSONEq(t, `{"message":"pg"}`, string(task.Payload))

		_, err = storage.ClaimTask(ctx, workerID, []string{queueName}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)

		require.NoError(t, storage.CompleteTask(ctx, id))
		assert.ErrorIs(t, storage.CompleteTask(ctx, id), queue.ErrTaskNotProcessing)

		stored, err := storage.Task(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, queue.TaskStatusCompleted, stored.Status)
		assert.NotNil(t, stored.ProcessedAt)
	})

	t.Run("retry then dead letter", func(t *testing.T) {
		id, err := enqueuer.Enqueue(ctx, testPayload{}, queue.WithMaxRetries(1))
		require.NoError(t, err)

		_, err = storage.ClaimTask(ctx, workerID, []string{queueName}, time.Minute)
		require.NoError(t, err)
		status, err := storage.FailTask(ctx, id, "first")
		require.NoError(t, err)
		assert.Equal(t, queue.TaskStatusPending, status)

		time.Sleep(10 * time.Millisecond)
		_, err = storage.ClaimTask(ctx, workerID, []string{queueName}, time.Minute)
		require.NoError(t, err)
		status, err = storage.FailTask(ctx, id, "second")
		require.NoError(t, err)
		assert.Equal(t, queue.TaskStatusFailed, status)

		require.NoError(t, storage.MoveToDLQ(ctx, id))
		_, err = storage.Task(ctx, id)
		assert.ErrorIs(t, err, queue.ErrTaskNotFound)
		assert.ErrorIs(t, storage.MoveToDLQ(ctx, id), queue.ErrTaskNotFound)
	})

	t.Run("expired lock is reclaimed", func(t *testing.T) {
		id, err := enqueuer.Enqueue(ctx, testPayload{})
		require.NoError(t, err)

		_, err = storage.ClaimTask(ctx, workerID, []string{queueName}, 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		task, err := storage.ClaimTask(ctx, uuid.New(), []string{queueName}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)

		require.NoError(t, storage.ExtendLock(ctx, id, time.Hour))
		require.NoError(t, storage.CompleteTask(ctx, id))

		purged, err := storage.PurgeCompleted(ctx, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, purged, int64(1))
	})
}
