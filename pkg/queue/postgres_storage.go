package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements EnqueuerRepository and WorkerRepository on the
// queue_tasks and queue_dead_letters tables. Claims use
// FOR UPDATE SKIP LOCKED so any number of workers can share the tables.
type PostgresStorage struct {
	pool    *pgxpool.Pool
	backoff time.Duration
}

// NewPostgresStorage creates a storage. A non-positive backoff selects DefaultRetryBackoff.
func NewPostgresStorage(pool *pgxpool.Pool, backoff time.Duration) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &PostgresStorage{pool: pool, backoff: backoff}, nil
}

const (
	taskColumns = `id, queue, task_name, payload, status, priority, retry_count, max_retries,
	scheduled_at, locked_until, locked_by, processed_at, error, created_at`

	// claimedColumns qualifies taskColumns for the UPDATE ... FROM in ClaimTask.
	claimedColumns = `t.id, t.queue, t.task_name, t.payload, t.status, t.priority, t.retry_count, t.max_retries,
	t.scheduled_at, t.locked_until, t.locked_by, t.processed_at, t.error, t.created_at`
)

// CreateTask implements EnqueuerRepository.
func (s *PostgresStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	status := task.Status
	if status == "" {
		status = TaskStatusPending
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO queue_tasks (id, queue, task_name, payload, status, priority, retry_count, max_retries, scheduled_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.Queue, task.TaskName, task.Payload, string(status),
		int16(task.Priority), int16(task.RetryCount), int16(task.MaxRetries),
		task.ScheduledAt, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ClaimTask implements WorkerRepository. Expired locks are reclaimed here.
func (s *PostgresStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	rows, err := s.pool.Query(ctx, `
WITH next AS (
	SELECT id FROM queue_tasks
	WHERE queue = ANY($1)
	  AND scheduled_at <= now()
	  AND (status = 'pending' OR (status = 'processing' AND locked_until < now()))
	ORDER BY priority DESC, scheduled_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
UPDATE queue_tasks t
SET status = 'processing',
    locked_by = $2,
    locked_until = now() + make_interval(secs => $3)
FROM next
WHERE t.id = next.id
RETURNING `+claimedColumns,
		queues, workerID, lockDuration.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}

	task, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTaskToClaim
		}
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

// CompleteTask implements WorkerRepository.
func (s *PostgresStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE queue_tasks
SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
WHERE id = $1 AND status = 'processing'`, taskID)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// FailTask implements WorkerRepository.
func (s *PostgresStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) (TaskStatus, error) {
	var status string
	err := s.pool.QueryRow(ctx, `
UPDATE queue_tasks
SET retry_count = retry_count + 1,
    error = $2,
    locked_until = NULL,
    locked_by = NULL,
    status = CASE WHEN retry_count + 1 > max_retries THEN 'failed' ELSE 'pending' END,
    scheduled_at = CASE
        WHEN retry_count + 1 > max_retries THEN scheduled_at
        ELSE now() + make_interval(secs => $3 * (retry_count + 1))
    END
WHERE id = $1 AND status = 'processing'
RETURNING status`, taskID, errorMsg, s.backoff.Seconds()).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
		}
		return "", fmt.Errorf("fail task: %w", err)
	}
	return TaskStatus(status), nil
}

// MoveToDLQ implements WorkerRepository.
func (s *PostgresStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
WITH moved AS (
	DELETE FROM queue_tasks WHERE id = $1
	RETURNING id, queue, task_name, payload, priority, error, retry_count
)
INSERT INTO queue_dead_letters (id, task_id, queue, task_name, payload, priority, error, retry_count, failed_at)
SELECT $2, id, queue, task_name, payload, priority, coalesce(error, ''), retry_count, now()
FROM moved`, taskID, uuid.New())
	if err != nil {
		return fmt.Errorf("move task to dead letter queue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

// ExtendLock implements WorkerRepository.
func (s *PostgresStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE queue_tasks SET locked_until = now() + make_interval(secs => $2)
WHERE id = $1 AND status = 'processing'`, taskID, duration.Seconds())
	if err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return nil
}

// Task loads a task by id.
func (s *PostgresStorage) Task(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM queue_tasks WHERE id = $1`, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// PurgeCompleted deletes completed tasks processed before olderThan ago.
func (s *PostgresStorage) PurgeCompleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM queue_tasks
WHERE status = 'completed' AND processed_at < now() - make_interval(secs => $1)`, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTask(row pgx.CollectableRow) (*Task, error) {
	var (
		t                                Task
		status                           string
		priority, retryCount, maxRetries int16
	)
	err := row.Scan(&t.ID, &t.Queue, &t.TaskName, &t.Payload, &status, &priority, &retryCount, &maxRetries,
		&t.ScheduledAt, &t.LockedUntil, &t.LockedBy, &t.ProcessedAt, &t.Error, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)
	t.RetryCount = int8(retryCount)
	t.MaxRetries = int8(maxRetries)
	return &t, nil
}
