package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// WorkerRepository is the storage side of task processing.
type WorkerRepository interface {
	// ClaimTask atomically locks the next claimable task in queues.
	// It returns ErrNoTaskToClaim when nothing is ready.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	// CompleteTask marks a processing task as completed.
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// FailTask records a failed attempt. The task is rescheduled while
	// retries remain and the returned status is TaskStatusPending;
	// otherwise it is TaskStatusFailed.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) (TaskStatus, error)

	// MoveToDLQ moves a task to the dead letter queue.
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error

	// ExtendLock pushes the lock of a long-running task forward.
	ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error
}

// Worker polls storage for tasks and dispatches them to handlers with
// bounded concurrency. Delivery is at-least-once: a task whose lock expires
// before it completes will be claimed again, so handlers must be idempotent.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	queues   []string
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  atomic.Bool

	pullInterval    time.Duration
	lockTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewWorker creates a worker.
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		queues:             []string{DefaultQueueName},
		pullInterval:       5 * time.Second,
		lockTimeout:        5 * time.Minute,
		shutdownTimeout:    30 * time.Second,
		maxConcurrentTasks: 1,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	workerID := uuid.New()

	return &Worker{
		repo:            repo,
		handlers:        make(map[string]Handler),
		queues:          options.queues,
		workerID:        workerID,
		sem:             make(chan struct{}, options.maxConcurrentTasks),
		pullInterval:    options.pullInterval,
		lockTimeout:     options.lockTimeout,
		shutdownTimeout: options.shutdownTimeout,
		logger:          options.logger.With(logger.Component("queue"), slog.String("worker_id", workerID.String())),
	}, nil
}

// RegisterHandlers registers task handlers. Names must be unique.
func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range handlers {
		if h == nil {
			return ErrHandlerNil
		}
		if _, exists := w.handlers[h.Name()]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.Name())
		}
		w.handlers[h.Name()] = h
	}
	return nil
}

// Run polls until ctx is cancelled, then waits for in-flight tasks up to
// the shutdown timeout. It fits errgroup.Group.Go directly.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.RLock()
	handlers := len(w.handlers)
	w.mu.RUnlock()
	if handlers == 0 {
		return ErrNoHandlers
	}

	if !w.running.CompareAndSwap(false, true) {
		return ErrWorkerRunning
	}
	defer w.running.Store(false)

	log := w.logger
	log.InfoContext(ctx, "worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", cap(w.sem)))

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	w.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "worker stopping, waiting for active tasks")
			if err := w.wait(); err != nil {
				log.ErrorContext(ctx, "worker stopped with tasks in flight", logger.Error(err))
				return err
			}
			log.InfoContext(ctx, "worker stopped")
			return nil
		case <-ticker.C:
			w.dispatch(ctx)
		}
	}
}

func (w *Worker) wait() error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.shutdownTimeout):
		return ErrShutdownTimeout
	}
}

// dispatch claims tasks while there are free slots and ready tasks.
func (w *Worker) dispatch(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.sem <- struct{}{}:
		default:
			w.logger.DebugContext(ctx, "all worker slots busy")
			return
		}

		task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
		if err != nil || task == nil {
			<-w.sem
			if err != nil && !errors.Is(err, ErrNoTaskToClaim) && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "failed to claim task", logger.Error(err))
			}
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			// Storage updates must land even when shutdown cancelled ctx.
			w.process(context.WithoutCancel(ctx), task)
		}()
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	log := w.logger.With(
		logger.TaskID(task.ID.String()),
		slog.String("task_name", task.TaskName),
		logger.Queue(task.Queue),
		logger.RetryCount(int(task.RetryCount)),
	)
	start := time.Now()

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		// Retrying cannot help until a handler is deployed.
		log.ErrorContext(ctx, "no handler registered for task")
		if _, err := w.repo.FailTask(ctx, task.ID, ErrHandlerNotFound.Error()+": "+task.TaskName); err != nil {
			log.ErrorContext(ctx, "failed to record task failure", logger.Error(err))
			return
		}
		w.moveToDLQ(ctx, log, task)
		return
	}

	err := w.execute(ctx, handler, task)
	duration := time.Since(start)

	if err == nil {
		if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
			log.ErrorContext(ctx, "failed to mark task completed", logger.Error(err))
			return
		}
		log.InfoContext(ctx, "task completed", logger.Duration(duration))
		return
	}

	log.ErrorContext(ctx, "task failed", logger.Duration(duration), logger.Error(err))

	status, ferr := w.repo.FailTask(ctx, task.ID, err.Error())
	if ferr != nil {
		log.ErrorContext(ctx, "failed to record task failure", logger.Error(ferr))
		return
	}
	if status == TaskStatusFailed {
		w.moveToDLQ(ctx, log, task)
	}
}

// execute runs the handler with a deadline matching the task lock and turns
// panics into errors.
func (w *Worker) execute(ctx context.Context, handler Handler, task *Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()

	return handler.Handle(ctx, task.Payload)
}

func (w *Worker) moveToDLQ(ctx context.Context, log *slog.Logger, task *Task) {
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		log.ErrorContext(ctx, "failed to move task to dead letter queue", logger.Error(err))
		return
	}
	log.WarnContext(ctx, "task moved to dead letter queue")
}

// ExtendLock extends the lock of a long-running task.
func (w *Worker) ExtendLock(ctx context.Context, taskID uuid.UUID, extension time.Duration) error {
	return w.repo.ExtendLock(ctx, taskID, extension)
}

// ID returns the worker id recorded in task locks.
func (w *Worker) ID() uuid.UUID {
	return w.workerID
}
