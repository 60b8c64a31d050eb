package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil storage is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload.
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when the payload cannot be encoded as JSON.
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrPayloadUnmarshal is returned by handlers when the stored payload does not decode.
	ErrPayloadUnmarshal = errors.New("failed to unmarshal task payload")

	// ErrTaskCreate is returned when task creation in storage fails.
	ErrTaskCreate = errors.New("failed to create task in storage")

	// ErrInvalidPriority is returned when priority is outside the valid range.
	ErrInvalidPriority = errors.New("priority must be between 0 and 100")

	// ErrHandlerNotFound is returned when no handler is registered for a task.
	ErrHandlerNotFound = errors.New("no handler registered for task type")

	// ErrHandlerNil is returned when registering a nil handler.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrDuplicateHandler is returned when two handlers share a task name.
	ErrDuplicateHandler = errors.New("handler already registered for task type")

	// ErrNoHandlers is returned when a worker runs without handlers.
	ErrNoHandlers = errors.New("no task handlers registered")

	// ErrWorkerRunning is returned when Run is called on a running worker.
	ErrWorkerRunning = errors.New("worker is already running")

	// ErrShutdownTimeout is returned when in-flight tasks outlive the shutdown timeout.
	ErrShutdownTimeout = errors.New("worker shutdown timed out")

	// ErrNoTaskToClaim is returned by storages when no task is available.
	ErrNoTaskToClaim = errors.New("no task available to claim")

	// ErrTaskNotFound is returned for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotProcessing is returned when completing or failing a task the worker does not hold.
	ErrTaskNotProcessing = errors.New("task is not in processing state")

	// ErrDuplicateTask is returned when a task id already exists.
	ErrDuplicateTask = errors.New("task already exists")
)
