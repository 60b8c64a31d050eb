package queue

import "time"

// Config holds the worker and storage settings.
type Config struct {
	Storage            string        `env:"QUEUE_STORAGE" envDefault:"memory"` // memory or postgres
	PollInterval       time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	LockTimeout        time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout    time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrentTasks int           `env:"QUEUE_MAX_CONCURRENT_TASKS" envDefault:"10"`
	RetryBackoff       time.Duration `env:"QUEUE_RETRY_BACKOFF" envDefault:"30s"`
}

// WorkerOptions translates the config into worker options.
func (c Config) WorkerOptions(queues ...string) []WorkerOption {
	return []WorkerOption{
		WithQueues(queues...),
		WithPullInterval(c.PollInterval),
		WithLockTimeout(c.LockTimeout),
		WithShutdownTimeout(c.ShutdownTimeout),
		WithMaxConcurrentTasks(c.MaxConcurrentTasks),
	}
}
