// Package queue is a small persistent task queue used to move work, such as
// subscription events, off the request path.
//
// Three pieces cooperate through repository interfaces:
//
//   - Enqueuer encodes a payload as JSON and stores it as a pending Task.
//   - Worker claims ready tasks, runs the matching Handler with bounded
//     concurrency and records the outcome.
//   - A storage backend: MemoryStorage for tests and single-process setups,
//     PostgresStorage for everything else.
//
// Delivery is at-least-once. A failed task is retried with a linear backoff
// until it has used MaxRetries retries and is then moved to the dead letter
// queue, as are tasks nobody has a handler for. A task whose lock expires
// (crashed worker, handler past its deadline) becomes claimable again, so
// handlers must tolerate duplicates.
//
//	storage := queue.NewMemoryStorage()
//
//	enqueuer, _ := queue.NewEnqueuer(storage, queue.WithDefaultQueue("emails"))
//	_, _ = enqueuer.Enqueue(ctx, WelcomeEmail{UserID: "42"}, queue.WithDelay(time.Minute))
//
//	worker, _ := queue.NewWorker(storage, queue.WithQueues("emails"))
//	_ = worker.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, p WelcomeEmail) error {
//		return send(ctx, p)
//	}))
//
//	g.Go(func() error { return worker.Run(ctx) })
//
// Task names default to the payload's qualified type name; use WithTaskName
// together with NewNamedTaskHandler for names that must survive refactors.
package queue
