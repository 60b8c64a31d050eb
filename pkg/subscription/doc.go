// Package subscription moves subscription-created events from webhook
// ingestion to asynchronous processing.
//
// A CreatedMessage wraps the raw event payload and is immutable once built.
// The WebhookHandler accepts `{"type": "...", "data": {...}}` envelopes,
// optionally verifies an HMAC signature (see package webhook) and publishes
// subscription.created events through a Publisher onto the "subscriptions"
// queue. A Consumer registered with a queue.Worker processes them.
//
// Delivery is at least once. The Consumer claims each subscription id in an
// IdempotencyStore before calling the ProcessFunc, skips ids that are already
// claimed, and releases the claim when processing fails so that the queue
// retry can run it again:
//
//	consumer, err := subscription.NewConsumer(provision,
//		subscription.WithIdempotencyStore(subscription.NewRedisIdempotencyStore(rdb, "")),
//	)
//	if err != nil {
//		return err
//	}
//	if err := worker.RegisterHandlers(consumer.Handler()); err != nil {
//		return err
//	}
//
// Ordering between messages for the same subscription is whatever the queue
// provides.
package subscription
