package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for the elapsed intervals, then takes
	// tokens if enough are available. It returns the tokens left, or a
	// negative number when the request must be denied, and the next refill.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}

// refill returns the tokens after the intervals elapsed since lastRefill and
// whether any interval passed.
func refill(tokens int, lastRefill, now time.Time, config Config) (int, bool) {
	elapsed := now.Sub(lastRefill)
	// capped so that huge gaps cannot overflow
	maxIntervals := int64(config.Capacity/config.RefillRate + 1)
	intervals := int(min(int64(elapsed/config.RefillInterval), maxIntervals))
	if intervals <= 0 {
		return tokens, false
	}
	return min(tokens+intervals*config.RefillRate, config.Capacity), true
}
