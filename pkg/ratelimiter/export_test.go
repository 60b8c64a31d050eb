package ratelimiter

var WithClock = withClock
