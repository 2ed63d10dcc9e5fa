package batchgpt

import (
	"golang.org/x/time/rate"
)

// NewRateLimiter returns a limiter that allows requestsPerSecond requests
// per second with a burst of one, suitable for [WithRateLimiter].
//
// A non-positive rate returns nil, which disables pacing.
//
// # Example
//
//	c := batchgpt.NewClient(batchgpt.DefaultBaseURL,
//	    batchgpt.WithRateLimiter(batchgpt.NewRateLimiter(2)),
//	)
func NewRateLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}
