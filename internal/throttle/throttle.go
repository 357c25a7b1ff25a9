// Package throttle bounds the rate of outbound object-store requests.
//
// Staging a large model repository fans out into many small GetObject and
// ListObjectsV2 calls; against a shared or rate-limited endpoint (MinIO
// behind a proxy, S3 with request quotas) that burst can trip 503s. The
// throttle is a token bucket around golang.org/x/time/rate: each request
// consumes one token, tokens refill at the configured sustained rate, and
// the burst size caps how far a fetch may run ahead of it.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle is a token-bucket request limiter. The zero rate means
// unlimited. Safe for concurrent use.
type Throttle struct {
	limiter *rate.Limiter
}

// New creates a throttle allowing requestsPerSecond sustained with up to
// burst immediate requests. requestsPerSecond <= 0 disables throttling
// entirely; Wait then never blocks.
func New(requestsPerSecond float64, burst int) *Throttle {
	if requestsPerSecond <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until one request token is available or ctx is cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow consumes a token if one is available, without blocking.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}

// Tokens reports the tokens currently in the bucket. Monitoring only; the
// value can change before the caller acts on it.
func (t *Throttle) Tokens() float64 {
	return t.limiter.Tokens()
}
