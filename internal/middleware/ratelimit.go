package middleware

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("too many requests, slow down")

// RateLimit returns an interceptor sharing one token bucket across all
// callers. rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) connect.UnaryInterceptorFunc {
	if rps <= 0 {
		return func(next connect.UnaryFunc) connect.UnaryFunc { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !limiter.Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
