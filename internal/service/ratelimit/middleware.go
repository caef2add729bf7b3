package ratelimit

import (
	"math"

	xhttp "AlphaFusion/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests with 429 once the caller's bucket is empty.
// Callers are keyed by their real IP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded", l.retryAfter()))
			}
			return next(c)
		}
	}
}

// retryAfter is the whole seconds until one token refills.
func (l *Limiter) retryAfter() int {
	if l.rps <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/l.rps)))
}
