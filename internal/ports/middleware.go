package ports

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Amund211/japa/internal/app"
	"github.com/Amund211/japa/internal/logging"
	"github.com/Amund211/japa/internal/ratelimiting"
	"github.com/Amund211/japa/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

func onLimitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"cause":"rate limit exceeded"}`))
}

type rateLimit struct {
	refillPerSecond ratelimiting.RefillPerSecond
	burstSize       ratelimiting.BurstSize
	keyFunc         func(r *http.Request) string
}

// The shared middleware chain for a port, outermost first
func buildPortMiddleware(
	port string,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
	limits ...rateLimit,
) func(http.HandlerFunc) http.HandlerFunc {
	middlewares := []func(http.HandlerFunc) http.HandlerFunc{
		buildMetricsMiddleware(port),
		logging.NewRequestLoggerMiddleware(rootLogger.With(slog.String("port", port))),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(port),
		BuildCORSMiddleware(allowedOrigins),
	}

	for _, limit := range limits {
		limiter, _ := ratelimiting.NewTokenBucketRateLimiter(limit.refillPerSecond, limit.burstSize)
		requestLimiter := ratelimiting.NewRequestBasedRateLimiter(limiter, limit.keyFunc)
		middlewares = append(middlewares, NewRateLimitMiddleware(requestLimiter, onLimitExceeded))
	}

	return ComposeMiddlewares(middlewares...)
}

// Identify the devotee a request acts on in both logs and error reports
func withDevotee(ctx context.Context, phone string) context.Context {
	ctx = logging.AddDevoteeToContext(ctx, phone)
	return reporting.SetDevoteeInContext(ctx, phone)
}

const ADMIN_TOKEN_HEADER = "X-Admin-Token"

func NewAdminTokenMiddleware(authorize app.Authorize) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if err := authorize(r.Header.Get(ADMIN_TOKEN_HEADER)); err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "Rejected admin request", "error", err)
				writeErrorResponse(ctx, w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next(w, r)
		}
	}
}
