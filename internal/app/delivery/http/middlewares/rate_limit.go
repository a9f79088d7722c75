package middlewares

import (
	"net/http"
	"time"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

type limiterFunc = func(next http.Handler) http.Handler

// ConditionalRateLimit picks the operator budget for requests that already
// passed APIKeyAuth and the per-IP budget for everyone else.
func (m *Middlewares) ConditionalRateLimit(normalLimiter, apiKeyLimiter limiterFunc) limiterFunc {
	return func(next http.Handler) http.Handler {
		normal := normalLimiter(next)
		operator := apiKeyLimiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKeyAuth, ok := r.Context().Value(ContextAPIKeyAuth).(bool); ok && apiKeyAuth {
				operator.ServeHTTP(w, r)
				return
			}
			normal.ServeHTTP(w, r)
		})
	}
}

// CreateRateLimiters builds both limiters over the configured window. Gateway
// callbacks share an IP range, so limits are counted per IP and endpoint.
func (m *Middlewares) CreateRateLimiters() (normalLimiter, apiKeyLimiter limiterFunc) {
	window := time.Duration(m.InternalConfig.App.MaxTimeRequestsPerSeconds) * time.Second
	if window <= 0 {
		window = time.Second
	}

	options := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(m.rateLimitExceeded),
	}
	normalLimiter = httprate.Limit(m.InternalConfig.App.MaxRequests, window, options...)
	apiKeyLimiter = httprate.Limit(m.InternalConfig.App.SuperadminAPIKeyRateLimit, window, options...)
	return normalLimiter, apiKeyLimiter
}

func (m *Middlewares) rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	utils.LogSecurityEvent(m.Log, "rate_limit_exceeded", utils.GetRequestID(r.Context()), "low",
		zap.String(constvars.LoggingEndpointKey, r.URL.Path),
		zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
	)
	utils.BuildErrorResponse(m.Log, w, exceptions.ErrTooManyRequests(nil))
}
