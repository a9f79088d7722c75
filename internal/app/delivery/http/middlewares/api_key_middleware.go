package middlewares

import (
	"context"
	"crypto/subtle"
	"net/http"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const (
	HeaderAPIKey      = constvars.HeaderAPIKey
	ContextAPIKeyAuth = constvars.CONTEXT_API_KEY_AUTH
)

// APIKeyAuth marks requests carrying a valid superadmin key so they get the
// higher rate limit. Requests without a key pass through untouched.
func (m *Middlewares) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(HeaderAPIKey)

		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !m.validAPIKey(apiKey) {
			m.logRejectedAPIKey(r)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextAPIKeyAuth, true)))
	})
}

// RequireSuperadminAPIKey guards operator endpoints such as manual payment confirmation.
func (m *Middlewares) RequireSuperadminAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(HeaderAPIKey)

		if apiKey == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}

		if !m.validAPIKey(apiKey) {
			m.logRejectedAPIKey(r)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		m.Log.Info("API Key authentication successful",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(r.Context())),
			zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
		)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextAPIKeyAuth, true)))
	})
}

func (m *Middlewares) validAPIKey(apiKey string) bool {
	expected := m.InternalConfig.App.SuperadminAPIKey
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) == 1
}

func (m *Middlewares) logRejectedAPIKey(r *http.Request) {
	utils.LogSecurityEvent(m.Log, "invalid_api_key", utils.GetRequestID(r.Context()), "medium",
		zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
		zap.String(constvars.LoggingEndpointKey, r.URL.Path),
		zap.String(constvars.LoggingUserAgentKey, r.UserAgent()),
	)
}
