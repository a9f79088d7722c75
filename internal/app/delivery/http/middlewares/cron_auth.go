package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// CronAuth checks "Authorization: Bearer <CRON_SECRET>". With no secret
// configured the endpoint stays open.
func (m *Middlewares) CronAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := m.InternalConfig.Cron.Secret
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(constvars.HeaderAuthorization)
		token, found := strings.CutPrefix(header, constvars.BearerTokenPrefix)
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			utils.LogSecurityEvent(m.Log, "invalid_cron_secret", utils.GetRequestID(r.Context()), "medium",
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidCronSecret(nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
