package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// ErrorHandler turns a panic into a 500. Gateway callbacks get the flat
// webhook envelope so providers see the same shape for every failure.
func (m *Middlewares) ErrorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			m.Log.Error("Recovered from panic",
				zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(r.Context())),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
				zap.Error(err),
				zap.Stack("stacktrace"),
			)

			m.writeError(w, r, exceptions.ErrServerProcess(err))
		}()
		next.ServeHTTP(w, r)
	})
}

// writeError picks the flat webhook body on gateway callback routes and the
// standard envelope everywhere else.
func (m *Middlewares) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if strings.Contains(r.URL.Path, "/payments/webhook") {
		utils.BuildWebhookErrorResponse(m.Log, w, err)
		return
	}
	utils.BuildErrorResponse(m.Log, w, err)
}
