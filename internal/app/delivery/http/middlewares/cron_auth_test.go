package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-service/internal/app/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCronAuth(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name          string
		secret        string
		authorization string
		wantStatus    int
	}{
		{name: "no secret configured leaves endpoint open", secret: "", authorization: "", wantStatus: http.StatusOK},
		{name: "matching bearer token", secret: "cron-secret", authorization: "Bearer cron-secret", wantStatus: http.StatusOK},
		{name: "missing header", secret: "cron-secret", authorization: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", secret: "cron-secret", authorization: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "token without bearer prefix", secret: "cron-secret", authorization: "cron-secret", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Middlewares{
				Log: zap.NewNop(),
				InternalConfig: &config.InternalConfig{
					Cron: config.AppCron{Secret: tt.secret},
				},
			}

			req := httptest.NewRequest("POST", "/api/v1/cron/expire-payments", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rr := httptest.NewRecorder()
			m.CronAuth(okHandler).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
