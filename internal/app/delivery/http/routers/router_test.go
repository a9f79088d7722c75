package routers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/delivery/http/controllers"
	"clinic-service/internal/app/delivery/http/middlewares"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/dto/responses"
	"clinic-service/internal/pkg/exceptions"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAPIKey     = "test-superadmin-api-key-12345"
	testCronSecret = "test-cron-secret"
	testPaymentID  = "3f8b5a56-8e0c-4b7e-9a52-2f6d1f0f6b11"
)

type MockPaymentUsecase struct {
	mock.Mock
}

func (m *MockPaymentUsecase) InitializePayment(ctx context.Context, request *requests.InitializePayment) (*responses.InitializePayment, error) {
	args := m.Called(ctx, request)
	result, _ := args.Get(0).(*responses.InitializePayment)
	return result, args.Error(1)
}

func (m *MockPaymentUsecase) FindPaymentByID(ctx context.Context, paymentID string) (*responses.Payment, error) {
	args := m.Called(ctx, paymentID)
	result, _ := args.Get(0).(*responses.Payment)
	return result, args.Error(1)
}

func (m *MockPaymentUsecase) ConfirmManualPayment(ctx context.Context, paymentID string, request *requests.ManualConfirmation) (*responses.Payment, error) {
	args := m.Called(ctx, paymentID, request)
	result, _ := args.Get(0).(*responses.Payment)
	return result, args.Error(1)
}

func (m *MockPaymentUsecase) HandleWebhook(ctx context.Context, request *requests.PaymentWebhook) (*responses.WebhookAck, error) {
	args := m.Called(ctx, request)
	result, _ := args.Get(0).(*responses.WebhookAck)
	return result, args.Error(1)
}

func (m *MockPaymentUsecase) ExpirePendingPayments(ctx context.Context) (*responses.ExpirySweepSummary, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*responses.ExpirySweepSummary)
	return result, args.Error(1)
}

func newTestRouter(usecase *MockPaymentUsecase) *chi.Mux {
	logger := zap.NewNop()
	internalConfig := &config.InternalConfig{
		App: config.App{
			Version:                    "v1",
			EndpointPrefix:             "api",
			FrontendDomain:             "http://localhost:3000",
			MaxRequests:                1000,
			SuperadminAPIKey:           testAPIKey,
			SuperadminAPIKeyRateLimit:  1000,
			RequestBodyLimitInMegabyte: 1,
		},
		Cron: config.AppCron{Secret: testCronSecret},
	}

	router := chi.NewRouter()
	SetupRoutes(
		router,
		internalConfig,
		&middlewares.Middlewares{Log: logger, InternalConfig: internalConfig},
		&controllers.PaymentController{Log: logger, PaymentUsecase: usecase},
		&controllers.WebhookController{Log: logger, PaymentUsecase: usecase},
		&controllers.CronController{Log: logger, PaymentUsecase: usecase},
	)
	return router
}

func TestWebhookRoutes(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref123"}}`)

	t.Run("raw body and headers reach the usecase", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)

		usecase.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(request *requests.PaymentWebhook) bool {
			return bytes.Equal(request.RawBody, body) &&
				request.Header.Get("x-paystack-signature") == "abc" &&
				request.ProviderHint == "paystack"
		})).Return(&responses.WebhookAck{Received: true}, nil).Once()

		req := httptest.NewRequest("POST", "/api/v1/payments/webhook/paystack", bytes.NewReader(body))
		req.Header.Set("x-paystack-signature", "abc")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get(constvars.HeaderXRequestID))
		usecase.AssertExpectations(t)
	})

	t.Run("duplicate delivery acknowledged", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)
		usecase.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(&responses.WebhookAck{Received: true, Duplicate: true}, nil).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader(body)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true,"duplicate":true}`, rr.Body.String())
	})

	t.Run("usecase errors use the flat error envelope", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)
		usecase.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(nil, exceptions.ErrInvalidWebhookSignature(nil, "paystack")).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
		assert.Len(t, payload, 1)
		assert.NotEmpty(t, payload["error"])
	})
}

func TestManualConfirmationRoute(t *testing.T) {
	confirmation := []byte(`{"status":"completed","note":"bank transfer seen"}`)

	t.Run("requires the superadmin api key", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/payments/"+testPaymentID+"/manual-confirmation", bytes.NewReader(confirmation)))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		usecase.AssertNotCalled(t, "ConfirmManualPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid key reaches the usecase", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)
		usecase.On("ConfirmManualPayment", mock.Anything, testPaymentID, mock.MatchedBy(func(request *requests.ManualConfirmation) bool {
			return request.Status == "completed"
		})).Return(&responses.Payment{ID: testPaymentID, Status: "completed"}, nil).Once()

		req := httptest.NewRequest("POST", "/api/v1/payments/"+testPaymentID+"/manual-confirmation", bytes.NewReader(confirmation))
		req.Header.Set(middlewares.HeaderAPIKey, testAPIKey)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		usecase.AssertExpectations(t)
	})
}

func TestPaymentLookupRoute(t *testing.T) {
	t.Run("invalid id rejected before the usecase", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/payments/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		usecase.AssertNotCalled(t, "FindPaymentByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)
		usecase.On("FindPaymentByID", mock.Anything, testPaymentID).Return(nil, exceptions.ErrPaymentNotFound(nil)).Once()

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/payments/"+testPaymentID, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCronRoute(t *testing.T) {
	summary := &responses.ExpirySweepSummary{
		TotalChecked: 1,
		Expired:      1,
		Results: []responses.ExpirySweepResult{
			{PaymentID: testPaymentID, Provider: "paystack", Action: "expired", Reason: "grace_window_elapsed"},
		},
	}

	for _, method := range []string{"GET", "POST"} {
		t.Run(method+" with secret", func(t *testing.T) {
			usecase := new(MockPaymentUsecase)
			router := newTestRouter(usecase)
			usecase.On("ExpirePendingPayments", mock.Anything).Return(summary, nil).Once()

			req := httptest.NewRequest(method, "/api/v1/cron/expire-payments", nil)
			req.Header.Set("Authorization", "Bearer "+testCronSecret)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, float64(1), body["total_checked"])
			assert.Equal(t, float64(1), body["expired"])
			assert.Equal(t, float64(0), body["verified_completed"])
			assert.Equal(t, float64(0), body["marked_failed"])
			assert.Len(t, body["results"], 1)
			assert.NotContains(t, body, "success")
			assert.NotContains(t, body, "data")
			usecase.AssertExpectations(t)
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newTestRouter(usecase)

		req := httptest.NewRequest("POST", "/api/v1/cron/expire-payments", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		usecase.AssertNotCalled(t, "ExpirePendingPayments", mock.Anything)
	})
}
