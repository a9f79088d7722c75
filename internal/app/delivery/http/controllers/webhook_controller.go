package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const webhookProcessingTimeout = 25 * time.Second

type WebhookController struct {
	Log            *zap.Logger
	PaymentUsecase contracts.PaymentUsecase
}

var (
	webhookControllerInstance *WebhookController
	onceWebhookController     sync.Once
)

func NewWebhookController(logger *zap.Logger, paymentUsecase contracts.PaymentUsecase) *WebhookController {
	onceWebhookController.Do(func() {
		webhookControllerInstance = &WebhookController{
			Log:            logger,
			PaymentUsecase: paymentUsecase,
		}
	})
	return webhookControllerInstance
}

// HandlePaymentWebhook processes POST /payments/webhook and /payments/webhook/{provider}.
// The provider segment is logged only; the stored payment decides which gateway verifies it.
func (ctrl *WebhookController) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := utils.GetRequestID(r.Context())
	providerHint := chi.URLParam(r, constvars.URLParamProvider)

	utils.LogSecurityEvent(ctrl.Log, "payment_webhook_received", requestID, "info",
		zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
		zap.String(constvars.LoggingUserAgentKey, r.UserAgent()),
		zap.String("provider_hint", providerHint),
	)

	rawBody, ok := r.Context().Value(constvars.CONTEXT_RAW_BODY).([]byte)
	if !ok {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, exceptions.ErrReadBody(nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), webhookProcessingTimeout)
	defer cancel()

	ack, err := ctrl.PaymentUsecase.HandleWebhook(ctx, &requests.PaymentWebhook{
		RawBody:      rawBody,
		Header:       r.Header,
		ProviderHint: providerHint,
	})
	if err != nil {
		ctrl.Log.Error("Failed to process payment webhook",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		utils.BuildWebhookErrorResponse(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("Payment webhook processed",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Bool("duplicate", ack.Duplicate),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.WriteJSON(w, constvars.StatusOK, ack)
}
