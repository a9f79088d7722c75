package payments

import (
	"context"
	"errors"
	"time"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/app/services/shared/storage"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/dto/responses"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// HandleWebhook reconciles one gateway callback. The payment's persisted
// provider decides which gateway verifies it; nothing in the request can
// pick the provider.
func (uc *paymentUsecase) HandleWebhook(ctx context.Context, request *requests.PaymentWebhook) (*responses.WebhookAck, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.HandleWebhook called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("provider_hint", request.ProviderHint),
		zap.Int("body_size", len(request.RawBody)),
	)

	if len(request.RawBody) == 0 || !gjson.ValidBytes(request.RawBody) {
		return nil, exceptions.ErrCannotParseJSON(errors.New("webhook body is empty or not valid JSON"))
	}

	candidates, err := uc.resolveWebhookPayments(ctx, request.RawBody)
	if err != nil {
		return nil, err
	}

	payment, gateway, err := uc.authenticateWebhook(ctx, candidates, request)
	if err != nil {
		return nil, err
	}

	event, err := gateway.ParseEvent(request.RawBody)
	if err != nil {
		return nil, err
	}
	eventID := gateway.ResolveEventID(event, payment.ProviderTransactionID)

	logFields := []zap.Field{
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		zap.String(constvars.LoggingWebhookEventIDKey, eventID),
		zap.String(constvars.LoggingWebhookEventTypeKey, event.Type),
	}

	seen, err := uc.PaymentRepository.HasEvent(ctx, payment.ID, eventID)
	if err != nil {
		uc.Log.Error("paymentUsecase.HandleWebhook error checking event ledger", append(logFields, zap.Error(err))...)
		return nil, err
	}
	if seen {
		uc.Log.Info("paymentUsecase.HandleWebhook duplicate delivery ignored", logFields...)
		return &responses.WebhookAck{Received: true, Duplicate: true}, nil
	}

	input := &contracts.ApplyPaymentEventInput{
		Event: models.PaymentEvent{
			PaymentID: payment.ID,
			EventID:   eventID,
			EventType: eventTypeOrUnknown(event.Type),
			Provider:  payment.Provider,
		},
		MetadataPatch: models.Metadata{
			constvars.MetadataKeyLastEvent: map[string]interface{}{
				"event_id":        eventID,
				"event_type":      event.Type,
				"reported_status": event.ReportedStatus,
				"received_at":     uc.now().UTC().Format(time.RFC3339),
			},
		},
	}

	if event.Kind == contracts.WebhookEventStatusChange && payment.Status.IsOpen() {
		verification, err := gateway.Verify(ctx, payment.ProviderTransactionID)
		if err != nil {
			uc.Log.Error("paymentUsecase.HandleWebhook gateway verification failed", append(logFields, zap.Error(err))...)
			return nil, err
		}

		input.MetadataPatch[constvars.MetadataKeyVerification] = map[string]interface{}(verification.Metadata)
		input.MetadataPatch[constvars.MetadataKeyLastSeenStatus] = verification.GatewayStatus
		if verification.Status == models.PaymentStatusCompleted || verification.Status == models.PaymentStatusFailed {
			input.NewStatus = verification.Status
		}

		if event.ReportedStatus != "" && verification.GatewayStatus != event.ReportedStatus {
			uc.Log.Warn("paymentUsecase.HandleWebhook reported status differs from gateway",
				append(logFields,
					zap.String("reported_status", event.ReportedStatus),
					zap.String(constvars.LoggingGatewayStatusKey, verification.GatewayStatus),
				)...,
			)
		}
	}

	result, err := uc.PaymentRepository.ApplyPaymentEvent(ctx, input)
	if err != nil {
		uc.Log.Error("paymentUsecase.HandleWebhook error applying event", append(logFields, zap.Error(err))...)
		return nil, err
	}
	if result.Duplicate {
		uc.Log.Info("paymentUsecase.HandleWebhook lost ledger race to a concurrent delivery", logFields...)
		return &responses.WebhookAck{Received: true, Duplicate: true}, nil
	}

	uc.archiveWebhook(ctx, payment, eventID, request.RawBody)

	if result.Transitioned {
		utils.LogBusinessEvent(uc.Log, "payment_status_changed", requestID,
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.String(constvars.LoggingPaymentStatusKey, string(input.NewStatus)),
			zap.String(constvars.LoggingWebhookEventIDKey, eventID),
		)
		if input.NewStatus == models.PaymentStatusCompleted {
			uc.afterCompletion(ctx, payment.ID)
		}
	} else {
		uc.Log.Info("paymentUsecase.HandleWebhook event recorded without transition", logFields...)
	}

	return &responses.WebhookAck{Received: true}, nil
}

// resolveWebhookPayments returns every payment whose provider_transaction_id
// matches a reference any gateway would extract, oldest first per reference.
func (uc *paymentUsecase) resolveWebhookPayments(ctx context.Context, rawBody []byte) ([]models.Payment, error) {
	requestID := utils.GetRequestID(ctx)

	var candidates []string
	seen := make(map[string]struct{})
	for _, provider := range webhookProviderOrder {
		gateway, ok := uc.Gateways[provider]
		if !ok {
			continue
		}
		for _, reference := range gateway.ExtractReferences(rawBody) {
			if _, dup := seen[reference]; dup {
				continue
			}
			seen[reference] = struct{}{}
			candidates = append(candidates, reference)
		}
	}

	if len(candidates) == 0 {
		uc.Log.Warn("paymentUsecase.resolveWebhookPayments no reference in payload",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return nil, exceptions.ErrWebhookMissingReference(nil)
	}

	var payments []models.Payment
	matched := make(map[string]struct{})
	for _, reference := range candidates {
		found, err := uc.PaymentRepository.FindByProviderTransactionID(ctx, reference)
		if err != nil {
			return nil, err
		}
		for _, payment := range found {
			if _, dup := matched[payment.ID]; dup {
				continue
			}
			matched[payment.ID] = struct{}{}
			payments = append(payments, payment)
		}
	}

	if len(payments) == 0 {
		uc.Log.Warn("paymentUsecase.resolveWebhookPayments no payment matches references",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Strings(constvars.LoggingPaymentReferenceKey, candidates),
		)
		return nil, exceptions.ErrPaymentNotFound(nil)
	}
	return payments, nil
}

// authenticateWebhook returns the first candidate whose own provider's gateway
// accepts the signature. A reference shared across providers therefore
// resolves to the payment the callback was actually signed for.
func (uc *paymentUsecase) authenticateWebhook(ctx context.Context, candidates []models.Payment, request *requests.PaymentWebhook) (*models.Payment, contracts.PaymentGateway, error) {
	requestID := utils.GetRequestID(ctx)

	var rejection error
	for i := range candidates {
		payment := &candidates[i]
		gateway, ok := uc.Gateways[payment.Provider]
		if !ok {
			uc.Log.Warn("paymentUsecase.authenticateWebhook payment provider has no webhook",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingPaymentIDKey, payment.ID),
				zap.String(constvars.LoggingPaymentProviderKey, string(payment.Provider)),
			)
			continue
		}

		if err := gateway.VerifySignature(request.Header, request.RawBody); err != nil {
			utils.LogSecurityEvent(uc.Log, "webhook_signature_rejected", requestID, "high",
				zap.String(constvars.LoggingPaymentIDKey, payment.ID),
				zap.String(constvars.LoggingPaymentProviderKey, string(payment.Provider)),
				zap.Error(err),
			)
			if rejection == nil {
				rejection = err
			}
			continue
		}
		return payment, gateway, nil
	}

	if rejection != nil {
		return nil, nil, rejection
	}
	return nil, nil, exceptions.ErrUnsupportedPaymentProvider(nil, string(candidates[0].Provider))
}

func (uc *paymentUsecase) archiveWebhook(ctx context.Context, payment *models.Payment, eventID string, rawBody []byte) {
	if uc.WebhookArchive == nil {
		return
	}
	objectName, err := uc.WebhookArchive.ArchiveWebhook(ctx, &storage.ArchiveWebhookInput{
		Provider:  string(payment.Provider),
		PaymentID: payment.ID,
		EventID:   eventID,
		RawBody:   rawBody,
	})
	if err != nil {
		uc.Log.Warn("paymentUsecase.archiveWebhook failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
		return
	}
	uc.Log.Debug("paymentUsecase.archiveWebhook stored webhook",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingObjectNameKey, objectName),
	)
}

func eventTypeOrUnknown(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	return eventType
}
