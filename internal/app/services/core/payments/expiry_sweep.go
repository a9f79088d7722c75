package payments

import (
	"context"
	"time"

	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/responses"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const defaultSweepBatchSize = 200

// ExpirePendingPayments reconciles payments that stayed pending past the grace
// window. Each payment is handled on its own; one failure never stops the
// batch. Every write is conditional on the payment still being open, so a
// webhook that lands mid-sweep wins.
func (uc *paymentUsecase) ExpirePendingPayments(ctx context.Context) (*responses.ExpirySweepSummary, error) {
	requestID := utils.GetRequestID(ctx)
	graceWindow := uc.InternalConfig.Cron.PendingGraceWindow()
	cutoff := uc.now().Add(-graceWindow)

	uc.Log.Info("paymentUsecase.ExpirePendingPayments called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Duration("grace_window", graceWindow),
		zap.Time("cutoff", cutoff),
	)

	batchSize := uc.InternalConfig.Cron.SweepBatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}

	stale, err := uc.PaymentRepository.FindStalePendingPayments(ctx, cutoff, batchSize)
	if err != nil {
		uc.Log.Error("paymentUsecase.ExpirePendingPayments error fetching stale payments",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	summary := &responses.ExpirySweepSummary{
		TotalChecked: len(stale),
		Results:      make([]responses.ExpirySweepResult, 0, len(stale)),
	}

	for i := range stale {
		payment := &stale[i]
		result := uc.reconcileStalePayment(ctx, payment)

		switch result.Action {
		case constvars.SweepActionCompleted:
			summary.VerifiedCompleted++
		case constvars.SweepActionFailed:
			summary.MarkedFailed++
		case constvars.SweepActionExpired:
			summary.Expired++
		}
		summary.Results = append(summary.Results, result)
	}

	uc.Log.Info("paymentUsecase.ExpirePendingPayments completed",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingSweepTotalCheckedKey, summary.TotalChecked),
		zap.Int("expired", summary.Expired),
		zap.Int("verified_completed", summary.VerifiedCompleted),
		zap.Int("marked_failed", summary.MarkedFailed),
	)
	return summary, nil
}

func (uc *paymentUsecase) reconcileStalePayment(ctx context.Context, payment *models.Payment) responses.ExpirySweepResult {
	result := responses.ExpirySweepResult{
		PaymentID: payment.ID,
		Provider:  string(payment.Provider),
	}
	sweptAt := uc.now().UTC().Format(time.RFC3339)

	if payment.Provider == models.PaymentProviderManual {
		switch manualStatus := models.PaymentStatus(payment.Metadata.String(constvars.MetadataKeyManualStatus)); manualStatus {
		case models.PaymentStatusCompleted, models.PaymentStatusFailed:
			return uc.applySweepOutcome(ctx, payment, result, manualStatus, models.Metadata{
				"reconciled_at": sweptAt,
				"reconciled_by": "expiry_sweep",
			})
		default:
			result.Reason = constvars.ExpiryReasonNoManualConfirmation
			return uc.applySweepOutcome(ctx, payment, result, models.PaymentStatusExpired, models.Metadata{
				constvars.MetadataKeyExpiryReason: result.Reason,
				constvars.MetadataKeyExpiredAt:    sweptAt,
			})
		}
	}

	gateway, ok := uc.Gateways[payment.Provider]
	if !ok {
		result.Reason = constvars.ExpiryReasonUnsupportedProvider
		return uc.applySweepOutcome(ctx, payment, result, models.PaymentStatusExpired, models.Metadata{
			constvars.MetadataKeyExpiryReason: result.Reason,
			constvars.MetadataKeyExpiredAt:    sweptAt,
		})
	}

	// A cancelled context or exhausted limiter says nothing about the payment.
	if err := uc.VerifyLimiter.Wait(ctx); err != nil {
		result.Action = constvars.SweepActionError
		result.Error = err.Error()
		return result
	}

	verification, err := gateway.Verify(ctx, payment.ProviderTransactionID)
	if err != nil {
		uc.Log.Warn("paymentUsecase.reconcileStalePayment verification failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
		result.Reason = constvars.ExpiryReasonVerificationError
		result.Error = err.Error()
		return uc.applySweepOutcome(ctx, payment, result, models.PaymentStatusExpired, models.Metadata{
			constvars.MetadataKeyExpiryReason:      result.Reason,
			constvars.MetadataKeyVerificationError: err.Error(),
			constvars.MetadataKeyExpiredAt:         sweptAt,
		})
	}

	switch verification.Status {
	case models.PaymentStatusCompleted, models.PaymentStatusFailed:
		return uc.applySweepOutcome(ctx, payment, result, verification.Status, models.Metadata{
			constvars.MetadataKeyVerification:   map[string]interface{}(verification.Metadata),
			constvars.MetadataKeyLastSeenStatus: verification.GatewayStatus,
		})
	default:
		result.Reason = constvars.ExpiryReasonGraceWindowElapsed
		return uc.applySweepOutcome(ctx, payment, result, models.PaymentStatusExpired, models.Metadata{
			constvars.MetadataKeyExpiryReason:   result.Reason,
			constvars.MetadataKeyLastSeenStatus: verification.GatewayStatus,
			constvars.MetadataKeyExpiredAt:      sweptAt,
		})
	}
}

func (uc *paymentUsecase) applySweepOutcome(ctx context.Context, payment *models.Payment, result responses.ExpirySweepResult, status models.PaymentStatus, patch models.Metadata) responses.ExpirySweepResult {
	requestID := utils.GetRequestID(ctx)
	result.Status = string(status)

	updated, err := uc.PaymentRepository.UpdateStatusIfPending(ctx, payment.ID, status, patch)
	if err != nil {
		uc.Log.Error("paymentUsecase.applySweepOutcome error updating payment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
		result.Action = constvars.SweepActionError
		result.Error = err.Error()
		return result
	}
	if !updated {
		result.Action = constvars.SweepActionSkipped
		result.Reason = "payment no longer pending"
		return result
	}

	switch status {
	case models.PaymentStatusCompleted:
		result.Action = constvars.SweepActionCompleted
		uc.afterCompletion(ctx, payment.ID)
	case models.PaymentStatusFailed:
		result.Action = constvars.SweepActionFailed
	default:
		result.Action = constvars.SweepActionExpired
	}

	utils.LogBusinessEvent(uc.Log, "payment_swept", requestID,
		zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		zap.String(constvars.LoggingPaymentStatusKey, string(status)),
		zap.String("reason", result.Reason),
	)
	return result
}
