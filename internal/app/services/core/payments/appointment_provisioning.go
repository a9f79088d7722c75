package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// provisionAppointment books the appointment carried in the payment metadata.
// It returns (nil, nil) when there is nothing to do. A created appointment
// that cannot be linked back to the payment is deleted again.
func (uc *paymentUsecase) provisionAppointment(ctx context.Context, payment *models.Payment) (*models.Appointment, error) {
	requestID := utils.GetRequestID(ctx)

	var data requests.AppointmentData
	if err := payment.Metadata.Decode(constvars.MetadataKeyAppointmentData, &data); err != nil {
		if errors.Is(err, models.ErrMetadataKeyNotFound) {
			return nil, nil
		}
		return nil, exceptions.ErrInvalidAppointmentData(err)
	}
	if payment.HasAppointment() {
		return nil, nil
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, nil
	}
	if !data.AutoCreateEnabled() {
		uc.Log.Info("paymentUsecase.provisionAppointment auto create disabled",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		)
		return nil, nil
	}

	if err := utils.ValidateStruct(data); err != nil {
		uc.recordAppointmentError(ctx, payment.ID, exceptions.FormatFirstValidationError(err))
		return nil, exceptions.ErrInvalidAppointmentData(err)
	}

	appointment, err := uc.AppointmentRepository.CreateAppointment(ctx, &models.Appointment{
		ID:              uuid.NewString(),
		UserID:          payment.UserID,
		BranchID:        data.BranchID,
		AppointmentDate: data.AppointmentDate,
		AppointmentTime: data.AppointmentTime,
		TreatmentType:   data.TreatmentType,
		Notes:           data.Notes,
		Status:          models.AppointmentStatusPending,
		PaymentID:       payment.ID,
	})
	if err != nil {
		return nil, err
	}

	linked, linkErr := uc.PaymentRepository.LinkAppointment(ctx, payment.ID, appointment.ID)
	if linkErr != nil || !linked {
		if deleteErr := uc.AppointmentRepository.DeleteAppointment(ctx, appointment.ID); deleteErr != nil {
			uc.Log.Error("paymentUsecase.provisionAppointment compensation failed, orphan appointment left",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingPaymentIDKey, payment.ID),
				zap.String(constvars.LoggingAppointmentIDKey, appointment.ID),
				zap.Error(deleteErr),
			)
		}
		if linkErr != nil {
			uc.recordAppointmentError(ctx, payment.ID, linkErr.Error())
			return nil, linkErr
		}
		return nil, exceptions.ErrAppointmentAlreadyLinked(fmt.Errorf("appointment %s discarded", appointment.ID), payment.ID)
	}

	utils.LogBusinessEvent(uc.Log, "appointment_provisioned", requestID,
		zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		zap.String(constvars.LoggingAppointmentIDKey, appointment.ID),
	)
	return appointment, nil
}

func (uc *paymentUsecase) recordAppointmentError(ctx context.Context, paymentID, message string) {
	patch := models.Metadata{
		constvars.MetadataKeyAppointmentError: map[string]interface{}{
			"message":     message,
			"recorded_at": uc.now().UTC().Format(time.RFC3339),
		},
	}
	if err := uc.PaymentRepository.MergeMetadata(ctx, paymentID, patch); err != nil {
		uc.Log.Warn("paymentUsecase.recordAppointmentError failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingPaymentIDKey, paymentID),
			zap.Error(err),
		)
	}
}
