package controllers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const paymentGatewayTimeout = 20 * time.Second

type PaymentController struct {
	Log            *zap.Logger
	PaymentUsecase contracts.PaymentUsecase
}

var (
	paymentControllerInstance *PaymentController
	oncePaymentController     sync.Once
)

func NewPaymentController(logger *zap.Logger, paymentUsecase contracts.PaymentUsecase) *PaymentController {
	oncePaymentController.Do(func() {
		instance := &PaymentController{
			Log:            logger,
			PaymentUsecase: paymentUsecase,
		}
		paymentControllerInstance = instance
	})
	return paymentControllerInstance
}

func (ctrl *PaymentController) InitializePayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := utils.GetRequestID(r.Context())

	request := new(requests.InitializePayment)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		ctrl.Log.Error("Failed to parse initialize payment request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentGatewayTimeout)
	defer cancel()

	result, err := ctrl.PaymentUsecase.InitializePayment(ctx, request)
	if err != nil {
		ctrl.Log.Error("Failed to initialize payment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentProviderKey, request.Provider),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		ctrl.writeUsecaseError(w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "payment_initialized", requestID,
		zap.String(constvars.LoggingPaymentIDKey, result.PaymentID),
		zap.String(constvars.LoggingPaymentProviderKey, result.Provider),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.InitializePaymentSuccessMessage, result)
}

func (ctrl *PaymentController) FindPaymentByID(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := ctrl.paymentIDParam(w, r)
	if !ok {
		return
	}

	result, err := ctrl.PaymentUsecase.FindPaymentByID(r.Context(), paymentID)
	if err != nil {
		ctrl.writeUsecaseError(w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetPaymentSuccessMessage, result)
}

func (ctrl *PaymentController) ConfirmManualPayment(w http.ResponseWriter, r *http.Request) {
	requestID := utils.GetRequestID(r.Context())
	paymentID, ok := ctrl.paymentIDParam(w, r)
	if !ok {
		return
	}

	request := new(requests.ManualConfirmation)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	result, err := ctrl.PaymentUsecase.ConfirmManualPayment(r.Context(), paymentID, request)
	if err != nil {
		ctrl.Log.Error("Failed to confirm manual payment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, paymentID),
			zap.Error(err),
		)
		ctrl.writeUsecaseError(w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "manual_payment_confirmed", requestID,
		zap.String(constvars.LoggingPaymentIDKey, paymentID),
		zap.String(constvars.LoggingPaymentStatusKey, result.Status),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ManualConfirmationSuccessMessage, result)
}

func (ctrl *PaymentController) paymentIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	paymentID := chi.URLParam(r, constvars.URLParamPaymentID)
	if err := uuid.Validate(paymentID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(err, constvars.URLParamPaymentID))
		return "", false
	}
	return paymentID, true
}

func (ctrl *PaymentController) writeUsecaseError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	utils.BuildErrorResponse(ctrl.Log, w, err)
}
