package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/app/services/shared/mailer"
	"clinic-service/internal/app/services/shared/storage"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/dto/responses"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type paymentUsecase struct {
	PaymentRepository     contracts.PaymentRepository
	AppointmentRepository contracts.AppointmentRepository
	Gateways              map[models.PaymentProvider]contracts.PaymentGateway
	MailerService         mailer.MailerService
	WebhookArchive        storage.WebhookArchive
	InternalConfig        *config.InternalConfig
	VerifyLimiter         *rate.Limiter
	Log                   *zap.Logger
	now                   func() time.Time
}

var (
	paymentUsecaseInstance contracts.PaymentUsecase
	oncePaymentUsecase     sync.Once
)

// webhookProviderOrder fixes the order references are tried in when the
// provider is not yet known.
var webhookProviderOrder = []models.PaymentProvider{
	models.PaymentProviderPaystack,
	models.PaymentProviderFlutterwave,
}

// PaymentUsecaseDeps groups collaborators. MailerService and WebhookArchive
// are optional.
type PaymentUsecaseDeps struct {
	PaymentRepository     contracts.PaymentRepository
	AppointmentRepository contracts.AppointmentRepository
	Gateways              map[models.PaymentProvider]contracts.PaymentGateway
	MailerService         mailer.MailerService
	WebhookArchive        storage.WebhookArchive
	InternalConfig        *config.InternalConfig
	Log                   *zap.Logger
}

func NewPaymentUsecase(deps PaymentUsecaseDeps) contracts.PaymentUsecase {
	oncePaymentUsecase.Do(func() {
		paymentUsecaseInstance = newPaymentUsecase(deps)
	})
	return paymentUsecaseInstance
}

func newPaymentUsecase(deps PaymentUsecaseDeps) *paymentUsecase {
	ratePerSecond := deps.InternalConfig.Cron.VerifyRatePerSecond
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	burst := deps.InternalConfig.Cron.VerifyBurst
	if burst <= 0 {
		burst = 1
	}

	return &paymentUsecase{
		PaymentRepository:     deps.PaymentRepository,
		AppointmentRepository: deps.AppointmentRepository,
		Gateways:              deps.Gateways,
		MailerService:         deps.MailerService,
		WebhookArchive:        deps.WebhookArchive,
		InternalConfig:        deps.InternalConfig,
		VerifyLimiter:         rate.NewLimiter(limit, burst),
		Log:                   deps.Log,
		now:                   time.Now,
	}
}

func (uc *paymentUsecase) InitializePayment(ctx context.Context, request *requests.InitializePayment) (*responses.InitializePayment, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.InitializePayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentProviderKey, request.Provider),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(nil)
	}

	provider := models.PaymentProvider(request.Provider)
	gateway, hasGateway := uc.Gateways[provider]
	if provider != models.PaymentProviderManual && !hasGateway {
		return nil, exceptions.ErrUnsupportedPaymentProvider(nil, request.Provider)
	}

	metadata := models.Metadata{}
	if request.AppointmentData != nil {
		metadata[constvars.MetadataKeyAppointmentData] = request.AppointmentData
	}

	reference := utils.GeneratePaymentReference()
	payment := &models.Payment{
		ID:            uuid.NewString(),
		UserID:        request.UserID,
		Provider:      provider,
		Amount:        request.Amount,
		Currency:      request.Currency,
		Status:        models.PaymentStatusPending,
		CustomerEmail: request.CustomerEmail,
		Metadata:      metadata,
	}
	// Gateway payments get their reference only once the gateway accepted it,
	// so a failed initialization never looks submitted to the expiry sweep.
	if !hasGateway {
		payment.ProviderTransactionID = reference
	}

	payment, err := uc.PaymentRepository.CreatePayment(ctx, payment)
	if err != nil {
		uc.Log.Error("paymentUsecase.InitializePayment error creating payment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	response := &responses.InitializePayment{
		PaymentID: payment.ID,
		Provider:  string(payment.Provider),
		Reference: reference,
		Status:    string(payment.Status),
	}
	if !hasGateway {
		utils.LogBusinessEvent(uc.Log, "manual_payment_created", requestID,
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		)
		return response, nil
	}

	output, err := gateway.Initialize(ctx, &contracts.InitializePaymentInput{
		Reference:     reference,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerEmail: payment.CustomerEmail,
		CallbackURL:   request.CallbackURL,
		Metadata: map[string]interface{}{
			"payment_id": payment.ID,
			"user_id":    payment.UserID,
		},
	})
	if err != nil {
		uc.Log.Error("paymentUsecase.InitializePayment error initializing with gateway",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
		return nil, err
	}

	patch := models.Metadata{
		constvars.MetadataKeyInitialization: map[string]interface{}{
			"checkout_url":   output.CheckoutURL,
			"access_code":    output.AccessCode,
			"initialized_at": uc.now().UTC().Format(time.RFC3339),
		},
	}
	if err := uc.PaymentRepository.SetProviderTransactionID(ctx, payment.ID, output.Reference, patch); err != nil {
		uc.Log.Error("paymentUsecase.InitializePayment error storing gateway reference",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
		return nil, err
	}

	response.Reference = output.Reference
	response.CheckoutURL = output.CheckoutURL

	utils.LogBusinessEvent(uc.Log, "payment_initialized", requestID,
		zap.String(constvars.LoggingPaymentIDKey, payment.ID),
		zap.String(constvars.LoggingPaymentProviderKey, string(payment.Provider)),
		zap.String(constvars.LoggingPaymentReferenceKey, output.Reference),
	)
	return response, nil
}

func (uc *paymentUsecase) FindPaymentByID(ctx context.Context, paymentID string) (*responses.Payment, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.FindPaymentByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentIDKey, paymentID),
	)

	payment, err := uc.PaymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, exceptions.ErrPaymentNotFound(nil)
	}
	return toPaymentResponse(payment), nil
}

// ConfirmManualPayment records an operator's decision for the manual rail and
// applies it. It goes through the event ledger so repeated confirmations are
// no-ops.
func (uc *paymentUsecase) ConfirmManualPayment(ctx context.Context, paymentID string, request *requests.ManualConfirmation) (*responses.Payment, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("paymentUsecase.ConfirmManualPayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentIDKey, paymentID),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	payment, err := uc.PaymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, exceptions.ErrPaymentNotFound(nil)
	}
	if payment.Provider != models.PaymentProviderManual {
		return nil, exceptions.ErrManualConfirmationNotAllowed(nil, string(payment.Provider))
	}

	status := models.PaymentStatus(request.Status)
	event := models.PaymentEvent{
		PaymentID: payment.ID,
		EventID:   manualConfirmationEventID(payment, status),
		EventType: "manual_confirmation." + request.Status,
		Provider:  models.PaymentProviderManual,
	}
	patch := models.Metadata{
		constvars.MetadataKeyManualStatus: request.Status,
		constvars.MetadataKeyManualConfirmation: map[string]interface{}{
			"status":       request.Status,
			"note":         request.Note,
			"confirmed_at": uc.now().UTC().Format(time.RFC3339),
			"request_id":   requestID,
		},
	}
	if payment.Status.IsTerminal() {
		// the ledger entry is still written, but the recorded decision must not
		// contradict the final status
		patch = nil
	}

	result, err := uc.PaymentRepository.ApplyPaymentEvent(ctx, &contracts.ApplyPaymentEventInput{
		Event:         event,
		NewStatus:     status,
		MetadataPatch: patch,
	})
	if err != nil {
		uc.Log.Error("paymentUsecase.ConfirmManualPayment error applying confirmation",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	if result.Transitioned {
		utils.LogBusinessEvent(uc.Log, "manual_payment_confirmed", requestID,
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.String(constvars.LoggingPaymentStatusKey, request.Status),
		)
		if status == models.PaymentStatusCompleted {
			uc.afterCompletion(ctx, payment.ID)
		}
	}

	current, err := uc.PaymentRepository.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, exceptions.ErrPaymentNotFound(nil)
	}
	return toPaymentResponse(current), nil
}

// afterCompletion runs the side effects of a payment reaching completed.
// Failures are logged and never reach the caller.
func (uc *paymentUsecase) afterCompletion(ctx context.Context, paymentID string) {
	requestID := utils.GetRequestID(ctx)

	payment, err := uc.PaymentRepository.FindByID(ctx, paymentID)
	if err != nil || payment == nil {
		uc.Log.Error("paymentUsecase.afterCompletion error re-fetching payment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, paymentID),
			zap.Error(err),
		)
		return
	}

	appointment, err := uc.provisionAppointment(ctx, payment)
	if err != nil {
		var customErr *exceptions.CustomError
		if !errors.As(err, &customErr) {
			customErr = exceptions.ErrServerProcess(err)
		}
		uc.Log.Error("paymentUsecase.afterCompletion appointment provisioning failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentIDKey, paymentID),
			zap.String(constvars.LoggingErrorMessageKey, customErr.DevMessage),
			zap.Error(err),
		)
	}

	uc.notifyPaymentCompleted(ctx, payment, appointment)
}

func manualConfirmationEventID(payment *models.Payment, status models.PaymentStatus) string {
	reference := payment.ProviderTransactionID
	if reference == "" {
		reference = payment.ID
	}
	return string(models.PaymentProviderManual) + ":manual_confirmation." + string(status) + ":" + reference
}

func toPaymentResponse(payment *models.Payment) *responses.Payment {
	response := &responses.Payment{
		ID:                    payment.ID,
		UserID:                payment.UserID,
		Provider:              string(payment.Provider),
		ProviderTransactionID: payment.ProviderTransactionID,
		Amount:                payment.Amount,
		Currency:              payment.Currency,
		Status:                string(payment.Status),
		Metadata:              payment.Metadata,
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
	}
	if payment.HasAppointment() {
		response.AppointmentID = *payment.AppointmentID
	}
	return response
}
