package contracts

import (
	"context"
	"time"

	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/dto/responses"
)

type PaymentUsecase interface {
	InitializePayment(ctx context.Context, request *requests.InitializePayment) (*responses.InitializePayment, error)
	FindPaymentByID(ctx context.Context, paymentID string) (*responses.Payment, error)
	ConfirmManualPayment(ctx context.Context, paymentID string, request *requests.ManualConfirmation) (*responses.Payment, error)
	HandleWebhook(ctx context.Context, request *requests.PaymentWebhook) (*responses.WebhookAck, error)
	ExpirePendingPayments(ctx context.Context) (*responses.ExpirySweepSummary, error)
}

// PaymentRepository finders return (nil, nil) when no row matches.
type PaymentRepository interface {
	FindByID(ctx context.Context, paymentID string) (*models.Payment, error)
	FindByProviderTransactionID(ctx context.Context, reference string) ([]models.Payment, error)
	FindStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	SetProviderTransactionID(ctx context.Context, paymentID, reference string, patch models.Metadata) error
	MergeMetadata(ctx context.Context, paymentID string, patch models.Metadata) error
	HasEvent(ctx context.Context, paymentID, eventID string) (bool, error)
	ApplyPaymentEvent(ctx context.Context, input *ApplyPaymentEventInput) (*ApplyPaymentEventResult, error)
	UpdateStatusIfPending(ctx context.Context, paymentID string, status models.PaymentStatus, patch models.Metadata) (bool, error)
	LinkAppointment(ctx context.Context, paymentID, appointmentID string) (bool, error)
}

// ApplyPaymentEventInput records Event in the ledger and, when NewStatus is
// set and the payment is still open, transitions it. MetadataPatch is merged
// regardless of whether a transition happens.
type ApplyPaymentEventInput struct {
	Event         models.PaymentEvent
	NewStatus     models.PaymentStatus
	MetadataPatch models.Metadata
}

type ApplyPaymentEventResult struct {
	Duplicate    bool
	Transitioned bool
	Payment      *models.Payment
}
