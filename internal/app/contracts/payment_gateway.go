package contracts

import (
	"context"
	"net/http"

	"clinic-service/internal/app/models"

	"github.com/shopspring/decimal"
)

// PaymentGateway is one payment rail with a webhook. Implementations are
// selected by the provider persisted on the payment, never by the request.
type PaymentGateway interface {
	Provider() models.PaymentProvider
	// ExtractReferences lists every transaction reference the body carries,
	// most specific first.
	ExtractReferences(rawBody []byte) []string
	VerifySignature(header http.Header, rawBody []byte) error
	ParseEvent(rawBody []byte) (*WebhookEvent, error)
	// ResolveEventID must be deterministic for a given event type and reference.
	ResolveEventID(event *WebhookEvent, reference string) string
	Verify(ctx context.Context, reference string) (*PaymentVerification, error)
	Initialize(ctx context.Context, input *InitializePaymentInput) (*InitializePaymentOutput, error)
}

type WebhookEventKind int

const (
	WebhookEventUnhandled WebhookEventKind = iota
	WebhookEventStatusChange
)

type WebhookEvent struct {
	Type      string
	Kind      WebhookEventKind
	Reference string
	// ReportedStatus is what the body claims. It is recorded, never acted on.
	ReportedStatus string
	Data           map[string]interface{}
}

type PaymentVerification struct {
	Status        models.PaymentStatus
	GatewayStatus string
	Metadata      models.Metadata
}

type InitializePaymentInput struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	CallbackURL   string
	Metadata      map[string]interface{}
}

type InitializePaymentOutput struct {
	Reference   string
	CheckoutURL string
	AccessCode  string
}
