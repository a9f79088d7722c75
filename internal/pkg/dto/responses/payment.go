package responses

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                    string                 `json:"id"`
	UserID                string                 `json:"user_id"`
	Provider              string                 `json:"provider"`
	ProviderTransactionID string                 `json:"provider_transaction_id,omitempty"`
	Amount                decimal.Decimal        `json:"amount"`
	Currency              string                 `json:"currency"`
	Status                string                 `json:"status"`
	AppointmentID         string                 `json:"appointment_id,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

type InitializePayment struct {
	PaymentID   string `json:"payment_id"`
	Provider    string `json:"provider"`
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	Status      string `json:"status"`
}

type WebhookAck struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

type ExpirySweepSummary struct {
	TotalChecked      int                 `json:"total_checked"`
	Expired           int                 `json:"expired"`
	VerifiedCompleted int                 `json:"verified_completed"`
	MarkedFailed      int                 `json:"marked_failed"`
	Results           []ExpirySweepResult `json:"results"`
}

type ExpirySweepResult struct {
	PaymentID string `json:"payment_id"`
	Provider  string `json:"provider"`
	Action    string `json:"action"`
	Status    string `json:"status,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}
