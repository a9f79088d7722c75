package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusExpired    PaymentStatus = "expired"
)

// IsOpen reports whether the payment may still transition.
func (s PaymentStatus) IsOpen() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}

func (s PaymentStatus) IsTerminal() bool {
	return !s.IsOpen()
}

type PaymentProvider string

const (
	PaymentProviderPaystack    PaymentProvider = "paystack"
	PaymentProviderFlutterwave PaymentProvider = "flutterwave"
	PaymentProviderManual      PaymentProvider = "manual"
)

func (p PaymentProvider) IsValid() bool {
	switch p {
	case PaymentProviderPaystack, PaymentProviderFlutterwave, PaymentProviderManual:
		return true
	}
	return false
}

type Payment struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id"`
	Provider              PaymentProvider `json:"provider"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Status                PaymentStatus   `json:"status"`
	CustomerEmail         string          `json:"customer_email"`
	Metadata              Metadata        `json:"metadata"`
	AppointmentID         *string         `json:"appointment_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (p *Payment) HasAppointment() bool {
	return p.AppointmentID != nil && *p.AppointmentID != ""
}
