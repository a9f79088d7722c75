package models

import "time"

// PaymentEvent is one row of the payment_events idempotency ledger.
type PaymentEvent struct {
	PaymentID string          `json:"payment_id"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Provider  PaymentProvider `json:"provider"`
	CreatedAt time.Time       `json:"created_at"`
}
