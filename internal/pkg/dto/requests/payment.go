package requests

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type InitializePayment struct {
	UserID          string           `json:"user_id" validate:"required"`
	Provider        string           `json:"provider" validate:"required,oneof=paystack flutterwave manual"`
	Amount          decimal.Decimal  `json:"amount" validate:"required"`
	Currency        string           `json:"currency" validate:"required,len=3"`
	CustomerEmail   string           `json:"customer_email" validate:"required,email"`
	CallbackURL     string           `json:"callback_url" validate:"omitempty,url"`
	AppointmentData *AppointmentData `json:"appointment_data,omitempty"`
}

type ManualConfirmation struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
	Note   string `json:"note" validate:"max=500"`
}

// AppointmentData is the booking payload carried in payments.metadata until the
// payment completes.
type AppointmentData struct {
	BranchID        string `json:"branch_id" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointment_time" validate:"required,datetime=15:04"`
	TreatmentType   string `json:"treatment_type" validate:"required"`
	Notes           string `json:"notes,omitempty"`
	AutoCreate      *bool  `json:"auto_create,omitempty"`
}

func (a AppointmentData) AutoCreateEnabled() bool {
	return a.AutoCreate == nil || *a.AutoCreate
}

type PaymentWebhook struct {
	RawBody      []byte
	Header       http.Header
	ProviderHint string
}
