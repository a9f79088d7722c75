package constvars

import "time"

const (
	HeaderPaystackSignature    = "x-paystack-signature"
	HeaderFlutterwaveSignature = "flutterwave-signature"
	HeaderFlutterwaveVerifHash = "verif-hash"
)

const (
	PaystackEventChargeSuccess      = "charge.success"
	PaystackEventChargeFailed       = "charge.failed"
	FlutterwaveEventChargeCompleted = "charge.completed"
)

// Keys stored inside payments.metadata.
const (
	MetadataKeyAppointmentData    = "appointment_data"
	MetadataKeyProcessedEvents    = "processed_events"
	MetadataKeyLastEvent          = "last_event"
	MetadataKeyVerification       = "verification"
	MetadataKeyManualStatus       = "manual_status"
	MetadataKeyManualConfirmation = "manual_confirmation"
	MetadataKeyExpiryReason       = "expiry_reason"
	MetadataKeyExpiredAt          = "expired_at"
	MetadataKeyLastSeenStatus     = "last_verification_status"
	MetadataKeyVerificationError  = "verification_error"
	MetadataKeyInitialization     = "initialization"
	MetadataKeyAppointmentError   = "appointment_error"
)

const (
	ExpiryReasonGraceWindowElapsed   = "grace_window_elapsed"
	ExpiryReasonVerificationError    = "verification_error"
	ExpiryReasonNoManualConfirmation = "no_manual_confirmation"
	ExpiryReasonUnsupportedProvider  = "unsupported_provider"
)

const (
	// ProcessedEventsLedgerCap bounds the processed_events mirror kept in metadata.
	ProcessedEventsLedgerCap  = 20
	DefaultPendingGraceWindow = time.Hour
	PaymentReferencePrefix    = "CLNC"
)

const (
	SweepActionCompleted = "completed"
	SweepActionFailed    = "failed"
	SweepActionExpired   = "expired"
	SweepActionSkipped   = "skipped"
	SweepActionError     = "error"
)
