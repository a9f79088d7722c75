package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Payment messages
	InitializePaymentSuccessMessage  = "payment initialized successfully"
	GetPaymentSuccessMessage         = "get payment successfully"
	ManualConfirmationSuccessMessage = "manual payment confirmation recorded"
)
