package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"len":      "must be %s characters long",
	"oneof":    "must be one of [%s]",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"url":      "must be a valid URL",
	"uuid":     "must be a valid UUID",
	"datetime": "must follow the %s format",
	"gt":       "must be greater than %s",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"len":      true,
	"oneof":    true,
	"min":      true,
	"max":      true,
	"datetime": true,
	"gt":       true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientRequestBodyTooLarge           = "request body is too large"
	ErrClientTooManyRequests               = "too many requests, please slow down"

	ErrClientPaymentNotFound              = "payment not found"
	ErrClientWebhookMissingReference      = "missing transaction reference"
	ErrClientUnsupportedPaymentProvider   = "unsupported payment provider"
	ErrClientInvalidWebhookSignature      = "invalid signature"
	ErrClientWebhookNotConfigured         = "webhook verification is not configured"
	ErrClientPaymentGatewayUnavailable    = "payment gateway unavailable"
	ErrClientManualConfirmationNotAllowed = "manual confirmation is only available for manual payments"
	ErrClientInvalidAmount                = "amount must be greater than zero"
	ErrClientInvalidCronSecret            = "unauthorized"
)

// Error messages for developers
const (
	ErrDevInvalidInput             = "invalid input"
	ErrDevValidationFailed         = "request validation failed"
	ErrDevCannotParseJSON          = "cannot parse JSON into struct or other data types"
	ErrDevCannotMarshalJSON        = "cannot convert struct or other data types to JSON"
	ErrDevCannotReadRequestBody    = "cannot read request body"
	ErrDevRequestBodyTooLarge      = "request body exceeded the configured limit"
	ErrDevServerDeadlineExceeded   = "server deadline exceeded"
	ErrDevServerProcess            = "server failed to process the request"
	ErrDevMissingRequestID         = "request id missing from context"
	ErrDevTooManyRequests          = "rate limit exceeded"
	ErrDevInvalidAPIKey            = "INVALID_API_KEY"
	ErrDevAPIKeyRequired           = "API_KEY_REQUIRED"
	ErrDevInvalidCronSecret        = "cron secret missing or mismatched"
	ErrDevURLParamIDValidation     = "url param %s failed validation"
	ErrDevCreateHTTPRequest        = "failed to create http request"
	ErrDevSendHTTPRequest          = "failed to send http request"
	ErrDevDecodeHTTPResponse       = "failed to decode http response from %s"
	ErrDevUnexpectedHTTPStatusCode = "unexpected http status %d from %s"

	ErrDevPaymentNotFound              = "no payment matches the given reference or id"
	ErrDevWebhookMissingReference      = "webhook payload carries no recognizable transaction reference"
	ErrDevUnsupportedPaymentProvider   = "no gateway variant registered for provider %s"
	ErrDevInvalidWebhookSignature      = "webhook signature missing or mismatched for provider %s"
	ErrDevWebhookSecretNotConfigured   = "webhook signing secret not configured for provider %s"
	ErrDevPaymentGatewayVerify         = "gateway verification failed for provider %s"
	ErrDevPaymentGatewayInitialize     = "gateway initialization failed for provider %s"
	ErrDevManualConfirmationNotAllowed = "manual confirmation attempted on %s payment"
	ErrDevInvalidAmount                = "payment amount must be positive"
	ErrDevAppointmentAlreadyLinked     = "payment %s already references an appointment"
	ErrDevInvalidAppointmentData       = "appointment_data payload is malformed"
	ErrDevPostgresFindData             = "failed to find data in postgres"
	ErrDevPostgresInsertData           = "failed to insert data into postgres"
	ErrDevPostgresUpdateData           = "failed to update data in postgres"
	ErrDevPostgresDeleteData           = "failed to delete data from postgres"
	ErrDevPostgresTransaction          = "failed to run postgres transaction"
	ErrDevRedisGetData                 = "failed to get data from redis"
	ErrDevRedisSetData                 = "failed to set data in redis"
	ErrDevRedisDeleteData              = "failed to delete data from redis"
	ErrDevRedisExpire                  = "failed to set expiry in redis"
	ErrDevRedisUnlock                  = "failed to release redis lock"
	ErrDevRabbitMQPublishMessage       = "failed to publish message to queue %s"
	ErrDevMinioCreateObject            = "failed to create object in bucket %s"
	ErrDevSMTPSendEmail                = "failed to send email through %s"
)
