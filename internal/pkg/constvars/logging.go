package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingRequestKey        = "request"
	LoggingResponseKey       = "response"
	LoggingDataKey           = "data"
	LoggingEndpointKey       = "endpoint"
	LoggingMethodKey         = "method"
	LoggingRemoteAddrKey     = "remote_addr"
	LoggingUserAgentKey      = "user_agent"
	LoggingQueryKey          = "query"
	LoggingStatusCodeKey     = "status_code"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"
	LoggingOperationKey      = "operation"
	LoggingErrorTypeKey      = "error_type"
	LoggingErrorCodeKey      = "error_code"
	LoggingErrorMessageKey   = "error_message"
	LoggingErrorLocationKey  = "location"
	LoggingRedisKey          = "redis_key"
	LoggingLockValueKey      = "lock_value"
	LoggingLockExpirationKey = "lock_expiration"
	LoggingQueueNameKey      = "queue_name"
	LoggingMessageIDKey      = "message_id"
	LoggingBucketNameKey     = "bucket_name"
	LoggingObjectNameKey     = "object_name"
	LoggingBusinessEventKey  = "business_event"
	LoggingSecurityEventKey  = "security_event"
	LoggingSeverityKey       = "severity"

	LoggingPaymentIDKey         = "payment_id"
	LoggingPaymentProviderKey   = "payment_provider"
	LoggingPaymentReferenceKey  = "payment_reference"
	LoggingPaymentStatusKey     = "payment_status"
	LoggingGatewayStatusKey     = "gateway_status"
	LoggingWebhookEventIDKey    = "webhook_event_id"
	LoggingWebhookEventTypeKey  = "webhook_event_type"
	LoggingAppointmentIDKey     = "appointment_id"
	LoggingSweepTotalCheckedKey = "total_checked"
)
