package utils

import (
	"context"
	"time"

	"clinic-service/internal/pkg/constvars"

	"go.uber.org/zap"
)

// LogOperation times fn and logs its outcome. Used by background jobs that
// have no HTTP access log.
func LogOperation(logger *zap.Logger, operation string, requestID string, fn func() error) error {
	start := time.Now()
	fields := []zap.Field{
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOperationKey, operation),
	}
	logger.Debug("Operation started", fields...)

	err := fn()
	fields = append(fields,
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
		zap.Bool(constvars.LoggingSuccessKey, err == nil),
	)
	if err != nil {
		logger.Error("Operation failed", append(fields, zap.Error(err))...)
		return err
	}

	logger.Info("Operation completed", fields...)
	return nil
}

// LogBusinessEvent records a state change operators reconcile against,
// e.g. payment_completed or appointment_provisioned.
func LogBusinessEvent(logger *zap.Logger, event string, requestID string, fields ...zap.Field) {
	logger.Info("Business event occurred", append([]zap.Field{
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBusinessEventKey, event),
	}, fields...)...)
}

// LogSecurityEvent records rejected signatures, keys and secrets.
func LogSecurityEvent(logger *zap.Logger, event string, requestID string, severity string, fields ...zap.Field) {
	logger.Warn("Security event detected", append([]zap.Field{
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSecurityEventKey, event),
		zap.String(constvars.LoggingSeverityKey, severity),
	}, fields...)...)
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string); ok {
		return requestID
	}
	return ""
}

// ContextWithRequestID is used by background jobs that have no inbound request.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constvars.CONTEXT_REQUEST_ID_KEY, requestID)
}
