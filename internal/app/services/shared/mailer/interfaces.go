package mailer

import (
	"context"

	"clinic-service/internal/pkg/dto/requests"
)

// MailerService queues an email for the notification worker.
type MailerService interface {
	SendEmail(ctx context.Context, request *requests.EmailPayload) error
}
