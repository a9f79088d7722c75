package smtp

import (
	"context"

	"clinic-service/internal/pkg/dto/requests"
)

type SMTPService interface {
	SendHTMLEmail(ctx context.Context, payload *requests.EmailPayload) error
}
