package payments

import (
	"context"
	"fmt"
	"html"
	"time"

	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const notificationPublishTimeout = 5 * time.Second

const paymentCompletedTemplate = `<p>Hello,</p>
<p>We received your payment of <strong>%s %s</strong> (reference %s).</p>
%s<p>Thank you.</p>`

const appointmentBookedTemplate = `<p>Your appointment is booked for %s at %s (%s).</p>
`

// notifyPaymentCompleted is fire-and-forget: publishing problems are logged only.
func (uc *paymentUsecase) notifyPaymentCompleted(ctx context.Context, payment *models.Payment, appointment *models.Appointment) {
	if uc.MailerService == nil || payment.CustomerEmail == "" {
		return
	}

	appointmentLine := ""
	if appointment != nil {
		appointmentLine = fmt.Sprintf(appointmentBookedTemplate,
			html.EscapeString(appointment.AppointmentDate),
			html.EscapeString(appointment.AppointmentTime),
			html.EscapeString(appointment.TreatmentType),
		)
	}

	payload := &requests.EmailPayload{
		Subject: "Payment received",
		From:    uc.InternalConfig.Mailer.EmailSender,
		To:      []string{payment.CustomerEmail},
		HTMLCode: fmt.Sprintf(paymentCompletedTemplate,
			html.EscapeString(payment.Currency),
			payment.Amount.StringFixed(2),
			html.EscapeString(payment.ProviderTransactionID),
			appointmentLine,
		),
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationPublishTimeout)
	defer cancel()

	if err := uc.MailerService.SendEmail(publishCtx, payload); err != nil {
		uc.Log.Warn("paymentUsecase.notifyPaymentCompleted failed to queue email",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingPaymentIDKey, payment.ID),
			zap.Error(err),
		)
	}
}
