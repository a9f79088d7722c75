package smtp

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"clinic-service/internal/app/drivers/mailer"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"
)

const htmlMessageFormat = "From: %s\r\nTo: %s\r\nCc: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s\r\n"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpService struct {
	Client   *mailer.SMTPClient
	sendMail sendMailFunc
}

func NewSmtpService(client *mailer.SMTPClient) SMTPService {
	return &smtpService{
		Client:   client,
		sendMail: smtp.SendMail,
	}
}

func (svc *smtpService) SendHTMLEmail(ctx context.Context, payload *requests.EmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(payload.To) == 0 {
		return exceptions.ErrSMTPSendEmail(errors.New("no recipients"), svc.Client.Host)
	}

	from := payload.From
	if from == "" {
		from = svc.Client.EmailSender
	}

	msg := []byte(fmt.Sprintf(htmlMessageFormat,
		from,
		strings.Join(payload.To, ", "),
		strings.Join(payload.Cc, ", "),
		payload.Subject,
		payload.HTMLCode,
	))

	recipients := make([]string, 0, len(payload.To)+len(payload.Cc)+len(payload.Bcc))
	recipients = append(recipients, payload.To...)
	recipients = append(recipients, payload.Cc...)
	recipients = append(recipients, payload.Bcc...)

	if err := svc.sendMail(svc.Client.Address(), svc.Client.Auth, from, recipients, msg); err != nil {
		return exceptions.ErrSMTPSendEmail(err, svc.Client.Host)
	}
	return nil
}
