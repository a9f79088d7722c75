package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"clinic-service/internal/app/drivers/mailer"
	"clinic-service/internal/pkg/dto/requests"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestSmtpService(sendErr error) (*smtpService, *capturedMail) {
	captured := &capturedMail{}
	svc := &smtpService{
		Client: &mailer.SMTPClient{Host: "smtp.clinic.test", Port: 2525, EmailSender: "default@clinic.test"},
		sendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			captured.addr = addr
			captured.from = from
			captured.to = to
			captured.msg = string(msg)
			return sendErr
		},
	}
	return svc, captured
}

func TestSendHTMLEmail(t *testing.T) {
	svc, captured := newTestSmtpService(nil)

	err := svc.SendHTMLEmail(context.Background(), &requests.EmailPayload{
		Subject:  "Payment received",
		To:       []string{"patient@example.com"},
		Cc:       []string{"frontdesk@clinic.test"},
		Bcc:      []string{"audit@clinic.test"},
		HTMLCode: "<p>Thanks</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.clinic.test:2525", captured.addr)
	assert.Equal(t, "default@clinic.test", captured.from)
	assert.Equal(t, []string{"patient@example.com", "frontdesk@clinic.test", "audit@clinic.test"}, captured.to)
	assert.Contains(t, captured.msg, "Subject: Payment received\r\n")
	assert.Contains(t, captured.msg, "Content-Type: text/html")
	assert.NotContains(t, captured.msg, "audit@clinic.test", "bcc must not appear in headers")
}

func TestSendHTMLEmail_Errors(t *testing.T) {
	svc, _ := newTestSmtpService(errors.New("connection refused"))

	err := svc.SendHTMLEmail(context.Background(), &requests.EmailPayload{To: []string{"patient@example.com"}})
	require.Error(t, err)

	err = svc.SendHTMLEmail(context.Background(), &requests.EmailPayload{})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.SendHTMLEmail(ctx, &requests.EmailPayload{To: []string{"patient@example.com"}})
	assert.ErrorIs(t, err, context.Canceled)
}
