package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clinic-service/internal/app/config"
	"clinic-service/internal/pkg/dto/requests"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSMTPService struct {
	mock.Mock
}

func (m *MockSMTPService) SendHTMLEmail(ctx context.Context, payload *requests.EmailPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type fakeDelivery struct {
	acks     int
	requeues int
}

func (d *fakeDelivery) Ack(multiple bool) error {
	d.acks++
	return nil
}

func (d *fakeDelivery) Nack(multiple, requeue bool) error {
	if requeue {
		d.requeues++
	}
	return nil
}

type published struct {
	queue   string
	body    []byte
	headers amqp.Table
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, queue string, body []byte, headers amqp.Table) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{queue: queue, body: body, headers: headers})
	return nil
}

func newTestWorker(smtpService *MockSMTPService) (*Worker, *fakePublisher) {
	publisher := &fakePublisher{}
	worker := NewWorker(zap.NewNop(), &config.InternalConfig{
		Mailer: config.AppMailer{RabbitMQMailerQueue: "mail"},
	}, smtpService)
	worker.publisher = publisher
	return worker, publisher
}

const validEmailBody = `{"id":"m1","subject":"Payment received","to":["patient@example.com"],"html_code":"<p>ok</p>"}`

func TestWorkerHandle_SendsAndAcks(t *testing.T) {
	smtpService := new(MockSMTPService)
	smtpService.On("SendHTMLEmail", mock.Anything, mock.MatchedBy(func(p *requests.EmailPayload) bool {
		return p.ID == "m1" && p.To[0] == "patient@example.com"
	})).Return(nil)
	worker, publisher := newTestWorker(smtpService)
	delivery := &fakeDelivery{}

	worker.handle(context.Background(), delivery, []byte(validEmailBody), amqp.Table{"request_id": "req-1"})

	assert.Equal(t, 1, delivery.acks)
	assert.Empty(t, publisher.messages)
	smtpService.AssertExpectations(t)
}

func TestWorkerHandle_MalformedGoesToDeadLetter(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"to":`},
		{name: "no recipients", body: `{"id":"m1","to":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smtpService := new(MockSMTPService)
			worker, publisher := newTestWorker(smtpService)
			delivery := &fakeDelivery{}

			worker.handle(context.Background(), delivery, []byte(tt.body), amqp.Table{})

			assert.Equal(t, 1, delivery.acks)
			require.Len(t, publisher.messages, 1)
			assert.Equal(t, "mail.dlq", publisher.messages[0].queue)
			smtpService.AssertNotCalled(t, "SendHTMLEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestWorkerHandle_RetriesThenDeadLetters(t *testing.T) {
	smtpService := new(MockSMTPService)
	smtpService.On("SendHTMLEmail", mock.Anything, mock.Anything).Return(errors.New("421 try later"))
	worker, publisher := newTestWorker(smtpService)

	worker.handle(context.Background(), &fakeDelivery{}, []byte(validEmailBody), amqp.Table{})
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "mail", publisher.messages[0].queue)
	assert.Equal(t, int32(1), publisher.messages[0].headers[attemptsHeader])

	worker.handle(context.Background(), &fakeDelivery{}, []byte(validEmailBody), publisher.messages[0].headers)
	require.Len(t, publisher.messages, 2)
	assert.Equal(t, "mail", publisher.messages[1].queue)
	assert.Equal(t, int32(2), publisher.messages[1].headers[attemptsHeader])

	delivery := &fakeDelivery{}
	worker.handle(context.Background(), delivery, []byte(validEmailBody), publisher.messages[1].headers)
	require.Len(t, publisher.messages, 3)
	assert.Equal(t, "mail.dlq", publisher.messages[2].queue)
	assert.Equal(t, 1, delivery.acks)
}

func TestWorkerHandle_RequeuesWhenRepublishFails(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sendErr  error
		sendCall bool
	}{
		{name: "send failure", body: validEmailBody, sendErr: errors.New("421 try later"), sendCall: true},
		{name: "malformed message", body: `{"to":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smtpService := new(MockSMTPService)
			if tt.sendCall {
				smtpService.On("SendHTMLEmail", mock.Anything, mock.Anything).Return(tt.sendErr)
			}
			worker, publisher := newTestWorker(smtpService)
			publisher.err = errors.New("channel closed")
			delivery := &fakeDelivery{}

			worker.handle(context.Background(), delivery, []byte(tt.body), amqp.Table{})

			assert.Equal(t, 0, delivery.acks)
			assert.Equal(t, 1, delivery.requeues)
			assert.Empty(t, publisher.messages)
			smtpService.AssertExpectations(t)
		})
	}
}

func TestAttemptCount(t *testing.T) {
	assert.Equal(t, 0, attemptCount(amqp.Table{}))
	assert.Equal(t, 2, attemptCount(amqp.Table{attemptsHeader: int32(2)}))
	assert.Equal(t, 4, attemptCount(amqp.Table{attemptsHeader: int64(4)}))
	assert.Equal(t, 0, attemptCount(amqp.Table{attemptsHeader: "3"}))
}
