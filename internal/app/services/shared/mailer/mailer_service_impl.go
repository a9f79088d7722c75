package mailer

import (
	"context"
	"errors"
	"sync"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	mailerServiceInstance MailerService
	onceMailerService     sync.Once
	mailerServiceErr      error
)

type mailerService struct {
	Channel  *amqp091.Channel
	Queue    string
	Log      *zap.Logger
	confirms chan amqp091.Confirmation
	mu       sync.Mutex
}

func DeadLetterQueueName(queue string) string {
	return queue + ".dlq"
}

func NewMailerService(rabbitMQConnection *amqp091.Connection, queue string, logger *zap.Logger) (MailerService, error) {
	onceMailerService.Do(func() {
		channel, err := rabbitMQConnection.Channel()
		if err != nil {
			mailerServiceErr = err
			return
		}

		for _, name := range []string{queue, DeadLetterQueueName(queue)} {
			if _, err := channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
				mailerServiceErr = err
				return
			}
		}

		if err := channel.Confirm(false); err != nil {
			mailerServiceErr = err
			return
		}

		mailerServiceInstance = &mailerService{
			Channel:  channel,
			Queue:    queue,
			Log:      logger,
			confirms: channel.NotifyPublish(make(chan amqp091.Confirmation, 1)),
		}
	})
	return mailerServiceInstance, mailerServiceErr
}

func (s *mailerService) SendEmail(ctx context.Context, request *requests.EmailPayload) error {
	requestID := utils.GetRequestID(ctx)
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	s.Log.Info("mailerService.SendEmail called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, s.Queue),
		zap.String(constvars.LoggingMessageIDKey, request.ID),
	)

	body, err := json.Marshal(request)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	message := amqp091.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    request.ID,
		Headers: amqp091.Table{
			"message_type": "JSON",
			"request_id":   requestID,
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Channel.PublishWithContext(ctx, "", s.Queue, false, false, message); err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, s.Queue)
	}

	select {
	case confirmed := <-s.confirms:
		if !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(errors.New("message not confirmed"), s.Queue)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), s.Queue)
	}
	return nil
}
