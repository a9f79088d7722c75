package notifications

import (
	"context"
	"errors"
	"sync"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/services/shared/mailer"
	"clinic-service/internal/app/services/shared/smtp"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	maxDeliveryAttempts = 3
	attemptsHeader      = "x-attempts"
	consumerTag         = "clinic-notification-worker"
)

// Delivery is the part of amqp.Delivery the worker needs.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Publisher re-publishes messages for retries and dead-lettering.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte, headers amqp.Table) error
}

// Worker consumes the mail queue and sends each message over SMTP with
// at-least-once semantics. Undecodable messages go straight to the DLQ;
// failed sends are retried a few times first.
type Worker struct {
	log       *zap.Logger
	cfg       *config.InternalConfig
	smtp      smtp.SMTPService
	publisher Publisher
	channel   *amqp.Channel
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

func NewWorker(log *zap.Logger, cfg *config.InternalConfig, smtpService smtp.SMTPService) *Worker {
	return &Worker{
		log:  log,
		cfg:  cfg,
		smtp: smtpService,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start opens a dedicated channel and consumes until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context, conn *amqp.Connection) error {
	channel, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		return err
	}

	queue := w.cfg.Mailer.RabbitMQMailerQueue
	deliveries, err := channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		channel.Close()
		return err
	}

	w.channel = channel
	w.publisher = &channelPublisher{channel: channel}
	w.log.Info("notifications.worker started", zap.String(constvars.LoggingQueueNameKey, queue))

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case delivery, ok := <-deliveries:
				if !ok {
					w.log.Warn("notifications.worker delivery channel closed")
					return
				}
				w.handle(ctx, &delivery, delivery.Body, delivery.Headers)
			}
		}
	}()
	return nil
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.channel != nil {
			_ = w.channel.Cancel(consumerTag, false)
		}
		<-w.done
		if w.channel != nil {
			_ = w.channel.Close()
		}
	})
}

func (w *Worker) handle(ctx context.Context, delivery Delivery, body []byte, headers amqp.Table) {
	queue := w.cfg.Mailer.RabbitMQMailerQueue

	var payload requests.EmailPayload
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.To) == 0 {
		if err == nil {
			err = errors.New("email payload has no recipients")
		}
		w.log.Warn("notifications.worker malformed message moved to dead letter queue",
			zap.String(constvars.LoggingQueueNameKey, queue),
			zap.Error(err),
		)
		w.settle(delivery, w.republish(ctx, mailer.DeadLetterQueueName(queue), body, headers))
		return
	}

	requestID, _ := headers["request_id"].(string)
	ctx = utils.ContextWithRequestID(ctx, requestID)

	if err := w.smtp.SendHTMLEmail(ctx, &payload); err != nil {
		attempts := attemptCount(headers) + 1
		target := queue
		if attempts >= maxDeliveryAttempts {
			target = mailer.DeadLetterQueueName(queue)
		}
		w.log.Error("notifications.worker send failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingMessageIDKey, payload.ID),
			zap.Int("attempts", attempts),
			zap.String(constvars.LoggingQueueNameKey, target),
			zap.Error(err),
		)
		retryHeaders := amqp.Table{}
		for k, v := range headers {
			retryHeaders[k] = v
		}
		retryHeaders[attemptsHeader] = int32(attempts)
		w.settle(delivery, w.republish(ctx, target, body, retryHeaders))
		return
	}

	w.log.Info("notifications.worker email sent",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingMessageIDKey, payload.ID),
	)
	_ = delivery.Ack(false)
}

func (w *Worker) republish(ctx context.Context, queue string, body []byte, headers amqp.Table) error {
	if err := w.publisher.Publish(ctx, queue, body, headers); err != nil {
		w.log.Error("notifications.worker republish failed",
			zap.String(constvars.LoggingQueueNameKey, queue),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// settle acks a message whose copy was re-published and requeues it otherwise,
// so a broker hiccup never drops an email.
func (w *Worker) settle(delivery Delivery, republishErr error) {
	if republishErr != nil {
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
}

func attemptCount(headers amqp.Table) int {
	switch v := headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

type channelPublisher struct {
	channel *amqp.Channel
}

func (p *channelPublisher) Publish(ctx context.Context, queue string, body []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
	})
}
