package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scenegen-server/internal/interfaces"
	"scenegen-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
	appID           = "scenegen-server"
)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ interfaces.GenerationEventPublisher = (*rabbitMQPublisher)(nil)

// rabbitMQPublisher публикует события о завершенной генерации.
type rabbitMQPublisher struct {
	channel   channel
	queueName string
	logger    *zap.Logger
}

// NewGenerationEventPublisher opens a channel and declares the durable events queue.
func NewGenerationEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("generation event publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("generation event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Generation events queue declared", zap.String("queue", queueName))
	return newPublisher(ch, queueName, logger), nil
}

func newPublisher(ch channel, queueName string, logger *zap.Logger) *rabbitMQPublisher {
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger.Named("GenerationEventPublisher")}
}

// PublishGenerationCompleted sends the event as persistent JSON.
func (p *rabbitMQPublisher) PublishGenerationCompleted(ctx context.Context, event models.GenerationCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка маршалинга GenerationCompletedEvent: %w", err)
	}
	return p.publishMessage(ctx, body, "generation.completed")
}

// Close releases the channel.
func (p *rabbitMQPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte, messageType string) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Type:         messageType,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < publishAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("ошибка публикации в очередь %s: %w", p.queueName, ctx.Err())
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}
