package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher pushes events onto an external broker for delivery to connected
// transports (websocket gateways, workers). At-least-once: the engine does
// not await delivery confirmation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange. Routing key is
// livechat.<org>.<recipient-type>.<recipient-id> so gateways can bind per
// tenant or per connection.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher connects and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, exchange: exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msgID := event.ID
	if msgID == "" {
		msgID = uuid.NewString()
	}

	key := fmt.Sprintf("livechat.%d.%s.%d",
		event.OrganizationID,
		event.Recipient.Type,
		event.Recipient.ID,
	)

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msgID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err == nil {
		p.logger.Debug("published", zap.String("key", key), zap.String("exchange", p.exchange))
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// FallbackPublisher drops events with a warning, used when AMQP is not
// configured.
type FallbackPublisher struct {
	logger *zap.Logger
}

// NewFallbackPublisher creates the no-op publisher.
func NewFallbackPublisher(logger *zap.Logger) *FallbackPublisher {
	return &FallbackPublisher{logger: logger}
}

func (p *FallbackPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Warn("fallback publisher: skipped publish",
		zap.String("event_type", string(event.Type)),
		zap.String("chat_id", event.ChatID))
	return nil
}

func (p *FallbackPublisher) Close() error {
	return nil
}
