package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/livechat-service/internal/events"
)

// NotificationService bridges domain events to the external fan-out
// publisher. Delivery is at-least-once; the emitting services never await
// confirmation.
type NotificationService struct {
	bus       events.Dispatcher
	publisher events.Publisher
	logger    *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(bus events.Dispatcher, publisher events.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		bus:       bus,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.bus == nil {
		return
	}
	n.bus.Subscribe(events.EventChatCreated, n.forward)
	n.bus.Subscribe(events.EventChatAssigned, n.forward)
	n.bus.Subscribe(events.EventChatRequeued, n.forward)
	n.bus.Subscribe(events.EventChatClosed, n.forward)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	n.logger.Info("notify",
		zap.String("event_type", string(event.Type)),
		zap.String("chat_id", event.ChatID),
		zap.String("recipient_type", string(event.Recipient.Type)),
		zap.Int64("recipient_id", event.Recipient.ID))

	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("chat_id", event.ChatID),
			zap.Error(err))
	}
	return nil
}
