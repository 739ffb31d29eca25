package service

import (
	"context"
	"encoding/json"
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/mailer"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"
	"jeezy-monetization-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// INotificationPublisher hands a committed payment to the background
// consumer. It never fails the caller.
type INotificationPublisher interface {
	Notify(ctx context.Context, n dto.PaymentNotification)
}

type notificationPublisher struct {
	topic     string
	publisher message.Publisher
	log       logger.ILogger
}

func NewNotificationPublisher(topic string, publisher message.Publisher, log logger.ILogger) INotificationPublisher {
	return &notificationPublisher{topic: topic, publisher: publisher, log: log}
}

func (p *notificationPublisher) Notify(ctx context.Context, n dto.PaymentNotification) {
	if n.EventId == "" {
		n.EventId = watermill.NewUUID()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(n)
	if err != nil {
		p.log.Error("NOTIFY", "Failed to encode notification", map[string]interface{}{"kind": n.Kind, "error": err})
		return
	}

	msg := message.NewMessage(n.EventId, payload)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.log.Error("NOTIFY", "Failed to publish notification", map[string]interface{}{"kind": n.Kind, "event_id": n.EventId, "error": err})
	}
}

type INotificationConsumer interface {
	Consume(ctx context.Context) error
}

// notificationConsumer sends receipts and forwards domain events. Every
// step is best-effort: failures are logged and the message is acked.
type notificationConsumer struct {
	subscriber   message.Subscriber
	topic        string
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	events       events.Publisher
	log          logger.ILogger
}

func NewNotificationConsumer(
	subscriber message.Subscriber,
	topic string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) INotificationConsumer {
	return &notificationConsumer{
		subscriber:   subscriber,
		topic:        topic,
		uowFactory:   uowFactory,
		emailService: emailService,
		events:       eventPublisher,
		log:          log,
	}
}

func (c *notificationConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
			msg.Ack()
		}
	}()

	return nil
}

func (c *notificationConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var n dto.PaymentNotification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		c.log.Error("NOTIFY", "Dropping undecodable notification", map[string]interface{}{"message_id": msg.UUID, "error": err})
		return
	}

	c.sendEmail(ctx, n)
	c.forward(ctx, n)
}

func (c *notificationConsumer) sendEmail(ctx context.Context, n dto.PaymentNotification) {
	if c.emailService == nil {
		return
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: n.UserId})
	if err != nil || user == nil || user.Email == nil {
		c.log.Warn("NOTIFY", "No recipient for receipt", map[string]interface{}{"user_id": n.UserId.String(), "error": err})
		return
	}

	switch n.Kind {
	case events.TypeJeezCredited:
		err = c.emailService.SendJeezReceipt(*user.Email, user.FullName, n.Quantity, n.NewBalance)
	case events.TypeVipActivated:
		expiresAt := time.Time{}
		if n.ExpiresAt != nil {
			expiresAt = *n.ExpiresAt
		}
		err = c.emailService.SendVipActivated(*user.Email, user.FullName, n.Plan, expiresAt)
	default:
		return
	}
	if err != nil {
		c.log.Warn("NOTIFY", "Receipt email failed", map[string]interface{}{"user_id": n.UserId.String(), "kind": n.Kind, "error": err})
	}
}

func (c *notificationConsumer) forward(ctx context.Context, n dto.PaymentNotification) {
	if c.events == nil {
		return
	}

	data := map[string]interface{}{
		"user_id":  n.UserId.String(),
		"order_id": n.OrderId,
	}
	switch n.Kind {
	case events.TypeJeezCredited:
		data["quantity"] = n.Quantity
		data["new_balance"] = n.NewBalance
	case events.TypeVipActivated:
		data["plan"] = n.Plan
		data["expires_at"] = n.ExpiresAt
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	event := events.BaseEvent{ID: n.EventId, Type: n.Kind, Data: data, OccurredAt: n.OccurredAt}
	if err := c.events.Publish(pubCtx, event); err != nil {
		c.log.Warn("NOTIFY", "Failed to forward payment event", map[string]interface{}{"kind": n.Kind, "error": err})
	}
}
