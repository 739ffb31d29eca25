package service

import (
	"context"

	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/pkg/events"
	paymentbus "jeezy-monetization-be/pkg/nats"
)

const paymentAuditDurable = "payment-audit"

// EventSubscriber is the part of the NATS subscriber the auditor needs.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler paymentbus.EventHandler) error
}

// IPaymentEventAuditor mirrors every payments.* event into the payment
// audit log, so the admin audit endpoint shows what left the service.
type IPaymentEventAuditor interface {
	Start(ctx context.Context) error
}

type paymentEventAuditor struct {
	subscriber EventSubscriber
	audit      logger.ILogger
}

func NewPaymentEventAuditor(subscriber EventSubscriber, audit logger.ILogger) IPaymentEventAuditor {
	return &paymentEventAuditor{subscriber: subscriber, audit: audit}
}

func (a *paymentEventAuditor) Start(ctx context.Context) error {
	return a.subscriber.Subscribe(ctx, paymentbus.SubjectPrefix+">", paymentAuditDurable, a.handle)
}

func (a *paymentEventAuditor) handle(ctx context.Context, event events.Event) error {
	details := map[string]interface{}{
		"event_type":  event.EventType(),
		"occurred_at": event.Timestamp(),
	}
	if id, ok := event.(events.Identified); ok {
		details["event_id"] = id.EventID()
	}
	for k, v := range event.Payload() {
		details[k] = v
	}
	a.audit.Info("PAYMENT_EVENT", "Payment event published", details)
	return nil
}
