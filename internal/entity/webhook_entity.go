package entity

// Only this event type mutates state. Every other type is acknowledged
// and ignored.
const WebhookEventOrderCompleted = "CHECKOUT.ORDER.COMPLETED"

// WebhookIntent is the normalized content of a provider delivery.
type WebhookIntent struct {
	EventId   string
	EventType string
	OrderId   string
	Status    string
	Amount    *string
	Currency  *string
	CustomId  *string
}

func (w *WebhookIntent) Actionable() bool {
	return w.EventType == WebhookEventOrderCompleted
}
