package constant

const (
	// WebhookLockPrefix namespaces the per-order delivery lock in redis.
	WebhookLockPrefix = "webhook:paypal:"

	DefaultNotificationTopic = "payment_notifications"
)
