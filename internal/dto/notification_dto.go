package dto

import (
	"time"

	"github.com/google/uuid"
)

// PaymentNotification is published in-process after a payment commits.
type PaymentNotification struct {
	EventId    string     `json:"eventId"`
	Kind       string     `json:"kind"`
	UserId     uuid.UUID  `json:"userId"`
	OrderId    string     `json:"orderId,omitempty"`
	Quantity   string     `json:"quantity,omitempty"`
	NewBalance string     `json:"newBalance,omitempty"`
	Plan       string     `json:"plan,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}
