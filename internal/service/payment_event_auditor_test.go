package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/pkg/events"
	paymentbus "jeezy-monetization-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSubscriber struct {
	subject, durable string
	handler          paymentbus.EventHandler
}

func (s *capturingSubscriber) Subscribe(ctx context.Context, subject, durableName string, handler paymentbus.EventHandler) error {
	s.subject, s.durable, s.handler = subject, durableName, handler
	return nil
}

func TestPaymentEventAuditorWritesAuditLog(t *testing.T) {
	audit := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "audit.log"))
	sub := &capturingSubscriber{}
	auditor := NewPaymentEventAuditor(sub, audit)

	require.NoError(t, auditor.Start(context.Background()))
	assert.Equal(t, "payments.>", sub.subject)
	assert.Equal(t, "payment-audit", sub.durable)

	err := sub.handler(context.Background(), events.BaseEvent{
		ID:         "evt-1",
		Type:       events.TypeJeezCredited,
		Data:       map[string]interface{}{"order_id": "ORDER-1"},
		OccurredAt: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, audit.Sync())

	var entries []logger.LogEntry
	require.Eventually(t, func() bool {
		entries, err = audit.GetLogs("INFO", 10, 0)
		return err == nil && len(entries) == 1
	}, time.Second, 20*time.Millisecond)
	assert.Equal(t, "Payment event published", entries[0].Message)
}
