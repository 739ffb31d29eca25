package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWalletOperationsCounted(t *testing.T) {
	WalletOperationsTotal.Reset()

	WalletOperationsTotal.WithLabelValues("credit", ResultApplied).Inc()
	WalletOperationsTotal.WithLabelValues("credit", ResultApplied).Inc()
	WalletOperationsTotal.WithLabelValues("credit", ResultReplayed).Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(WalletOperationsTotal.WithLabelValues("credit", ResultApplied)))
	assert.Equal(t, float64(1), testutil.ToFloat64(WalletOperationsTotal.WithLabelValues("credit", ResultReplayed)))
	assert.Equal(t, 2, testutil.CollectAndCount(WalletOperationsTotal))
}

func TestWebhookOutcomes(t *testing.T) {
	WebhookDeliveriesTotal.Reset()

	WebhookDeliveriesTotal.WithLabelValues("processed").Inc()
	WebhookDeliveriesTotal.WithLabelValues("duplicate").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(WebhookDeliveriesTotal.WithLabelValues("duplicate")))
}
