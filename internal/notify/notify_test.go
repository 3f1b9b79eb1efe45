package notify

import (
	"context"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_CollectsPerRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	ctx, collector := WithCollector(context.Background())
	n.Notify(ctx, "item added", domain.SeverityInfo)
	n.Notify(ctx, "invalid coupon code", domain.SeverityError)

	got := collector.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, domain.Notification{Message: "item added", Severity: domain.SeverityInfo}, got[0])
	assert.Equal(t, domain.SeverityError, got[1].Severity)
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[1].Level)
}

func TestLogNotifier_NoCollector(t *testing.T) {
	n := NewLogNotifier(zap.NewNop())
	n.Notify(context.Background(), "ignored", domain.SeverityInfo)

	_, ok := CollectorFrom(context.Background())
	assert.False(t, ok)
}
