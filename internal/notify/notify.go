// Package notify delivers user-facing messages raised by the cart engine.
package notify

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"go.uber.org/zap"
)

type collectorKey struct{}

// Collector gathers the notifications raised while serving one request.
type Collector struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (c *Collector) add(n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

func (c *Collector) Notifications() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// WithCollector attaches a fresh collector to ctx.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

// LogNotifier logs every notification and hands it to the request collector
// when one is present.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, message string, severity domain.Severity) {
	l := logger.FromContext(ctx, n.log)
	if severity == domain.SeverityError {
		l.Warn("notification", zap.String("message", message), zap.String("severity", string(severity)))
	} else {
		l.Info("notification", zap.String("message", message), zap.String("severity", string(severity)))
	}

	if c, ok := CollectorFrom(ctx); ok {
		c.add(domain.Notification{Message: message, Severity: severity})
	}
}
