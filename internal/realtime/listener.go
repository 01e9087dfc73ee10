package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Listener is the subset of *pq.Listener the hub consumes.
type Listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// NewPQListener opens a LISTEN connection with reconnect backoff between min and max.
func NewPQListener(dsn string, min, max time.Duration, logger *zap.Logger) *pq.Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if min <= 0 {
		min = 10 * time.Second
	}
	if max < min {
		max = time.Minute
	}
	return pq.NewListener(dsn, min, max, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("realtime listener connect failed", zap.Error(err))
		case pq.ListenerEventDisconnected:
			logger.Warn("realtime listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			logger.Info("realtime listener reconnected")
		}
	})
}

// Pump forwards notifications from l into the hub until ctx is cancelled. A nil notification
// signals a reconnect, after which every collection is republished since changes may have been
// missed while disconnected.
func Pump(ctx context.Context, l Listener, hub *Hub, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := l.Listen(Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	defer l.Close()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-l.NotificationChannel():
			if n == nil {
				for _, collection := range hub.Collections() {
					hub.Publish(collection)
				}
				continue
			}
			hub.Publish(n.Extra)
		case <-ping.C:
			if err := l.Ping(); err != nil {
				logger.Warn("realtime listener ping", zap.Error(err))
			}
		}
	}
}
