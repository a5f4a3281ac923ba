package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/internal/realtime"
	"github.com/mellystark/visitormanagement/pkg/logger"
)

const publishTimeout = 5 * time.Second

// NotificationPayload is the body of a message on the notifications stream.
type NotificationPayload struct {
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	LogID     *uint      `json:"logId,omitempty"`
	VisitorID *uint      `json:"visitorId,omitempty"`
	RequestID *uint      `json:"requestId,omitempty"`
	ExitTime  *time.Time `json:"exitTime,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Notifier pushes change events to realtime subscribers. Delivery is best
// effort: failures are logged and never returned.
type Notifier struct {
	publisher realtime.Publisher
	log       *zap.Logger
}

// NewNotifier wraps publisher. A nil publisher yields a notifier that only logs.
func NewNotifier(publisher realtime.Publisher) *Notifier {
	return &Notifier{publisher: publisher, log: logger.WithModule("notifier")}
}

// Notify publishes payload on the notifications stream.
func (n *Notifier) Notify(ctx context.Context, payload NotificationPayload) {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now().UTC()
	}
	n.publish(ctx, realtime.Message{
		Stream: realtime.StreamNotifications,
		Event:  payload.Type,
		Data:   payload,
	})
}

// PublishStats publishes snapshot on the statistics stream.
func (n *Notifier) PublishStats(ctx context.Context, snapshot StatsSnapshot) {
	n.publish(ctx, realtime.Message{
		Stream: realtime.StreamStatistics,
		Event:  realtime.EventStatsUpdated,
		Data:   snapshot,
	})
}

func (n *Notifier) publish(ctx context.Context, message realtime.Message) {
	if n == nil || n.publisher == nil {
		return
	}
	// Detached from the request so a cancelled client does not abort delivery.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ensureContext(ctx)), publishTimeout)
	defer cancel()

	if err := n.publisher.Publish(pubCtx, message.Stream, message); err != nil {
		n.log.Warn("realtime publish failed",
			zap.String("stream", message.Stream),
			zap.String("event", message.Event),
			zap.Error(err),
		)
	}
}
