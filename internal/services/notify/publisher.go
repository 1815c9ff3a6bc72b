package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/clawearning/backend/internal/queue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher hands notifications to the delivery pipeline
type Publisher interface {
	Publish(ctx context.Context, notes ...Notification) error
}

// QueuePublisher enqueues one notification job per notification
type QueuePublisher struct {
	queue queue.Queue
	now   func() time.Time
}

// NewQueuePublisher creates a publisher over q
func NewQueuePublisher(q queue.Queue) *QueuePublisher {
	return &QueuePublisher{queue: q, now: time.Now}
}

// Publish stamps and enqueues each notification
func (p *QueuePublisher) Publish(ctx context.Context, notes ...Notification) error {
	for _, n := range notes {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = p.now()
		}
		if _, err := p.queue.Enqueue(ctx, queue.JobTypeNotification, n); err != nil {
			return fmt.Errorf("error enqueueing %s notification: %w", n.Kind, err)
		}
	}
	return nil
}

// PublishQuietly publishes and logs failures. The ledger change behind the
// notifications has already committed, so a publish failure must not fail the action.
func PublishQuietly(ctx context.Context, p Publisher, log logrus.FieldLogger, notes ...Notification) {
	if p == nil || len(notes) == 0 {
		return
	}
	if err := p.Publish(ctx, notes...); err != nil {
		log.WithError(err).WithField("count", len(notes)).Error("Failed to publish notifications")
	}
}
