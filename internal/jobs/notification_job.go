package jobs

import (
	"context"
	"fmt"

	"github.com/clawearning/backend/internal/metrics"
	"github.com/clawearning/backend/internal/queue"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/sirupsen/logrus"
)

// NotificationJob delivers queued notifications
type NotificationJob struct {
	notifier notify.Notifier
	log      logrus.FieldLogger
}

// NewNotificationJob creates the delivery handler
func NewNotificationJob(notifier notify.Notifier, log logrus.FieldLogger) *NotificationJob {
	return &NotificationJob{notifier: notifier, log: log.WithField("job", "notification")}
}

// Handle decodes and delivers one notification. Errors send the job back
// through the worker's retry path.
func (j *NotificationJob) Handle(ctx context.Context, job queue.Job) (interface{}, error) {
	var n notify.Notification
	if err := job.Decode(&n); err != nil {
		metrics.RecordNotification("unknown", "invalid")
		return nil, fmt.Errorf("error decoding notification: %w", err)
	}

	if err := j.notifier.Notify(ctx, n); err != nil {
		metrics.RecordNotification(string(n.Kind), "failed")
		j.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"account_id":      n.AccountID,
			"attempt":         job.RetryCount + 1,
		}).WithError(err).Warn("Notification delivery failed")
		return nil, err
	}

	metrics.RecordNotification(string(n.Kind), "delivered")
	return nil, nil
}
