package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/clawearning/backend/internal/queue"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// RegisterWorkers starts the worker pools that drain the job queues
func RegisterWorkers(ctx context.Context, q queue.Queue, notifications *NotificationJob, numWorkers int, log logrus.FieldLogger) []*queue.Worker {
	worker := queue.NewWorker(q, queue.JobTypeNotification, notifications.Handle, numWorkers, log)
	worker.Start(ctx)
	return []*queue.Worker{worker}
}

// Scheduler runs the recurring jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       logrus.FieldLogger
}

// ScheduleRecurringJobs registers the daily sweep at the given HH:MM in loc
// and starts the scheduler.
func ScheduleRecurringJobs(ctx context.Context, loc *time.Location, at string, sweep *DailyResetJob, log logrus.FieldLogger) (*Scheduler, error) {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	_, err := s.Every(1).Day().At(at).Do(func() {
		if _, err := sweep.Run(ctx); err != nil {
			log.WithError(err).Error("Daily sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("error scheduling daily sweep at %q: %w", at, err)
	}

	s.StartAsync()
	log.WithField("at", at).Info("Daily sweep scheduled")
	return &Scheduler{scheduler: s, log: log}, nil
}

// Stop stops the scheduler, waiting for a running sweep
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("Scheduler stopped")
}
