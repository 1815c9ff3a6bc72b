package queue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const dequeueTimeout = time.Second

// Worker runs a pool of goroutines that drain one job type
type Worker struct {
	queue      Queue
	jobType    JobType
	handler    JobHandler
	numWorkers int
	log        logrus.FieldLogger
	backoff    func(retry int) time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewWorker creates a new worker
func NewWorker(q Queue, jobType JobType, handler JobHandler, numWorkers int, log logrus.FieldLogger) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Worker{
		queue:      q,
		jobType:    jobType,
		handler:    handler,
		numWorkers: numWorkers,
		log:        log.WithField("queue", string(jobType)),
		backoff:    calculateBackoff,
	}
}

// Start starts the worker goroutines
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.log.Infof("Starting %d workers", w.numWorkers)
	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.process(ctx, i)
	}
}

// Stop stops the worker and waits for in-flight jobs
func (w *Worker) Stop() {
	w.log.Info("Stopping workers")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// process processes jobs from the queue
func (w *Worker) process(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.WithField("worker", workerID)

	for {
		if ctx.Err() != nil {
			log.Debug("Worker stopped")
			return
		}

		job, err := w.queue.Dequeue(ctx, w.jobType, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("Error dequeueing job")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		w.handle(ctx, log, job)
	}
}

// handle runs one job and retries it with backoff on failure
func (w *Worker) handle(ctx context.Context, log logrus.FieldLogger, job *Job) {
	log = log.WithField("job_id", job.ID)

	if _, err := w.handler(ctx, *job); err != nil {
		if job.RetryCount < job.MaxRetries {
			delay := w.backoff(job.RetryCount)
			log.WithError(err).Warnf("Job failed, retry %d/%d in %s", job.RetryCount+1, job.MaxRetries, delay)
			if err := w.queue.Retry(ctx, job, delay); err != nil {
				log.WithError(err).Error("Error scheduling retry")
			}
			return
		}

		log.WithError(err).Error("Job failed permanently")
		if err := w.queue.Fail(ctx, job, err); err != nil {
			log.WithError(err).Error("Error marking job as failed")
		}
		return
	}

	log.Debug("Job completed")
}
