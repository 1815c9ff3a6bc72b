package queue

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryQueue is an in-process Queue used when Redis is not configured
type MemoryQueue struct {
	clock clockwork.Clock

	mu      sync.Mutex
	pending map[JobType][]*Job
	failed  map[JobType][]*Job
	signal  chan struct{}
}

// NewMemoryQueue creates an empty queue
func NewMemoryQueue(clock clockwork.Clock) *MemoryQueue {
	return &MemoryQueue{
		clock:   clock,
		pending: make(map[JobType][]*Job),
		failed:  make(map[JobType][]*Job),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a job
func (q *MemoryQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}, opts ...EnqueueOption) (string, error) {
	job, _, err := newJob(jobType, payload, q.clock.Now(), opts)
	if err != nil {
		return "", err
	}
	q.push(job)
	return job.ID, nil
}

func (q *MemoryQueue) push(job *Job) {
	q.mu.Lock()
	q.pending[job.Type] = append(q.pending[job.Type], job)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue returns the oldest due job, waiting up to timeout
func (q *MemoryQueue) Dequeue(ctx context.Context, jobType JobType, timeout time.Duration) (*Job, error) {
	deadline := q.clock.After(timeout)
	for {
		if job := q.popDue(jobType); job != nil {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, nil
		case <-q.signal:
		case <-q.clock.After(50 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) popDue(jobType JobType) *Job {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := q.pending[jobType]
	for i, job := range jobs {
		if job.RunAt.After(now) {
			continue
		}
		q.pending[jobType] = append(jobs[:i:i], jobs[i+1:]...)
		return job
	}
	return nil
}

// Retry requeues the job after delay
func (q *MemoryQueue) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	job.RetryCount++
	job.RunAt = q.clock.Now().Add(delay)
	q.push(job)
	return nil
}

// Fail parks the job in the failed list
func (q *MemoryQueue) Fail(ctx context.Context, job *Job, err error) error {
	job.Status = JobStatusFailed
	if err != nil {
		job.Error = err.Error()
	}

	q.mu.Lock()
	q.failed[job.Type] = append(q.failed[job.Type], job)
	q.mu.Unlock()
	return nil
}

// Stats reports queue depth
func (q *MemoryQueue) Stats(jobType JobType) QueueStats {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	stats := QueueStats{Queue: string(jobType), Failed: len(q.failed[jobType])}
	for _, job := range q.pending[jobType] {
		if job.RunAt.After(now) {
			stats.Delayed++
		} else {
			stats.Waiting++
		}
	}
	return stats
}
