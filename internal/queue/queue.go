// Package queue moves background jobs between producers and worker pools.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeNotification JobType = "notification"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	CreatedAt  time.Time       `json:"created_at"`
	RunAt      time.Time       `json:"run_at"`
	Error      string          `json:"error,omitempty"`
}

// Decode unmarshals the job payload into v
func (j *Job) Decode(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)

// Queue defines the operations workers and producers rely on
type Queue interface {
	// Enqueue adds a job and returns its id
	Enqueue(ctx context.Context, jobType JobType, payload interface{}, opts ...EnqueueOption) (string, error)
	// Dequeue blocks up to timeout for a due job. A nil job means none arrived.
	Dequeue(ctx context.Context, jobType JobType, timeout time.Duration) (*Job, error)
	// Retry schedules the job to run again after delay
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	// Fail parks a job that exhausted its retries
	Fail(ctx context.Context, job *Job, err error) error
}
