package queue

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries applies when no WithMaxRetry option is given
const DefaultMaxRetries = 3

// QueueStats represents statistics for a queue
type QueueStats struct {
	Queue   string `json:"queue"`
	Waiting int    `json:"waiting"`
	Delayed int    `json:"delayed"`
	Failed  int    `json:"failed"`
}

// EnqueueOptions represents options for enqueueing a job
type EnqueueOptions struct {
	delay    time.Duration
	maxRetry int
}

// EnqueueOption is a function that modifies EnqueueOptions
type EnqueueOption func(*EnqueueOptions)

// WithDelay adds a delay to a job
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.delay = delay
	}
}

// WithMaxRetry sets the maximum number of retries for a job
func WithMaxRetry(maxRetry int) EnqueueOption {
	return func(o *EnqueueOptions) {
		o.maxRetry = maxRetry
	}
}

// newJob builds a pending job from a payload and options
func newJob(jobType JobType, payload interface{}, now time.Time, opts []EnqueueOption) (*Job, time.Duration, error) {
	options := &EnqueueOptions{maxRetry: DefaultMaxRetries}
	for _, opt := range opts {
		opt(options)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	return &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: options.maxRetry,
		CreatedAt:  now,
		RunAt:      now.Add(options.delay),
	}, options.delay, nil
}

// calculateBackoff calculates the backoff duration for a retry
func calculateBackoff(retry int) time.Duration {
	// Exponential backoff with jitter
	// Base: 5 seconds
	// Max: 1 hour
	base := 5.0
	max := 3600.0

	seconds := math.Min(max, base*math.Pow(2, float64(retry)))

	// Add jitter (±20%)
	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds) * time.Second
}
