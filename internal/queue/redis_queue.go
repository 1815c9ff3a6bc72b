package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis key prefixes
const (
	queuePrefix   = "queue:"
	delayedPrefix = "delayed:"
	failedPrefix  = "failed:"

	failedTTL = 7 * 24 * time.Hour
)

// RedisQueue implements Queue with Redis lists. Ready jobs live in a list
// per type, delayed jobs in a sorted set scored by run time.
type RedisQueue struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisQueue creates a new Redis queue
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, now: time.Now}
}

// Enqueue adds a job to the queue
func (q *RedisQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}, opts ...EnqueueOption) (string, error) {
	job, delay, err := newJob(jobType, payload, q.now(), opts)
	if err != nil {
		return "", err
	}

	if delay > 0 {
		return job.ID, q.enqueueDelayed(ctx, job)
	}
	return job.ID, q.enqueueImmediate(ctx, job)
}

// enqueueImmediate adds a job to the immediate queue
func (q *RedisQueue) enqueueImmediate(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, queuePrefix+string(job.Type), data).Err(); err != nil {
		return fmt.Errorf("failed to add job to queue: %w", err)
	}
	return nil
}

// enqueueDelayed adds a job to the delayed set
func (q *RedisQueue) enqueueDelayed(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.ZAdd(ctx, delayedPrefix+string(job.Type), &redis.Z{
		Score:  float64(job.RunAt.Unix()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add job to delayed queue: %w", err)
	}
	return nil
}

// Dequeue moves due delayed jobs onto the list, then pops with a timeout
func (q *RedisQueue) Dequeue(ctx context.Context, jobType JobType, timeout time.Duration) (*Job, error) {
	if err := q.promoteDue(ctx, jobType); err != nil {
		return nil, err
	}

	result, err := q.client.BRPop(ctx, timeout, queuePrefix+string(jobType)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("error popping job from queue %s: %w", jobType, err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("invalid result from BRPOP for queue %s", jobType)
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
	}
	return &job, nil
}

// promoteDue moves delayed jobs whose run time has passed to the ready list.
// ZREM guards against two workers promoting the same member.
func (q *RedisQueue) promoteDue(ctx context.Context, jobType JobType) error {
	key := delayedPrefix + string(jobType)
	due, err := q.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().Unix(), 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("error reading delayed jobs: %w", err)
	}

	for _, member := range due {
		removed, err := q.client.ZRem(ctx, key, member).Result()
		if err != nil {
			return fmt.Errorf("error removing delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, queuePrefix+string(jobType), member).Err(); err != nil {
			return fmt.Errorf("error promoting delayed job: %w", err)
		}
	}
	return nil
}

// Retry schedules the job again after delay
func (q *RedisQueue) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	job.RetryCount++
	job.RunAt = q.now().Add(delay)
	return q.enqueueDelayed(ctx, job)
}

// Fail stores the job in the failed list for inspection
func (q *RedisQueue) Fail(ctx context.Context, job *Job, cause error) error {
	job.Status = JobStatusFailed
	if cause != nil {
		job.Error = cause.Error()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := failedPrefix + string(job.Type)
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, failedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record failed job: %w", err)
	}
	return nil
}

// GetQueueStats gets statistics for a queue
func (q *RedisQueue) GetQueueStats(ctx context.Context, jobType JobType) (*QueueStats, error) {
	waiting, err := q.client.LLen(ctx, queuePrefix+string(jobType)).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading queue length: %w", err)
	}
	delayed, err := q.client.ZCard(ctx, delayedPrefix+string(jobType)).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading delayed count: %w", err)
	}
	failed, err := q.client.LLen(ctx, failedPrefix+string(jobType)).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading failed count: %w", err)
	}

	return &QueueStats{
		Queue:   string(jobType),
		Waiting: int(waiting),
		Delayed: int(delayed),
		Failed:  int(failed),
	}, nil
}
