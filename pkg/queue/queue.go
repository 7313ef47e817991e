package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/pkg/redis"
)

const (
	// QueuePosters is the Redis list key for poster cleanup jobs.
	QueuePosters = "worker:posters"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of attempts before a job moves to the DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// pollTimeout bounds a single BLPOP so the worker notices shutdown.
	pollTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const JobTypePosterCleanup JobType = "poster_cleanup"

// PosterCleanupPayload names the S3 object to remove.
type PosterCleanupPayload struct {
	Key string `json:"key"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in a fresh envelope.
func NewJob(typ JobType, payload interface{}, now time.Time) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		CreatedAt: now.UTC(),
	}, nil
}

// DecodeJob parses a raw queue entry.
func DecodeJob(raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if job.ID == "" || job.Type == "" {
		return nil, errors.New("decode job: missing id or type")
	}
	return &job, nil
}

// RetryTarget increments the attempt count and returns the list the job belongs on next,
// and whether that list is the DLQ.
func RetryTarget(job *Job) (string, bool) {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		return QueueDLQ, true
	}
	return queueFor(job.Type), false
}

func queueFor(JobType) string {
	return QueuePosters
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger, now: time.Now}
}

// EnqueuePosterCleanup enqueues removal of an uploaded poster object.
func (q *Queue) EnqueuePosterCleanup(ctx context.Context, key string) error {
	job, err := NewJob(JobTypePosterCleanup, PosterCleanupPayload{Key: key}, q.now())
	if err != nil {
		return err
	}
	if err := q.push(ctx, QueuePosters, job); err != nil {
		return err
	}
	q.logger.Debug("enqueued poster cleanup job", zap.String("job_id", job.ID), zap.String("key", key))
	return nil
}

// Dequeue blocks until a job is available, the poll times out, or ctx is done.
// A nil job with a nil error means nothing was available.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, pollTimeout, QueuePosters).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	job, err := DecodeJob(result[1])
	if err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return job, nil
}

// Retry re-enqueues a job with incremented attempt, or moves it to the DLQ once
// MaxRetries is reached. It reports whether the job was dead-lettered.
func (q *Queue) Retry(ctx context.Context, job *Job) (bool, error) {
	target, dead := RetryTarget(job)
	if err := q.push(ctx, target, job); err != nil {
		q.logger.Error("retry push failed", zap.Error(err), zap.String("job_id", job.ID), zap.String("queue", target))
		return dead, err
	}
	if dead {
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	} else {
		q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	}
	return dead, nil
}

func (q *Queue) push(ctx context.Context, list string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, list, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}
