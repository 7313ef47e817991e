// Package worker runs background jobs pulled from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/pkg/queue"
	"github.com/volunteer-connect/backend/pkg/storage"
)

// JobSource yields jobs and takes failed ones back.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (dead bool, err error)
}

// PosterDeleter removes poster objects.
type PosterDeleter interface {
	DeletePoster(ctx context.Context, key string) error
}

// Metrics records job outcomes.
type Metrics interface {
	PosterJob(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) PosterJob(string) {}

// errPermanent marks jobs that retrying cannot fix.
var errPermanent = errors.New("permanent job failure")

// PosterCleanupProcessor deletes poster objects of removed events.
type PosterCleanupProcessor struct {
	source  JobSource
	posters PosterDeleter
	metrics Metrics
	logger  *zap.Logger
	backoff time.Duration
}

// NewPosterCleanupProcessor creates a poster cleanup processor. m may be nil.
func NewPosterCleanupProcessor(source JobSource, posters PosterDeleter, m Metrics, logger *zap.Logger) *PosterCleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &PosterCleanupProcessor{source: source, posters: posters, metrics: m, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one poster cleanup job.
func (p *PosterCleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePosterCleanup {
		return fmt.Errorf("%w: unknown job type %s", errPermanent, job.Type)
	}
	var payload queue.PosterCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", errPermanent, err)
	}
	if !storage.IsPosterKey(payload.Key) {
		return fmt.Errorf("%w: refusing key %q outside the poster prefix", errPermanent, payload.Key)
	}
	if err := p.posters.DeletePoster(ctx, payload.Key); err != nil {
		return fmt.Errorf("delete poster: %w", err)
	}
	p.logger.Info("poster removed", zap.String("job_id", job.ID), zap.String("key", payload.Key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *PosterCleanupProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("poster worker stopping")
			return
		}

		job, err := p.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}
		if p.handle(ctx, job) {
			p.sleep(ctx)
		}
	}
}

// handle processes job and reports whether the loop should back off.
func (p *PosterCleanupProcessor) handle(ctx context.Context, job *queue.Job) bool {
	p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	err := p.Process(ctx, job)
	if err == nil {
		p.metrics.PosterJob("done")
		return false
	}
	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	if errors.Is(err, errPermanent) {
		job.Attempt = queue.MaxRetries - 1
	}
	dead, reErr := p.source.Retry(ctx, job)
	if reErr != nil {
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
	}
	if dead {
		p.metrics.PosterJob("dead")
		return false
	}
	p.metrics.PosterJob("retried")
	return true
}

func (p *PosterCleanupProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
