package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// Handler executes one job.
type Handler func(ctx context.Context, job domain.Job) error

// Config tunes the worker pool.
type Config struct {
	Workers     int
	MaxRetries  int
	Backoff     Backoff
	PollTimeout time.Duration
	JobTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 5 * time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	return c
}

// Worker pulls jobs from the queue and dispatches them by name.
type Worker struct {
	queue    ports.JobQueue
	notifier ports.Notifier
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	handlers map[domain.JobName]Handler
}

// NewWorker builds a pool. notifier may be nil.
func NewWorker(queue ports.JobQueue, notifier ports.Notifier, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:    queue,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger.With("component", "worker"),
		now:      time.Now,
		handlers: map[domain.JobName]Handler{},
	}
}

// Handle registers the handler for a job name.
func (w *Worker) Handle(name domain.JobName, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[name] = handler
}

// Run starts the pool and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		g.Go(func() error {
			return w.loop(ctx, i)
		})
	}
	w.logger.Info("worker pool started", "workers", w.cfg.Workers)
	err := g.Wait()
	w.logger.Info("worker pool stopped")
	return err
}

func (w *Worker) loop(ctx context.Context, id int) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		job, ok, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("dequeue failed", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}
		w.Execute(ctx, job)
	}
}

// Execute runs one job and applies the retry policy to its outcome.
func (w *Worker) Execute(ctx context.Context, job domain.Job) {
	w.mu.RLock()
	handler, ok := w.handlers[job.Name]
	w.mu.RUnlock()

	logger := w.logger.With("job_id", job.ID, "job", job.Name, "queue", job.Queue, "attempt", job.Attempt)
	if job.Name == domain.JobEnrich {
		logger = logger.With("article_id", job.ArticleID)
	}

	if !ok {
		logger.Error("no handler registered, dropping job")
		metrics.RecordJob(string(job.Queue), string(job.Name), "unhandled", 0)
		return
	}

	started := w.now()
	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err := handler(jobCtx, job)
	cancel()
	elapsed := w.now().Sub(started).Seconds()

	if err == nil {
		logger.Debug("job done", "seconds", elapsed)
		metrics.RecordJob(string(job.Queue), string(job.Name), "succeeded", elapsed)
		return
	}

	if ctx.Err() != nil {
		w.requeue(ctx, logger, job)
		metrics.RecordJob(string(job.Queue), string(job.Name), "interrupted", elapsed)
		return
	}

	if job.Name != domain.JobEnrich {
		logger.Error("job failed", "error", err)
		metrics.RecordJob(string(job.Queue), string(job.Name), "failed", elapsed)
		return
	}

	if domain.IsRetryable(err) && job.Attempt < w.cfg.MaxRetries {
		if w.retry(ctx, logger, job, err) {
			metrics.RecordJob(string(job.Queue), string(job.Name), "retried", elapsed)
			return
		}
	}

	logger.Error("enrichment failed permanently", "state", domain.StateFailed, "error", err)
	metrics.RecordEnrichment(string(domain.StateFailed))
	metrics.RecordJob(string(job.Queue), string(job.Name), "failed", elapsed)
	w.alert(ctx, logger, job, err)
}

func (w *Worker) retry(ctx context.Context, logger *slog.Logger, job domain.Job, cause error) bool {
	delay := w.cfg.Backoff.Delay(job.Attempt)
	next := job
	next.Attempt++
	if err := w.queue.Schedule(ctx, next, w.now().Add(delay)); err != nil {
		logger.Error("schedule retry failed", "error", err, "cause", cause)
		return false
	}
	logger.Warn("enrichment retry scheduled",
		"state", domain.StateRetryScheduled, "next_attempt", next.Attempt, "delay", delay, "error", cause)
	metrics.RecordEnrichment(string(domain.StateRetryScheduled))
	return true
}

// requeue hands an interrupted job back to its lane during shutdown.
func (w *Worker) requeue(ctx context.Context, logger *slog.Logger, job domain.Job) {
	if err := w.queue.Enqueue(context.WithoutCancel(ctx), job); err != nil {
		logger.Error("requeue after shutdown failed", "error", err)
		return
	}
	logger.Info("job requeued after shutdown")
}

func (w *Worker) alert(ctx context.Context, logger *slog.Logger, job domain.Job, cause error) {
	if w.notifier == nil {
		return
	}
	reason := "retries exhausted"
	switch {
	case errors.Is(cause, domain.ErrArticleNotFound):
		reason = "article not found"
	case !domain.IsRetryable(cause):
		reason = "permanent error"
	}
	msg := fmt.Sprintf("Enrichment of article %d failed (%s) after %d attempt(s): %v",
		job.ArticleID, reason, job.Attempt+1, cause)
	if err := w.notifier.Notify(ctx, msg); err != nil {
		logger.Warn("failure alert not delivered", "error", err)
	}
}
