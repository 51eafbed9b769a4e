// Package tasks enqueues background jobs and runs the worker pool that executes them.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// Client implements ports.TaskClient on top of a job queue.
type Client struct {
	queue ports.JobQueue
	now   func() time.Time
}

var _ ports.TaskClient = (*Client)(nil)

// NewClient wraps a queue.
func NewClient(queue ports.JobQueue) *Client {
	return &Client{queue: queue, now: time.Now}
}

// Enrich queues an enrichment job on the given lane. An empty lane uses the default route.
func (c *Client) Enrich(ctx context.Context, articleID int64, queue domain.Queue) error {
	if articleID <= 0 {
		return fmt.Errorf("enrich article %d: %w", articleID, domain.ErrArticleNotFound)
	}
	job := c.newJob(domain.JobEnrich, queue)
	job.ArticleID = articleID
	return c.enqueue(ctx, job)
}

// Fetch queues a fetch of one source.
func (c *Client) Fetch(ctx context.Context, source string) error {
	if source == "" {
		return fmt.Errorf("fetch: empty source: %w", domain.ErrUnknownSource)
	}
	job := c.newJob(domain.JobFetch, "")
	job.Source = source
	return c.enqueue(ctx, job)
}

// Sweep queues a scan for articles that still need enrichment.
func (c *Client) Sweep(ctx context.Context) error {
	return c.enqueue(ctx, c.newJob(domain.JobSweep, ""))
}

// Cleanup queues the retention cleanup.
func (c *Client) Cleanup(ctx context.Context) error {
	return c.enqueue(ctx, c.newJob(domain.JobCleanup, ""))
}

func (c *Client) newJob(name domain.JobName, queue domain.Queue) domain.Job {
	if queue == "" {
		queue = domain.RouteFor(name)
	}
	return domain.Job{
		ID:         uuid.NewString(),
		Name:       name,
		Queue:      queue,
		EnqueuedAt: c.now().UTC(),
	}
}

func (c *Client) enqueue(ctx context.Context, job domain.Job) error {
	if err := c.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s job: %w", job.Name, err)
	}
	return nil
}
