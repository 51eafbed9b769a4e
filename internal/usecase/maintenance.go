package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// MaxSweepBatch bounds how many articles one sweep queues.
const MaxSweepBatch = 10

// Maintenance groups the operator and periodic housekeeping operations.
type Maintenance struct {
	repository ports.ArticleRepository
	tasks      ports.TaskClient
	logger     *slog.Logger
	now        func() time.Time
}

// NewMaintenance constructs the housekeeping component.
func NewMaintenance(repository ports.ArticleRepository, tasks ports.TaskClient, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{
		repository: repository,
		tasks:      tasks,
		logger:     logger.With("component", "maintenance"),
		now:        time.Now,
	}
}

// Sweep enqueues up to limit articles that still need enrichment on the medium queue.
// limit is clamped to (0, MaxSweepBatch].
func (m *Maintenance) Sweep(ctx context.Context, limit int) (int, error) {
	if limit <= 0 || limit > MaxSweepBatch {
		limit = MaxSweepBatch
	}
	ids, err := m.repository.ListNeedingEnrichment(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending articles: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if err := m.tasks.Enrich(ctx, id, domain.QueueMedium); err != nil {
			m.logger.Error("enqueue enrich failed", "article_id", id, "error", err)
			continue
		}
		queued++
	}

	m.logger.Info("sweep finished", "pending", len(ids), "queued", queued)
	return queued, nil
}

// Cleanup deletes articles published before the retention window.
func (m *Maintenance) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := m.now().Add(-retention)
	deleted, err := m.repository.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete articles before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	m.logger.Info("cleanup finished", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// Reprocess clears the enrichment of an article and queues it with high priority.
// Articles without content or description are refused with domain.ErrNothingToAnalyze.
func (m *Maintenance) Reprocess(ctx context.Context, id int64) error {
	article, err := m.repository.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load article %d: %w", id, err)
	}
	if strings.TrimSpace(article.AnalysisText()) == "" {
		return fmt.Errorf("article %d: %w", id, domain.ErrNothingToAnalyze)
	}
	if err := m.repository.ResetEnrichment(ctx, id); err != nil {
		return fmt.Errorf("reset article %d: %w", id, err)
	}
	if err := m.tasks.Enrich(ctx, id, domain.QueueHigh); err != nil {
		return fmt.Errorf("enqueue article %d: %w", id, err)
	}
	m.logger.Info("article queued for reprocessing", "article_id", id, "state", domain.StatePending)
	return nil
}
