package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/summarize"
)

const defaultFallbackLength = 200

// OrchestratorDeps wires the collaborators of the enrichment orchestrator.
type OrchestratorDeps struct {
	Repository ports.ArticleRepository
	Summarizer ports.Summarizer
	Classifier ports.BiasClassifier
	// FallbackLength is how many runes of text stand in for a summary when no delegate is reachable.
	FallbackLength int
	Logger         *slog.Logger
}

// Orchestrator fills in missing summaries and bias labels for one article at a time.
type Orchestrator struct {
	repository     ports.ArticleRepository
	summarizer     ports.Summarizer
	classifier     ports.BiasClassifier
	fallbackLength int
	logger         *slog.Logger
}

// NewOrchestrator constructs the enrichment component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := deps.FallbackLength
	if fallback <= 0 {
		fallback = defaultFallbackLength
	}
	return &Orchestrator{
		repository:     deps.Repository,
		summarizer:     deps.Summarizer,
		classifier:     deps.Classifier,
		fallbackLength: fallback,
		logger:         logger.With("component", "enrich"),
	}
}

// Process enriches a single article. Only missing fields are computed and all of them
// are persisted in one write. A returned error is retryable unless domain.IsRetryable says otherwise.
func (o *Orchestrator) Process(ctx context.Context, id int64) (domain.EnrichmentResult, error) {
	result := domain.EnrichmentResult{ArticleID: id, State: domain.StatePending}

	article, err := o.repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			result.State = domain.StateFailed
			o.logger.Error("article not found, dropping", "article_id", id, "state", result.State)
		}
		return result, fmt.Errorf("load article %d: %w", id, err)
	}

	text := article.AnalysisText()
	if strings.TrimSpace(text) == "" {
		result.State = domain.StateSkipped
		o.logger.Info("nothing to analyze", "article_id", id, "state", result.State)
		metrics.RecordEnrichment(string(result.State))
		return result, nil
	}

	if !article.NeedsSummary() && !article.NeedsBias() {
		result.State = domain.StateSucceeded
		o.logger.Debug("already enriched", "article_id", id, "state", result.State)
		return result, nil
	}

	result.State = domain.StateRunning
	o.logger.Info("enrichment started", "article_id", id, "state", result.State,
		"needs_summary", article.NeedsSummary(), "needs_bias", article.NeedsBias())

	var update domain.EnrichmentUpdate

	if article.NeedsSummary() {
		summary, err := o.summarizer.Summarize(ctx, text)
		if err != nil {
			if !errors.Is(err, domain.ErrDelegateUnavailable) {
				return result, fmt.Errorf("summarize article %d: %w", id, err)
			}
			summary = summarize.Truncate(text, o.fallbackLength)
			result.Degraded = true
			o.logger.Warn("summarizer unavailable, using truncated text", "article_id", id, "error", err)
		}
		update.Summary = &summary
		result.Summarized = true
	}

	if article.NeedsBias() {
		label := o.classifier.Classify(ctx, text)
		update.Classified = true
		if label != domain.BiasUnknown {
			update.Bias = &label
			result.Classified = true
		}
	}

	if !update.Empty() {
		if err := o.repository.UpdateEnrichment(ctx, id, update); err != nil {
			return result, fmt.Errorf("persist enrichment %d: %w", id, err)
		}
		result.Written = true
	}

	result.State = domain.StateSucceeded
	o.logger.Info("enrichment finished", "article_id", id, "state", result.State,
		"summarized", result.Summarized, "classified", result.Classified, "degraded", result.Degraded)
	metrics.RecordEnrichment(string(result.State))
	return result, nil
}
