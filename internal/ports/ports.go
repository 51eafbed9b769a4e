package ports

import (
	"context"
	"time"

	"NewsAggregator/internal/domain"
)

// ArticleRepository persists articles and their categories.
type ArticleRepository interface {
	// CreateArticle inserts the article and links the named categories, creating missing ones.
	// It returns domain.ErrDuplicateArticle when the URL is already stored.
	CreateArticle(ctx context.Context, article domain.Article, categories []string) (domain.Article, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	GetByID(ctx context.Context, id int64) (domain.Article, error)
	UpdateEnrichment(ctx context.Context, id int64, update domain.EnrichmentUpdate) error
	ResetEnrichment(ctx context.Context, id int64) error
	ListNeedingEnrichment(ctx context.Context, limit int) ([]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache is a shared key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// SummarizationDelegate is an external model producing summaries.
type SummarizationDelegate interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// BiasDelegate is an external model picking one of the candidate labels.
type BiasDelegate interface {
	Classify(ctx context.Context, text string, labels []string) (string, error)
}

// Summarizer produces a short summary for article text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// BiasClassifier labels article text. Implementations never fail; they fall back to UNKNOWN.
type BiasClassifier interface {
	Classify(ctx context.Context, text string) domain.BiasLabel
}

// Categorizer maps article text to up to three category names.
type Categorizer interface {
	Categorize(title, description, section string) []string
}

// Notifier streams operator alerts to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// JobQueue delivers jobs at least once, draining higher priority lanes first.
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.Job) error
	// Schedule makes the job visible to workers once at has passed.
	Schedule(ctx context.Context, job domain.Job, at time.Time) error
	// Dequeue blocks up to timeout; ok is false when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (job domain.Job, ok bool, err error)
}

// Scheduler controls when periodic jobs execute.
type Scheduler interface {
	AddJob(name, spec string, job func(context.Context)) error
	// Next reports the upcoming activation of a registered job.
	Next(name string) (time.Time, bool)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// TaskClient enqueues the background entry points.
type TaskClient interface {
	Enrich(ctx context.Context, articleID int64, queue domain.Queue) error
	Fetch(ctx context.Context, source string) error
	Sweep(ctx context.Context) error
	Cleanup(ctx context.Context) error
}
