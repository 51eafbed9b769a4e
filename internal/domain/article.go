package domain

import "time"

// Field caps applied to every ingested article.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 1000
	MaxContentLength     = 5000
	MaxAuthorLength      = 200
	MaxSourceNameLength  = 200
)

// DefaultCategory is assigned when no keyword or section matches.
const DefaultCategory = "General News"

// Article is the canonical unit of content. URL is the natural key.
type Article struct {
	ID          int64
	URL         string
	Title       string
	Description string
	Content     string
	Author      string
	SourceName  string
	PublishedAt time.Time

	Summary     string
	Bias        BiasLabel
	CategoryIDs []int64

	// ClassifiedAt is set once a classifier has run, even if it could only answer UNKNOWN.
	ClassifiedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NeedsSummary reports whether the summary has not been computed yet.
func (a Article) NeedsSummary() bool {
	return a.Summary == ""
}

// NeedsBias reports whether no classifier has run on the article yet.
func (a Article) NeedsBias() bool {
	return (a.Bias == "" || a.Bias == BiasUnknown) && a.ClassifiedAt.IsZero()
}

// AnalysisText returns the text enrichment runs on: content, falling back to description.
func (a Article) AnalysisText() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Description
}

// Category is a named topic tag, unique by name.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// BiasLabel enumerates the political lean assigned to an article.
type BiasLabel string

const (
	BiasLeft    BiasLabel = "LEFT"
	BiasRight   BiasLabel = "RIGHT"
	BiasNeutral BiasLabel = "NEUTRAL"
	BiasMixed   BiasLabel = "MIXED"
	BiasUnknown BiasLabel = "UNKNOWN"
)

// ParseBiasLabel maps free-form delegate output onto a label; anything unrecognised is UNKNOWN.
func ParseBiasLabel(value string) BiasLabel {
	switch value {
	case "LEFT", "LEFT-LEANING", "LIBERAL", "PROGRESSIVE":
		return BiasLeft
	case "RIGHT", "RIGHT-LEANING", "CONSERVATIVE":
		return BiasRight
	case "NEUTRAL", "CENTER", "CENTRE":
		return BiasNeutral
	case "MIXED":
		return BiasMixed
	default:
		return BiasUnknown
	}
}

// EnrichmentUpdate carries the fields a single enrichment run writes. Nil means untouched.
type EnrichmentUpdate struct {
	Summary *string
	Bias    *BiasLabel

	// Classified stamps the classification attempt so a confirmed UNKNOWN is not retried.
	Classified bool
}

// Empty reports whether the update would not change anything.
func (u EnrichmentUpdate) Empty() bool {
	return u.Summary == nil && u.Bias == nil && !u.Classified
}

// EnrichmentState enumerates the orchestrator state machine.
type EnrichmentState string

const (
	StatePending        EnrichmentState = "PENDING"
	StateRunning        EnrichmentState = "RUNNING"
	StateSucceeded      EnrichmentState = "SUCCEEDED"
	StateSkipped        EnrichmentState = "SKIPPED"
	StateRetryScheduled EnrichmentState = "RETRY_SCHEDULED"
	StateFailed         EnrichmentState = "FAILED"
)

// EnrichmentResult reports what a single orchestrator run did.
type EnrichmentResult struct {
	ArticleID  int64
	State      EnrichmentState
	Summarized bool
	Classified bool
	Degraded   bool
	Written    bool
}
