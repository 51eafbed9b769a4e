package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

type memoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	articles   map[int64]domain.Article
	categories map[int64][]string
	failPrefix string
	pending    []int64
	updates    []domain.EnrichmentUpdate
	resets     []int64
	cutoff     time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		articles:   map[int64]domain.Article{},
		categories: map[int64][]string{},
	}
}

func (r *memoryRepo) put(article domain.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[article.ID] = article
}

func (r *memoryRepo) CreateArticle(_ context.Context, article domain.Article, categories []string) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPrefix != "" && strings.HasPrefix(article.URL, r.failPrefix) {
		return domain.Article{}, errors.New("insert failed")
	}
	for _, existing := range r.articles {
		if existing.URL == article.URL {
			return domain.Article{}, domain.ErrDuplicateArticle
		}
	}
	r.nextID++
	article.ID = r.nextID
	r.articles[article.ID] = article
	r.categories[article.ID] = categories
	return article, nil
}

func (r *memoryRepo) ExistsByURL(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.articles {
		if existing.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	article, ok := r.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return article, nil
}

func (r *memoryRepo) UpdateEnrichment(_ context.Context, id int64, update domain.EnrichmentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article, ok := r.articles[id]
	if !ok {
		return domain.ErrArticleNotFound
	}
	if update.Summary != nil {
		article.Summary = *update.Summary
	}
	if update.Bias != nil {
		article.Bias = *update.Bias
	}
	if update.Classified {
		article.ClassifiedAt = fixedNow
	}
	r.articles[id] = article
	r.updates = append(r.updates, update)
	return nil
}

func (r *memoryRepo) ResetEnrichment(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	article, ok := r.articles[id]
	if !ok {
		return domain.ErrArticleNotFound
	}
	article.Summary = ""
	article.Bias = domain.BiasUnknown
	article.ClassifiedAt = time.Time{}
	r.articles[id] = article
	r.resets = append(r.resets, id)
	return nil
}

// ListNeedingEnrichment serves pending when set, otherwise filters stored articles newest id first.
func (r *memoryRepo) ListNeedingEnrichment(_ context.Context, limit int) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.pending
	if ids == nil {
		for id, article := range r.articles {
			if article.AnalysisText() != "" && (article.NeedsSummary() || article.NeedsBias()) {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	}
	if len(ids) > limit {
		return ids[:limit], nil
	}
	return ids, nil
}

func (r *memoryRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoff = cutoff
	var deleted int64
	for id, article := range r.articles {
		if article.PublishedAt.Before(cutoff) {
			delete(r.articles, id)
			deleted++
		}
	}
	return deleted, nil
}

type stubSource struct {
	name  string
	items []scanner.Item
	err   error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]scanner.Item, error) {
	return s.items, s.err
}

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	s.calls++
	return s.summary, s.err
}

type stubClassifier struct {
	label domain.BiasLabel
	calls int
}

func (s *stubClassifier) Classify(context.Context, string) domain.BiasLabel {
	s.calls++
	return s.label
}

type enqueued struct {
	name      domain.JobName
	articleID int64
	source    string
	queue     domain.Queue
}

type recordingTasks struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (r *recordingTasks) add(job enqueued) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingTasks) Enrich(_ context.Context, id int64, queue domain.Queue) error {
	return r.add(enqueued{name: domain.JobEnrich, articleID: id, queue: queue})
}

func (r *recordingTasks) Fetch(_ context.Context, source string) error {
	return r.add(enqueued{name: domain.JobFetch, source: source, queue: domain.QueueMedium})
}

func (r *recordingTasks) Sweep(context.Context) error {
	return r.add(enqueued{name: domain.JobSweep, queue: domain.QueueMedium})
}

func (r *recordingTasks) Cleanup(context.Context) error {
	return r.add(enqueued{name: domain.JobCleanup, queue: domain.QueueLow})
}
