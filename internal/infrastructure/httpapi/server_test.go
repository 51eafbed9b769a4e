package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/domain"
)

type call struct {
	name      string
	articleID int64
	source    string
	queue     domain.Queue
}

type fakeTasks struct {
	calls []call
	err   error
}

func (f *fakeTasks) Enrich(_ context.Context, id int64, queue domain.Queue) error {
	f.calls = append(f.calls, call{name: "enrich", articleID: id, queue: queue})
	return f.err
}

func (f *fakeTasks) Fetch(_ context.Context, source string) error {
	f.calls = append(f.calls, call{name: "fetch", source: source})
	return f.err
}

func (f *fakeTasks) Sweep(context.Context) error   { return f.err }
func (f *fakeTasks) Cleanup(context.Context) error { return f.err }

type fakeReprocessor struct {
	ids []int64
	err error
}

func (f *fakeReprocessor) Reprocess(_ context.Context, id int64) error {
	f.ids = append(f.ids, id)
	return f.err
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ok := New(":0", Deps{Tasks: &fakeTasks{}})
	rec := do(t, ok, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := New(":0", Deps{Tasks: &fakeTasks{}, Health: func(context.Context) error {
		return errors.New("redis: connection refused")
	}})
	rec = do(t, down, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := do(t, New(":0", Deps{}), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsRefreshesQueueDepth(t *testing.T) {
	t.Parallel()

	s := New(":0", Deps{QueueDepth: func(context.Context) (map[string]int64, error) {
		return map[string]int64{"low": 7, "delayed": 2}, nil
	}})
	rec := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `newsaggregator_queue_depth{queue="low"} 7`)
	assert.Contains(t, rec.Body.String(), `newsaggregator_queue_depth{queue="delayed"} 2`)

	failing := New(":0", Deps{QueueDepth: func(context.Context) (map[string]int64, error) {
		return nil, errors.New("redis down")
	}})
	assert.Equal(t, http.StatusOK, do(t, failing, http.MethodGet, "/metrics").Code)
}

func TestEnrichQueuesHighPriority(t *testing.T) {
	t.Parallel()

	tasks := &fakeTasks{}
	rec := do(t, New(":0", Deps{Tasks: tasks}), http.MethodPost, "/api/articles/12/enrich")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"queued","article_id":12}`, rec.Body.String())
	assert.Equal(t, []call{{name: "enrich", articleID: 12, queue: domain.QueueHigh}}, tasks.calls)
}

func TestEnrichRejectsBadID(t *testing.T) {
	t.Parallel()

	tasks := &fakeTasks{}
	s := New(":0", Deps{Tasks: tasks})
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/articles/abc/enrich").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/articles/-1/enrich").Code)
	assert.Empty(t, tasks.calls)
}

func TestEnrichQueueFailure(t *testing.T) {
	t.Parallel()

	s := New(":0", Deps{Tasks: &fakeTasks{err: errors.New("redis down")}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/articles/1/enrich").Code)
}

func TestReprocess(t *testing.T) {
	t.Parallel()

	r := &fakeReprocessor{}
	s := New(":0", Deps{Tasks: &fakeTasks{}, Reprocessor: r})
	assert.Equal(t, http.StatusAccepted, do(t, s, http.MethodPost, "/api/articles/3/reprocess").Code)
	assert.Equal(t, []int64{3}, r.ids)

	missing := New(":0", Deps{Tasks: &fakeTasks{}, Reprocessor: &fakeReprocessor{err: domain.ErrArticleNotFound}})
	assert.Equal(t, http.StatusNotFound, do(t, missing, http.MethodPost, "/api/articles/3/reprocess").Code)

	empty := New(":0", Deps{Tasks: &fakeTasks{}, Reprocessor: &fakeReprocessor{err: domain.ErrNothingToAnalyze}})
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, empty, http.MethodPost, "/api/articles/3/reprocess").Code)
}

func TestFetchTrigger(t *testing.T) {
	t.Parallel()

	tasks := &fakeTasks{}
	s := New(":0", Deps{Tasks: tasks, Sources: []string{"newsapi", "rss"}})

	assert.Equal(t, http.StatusAccepted, do(t, s, http.MethodPost, "/api/sources/rss/fetch").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/api/sources/bogus/fetch").Code)
	assert.Equal(t, []call{{name: "fetch", source: "rss"}}, tasks.calls)
}
