package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/kafka"
)

func TestSearchEvent_Classify(t *testing.T) {
	tests := []struct {
		name  string
		event SearchEvent
		want  EventType
	}{
		{"zero result", SearchEvent{TotalHits: 0, CacheHit: true}, EventZeroResult},
		{"cache hit", SearchEvent{TotalHits: 2, CacheHit: true}, EventCacheHit},
		{"computed", SearchEvent{TotalHits: 2}, EventSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.Classify()
			assert.Equal(t, tt.want, tt.event.Type)
		})
	}
}

func TestAggregator_Stats(t *testing.T) {
	a := NewAggregator()
	a.RecordBuild(IndexBuildEvent{Generation: "g1", Documents: 3})
	a.RecordSearch(SearchEvent{Query: "cat dog", Terms: []string{"cat", "dog"}, TotalHits: 3, LatencyMs: 2})
	a.RecordSearch(SearchEvent{Query: "cat dog", Terms: []string{"cat", "dog"}, TotalHits: 3, LatencyMs: 1, CacheHit: true})
	a.RecordSearch(SearchEvent{Query: "zebra", Terms: []string{"zebra"}, TotalHits: 0, LatencyMs: 3})

	stats := a.Stats()
	assert.Equal(t, int64(3), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.InDelta(t, 2.0, stats.AvgLatencyMs, 1e-9)
	assert.Equal(t, 2.0, stats.P50LatencyMs)
	assert.Equal(t, 3.0, stats.P99LatencyMs)
	assert.Equal(t, []QueryCount{{"cat dog", 2}, {"zebra", 1}}, stats.TopQueries)
	assert.Equal(t, []QueryCount{{"cat", 2}, {"dog", 2}, {"zebra", 1}}, stats.TopTerms)
	assert.Equal(t, []QueryCount{{"zebra", 1}}, stats.ZeroResultQueries)
	assert.Equal(t, "g1", stats.Generation)
	assert.Equal(t, 3, stats.DocumentsIndexed)
}

func TestAggregator_LatencyRing(t *testing.T) {
	a := NewAggregator()
	for i := 0; i < maxLatencySamples+10; i++ {
		a.RecordSearch(SearchEvent{Query: "q", TotalHits: 1, LatencyMs: 1})
	}
	assert.Len(t, a.latencies, maxLatencySamples)
	assert.Equal(t, int64(maxLatencySamples+10), a.Stats().TotalSearches)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.Event
	fail   bool
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestCollector_AggregatesAndPublishes(t *testing.T) {
	agg := NewAggregator()
	pub := &fakePublisher{}
	c := NewCollector(agg, pub, 16, 2, time.Hour)
	c.Start(context.Background())

	c.Track(IndexBuildEvent{Type: EventIndexBuild, Generation: "g1", Documents: 3})
	c.Track(SearchEvent{Type: EventSearch, Query: "cat", TotalHits: 2})
	c.Track(SearchEvent{Type: EventZeroResult, Query: "zebra"})
	c.Close()

	assert.Equal(t, 3, pub.count())
	assert.Equal(t, "g1", pub.events[0].Key)
	assert.Equal(t, "search", pub.events[1].Key)
	assert.Equal(t, "zero_result", pub.events[2].Key)

	stats := agg.Stats()
	assert.Equal(t, int64(2), stats.TotalSearches)
	assert.Equal(t, 3, stats.DocumentsIndexed)
}

func TestCollector_WithoutPublisher(t *testing.T) {
	agg := NewAggregator()
	c := NewCollector(agg, nil, 4, 0, 0)
	c.Start(context.Background())
	c.Track(SearchEvent{Query: "cat", TotalHits: 1})
	c.Close()
	c.Close()

	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
}

func TestCollector_ContextCancelDrains(t *testing.T) {
	agg := NewAggregator()
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector(agg, pub, 16, 100, time.Hour)
	for i := 0; i < 5; i++ {
		c.Track(SearchEvent{Query: "q", TotalHits: 1})
	}
	c.Start(ctx)
	cancel()
	<-c.done

	assert.Equal(t, 5, pub.count())
	assert.Equal(t, int64(5), agg.Stats().TotalSearches)
}

func TestCollector_FailedFlushKeepsEvents(t *testing.T) {
	pub := &fakePublisher{fail: true}
	c := NewCollector(nil, pub, 16, 2, time.Hour)
	c.handle(context.Background(), SearchEvent{Query: "a"})
	c.handle(context.Background(), SearchEvent{Query: "b"})
	assert.Len(t, c.batch, 2)

	pub.fail = false
	c.flush(context.Background())
	assert.Empty(t, c.batch)
	assert.Equal(t, 2, pub.count())
}

func TestHandler_Stats(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Query: "cat", TotalHits: 1, LatencyMs: 4})

	rec := httptest.NewRecorder()
	NewHandler(agg).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, 4.0, stats.AvgLatencyMs)
}

func TestHandler_StatsTop(t *testing.T) {
	agg := NewAggregator()
	for _, q := range []string{"cat", "dog", "cat bird"} {
		agg.RecordSearch(SearchEvent{Query: q, Terms: strings.Fields(q), TotalHits: 1})
	}
	mux := http.NewServeMux()
	NewHandler(agg).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	require.Len(t, stats.TopTerms, 1)
	assert.Equal(t, "cat", stats.TopTerms[0].Query)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
