package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devgate/swagsync/syncerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream simulates a service exposing /swagger-resources and
// /v2/api-docs?group=... with configurable per-group behavior.
type fakeUpstream struct {
	mu             sync.Mutex
	discoveryCalls int
	groupCalls     map[string]int

	resources  string
	groups     map[string]string
	failGroups map[string]bool
	// gate, when non-nil, blocks discovery until closed.
	gate chan struct{}
}

func (f *fakeUpstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/swagger-resources":
			f.mu.Lock()
			f.discoveryCalls++
			gate := f.gate
			f.mu.Unlock()
			if gate != nil {
				<-gate
			}
			fmt.Fprint(w, f.resources)
		case "/v2/api-docs":
			group := r.URL.Query().Get("group")
			f.mu.Lock()
			if f.groupCalls == nil {
				f.groupCalls = map[string]int{}
			}
			f.groupCalls[group]++
			f.mu.Unlock()
			if f.failGroups[group] {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, f.groups[group])
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestAggregator(cache *DocCache) *Aggregator {
	return New(Options{
		Cache:  cache,
		Logger: slog.New(slog.DiscardHandler),
	})
}

func TestFetchMergedHappyPath(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"user","url":"/v2/api-docs?group=user","swaggerVersion":"2.0"}]`,
		groups: map[string]string{
			"user": `{"swagger":"2.0","info":{"title":"user svc","version":"1"},"paths":{"/ping":{"get":{"tags":["Ping"],"responses":{"200":{"description":"ok"}}}}}}`,
		},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)
	doc, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL + "/doc.html"})
	require.NoError(t, err)
	require.NotNil(t, doc)

	op := doc["paths"].(map[string]any)["/ping"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"user/Ping"}, op["tags"])
	assert.Equal(t, "Merged API Documentation", doc["info"].(map[string]any)["title"])
}

func TestFetchMergedPartialGroupFailure(t *testing.T) {
	// Spec scenario: "order" fails, "user" succeeds; merge keeps /ping and
	// raises no error.
	up := &fakeUpstream{
		resources: `[{"name":"order"},{"name":"user"}]`,
		groups: map[string]string{
			"user": `{"swagger":"2.0","paths":{"/ping":{"get":{"tags":["Ping"]}}}}`,
		},
		failGroups: map[string]bool{"order": true},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)
	doc, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, doc)

	paths := doc["paths"].(map[string]any)
	require.Len(t, paths, 1)
	op := paths["/ping"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, []any{"user/Ping"}, op["tags"])

	var tagNames []string
	for _, tag := range doc["tags"].([]any) {
		tagNames = append(tagNames, tag.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"user/Ping"}, tagNames)
}

func TestFetchMergedAllGroupsFailed(t *testing.T) {
	up := &fakeUpstream{
		resources:  `[{"name":"only"}]`,
		failGroups: map[string]bool{"only": true},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)
	doc, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL})
	require.NoError(t, err)
	assert.Nil(t, doc, "zero merged groups yields nil, not an error")
}

func TestFetchMergedDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	agg := newTestAggregator(nil)
	_, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerrors.ErrUpstreamUnreachable)
}

func TestFetchMergedDiscoveryNotArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"not":"an array"}`)
	}))
	defer srv.Close()

	agg := newTestAggregator(nil)
	_, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerrors.ErrMalformedResponse)
}

func TestFetchMergedCacheHit(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"g"}]`,
		groups:    map[string]string{"g": `{"swagger":"2.0","paths":{"/a":{"get":{}}}}`},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	cache := NewDocCache(5*time.Minute, 50)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	agg := newTestAggregator(cache)
	ctx := context.Background()

	_, err := agg.FetchMerged(ctx, Request{TargetURL: srv.URL})
	require.NoError(t, err)
	_, err = agg.FetchMerged(ctx, Request{TargetURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 1, up.discoveryCalls, "second call within TTL is served from cache")

	// Past the TTL a fresh fetch happens.
	now = now.Add(5*time.Minute + time.Second)
	_, err = agg.FetchMerged(ctx, Request{TargetURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 2, up.discoveryCalls)
}

func TestFetchMergedCacheKeyNormalization(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"g"}]`,
		groups:    map[string]string{"g": `{"swagger":"2.0","paths":{}}`},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)
	ctx := context.Background()

	_, err := agg.FetchMerged(ctx, Request{TargetURL: srv.URL + "/doc.html"})
	require.NoError(t, err)
	_, err = agg.FetchMerged(ctx, Request{TargetURL: srv.URL + "/swagger-ui/"})
	require.NoError(t, err)
	assert.Equal(t, 1, up.discoveryCalls, "differently-pasted UI URLs normalize to one cache key")
}

func TestFetchMergedCoalescing(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"g"}]`,
		groups:    map[string]string{"g": `{"swagger":"2.0","paths":{"/a":{"get":{}}}}`},
		gate:      make(chan struct{}),
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	var okCount atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := agg.FetchMerged(ctx, Request{TargetURL: srv.URL})
			if err == nil && doc != nil {
				okCount.Add(1)
			}
		}()
	}

	// Let both callers join the flight before the upstream responds.
	time.Sleep(100 * time.Millisecond)
	close(up.gate)
	wg.Wait()

	assert.Equal(t, int32(2), okCount.Load())
	assert.Equal(t, 1, up.discoveryCalls, "concurrent callers share one upstream fetch")
	assert.Equal(t, 1, up.groupCalls["g"])
}

func TestFetchMergedSurvivesStarterCancellation(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"g"}]`,
		groups:    map[string]string{"g": `{"swagger":"2.0","paths":{"/a":{"get":{}}}}`},
		gate:      make(chan struct{}),
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	agg := newTestAggregator(nil)

	// The starter's context is cancelled while the fetch is in flight. A
	// coalesced caller joining the same flight must still get the document.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := agg.FetchMerged(ctx, Request{TargetURL: srv.URL})
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	joined := make(chan error, 1)
	go func() {
		doc, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL})
		if err == nil && doc == nil {
			err = fmt.Errorf("nil document")
		}
		joined <- err
	}()

	time.Sleep(100 * time.Millisecond)
	close(up.gate)

	require.NoError(t, <-joined, "coalesced caller must not inherit the starter's cancellation")
	require.NoError(t, <-done, "fetch in flight runs to completion despite cancellation")
	assert.Equal(t, 1, up.discoveryCalls)
}

func TestFetchMergedDebugLimit(t *testing.T) {
	up := &fakeUpstream{
		resources: `[{"name":"a"},{"name":"b"},{"name":"c"}]`,
		groups: map[string]string{
			"a": `{"swagger":"2.0","paths":{"/a":{"get":{}}}}`,
			"b": `{"swagger":"2.0","paths":{"/b":{"get":{}}}}`,
			"c": `{"swagger":"2.0","paths":{"/c":{"get":{}}}}`,
		},
	}
	srv := httptest.NewServer(up.handler())
	defer srv.Close()

	cache := NewDocCache(5*time.Minute, 50)
	agg := newTestAggregator(cache)
	doc, err := agg.FetchMerged(context.Background(), Request{TargetURL: srv.URL, DebugLimit: 1})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Len(t, doc["paths"].(map[string]any), 1)
	assert.Zero(t, up.groupCalls["b"])
	assert.Zero(t, up.groupCalls["c"])
	assert.Equal(t, 0, cache.Len(), "debug-limited results are never cached")
}

func TestFetchMergedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	agg := newTestAggregator(nil)
	_, err := agg.FetchMerged(context.Background(), Request{
		TargetURL: srv.URL,
		Timeout:   50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerrors.ErrUpstreamUnreachable)
}
