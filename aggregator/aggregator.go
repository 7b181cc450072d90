package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devgate/swagsync/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout applies to each upstream HTTP call when the request
// does not carry its own timeout.
const DefaultFetchTimeout = 10 * time.Second

// Options configures an Aggregator. The zero value is usable.
type Options struct {
	// HTTPClient defaults to a plain client; per-call timeouts are applied
	// via request contexts, not the client.
	HTTPClient *http.Client
	// Cache defaults to a fresh DocCache with the package defaults.
	// Injectable so tests get a clean instance per test.
	Cache *DocCache
	// DefaultTimeout defaults to DefaultFetchTimeout.
	DefaultTimeout time.Duration
	Logger         *slog.Logger
	// UserAgent defaults to "swagsync".
	UserAgent string
}

// Request describes one merge request.
type Request struct {
	// TargetURL is the service's documentation URL as pasted by a user or
	// stored in the module registry.
	TargetURL string
	// APIPrefix is an optional path prefix between the service origin and
	// its swagger endpoints.
	APIPrefix string
	// Timeout overrides the aggregator's default per-call timeout.
	Timeout time.Duration
	// DebugLimit, when positive, processes only the first N discovered
	// resources (diagnostic dry runs).
	DebugLimit int
}

// Aggregator fetches and merges per-group swagger documents.
type Aggregator struct {
	httpClient     *http.Client
	cache          *DocCache
	flight         singleflight.Group
	defaultTimeout time.Duration
	log            *slog.Logger
	userAgent      string
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		httpClient:     opts.HTTPClient,
		cache:          opts.Cache,
		defaultTimeout: opts.DefaultTimeout,
		log:            opts.Logger,
		userAgent:      opts.UserAgent,
	}
	if a.cache == nil {
		a.cache = NewDocCache(0, 0)
	}
	if a.defaultTimeout <= 0 {
		a.defaultTimeout = DefaultFetchTimeout
	}
	if a.userAgent == "" {
		a.userAgent = "swagsync"
	}
	return a
}

// FetchMerged returns the merged document for a target, serving from cache
// when fresh and coalescing concurrent calls for the same normalized target
// onto one upstream fetch. It returns nil with no error when discovery
// succeeded but zero groups yielded a document.
//
// Discovery failure (network error, non-array body) fails the whole merge;
// individual group failures are tolerated and logged.
func (a *Aggregator) FetchMerged(ctx context.Context, req Request) (map[string]any, error) {
	key := FullTargetURL(req.TargetURL, req.APIPrefix)

	// Fast path outside the flight group.
	if doc, ok := a.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return doc, nil
	}

	// DebugLimit requests bypass coalescing and caching: their result is
	// intentionally partial and must not be shared.
	if req.DebugLimit > 0 {
		return a.fetchAndMerge(ctx, key, req)
	}

	// The flight outcome is shared across callers, so it must not die with
	// whichever caller happened to start it. Per-request timeouts inside
	// fetchAndMerge still bound the work.
	flightCtx := context.WithoutCancel(ctx)
	result, err, shared := a.flight.Do(key, func() (any, error) {
		// Re-check under the flight: a just-finished fetch may have filled
		// the cache between the fast path and here.
		if doc, ok := a.cache.Get(key); ok {
			metrics.CacheHits.Inc()
			return doc, nil
		}
		metrics.CacheMisses.Inc()

		doc, err := a.fetchAndMerge(flightCtx, key, req)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			a.cache.Put(key, doc)
		}
		return doc, nil
	})
	if shared {
		metrics.CoalescedRequests.Inc()
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(map[string]any), nil
}

// fetchAndMerge performs one full discovery, fan-out fetch, and merge.
func (a *Aggregator) fetchAndMerge(ctx context.Context, base string, req Request) (map[string]any, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.defaultTimeout
	}

	started := time.Now()
	resources, err := a.fetchResources(ctx, base, timeout)
	if err != nil {
		return nil, fmt.Errorf("aggregator: resource discovery for %s: %w", base, err)
	}
	if req.DebugLimit > 0 && len(resources) > req.DebugLimit {
		resources = resources[:req.DebugLimit]
	}

	docs := a.fetchGroupDocs(ctx, base, resources, timeout)
	merged := mergeGroupDocs(docs, a.logger())
	metrics.MergeDuration.Observe(time.Since(started).Seconds())

	a.logger().Info("merged swagger groups",
		"target", base, "resources", len(resources), "groups_merged", len(docs),
		"elapsed", time.Since(started))
	return merged, nil
}

func (a *Aggregator) client() *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	return http.DefaultClient
}

func (a *Aggregator) logger() *slog.Logger {
	if a.log != nil {
		return a.log
	}
	return slog.Default()
}
