package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/devgate/swagsync/internal/metrics"
	"github.com/devgate/swagsync/syncerrors"
	"golang.org/x/sync/errgroup"
)

// maxDocumentBytes bounds how much of an upstream body is read; group
// documents past this size indicate something other than a swagger doc.
const maxDocumentBytes = 32 << 20

// Resource describes one discoverable documentation group on a target
// service, as returned by its /swagger-resources endpoint.
type Resource struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	SwaggerVersion string `json:"swaggerVersion"`
	Location       string `json:"location"`
}

// groupDoc pairs a fetched document with the group it came from.
type groupDoc struct {
	group string
	doc   map[string]any
}

// fetchResources calls the resource-discovery endpoint. A non-array body is
// a hard failure for the whole merge.
func (a *Aggregator) fetchResources(ctx context.Context, base string, timeout time.Duration) ([]Resource, error) {
	target := base + "/swagger-resources"
	raw, err := a.getJSON(ctx, target, timeout)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	if err := json.Unmarshal(raw, &resources); err != nil {
		return nil, syncerrors.NewMalformedResponse(target, "JSON array of swagger resources", raw, err)
	}
	return resources, nil
}

// fetchGroupDocs fetches every group's document concurrently and returns the
// successful ones in resource order. Per-group failures are logged and
// skipped; only the caller decides whether zero successes is a problem.
func (a *Aggregator) fetchGroupDocs(ctx context.Context, base string, resources []Resource, timeout time.Duration) []groupDoc {
	results := make([]*groupDoc, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		g.Go(func() error {
			target := base + "/v2/api-docs?group=" + url.QueryEscape(res.Name)
			raw, err := a.getJSON(gctx, target, timeout)
			if err != nil {
				metrics.GroupFetchFailures.Inc()
				a.logger().Warn("skipping swagger group, fetch failed",
					"group", res.Name, "url", target, "error", err)
				return nil
			}
			var doc map[string]any
			if err := json.Unmarshal(raw, &doc); err != nil {
				metrics.GroupFetchFailures.Inc()
				a.logger().Warn("skipping swagger group, response not a JSON object",
					"group", res.Name, "url", target, "error", err)
				return nil
			}
			results[i] = &groupDoc{group: res.Name, doc: doc}
			return nil
		})
	}
	// Goroutines only return nil; Wait is for completion, not errors.
	_ = g.Wait()

	docs := make([]groupDoc, 0, len(resources))
	for _, r := range results {
		if r != nil {
			docs = append(docs, *r)
		}
	}
	return docs
}

// getJSON performs one GET with the per-request timeout and returns the raw
// body. Non-2xx statuses are fetch errors.
func (a *Aggregator) getJSON(ctx context.Context, target string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &syncerrors.FetchError{URL: target, Message: "building request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, &syncerrors.FetchError{URL: target, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, &syncerrors.FetchError{URL: target, StatusCode: resp.StatusCode, Message: "reading body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &syncerrors.FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", http.StatusText(resp.StatusCode)),
		}
	}
	return body, nil
}
