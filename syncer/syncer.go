package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/internal/metrics"
	"github.com/devgate/swagsync/notify"
	"github.com/devgate/swagsync/retention"
	"github.com/devgate/swagsync/synclog"
)

// Defaults for the destination API.
const (
	DefaultApifoxBaseURL = "https://api.apifox.com/api"
	DefaultAPIVersion    = "2024-03-28"
	defaultRunTimeout    = 5 * time.Minute
)

// Config holds the orchestrator's destination and export settings.
type Config struct {
	// ApifoxBaseURL is the destination API root.
	ApifoxBaseURL string
	// ApifoxToken is the bearer token for the import API.
	ApifoxToken string
	// APIVersion is sent as the pinned X-Apifox-Api-Version header.
	APIVersion string
	// ExportBaseURL is this service's own externally-reachable base URL,
	// used to build the export URL the destination pulls from.
	ExportBaseURL string
	// ExportToken gates the public-export endpoint.
	ExportToken string
	// LogKeep is the per-project retention cap applied after each attempt.
	LogKeep int
}

// Params describes one sync attempt.
type Params struct {
	ProjectID   string
	ProjectName string
	ModuleID    string
	TargetURL   string
	APIPrefix   string
	Timeout     time.Duration
	DebugLimit  int
}

// projectLabel is the human-readable project reference used in
// notifications.
func (p Params) projectLabel() string {
	if p.ProjectName != "" {
		return fmt.Sprintf("%s (%s)", p.ProjectName, p.ProjectID)
	}
	return p.ProjectID
}

// Orchestrator drives sync attempts end to end.
type Orchestrator struct {
	cfg        Config
	agg        *aggregator.Aggregator
	store      synclog.Store
	cleaner    *retention.Cleaner
	notifier   *notify.Notifier
	httpClient *http.Client
	log        *slog.Logger
}

// New creates an Orchestrator. agg, store, cleaner, and notifier are
// required collaborators.
func New(cfg Config, agg *aggregator.Aggregator, store synclog.Store, cleaner *retention.Cleaner, notifier *notify.Notifier, logger *slog.Logger) *Orchestrator {
	if cfg.ApifoxBaseURL == "" {
		cfg.ApifoxBaseURL = DefaultApifoxBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		agg:        agg,
		store:      store,
		cleaner:    cleaner,
		notifier:   notifier,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger,
	}
}

// Start runs one sync attempt on its own goroutine: fire-and-forget. The
// recover boundary turns even a panic into a best-effort failure record;
// nothing reaches the caller.
func (o *Orchestrator) Start(params Params) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("sync attempt panicked", "project_id", params.ProjectID, "panic", r)
				o.writeFailureBestEffort(params, fmt.Sprintf("internal panic: %v", r), "")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
		defer cancel()
		o.Run(ctx, params)
	}()
}

// Run executes one sync attempt synchronously. It never returns an error:
// every failure path ends in a log record and a notification. Exported so
// tests and the CLI can run an attempt to completion.
func (o *Orchestrator) Run(ctx context.Context, params Params) {
	o.log.Info("starting documentation sync",
		"project_id", params.ProjectID, "target_url", params.TargetURL)

	merged, err := o.agg.FetchMerged(ctx, aggregator.Request{
		TargetURL:  params.TargetURL,
		APIPrefix:  params.APIPrefix,
		Timeout:    params.Timeout,
		DebugLimit: params.DebugLimit,
	})
	if err != nil {
		o.finishFailure(ctx, params, fmt.Sprintf("merge failed: %v", err), "")
		return
	}
	if merged == nil {
		o.finishFailure(ctx, params, "merge produced no document: no swagger group could be fetched", "")
		return
	}

	statusCode, rawBody, err := o.submitImport(ctx, params)
	if err != nil {
		o.finishFailure(ctx, params, fmt.Sprintf("import request failed: %v", err), "")
		return
	}

	var parsed importResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		// PARSE_FAIL: terminal, no retry; keep the raw body for forensics.
		o.finishFailure(ctx, params,
			fmt.Sprintf("failed to parse import response: %v", err), string(rawBody))
		return
	}

	if statusCode < 200 || statusCode > 299 || !parsed.Success {
		o.finishFailure(ctx, params, parsed.failureMessage(statusCode), string(rawBody))
		return
	}

	o.finishSuccess(ctx, params, parsed, string(rawBody))
}

// submitImport POSTs the import request and returns the raw response.
func (o *Orchestrator) submitImport(ctx context.Context, params Params) (int, []byte, error) {
	exportURL := buildExportURL(o.cfg.ExportBaseURL, o.cfg.ExportToken, params)
	body, err := json.Marshal(buildImportRequest(exportURL, params))
	if err != nil {
		return 0, nil, fmt.Errorf("encoding import request: %w", err)
	}

	target := fmt.Sprintf("%s/v1/projects/%s/import-openapi?locale=zh-CN", o.cfg.ApifoxBaseURL, params.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("building import request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.ApifoxToken)
	req.Header.Set("X-Apifox-Api-Version", o.cfg.APIVersion)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("import request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading import response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// finishSuccess records, cleans up, and notifies for a successful attempt.
func (o *Orchestrator) finishSuccess(ctx context.Context, params Params, parsed importResponse, rawBody string) {
	counters := parsed.counters()
	record := synclog.Record{
		ProjectID:   params.ProjectID,
		ProjectName: params.ProjectName,
		Status:      synclog.StatusSuccess,
		Counters:    counters,
		RawResponse: rawBody,
	}
	if _, err := o.store.Append(ctx, record); err != nil {
		o.log.Error("failed to write success log record", "project_id", params.ProjectID, "error", err)
	}
	metrics.SyncAttempts.WithLabelValues(string(synclog.StatusSuccess)).Inc()

	o.runRetention(ctx, params.ProjectID)
	o.sendNotification(ctx, notify.BuildSyncSuccessMessage(params.projectLabel(), counters, parsed.partialErrors()))

	o.log.Info("documentation sync succeeded",
		"project_id", params.ProjectID,
		"endpoints_created", counters.EndpointCreated,
		"endpoints_updated", counters.EndpointUpdated)
}

// finishFailure records, cleans up, and notifies for a failed attempt.
func (o *Orchestrator) finishFailure(ctx context.Context, params Params, errorMessage, rawBody string) {
	record := synclog.Record{
		ProjectID:    params.ProjectID,
		ProjectName:  params.ProjectName,
		Status:       synclog.StatusFailure,
		ErrorMessage: errorMessage,
		RawResponse:  rawBody,
	}
	if _, err := o.store.Append(ctx, record); err != nil {
		o.log.Error("failed to write failure log record", "project_id", params.ProjectID, "error", err)
	}
	metrics.SyncAttempts.WithLabelValues(string(synclog.StatusFailure)).Inc()

	o.runRetention(ctx, params.ProjectID)
	o.sendNotification(ctx, notify.BuildSyncFailureMessage(params.projectLabel(), errorMessage))

	o.log.Warn("documentation sync failed",
		"project_id", params.ProjectID, "error", errorMessage)
}

// writeFailureBestEffort is the last-resort log write used by the panic
// boundary. A store failure here is swallowed entirely: logging must never
// crash the caller.
func (o *Orchestrator) writeFailureBestEffort(params Params, errorMessage, rawBody string) {
	defer func() {
		_ = recover()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = o.store.Append(ctx, synclog.Record{
		ProjectID:    params.ProjectID,
		ProjectName:  params.ProjectName,
		Status:       synclog.StatusFailure,
		ErrorMessage: errorMessage,
		RawResponse:  rawBody,
	})
}

func (o *Orchestrator) runRetention(ctx context.Context, projectID string) {
	deleted, err := o.cleaner.CleanupProject(ctx, projectID, o.cfg.LogKeep)
	if err != nil {
		o.log.Error("retention cleanup failed", "project_id", projectID, "error", err)
		return
	}
	if deleted > 0 {
		metrics.RetentionDeleted.Add(float64(deleted))
		o.log.Info("trimmed sync log history", "project_id", projectID, "deleted", deleted)
	}
}

// sendNotification delivers a message, swallowing any error: a failed
// notification must never flip a sync outcome.
func (o *Orchestrator) sendNotification(ctx context.Context, msg notify.Message) {
	if err := o.notifier.Send(ctx, msg); err != nil {
		metrics.NotificationFailures.Inc()
		o.log.Error("failed to send sync notification", "error", err)
	}
}
