package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/differ"
	"github.com/devgate/swagsync/internal/checker"
	"github.com/devgate/swagsync/internal/httputil"
	"github.com/devgate/swagsync/notify"
	"github.com/devgate/swagsync/syncer"
	"github.com/devgate/swagsync/syncerrors"
)

// handleMerge serves GET /api/tool/swagger-merge: fetch, merge, and return
// the combined document. With validate=1 the response also carries a
// structural check report.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	req, err := s.mergeRequestFromQuery(r)
	if err != nil {
		writeMergeFailure(w, err)
		return
	}

	doc, err := s.agg.FetchMerged(r.Context(), req)
	if err != nil {
		writeMergeFailure(w, err)
		return
	}
	if doc == nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "merge produced no document",
			"details": "no swagger group could be fetched from the target",
		})
		return
	}

	if wantValidation(r) {
		report, err := checker.Check(r.Context(), doc)
		if err != nil {
			report = &checker.Report{Findings: []string{err.Error()}}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document": doc,
			"check":    report,
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, doc)
}

// handlePublicExport serves GET /api/swagger/public-export: the token-gated
// variant of the merge endpoint the import destination pulls from. With no
// export token configured the endpoint rejects everything.
func (s *Server) handlePublicExport(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if s.cfg.ExportToken == "" || token != s.cfg.ExportToken {
		httputil.WriteError(w, http.StatusForbidden, "invalid or missing export token")
		return
	}

	req, err := s.mergeRequestFromQuery(r)
	if err != nil {
		writeMergeFailure(w, err)
		return
	}

	doc, err := s.agg.FetchMerged(r.Context(), req)
	if err != nil {
		writeMergeFailure(w, err)
		return
	}
	if doc == nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "merge produced no document",
			"details": "no swagger group could be fetched from the target",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// handleDiff serves POST /api/tool/swagger-diff.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Before json.RawMessage `json:"before"`
		After  json.RawMessage `json:"after"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(body.Before) == 0 || len(body.After) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "both before and after documents are required")
		return
	}

	result, err := differ.Diff(body.Before, body.After)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

// handleJenkins serves POST /api/webhook/jenkins: the build-completed hook
// that triggers a detached sync. The 202 goes out before any upstream work
// happens.
func (s *Server) handleJenkins(w http.ResponseWriter, r *http.Request) {
	if s.cfg.JenkinsToken != "" && r.Header.Get("x-jenkins-token") != s.cfg.JenkinsToken {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid jenkins token")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	q := r.URL.Query()
	projectID := q.Get("projectId")
	if projectID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "projectId query parameter is required")
		return
	}

	if body.Status != "SUCCESS" {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   fmt.Sprintf("build status %q ignored, sync runs only on SUCCESS", body.Status),
			"projectId": projectID,
		})
		return
	}

	targetURL := q.Get("targetUrl")
	if targetURL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "targetUrl query parameter is required")
		return
	}

	timeout, err := millisParam(q.Get("timeout"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	debugLimit, err := intParam(q.Get("debugLimit"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.orch.Start(syncer.Params{
		ProjectID:   projectID,
		ProjectName: q.Get("projectName"),
		ModuleID:    q.Get("moduleId"),
		TargetURL:   targetURL,
		APIPrefix:   q.Get("apiPrefix"),
		Timeout:     timeout,
		DebugLimit:  debugLimit,
	})

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"message":   "sync started",
		"projectId": projectID,
	})
}

// handleLogs serves GET /api/apifox-logs: with projectId, that project's
// records most-recent first; without, the distinct project ids and their
// record counts.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID := q.Get("projectId")

	limit, err := intParam(q.Get("limit"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if projectID != "" {
		records, err := s.store.ListProject(r.Context(), projectID, limit)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"projectId": projectID,
			"records":   records,
		})
		return
	}

	ids, err := s.store.ProjectIDs(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	projects := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		count, err := s.store.CountProject(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		projects = append(projects, map[string]any{"projectId": id, "count": count})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "projects": projects})
}

// handleCleanup serves POST /api/apifox-logs/cleanup: the manual retention
// trigger. Disabled by default; optionally gated by a token on top.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.CleanupEnabled {
		httputil.WriteError(w, http.StatusForbidden, "manual cleanup is disabled")
		return
	}
	if s.cfg.CleanupToken != "" && r.Header.Get("x-cleanup-token") != s.cfg.CleanupToken {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid cleanup token")
		return
	}

	start := time.Now()
	report, err := s.cleaner.CleanupAll(r.Context(), s.cfg.LogKeep)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"deletedTotal":     report.DeletedTotal,
		"deletedByProject": report.DeletedByProject,
		"durationMs":       time.Since(start).Milliseconds(),
	})
}

// handleMockNotify serves POST /api/tool/swagger-diff/mock-notify: renders
// and sends a diff notification without touching any persisted state.
func (s *Server) handleMockNotify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string             `json:"title"`
		Summary notify.DiffSummary `json:"summary"`
		Added   []string           `json:"added"`
		Removed []string           `json:"removed"`
		Changed []string           `json:"changed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.Title == "" {
		body.Title = "接口文档变更"
	}

	msg := notify.BuildDiffMessage(body.Title, body.Summary, body.Added, body.Removed, body.Changed)
	if err := s.notifier.Send(r.Context(), msg); err != nil {
		httputil.WriteError(w, http.StatusBadGateway, fmt.Sprintf("notification send failed: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// mergeRequestFromQuery builds an aggregator request from merge-endpoint
// query parameters, resolving moduleId through the registry when targetUrl
// is absent.
func (s *Server) mergeRequestFromQuery(r *http.Request) (aggregator.Request, error) {
	q := r.URL.Query()

	targetURL := q.Get("targetUrl")
	apiPrefix := q.Get("apiPrefix")
	if targetURL == "" {
		moduleID := q.Get("moduleId")
		if moduleID == "" {
			return aggregator.Request{}, &syncerrors.ValidationError{
				Message: "either targetUrl or moduleId query parameter is required"}
		}
		module, err := s.registry.Resolve(moduleID)
		if err != nil {
			return aggregator.Request{}, err
		}
		targetURL = module.URL
		if apiPrefix == "" {
			apiPrefix = module.APIPrefix
		}
	}

	timeout, err := millisParam(q.Get("timeout"))
	if err != nil {
		return aggregator.Request{}, err
	}
	debugLimit, err := intParam(q.Get("debugLimit"))
	if err != nil {
		return aggregator.Request{}, err
	}

	return aggregator.Request{
		TargetURL:  targetURL,
		APIPrefix:  apiPrefix,
		Timeout:    timeout,
		DebugLimit: debugLimit,
	}, nil
}

func wantValidation(r *http.Request) bool {
	switch r.URL.Query().Get("validate") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// millisParam parses an optional millisecond query parameter.
func millisParam(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return 0, &syncerrors.ValidationError{Message: fmt.Sprintf("invalid timeout %q, expected milliseconds", v)}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &syncerrors.ValidationError{Message: fmt.Sprintf("invalid integer parameter %q", v)}
	}
	return n, nil
}

// writeMergeFailure maps a merge-path error onto the endpoint's
// {error, details} failure shape: 400 for rejected input, 404 for unknown
// modules, 500 for upstream failures.
func writeMergeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	label := "merge failed"
	switch {
	case errors.Is(err, syncerrors.ErrValidation):
		status = http.StatusBadRequest
		label = "invalid request"
	case errors.Is(err, syncerrors.ErrModuleNotFound):
		status = http.StatusNotFound
		label = "module not found"
	}
	httputil.WriteJSON(w, status, map[string]any{"error": label, "details": err.Error()})
}
