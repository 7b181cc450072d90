// Package server is the HTTP boundary: it maps the portal's endpoints onto
// the aggregator, diff engine, sync orchestrator, retention service, and
// notification dispatcher, and owns the status-code mapping for their error
// classes.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/internal/config"
	"github.com/devgate/swagsync/internal/httputil"
	"github.com/devgate/swagsync/notify"
	"github.com/devgate/swagsync/registry"
	"github.com/devgate/swagsync/retention"
	"github.com/devgate/swagsync/syncer"
	"github.com/devgate/swagsync/synclog"
)

// Server holds the wired collaborators behind the HTTP endpoints.
type Server struct {
	cfg      *config.Config
	agg      *aggregator.Aggregator
	registry *registry.Registry
	orch     *syncer.Orchestrator
	store    synclog.Store
	cleaner  *retention.Cleaner
	notifier *notify.Notifier
	log      *slog.Logger
}

// Options bundles the Server's collaborators. All fields except Logger are
// required.
type Options struct {
	Config     *config.Config
	Aggregator *aggregator.Aggregator
	Registry   *registry.Registry
	Syncer     *syncer.Orchestrator
	Store      synclog.Store
	Cleaner    *retention.Cleaner
	Notifier   *notify.Notifier
	Logger     *slog.Logger
}

// New creates a Server from its collaborators.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      opts.Config,
		agg:      opts.Aggregator,
		registry: opts.Registry,
		orch:     opts.Syncer,
		store:    opts.Store,
		cleaner:  opts.Cleaner,
		notifier: opts.Notifier,
		log:      logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/api/tool/swagger-merge", s.handleMerge).Methods(http.MethodGet)
	r.HandleFunc("/api/swagger/public-export", s.handlePublicExport).Methods(http.MethodGet)
	r.HandleFunc("/api/tool/swagger-diff", s.handleDiff).Methods(http.MethodPost)
	r.HandleFunc("/api/tool/swagger-diff/mock-notify", s.handleMockNotify).Methods(http.MethodPost)
	r.HandleFunc("/api/webhook/jenkins", s.handleJenkins).Methods(http.MethodPost)
	r.HandleFunc("/api/apifox-logs", s.handleLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/apifox-logs/cleanup", s.handleCleanup).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	return r
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", "addr", s.cfg.ListenAddr)
	return srv.ListenAndServe()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
