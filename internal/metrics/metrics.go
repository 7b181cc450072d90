// Package metrics registers the service's Prometheus collectors on the
// default registry, exposed by the HTTP server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts merged-document cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_doc_cache_hits_total",
		Help: "Merged swagger document cache hits.",
	})

	// CacheMisses counts merged-document cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_doc_cache_misses_total",
		Help: "Merged swagger document cache misses.",
	})

	// CoalescedRequests counts merge calls served by joining an in-flight
	// fetch instead of issuing upstream calls.
	CoalescedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_merge_coalesced_total",
		Help: "Merge requests coalesced onto an in-flight fetch.",
	})

	// GroupFetchFailures counts per-group document fetches that failed and
	// were excluded from a merge.
	GroupFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_group_fetch_failures_total",
		Help: "Swagger group document fetches that failed and were skipped.",
	})

	// MergeDuration observes the wall time of full fetch-and-merge runs
	// (cache misses only).
	MergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swagsync_merge_duration_seconds",
		Help:    "Duration of upstream fetch-and-merge runs.",
		Buckets: prometheus.DefBuckets,
	})

	// SyncAttempts counts finished sync attempts by outcome.
	SyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swagsync_sync_attempts_total",
		Help: "Completed Apifox sync attempts by status.",
	}, []string{"status"})

	// NotificationFailures counts notification sends that errored.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_notification_failures_total",
		Help: "Chat webhook notifications that failed to send.",
	})

	// RetentionDeleted counts sync-log records removed by retention.
	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swagsync_retention_deleted_total",
		Help: "Sync log records deleted by the retention service.",
	})
)
