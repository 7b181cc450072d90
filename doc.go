// Package swagsync provides the documentation-sync core of an internal developer
// portal: it aggregates per-service Swagger/OpenAPI documents into one merged
// document, computes semantic diffs between document snapshots, and drives
// asynchronous imports into an external API-management system.
//
// # Overview
//
// The library consists of six primary packages:
//
//   - canon: deterministic canonicalization and stable serialization of
//     JSON-like values, the equality primitive used throughout the diff path
//   - differ: operation-level semantic diff between two OpenAPI documents
//   - aggregator: discovery, concurrent fetching, and merging of per-group
//     Swagger documents, with a TTL cache and request coalescing
//   - syncer: fire-and-forget orchestration of an Apifox import, with durable
//     sync-log records, retention, and notifications
//   - retention: per-project cap enforcement on historical sync-log records
//   - notify: HMAC-signed chat-webhook message dispatch
//
// Supporting packages: synclog (the sync-log record store), registry (the
// module-URL registry), and syncerrors (structured error types).
//
// # Quick Start
//
// Merge the documentation groups of one service:
//
//	import "github.com/devgate/swagsync/aggregator"
//
//	agg := aggregator.New(aggregator.Options{})
//	doc, err := agg.FetchMerged(ctx, aggregator.Request{
//		TargetURL: "https://svc.internal/doc.html",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Diff two document snapshots:
//
//	import "github.com/devgate/swagsync/differ"
//
//	result, err := differ.Diff(before, after)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("added=%d removed=%d changed=%d\n",
//		len(result.Added), len(result.Removed), len(result.Changed))
//
// The cmd/swagsync binary wires these packages into an HTTP service (see
// internal/server) and an MCP stdio server (see internal/mcpserver).
package swagsync
