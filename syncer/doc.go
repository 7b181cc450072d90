// Package syncer orchestrates one documentation sync: it produces a merged
// document via the aggregator, submits an import request to the Apifox API,
// records the outcome as a sync-log record, trims the project's log history,
// and announces the result on the chat webhook.
//
// The orchestrator runs detached from its trigger. Start spawns the attempt
// on its own goroutine behind a recover boundary; every internal failure
// path ends in a logged record or a swallowed warning, and nothing
// propagates to the caller that accepted the webhook.
package syncer
