// Package syncerrors provides structured error types for swagsync.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing the HTTP boundary to map core failures onto the right
// status codes and the sync orchestrator to classify them into log records.
//
// # Error Categories
//
//   - FetchError: upstream network failures and timeouts (discovery, group
//     docs, the destination import API, the notification webhook)
//   - MalformedResponseError: non-JSON or unexpected-shape upstream bodies
//   - ConfigError: missing or invalid configuration (tokens, webhook URLs)
//   - ValidationError: rejected boundary input (missing params, bad JSON)
//
// # Usage with errors.Is
//
//	doc, err := agg.FetchMerged(ctx, req)
//	if err != nil {
//	    if errors.Is(err, syncerrors.ErrUpstreamUnreachable) {
//	        // upstream down: 502 to the caller
//	    }
//	}
package syncerrors
