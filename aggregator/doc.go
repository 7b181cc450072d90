// Package aggregator discovers a service's Swagger documentation groups,
// fetches each group's document concurrently, and merges them into a single
// OpenAPI 2.0 document with group-namespaced tags.
//
// Merged documents are cached per normalized target URL with a short TTL,
// and concurrent requests for the same target are coalesced onto one
// in-flight upstream fetch. Both the cache and the coalescing group are
// per-Aggregator state: a multi-instance deployment would need an external
// shared cache to preserve the coalescing guarantee across instances.
//
// Example:
//
//	agg := aggregator.New(aggregator.Options{})
//	doc, err := agg.FetchMerged(ctx, aggregator.Request{
//		TargetURL: "https://svc.internal/doc.html",
//		APIPrefix: "/api",
//	})
package aggregator
