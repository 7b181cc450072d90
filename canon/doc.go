// Package canon provides deterministic canonicalization and stable
// serialization of JSON-like values.
//
// OpenAPI documents arrive from upstream services with arbitrary object key
// order, so structural comparison cannot rely on raw serialization. This
// package defines the equality primitive used throughout the diff path:
// two values that are deep-equal up to object key order at any nesting depth
// produce byte-identical output from StableStringify.
//
// Array order is preserved: for most OpenAPI arrays (parameters before their
// explicit sort, enum values, security scopes) order is meaningful, and
// callers that want order-independence sort elements by their own stable
// serialization before comparing.
package canon
