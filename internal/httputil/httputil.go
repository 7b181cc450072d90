// Package httputil provides HTTP-related constants and JSON response helpers
// shared by the diff engine, the aggregator, and the HTTP boundary.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// HTTP method constants as they appear as path-item keys in OpenAPI documents.
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
	MethodTrace   = "trace"
)

// recognizedMethods is the set of path-item keys treated as operations.
// Anything else under a path (parameters, $ref, x-* extensions) is skipped.
var recognizedMethods = map[string]bool{
	MethodGet: true, MethodPut: true, MethodPost: true, MethodDelete: true,
	MethodOptions: true, MethodHead: true, MethodPatch: true, MethodTrace: true,
}

// IsRecognizedMethod reports whether a path-item key names an HTTP operation.
// The check is case-insensitive since upstream documents vary.
func IsRecognizedMethod(key string) bool {
	return recognizedMethods[strings.ToLower(key)]
}

// ResponseKeyOrder is the fixed ordered subset of response keys kept on each
// merged operation: the success payload plus the two business error envelopes
// the portal renders.
var ResponseKeyOrder = []string{"200", "40001", "40003"}

// WriteJSON writes v as a JSON response with the given status code.
// Encoding failures are logged; by then the status line is already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes the standard {success:false, error} failure body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{"success": false, "error": msg})
}
