package synclog

import (
	"context"
	"time"
)

// Status is the outcome of one sync attempt.
type Status string

const (
	// StatusSuccess indicates the destination accepted the import.
	StatusSuccess Status = "SUCCESS"
	// StatusFailure indicates the attempt failed at any stage.
	StatusFailure Status = "FAILURE"
)

// Counters holds the per-attempt import statistics reported by the
// destination API.
type Counters struct {
	EndpointCreated int `json:"endpointCreated"`
	EndpointUpdated int `json:"endpointUpdated"`
	EndpointIgnored int `json:"endpointIgnored"`
	SchemaCreated   int `json:"schemaCreated"`
	SchemaUpdated   int `json:"schemaUpdated"`
	SchemaIgnored   int `json:"schemaIgnored"`
}

// Record is one persisted sync-log entry. ID is assigned by the store at
// Append time and is monotonically increasing with creation order; the
// retention cutoff's tie-break relies on that invariant.
type Record struct {
	ID           int64     `json:"id"`
	ProjectID    string    `json:"projectId"`
	ProjectName  string    `json:"projectName,omitempty"`
	Status       Status    `json:"status"`
	Counters     Counters  `json:"counters"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	RawResponse  string    `json:"rawResponse,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewerThan reports whether r is more recent than other: later CreatedAt,
// or greater ID when the timestamps tie.
func (r Record) NewerThan(other Record) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.After(other.CreatedAt)
	}
	return r.ID > other.ID
}

// Store is the persistence boundary for sync-log records.
type Store interface {
	// Append persists a new record, assigning its ID and (when zero) its
	// CreatedAt, and returns the stored record.
	Append(ctx context.Context, rec Record) (Record, error)

	// ListProject returns a project's records ordered most-recent first.
	// A non-positive limit returns all records.
	ListProject(ctx context.Context, projectID string, limit int) ([]Record, error)

	// ProjectIDs returns the distinct project ids that have records.
	ProjectIDs(ctx context.Context) ([]string, error)

	// CountProject returns the number of records for a project.
	CountProject(ctx context.Context, projectID string) (int, error)

	// NthMostRecent returns the nth most recent record (1-based) for a
	// project, or nil when the project has fewer than n records.
	NthMostRecent(ctx context.Context, projectID string, n int) (*Record, error)

	// DeleteOlderThan deletes up to batch records strictly older than the
	// cutoff record and returns how many were deleted.
	DeleteOlderThan(ctx context.Context, projectID string, cutoff Record, batch int) (int, error)
}
