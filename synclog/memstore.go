package synclog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and the diff-preview tooling.
type MemStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[string][]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]Record)}
}

// Append implements Store.
func (s *MemStore) Append(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.records[rec.ProjectID] = append(s.records[rec.ProjectID], rec)
	return rec, nil
}

// ListProject implements Store.
func (s *MemStore) ListProject(_ context.Context, projectID string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := sortedDesc(s.records[projectID])
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// ProjectIDs implements Store.
func (s *MemStore) ProjectIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.records))
	for id, recs := range s.records {
		if len(recs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CountProject implements Store.
func (s *MemStore) CountProject(_ context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[projectID]), nil
}

// NthMostRecent implements Store.
func (s *MemStore) NthMostRecent(_ context.Context, projectID string, n int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := sortedDesc(s.records[projectID])
	if n <= 0 || n > len(recs) {
		return nil, nil
	}
	rec := recs[n-1]
	return &rec, nil
}

// DeleteOlderThan implements Store.
func (s *MemStore) DeleteOlderThan(_ context.Context, projectID string, cutoff Record, batch int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[projectID]
	kept := recs[:0]
	deleted := 0
	for _, rec := range recs {
		if cutoff.NewerThan(rec) && (batch <= 0 || deleted < batch) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records[projectID] = kept
	return deleted, nil
}

// sortedDesc returns a copy of recs ordered most-recent first.
func sortedDesc(recs []Record) []Record {
	out := make([]Record, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].NewerThan(out[j]) })
	return out
}
