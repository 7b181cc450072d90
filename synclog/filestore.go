package synclog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	fileSuffix = ".json"
	seqFile    = "sequence"
)

// FileStore persists records as one JSON file per project under a root
// directory on an afero filesystem. A single coarse mutex serializes all
// access; write volume is one record per sync attempt, so contention is not
// a concern. ID assignment reads and bumps a sequence file, which keeps IDs
// monotonic with creation order across restarts.
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	root string
}

// NewFileStore creates a file store rooted at dir, creating the directory
// when absent.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("synclog: creating store root %s: %w", dir, err)
	}
	return &FileStore{fs: fs, root: dir}, nil
}

// Append implements Store.
func (s *FileStore) Append(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID()
	if err != nil {
		return Record{}, err
	}
	rec.ID = id
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	recs, err := s.readProject(rec.ProjectID)
	if err != nil {
		return Record{}, err
	}
	recs = append(recs, rec)
	if err := s.writeProject(rec.ProjectID, recs); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListProject implements Store.
func (s *FileStore) ListProject(_ context.Context, projectID string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readProject(projectID)
	if err != nil {
		return nil, err
	}
	recs = sortedDesc(recs)
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// ProjectIDs implements Store.
func (s *FileStore) ProjectIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("synclog: reading store root: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ids = append(ids, unescapeProjectID(strings.TrimSuffix(name, fileSuffix)))
	}
	sort.Strings(ids)
	return ids, nil
}

// CountProject implements Store.
func (s *FileStore) CountProject(_ context.Context, projectID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readProject(projectID)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// NthMostRecent implements Store.
func (s *FileStore) NthMostRecent(_ context.Context, projectID string, n int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readProject(projectID)
	if err != nil {
		return nil, err
	}
	recs = sortedDesc(recs)
	if n <= 0 || n > len(recs) {
		return nil, nil
	}
	rec := recs[n-1]
	return &rec, nil
}

// DeleteOlderThan implements Store.
func (s *FileStore) DeleteOlderThan(_ context.Context, projectID string, cutoff Record, batch int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readProject(projectID)
	if err != nil {
		return 0, err
	}

	kept := recs[:0]
	deleted := 0
	for _, rec := range recs {
		if cutoff.NewerThan(rec) && (batch <= 0 || deleted < batch) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	if deleted == 0 {
		return 0, nil
	}
	if err := s.writeProject(projectID, kept); err != nil {
		return 0, err
	}
	return deleted, nil
}

// nextID bumps and returns the store-wide sequence. Caller holds the lock.
func (s *FileStore) nextID() (int64, error) {
	path := filepath.Join(s.root, seqFile)
	var last int64
	data, err := afero.ReadFile(s.fs, path)
	switch {
	case err == nil:
		last, err = strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("synclog: corrupt sequence file: %w", err)
		}
	case os.IsNotExist(err):
		last = 0
	default:
		return 0, fmt.Errorf("synclog: reading sequence file: %w", err)
	}

	next := last + 1
	if err := afero.WriteFile(s.fs, path, []byte(strconv.FormatInt(next, 10)), 0o644); err != nil {
		return 0, fmt.Errorf("synclog: writing sequence file: %w", err)
	}
	return next, nil
}

func (s *FileStore) projectPath(projectID string) string {
	return filepath.Join(s.root, escapeProjectID(projectID)+fileSuffix)
}

func (s *FileStore) readProject(projectID string) ([]Record, error) {
	data, err := afero.ReadFile(s.fs, s.projectPath(projectID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("synclog: reading project %s: %w", projectID, err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("synclog: corrupt project file for %s: %w", projectID, err)
	}
	return recs, nil
}

func (s *FileStore) writeProject(projectID string, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("synclog: encoding project %s: %w", projectID, err)
	}
	if err := afero.WriteFile(s.fs, s.projectPath(projectID), data, 0o644); err != nil {
		return fmt.Errorf("synclog: writing project %s: %w", projectID, err)
	}
	return nil
}

// escapeProjectID makes a project id safe as a file name. IDs are typically
// numeric, but the destination system does not guarantee that.
func escapeProjectID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteString(fmt.Sprintf("%%%04x", r))
		}
	}
	return sb.String()
}

func unescapeProjectID(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); {
		if name[i] == '%' && i+5 <= len(name) {
			if code, err := strconv.ParseInt(name[i+1:i+5], 16, 32); err == nil {
				sb.WriteRune(rune(code))
				i += 5
				continue
			}
		}
		sb.WriteByte(name[i])
		i++
	}
	return sb.String()
}
