// Package registry resolves module identifiers to their stored service URLs.
//
// The portal's CRUD pages maintain the module directory; this package only
// reads it. The registry file is YAML, loaded through an afero filesystem so
// tests can run against an in-memory copy, and reloaded automatically when
// its modification time changes.
package registry

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/devgate/swagsync/syncerrors"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"
)

// Module is one registry entry: the service a moduleId points at.
type Module struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	URL       string `yaml:"url" json:"url"`
	APIPrefix string `yaml:"apiPrefix,omitempty" json:"apiPrefix,omitempty"`
}

// Registry reads the module directory from a YAML file.
type Registry struct {
	fs   afero.Fs
	path string

	mu      sync.Mutex
	modules map[string]Module
	modTime time.Time
	loaded  bool
}

// New creates a registry backed by the given file. The file is read lazily
// on first Resolve, so a missing file only fails lookups, not startup.
func New(fs afero.Fs, path string) *Registry {
	return &Registry{fs: fs, path: path}
}

// Resolve returns the module for an id, reloading the file when it changed
// on disk. A missing file or unknown id yields ErrModuleNotFound.
func (r *Registry) Resolve(moduleID string) (Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reloadIfStale(); err != nil {
		return Module{}, err
	}
	mod, ok := r.modules[moduleID]
	if !ok {
		return Module{}, fmt.Errorf("registry: module %q: %w", moduleID, syncerrors.ErrModuleNotFound)
	}
	return mod, nil
}

// All returns every registered module. Order is unspecified.
func (r *Registry) All() ([]Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reloadIfStale(); err != nil {
		return nil, err
	}
	out := make([]Module, 0, len(r.modules))
	for _, mod := range r.modules {
		out = append(out, mod)
	}
	return out, nil
}

// reloadIfStale re-reads the registry file when its mtime moved past the
// last load. Caller holds the lock.
func (r *Registry) reloadIfStale() error {
	if r.path == "" {
		return fmt.Errorf("registry: no registry file configured: %w", syncerrors.ErrModuleNotFound)
	}

	info, err := r.fs.Stat(r.path)
	if os.IsNotExist(err) {
		return fmt.Errorf("registry: registry file %s missing: %w", r.path, syncerrors.ErrModuleNotFound)
	}
	if err != nil {
		return fmt.Errorf("registry: stat %s: %w", r.path, err)
	}
	if r.loaded && info.ModTime().Equal(r.modTime) {
		return nil
	}

	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		return fmt.Errorf("registry: reading %s: %w", r.path, err)
	}

	var file struct {
		Modules []Module `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("registry: parsing %s: %w", r.path, err)
	}

	modules := make(map[string]Module, len(file.Modules))
	for _, mod := range file.Modules {
		if mod.ID == "" {
			continue
		}
		modules[mod.ID] = mod
	}
	r.modules = modules
	r.modTime = info.ModTime()
	r.loaded = true
	return nil
}
