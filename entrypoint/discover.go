package entrypoint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/eachimei/pluggy"
	"github.com/eachimei/pluggy/luaplugin"
)

// Discoverer finds Lua plugins in the filesystem by scanning search paths
// for directories carrying a plugin.toml manifest. It implements
// pluggy.Discoverer.
type Discoverer struct {
	paths []string
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithPaths sets the plugin search paths, checked in order.
func WithPaths(paths ...string) Option {
	return func(d *Discoverer) {
		d.paths = paths
	}
}

// NewDiscoverer creates a filesystem discoverer.
func NewDiscoverer(opts ...Option) *Discoverer {
	d := &Discoverer{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Paths returns the configured search paths.
func (d *Discoverer) Paths() []string {
	return d.paths
}

// AddPath adds a search path.
func (d *Discoverer) AddPath(path string) {
	d.paths = append(d.paths, path)
}

// Discover returns the entry points of the given group, optionally
// filtered by name, sorted by name. Missing search paths are skipped;
// an invalid manifest aborts discovery with an error naming it.
//
// When two paths declare the same plugin name, the earlier path wins,
// so user paths can shadow system ones.
func (d *Discoverer) Discover(group, name string) ([]pluggy.EntryPoint, error) {
	seen := make(map[string]bool)
	var eps []pluggy.EntryPoint

	for _, base := range d.paths {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue // missing paths are not errors
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(base, entry.Name())
			manifestPath := filepath.Join(dir, ManifestFile)
			if _, err := os.Stat(manifestPath); err != nil {
				continue
			}
			manifest, err := LoadManifest(manifestPath)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", manifestPath, err)
			}
			if manifest.Group != group {
				continue
			}
			if name != "" && manifest.Name != name {
				continue
			}
			if seen[manifest.Name] {
				continue
			}
			seen[manifest.Name] = true
			eps = append(eps, newEntryPoint(dir, manifest))
		}
	}

	sort.Slice(eps, func(i, j int) bool { return eps[i].Name < eps[j].Name })
	return eps, nil
}

// newEntryPoint builds the entry point for a discovered manifest. Loading
// is deferred until the manager wants the plugin.
func newEntryPoint(dir string, manifest *Manifest) pluggy.EntryPoint {
	main := filepath.Join(dir, manifest.Main)
	return pluggy.EntryPoint{
		Name: manifest.Name,
		Dist: pluggy.DistInfo{
			ProjectName: manifest.Name,
			Version:     manifest.Version,
		},
		Load: func() (any, error) {
			return luaplugin.Open(main)
		},
	}
}
