package entrypoint

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFile is the manifest name looked for in each plugin directory.
const ManifestFile = "plugin.toml"

// Manifest describes one discoverable plugin: its identity, the entry
// point group it belongs to, and the Lua script implementing it.
type Manifest struct {
	// Name is the unique plugin identifier (e.g. "vim-surround").
	Name string `toml:"name"`

	// Version is the plugin's semver version.
	Version string `toml:"version"`

	// Group is the entry point group the plugin registers under.
	Group string `toml:"group"`

	// Main is the relative path to the plugin's Lua script.
	// Defaults to "init.lua".
	Main string `toml:"main"`

	// Description is a short human-readable description.
	Description string `toml:"description"`

	// Author is the author name or org.
	Author string `toml:"author"`
}

// Manifest validation errors.
var (
	ErrMissingName    = errors.New("manifest: name is required")
	ErrInvalidName    = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrMissingVersion = errors.New("manifest: version is required")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrMissingGroup   = errors.New("manifest: group is required")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua file")
)

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest TOML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest's required fields and formats.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, m.Name)
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	if m.Group == "" {
		return ErrMissingGroup
	}
	if !strings.HasSuffix(m.Main, ".lua") {
		return fmt.Errorf("%w: %q", ErrInvalidMain, m.Main)
	}
	return nil
}
