package entrypoint

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/eachimei/pluggy"
)

// writePlugin lays out one plugin directory under base.
func writePlugin(t *testing.T, base, name, version, group, script string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	manifest := "name = \"" + name + "\"\nversion = \"" + version + "\"\ngroup = \"" + group + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(script), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func epNames(eps []pluggy.EntryPoint) []string {
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.Name
	}
	return names
}

const noopScript = `hooks = { noop = function(args) end }`

func TestDiscoverer_Discover(t *testing.T) {
	base := t.TempDir()
	writePlugin(t, base, "zeta", "1.0.0", "app.plugins", noopScript)
	writePlugin(t, base, "alpha", "2.0.0", "app.plugins", noopScript)
	writePlugin(t, base, "othergroup", "1.0.0", "app.themes", noopScript)

	d := NewDiscoverer(WithPaths(base))
	eps, err := d.Discover("app.plugins", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := epNames(eps); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("expected [alpha zeta], got %v", got)
	}
	if eps[0].Dist.Version != "2.0.0" {
		t.Errorf("expected version 2.0.0, got %q", eps[0].Dist.Version)
	}
}

func TestDiscoverer_NameFilter(t *testing.T) {
	base := t.TempDir()
	writePlugin(t, base, "one", "1.0.0", "g", noopScript)
	writePlugin(t, base, "two", "1.0.0", "g", noopScript)

	d := NewDiscoverer(WithPaths(base))
	eps, err := d.Discover("g", "two")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := epNames(eps); !reflect.DeepEqual(got, []string{"two"}) {
		t.Errorf("expected [two], got %v", got)
	}
}

func TestDiscoverer_EarlierPathShadows(t *testing.T) {
	user := t.TempDir()
	system := t.TempDir()
	writePlugin(t, user, "shared", "2.0.0", "g", noopScript)
	writePlugin(t, system, "shared", "1.0.0", "g", noopScript)
	writePlugin(t, system, "only-system", "1.0.0", "g", noopScript)

	d := NewDiscoverer(WithPaths(user, system))
	eps, err := d.Discover("g", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := epNames(eps); !reflect.DeepEqual(got, []string{"only-system", "shared"}) {
		t.Errorf("expected [only-system shared], got %v", got)
	}
	for _, ep := range eps {
		if ep.Name == "shared" && ep.Dist.Version != "2.0.0" {
			t.Errorf("expected the user path to shadow, got version %q", ep.Dist.Version)
		}
	}
}

func TestDiscoverer_MissingPathSkipped(t *testing.T) {
	base := t.TempDir()
	writePlugin(t, base, "p", "1.0.0", "g", noopScript)

	d := NewDiscoverer(WithPaths(filepath.Join(base, "does-not-exist"), base))
	eps, err := d.Discover("g", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 {
		t.Errorf("expected 1 entry point, got %d", len(eps))
	}
}

func TestDiscoverer_InvalidManifestAborts(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "broken")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`name = "broken"`), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := NewDiscoverer(WithPaths(base))
	_, err := d.Discover("g", "")
	if err == nil {
		t.Fatal("expected an error for the invalid manifest")
	}
	if !strings.Contains(err.Error(), ManifestFile) {
		t.Errorf("expected the manifest path in the error, got %v", err)
	}
}

func TestDiscoverer_DirWithoutManifestIgnored(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "notaplugin"), 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writePlugin(t, base, "real", "1.0.0", "g", noopScript)

	d := NewDiscoverer(WithPaths(base))
	eps, err := d.Discover("g", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := epNames(eps); !reflect.DeepEqual(got, []string{"real"}) {
		t.Errorf("expected [real], got %v", got)
	}
}

func TestDiscoverer_ManagerIntegration(t *testing.T) {
	base := t.TempDir()
	writePlugin(t, base, "shout", "1.0.0", "app.plugins", `
		hooks = {
			transform = function(args)
				return string.upper(args.text)
			end,
		}
	`)

	m := pluggy.NewManager("app")
	d := NewDiscoverer(WithPaths(base))
	count, err := m.LoadEntryPoints(d, "app.plugins", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 loaded plugin, got %d", count)
	}

	res, err := m.Hook("transform").Call(pluggy.Args{"text": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res, []any{"HI"}) {
		t.Errorf("expected [HI], got %v", res)
	}
}
