package luaplugin

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/eachimei/pluggy"
)

func TestLoadSource_BareFunction(t *testing.T) {
	p, err := LoadSource("greeter", `
		hooks = {
			greet = function(args)
				return "hello " .. args.who
			end,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.PluginName() != "greeter" {
		t.Errorf("expected name greeter, got %q", p.PluginName())
	}

	defs := p.HookImpls()
	if len(defs) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(defs))
	}
	if defs[0].Name != "greet" {
		t.Errorf("expected hook greet, got %q", defs[0].Name)
	}

	fn, ok := defs[0].Fn.(pluggy.HookFunc)
	if !ok {
		t.Fatalf("expected a HookFunc, got %T", defs[0].Fn)
	}
	res, err := fn(pluggy.Args{"who": "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "hello world" {
		t.Errorf("expected hello world, got %v", res)
	}
}

func TestLoadSource_TableEntryOptions(t *testing.T) {
	p, err := LoadSource("opts", `
		hooks = {
			setup = {
				impl = function(args) return args.x end,
				tryfirst = true,
				optional = true,
				specname = "real_setup",
				args = {"x"},
			},
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	defs := p.HookImpls()
	if len(defs) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(defs))
	}
	opts := defs[0].Opts
	if !opts.TryFirst || opts.TryLast {
		t.Errorf("expected tryfirst only, got %+v", opts)
	}
	if !opts.OptionalHook {
		t.Error("expected optional to be set")
	}
	if opts.SpecName != "real_setup" {
		t.Errorf("expected specname real_setup, got %q", opts.SpecName)
	}
	if !reflect.DeepEqual(opts.ArgNames, []string{"x"}) {
		t.Errorf("expected args [x], got %v", opts.ArgNames)
	}
}

func TestLoadSource_NoHooksTable(t *testing.T) {
	if _, err := LoadSource("empty", `x = 1`); !errors.Is(err, ErrNoHooksTable) {
		t.Errorf("expected ErrNoHooksTable, got %v", err)
	}
}

func TestLoadSource_BadHookEntry(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"scalar entry", `hooks = { h = 42 }`},
		{"table without impl", `hooks = { h = { tryfirst = true } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSource("bad", tt.source); !errors.Is(err, ErrBadHookEntry) {
				t.Errorf("expected ErrBadHookEntry, got %v", err)
			}
		})
	}
}

func TestLoadSource_SyntaxError(t *testing.T) {
	if _, err := LoadSource("broken", `hooks = {`); err == nil {
		t.Error("expected a load error")
	}
}

func TestHookFunc_LuaRuntimeError(t *testing.T) {
	p, err := LoadSource("boom", `
		hooks = {
			explode = function(args)
				error("kaboom")
			end,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	fn := p.HookImpls()[0].Fn.(pluggy.HookFunc)
	if _, err := fn(pluggy.Args{}); err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("expected the lua error to propagate, got %v", err)
	}
}

func TestHookFunc_ValueRoundTrips(t *testing.T) {
	p, err := LoadSource("echo", `
		hooks = {
			echo = function(args)
				return args.v
			end,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	fn := p.HookImpls()[0].Fn.(pluggy.HookFunc)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integer", 7, int64(7)},
		{"float", 1.5, 1.5},
		{"string", "s", "s"},
		{"bool", true, true},
		{"nil", nil, nil},
		{"slice", []any{int64(1), "two"}, []any{int64(1), "two"}},
		{"map", map[string]any{"k": "v"}, map[string]any{"k": "v"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fn(pluggy.Args{"v": tt.in})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestHookFunc_NilResult(t *testing.T) {
	p, err := LoadSource("silent", `
		hooks = {
			quiet = function(args) end,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	fn := p.HookImpls()[0].Fn.(pluggy.HookFunc)
	got, err := fn(pluggy.Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestOpen_NameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "myplug.lua")
	source := `
		hooks = {
			ping = function(args) return "pong" end,
		}
	`
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.PluginName() != "myplug" {
		t.Errorf("expected name myplug, got %q", p.PluginName())
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.lua")); err == nil {
		t.Error("expected an error for a missing script")
	}
}

func TestPlugin_ManagerIntegration(t *testing.T) {
	m := pluggy.NewManager("app")
	if err := m.AddHookSpecs(specNamespace{defs: []pluggy.HookSpecDef{
		{Name: "transform", ArgNames: []string{"text"}},
	}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upper, err := LoadSource("upper", `
		hooks = {
			transform = function(args)
				return string.upper(args.text)
			end,
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer upper.Close()

	if _, err := m.Register(upper, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.HasPlugin("upper") {
		t.Error("expected registration under the script name")
	}

	res, err := m.Hook("transform").Call(pluggy.Args{"text": "abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res, []any{"ABC"}) {
		t.Errorf("expected [ABC], got %v", res)
	}
}

type specNamespace struct {
	defs []pluggy.HookSpecDef
}

func (s specNamespace) HookSpecs() []pluggy.HookSpecDef { return s.defs }
