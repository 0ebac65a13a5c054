package luaplugin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/eachimei/pluggy"
)

// Errors returned when a script's hook declaration is malformed.
var (
	// ErrNoHooksTable is returned when the script defines no global
	// "hooks" table.
	ErrNoHooksTable = errors.New("lua plugin declares no hooks table")

	// ErrBadHookEntry is returned when a hooks table entry is neither a
	// function nor a table with an impl function.
	ErrBadHookEntry = errors.New("lua hook entry must be a function or a table with an impl function")
)

// Plugin is a Lua script exposed as a pluggy plugin. It implements
// pluggy.HookSource and pluggy.Namer.
type Plugin struct {
	name  string
	state *lua.LState
	defs  []pluggy.HookImplDef
}

// Open loads a Lua plugin from a script file. The plugin name is the file
// name without its extension.
func Open(path string) (*Plugin, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading lua plugin %q: %w", path, err)
	}
	return fromState(name, L)
}

// LoadSource loads a Lua plugin from source text.
func LoadSource(name, source string) (*Plugin, error) {
	L := lua.NewState()
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading lua plugin %q: %w", name, err)
	}
	return fromState(name, L)
}

// fromState reads the hooks table out of an executed state.
func fromState(name string, L *lua.LState) (*Plugin, error) {
	p := &Plugin{name: name, state: L}
	if err := p.readHooks(); err != nil {
		L.Close()
		return nil, err
	}
	return p, nil
}

// PluginName returns the plugin's canonical name.
func (p *Plugin) PluginName() string {
	return p.name
}

// HookImpls returns the implementations the script declares.
func (p *Plugin) HookImpls() []pluggy.HookImplDef {
	return p.defs
}

// Close releases the Lua state. The plugin must be unregistered first;
// calling a closed plugin's hooks is an error.
func (p *Plugin) Close() {
	p.state.Close()
}

// readHooks parses the global hooks table into implementation definitions.
func (p *Plugin) readHooks() error {
	hooks, ok := p.state.GetGlobal("hooks").(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: plugin %q", ErrNoHooksTable, p.name)
	}

	var defs []pluggy.HookImplDef
	var badEntry error
	hooks.ForEach(func(k, v lua.LValue) {
		if badEntry != nil {
			return
		}
		hookName, ok := k.(lua.LString)
		if !ok {
			badEntry = fmt.Errorf("%w: plugin %q has a non-string hook name %v", ErrBadHookEntry, p.name, k)
			return
		}
		def, err := p.parseEntry(string(hookName), v)
		if err != nil {
			badEntry = err
			return
		}
		defs = append(defs, def)
	})
	if badEntry != nil {
		return badEntry
	}
	p.defs = defs
	return nil
}

// parseEntry converts one hooks table entry to a definition.
func (p *Plugin) parseEntry(hookName string, v lua.LValue) (pluggy.HookImplDef, error) {
	switch entry := v.(type) {
	case *lua.LFunction:
		return pluggy.HookImplDef{Name: hookName, Fn: p.hookFunc(entry)}, nil
	case *lua.LTable:
		fn, ok := entry.RawGetString("impl").(*lua.LFunction)
		if !ok {
			return pluggy.HookImplDef{}, fmt.Errorf("%w: plugin %q hook %q", ErrBadHookEntry, p.name, hookName)
		}
		opts := pluggy.ImplOpts{
			TryFirst:     lua.LVAsBool(entry.RawGetString("tryfirst")),
			TryLast:      lua.LVAsBool(entry.RawGetString("trylast")),
			OptionalHook: lua.LVAsBool(entry.RawGetString("optional")),
		}
		if s, ok := entry.RawGetString("specname").(lua.LString); ok {
			opts.SpecName = string(s)
		}
		if args, ok := entry.RawGetString("args").(*lua.LTable); ok {
			for i := 1; i <= args.Len(); i++ {
				if s, ok := args.RawGetInt(i).(lua.LString); ok {
					opts.ArgNames = append(opts.ArgNames, string(s))
				}
			}
		}
		return pluggy.HookImplDef{Name: hookName, Fn: p.hookFunc(fn), Opts: opts}, nil
	default:
		return pluggy.HookImplDef{}, fmt.Errorf("%w: plugin %q hook %q is %s", ErrBadHookEntry, p.name, hookName, v.Type())
	}
}

// hookFunc wraps a Lua function as a plain hook implementation. The
// argument bag crosses as a Lua table; the first return value crosses
// back, with Lua nil meaning "no result".
func (p *Plugin) hookFunc(fn *lua.LFunction) pluggy.HookFunc {
	return func(args pluggy.Args) (any, error) {
		L := p.state
		argTable := L.NewTable()
		for name, value := range args {
			argTable.RawSetString(name, toLuaValue(L, value))
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, argTable); err != nil {
			return nil, fmt.Errorf("lua plugin %q: %w", p.name, err)
		}
		ret := L.Get(-1)
		L.Pop(1)
		return toGoValue(ret), nil
	}
}
