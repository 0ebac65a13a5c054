package pluggy

// Args is the keyword-argument bag for one hook call. Implementations
// receive the subset of entries matching their declared argument names.
type Args map[string]any

// HookFunc is a plain hook implementation. A nil return value means "no
// result" and is skipped when results are collected.
type HookFunc func(args Args) (any, error)

// HookWrapperFunc is an old-style two-phase wrapper implementation. The
// body runs before the nested implementations; the returned finish function
// runs after, receiving the combined outcome. Leaving the outcome untouched
// lets it propagate unchanged; ForceResult or ForceError override it.
type HookWrapperFunc func(args Args) (func(outcome *Result), error)

// WrapperFunc is a new-style wrapper implementation with the same nesting
// contract as HookWrapperFunc. Its finish function's return values replace
// the outcome unconditionally; pass-through is `return outcome.Get()`.
type WrapperFunc func(args Args) (func(outcome *Result) (any, error), error)

// ImplOpts are the declared options of one hook implementation.
type ImplOpts struct {
	// HookWrapper marks an old-style two-phase wrapper (HookWrapperFunc).
	HookWrapper bool

	// Wrapper marks a new-style wrapper (WrapperFunc). Mutually exclusive
	// with HookWrapper.
	Wrapper bool

	// OptionalHook suppresses the CheckPending error when no specification
	// exists for the targeted hook.
	OptionalHook bool

	// TryFirst requests execution after all unmarked implementations
	// (innermost for wrappers), so the implementation sees everyone else's
	// result first.
	TryFirst bool

	// TryLast requests execution before all unmarked implementations
	// (outermost for wrappers).
	TryLast bool

	// SpecName overrides the hook name the implementation attaches to.
	SpecName string

	// ArgNames are the argument names the implementation declares, in order.
	ArgNames []string

	// KwargNames are declared keyword-only argument names, a subset of the
	// call bag distinct from ArgNames.
	KwargNames []string
}

// HookImplDef declares one hook implementation of a plugin: the member name,
// the callable, and its options. Plugins expose these through HookSource.
type HookImplDef struct {
	Name string
	Fn   any
	Opts ImplOpts
}

// HookSource enumerates a plugin's hook implementations. This is the
// explicit capability descriptor a plugin implements instead of carrying
// runtime-attached markers; a registered plugin that does not implement it
// simply contributes no implementations.
type HookSource interface {
	HookImpls() []HookImplDef
}

// Namer optionally supplies a plugin's canonical name.
type Namer interface {
	PluginName() string
}

// HookImpl is one plugin's implementation record for a hook, immutable once
// constructed. It is owned by exactly one HookCaller's implementation list.
type HookImpl struct {
	// Plugin is the owning plugin identity.
	Plugin any

	// PluginName is the name the plugin is registered under.
	PluginName string

	// Function is the callable: a HookFunc, HookWrapperFunc, or WrapperFunc.
	Function any

	// Opts are the declared options, normalized.
	Opts ImplOpts
}

// newHookImpl builds an implementation record, normalizing the options and
// coercing raw function values to the canonical callable types.
func newHookImpl(plugin any, pluginName string, fn any, opts ImplOpts) *HookImpl {
	return &HookImpl{
		Plugin:     plugin,
		PluginName: pluginName,
		Function:   coerceHookFunc(fn),
		Opts:       opts,
	}
}

// coerceHookFunc converts unnamed function values of the supported shapes
// to the canonical named types so the engine can type-switch on them.
func coerceHookFunc(fn any) any {
	switch f := fn.(type) {
	case HookFunc, HookWrapperFunc, WrapperFunc:
		return f
	case func(args Args) (any, error):
		return HookFunc(f)
	case func(args Args) (func(outcome *Result), error):
		return HookWrapperFunc(f)
	case func(args Args) (func(outcome *Result) (any, error), error):
		return WrapperFunc(f)
	default:
		return fn
	}
}

// IsWrapper reports whether the implementation wraps the nested call,
// old-style or new-style.
func (h *HookImpl) IsWrapper() bool {
	return h.Opts.HookWrapper || h.Opts.Wrapper
}

// declaredArgs returns the union of positional and keyword-only names, in
// declaration order.
func (h *HookImpl) declaredArgs() []string {
	if len(h.Opts.KwargNames) == 0 {
		return h.Opts.ArgNames
	}
	names := make([]string, 0, len(h.Opts.ArgNames)+len(h.Opts.KwargNames))
	names = append(names, h.Opts.ArgNames...)
	names = append(names, h.Opts.KwargNames...)
	return names
}

// filterArgs extracts the implementation's declared arguments from the call
// bag. Implementations declaring no arguments receive the full bag.
func (h *HookImpl) filterArgs(args Args) (Args, error) {
	declared := h.declaredArgs()
	if len(declared) == 0 {
		return args, nil
	}
	filtered := make(Args, len(declared))
	for _, name := range declared {
		v, ok := args[name]
		if !ok {
			return nil, &HookCallError{HookImplName: h.PluginName, Argument: name}
		}
		filtered[name] = v
	}
	return filtered, nil
}

// HookCallError reports a call bag missing an argument an implementation
// declares.
type HookCallError struct {
	// HookImplName identifies the implementation's plugin.
	HookImplName string

	// Argument is the missing argument name.
	Argument string
}

// Error implements the error interface.
func (e *HookCallError) Error() string {
	return "hook call is missing argument " + e.Argument + " declared by plugin " + e.HookImplName
}

// Is allows errors.Is to match HookCallError with ErrMissingArgument.
func (e *HookCallError) Is(target error) bool {
	return target == ErrMissingArgument
}
