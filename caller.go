package pluggy

import (
	"fmt"
	"strings"
)

// Caller is the calling surface shared by HookCaller and SubsetHookCaller.
type Caller interface {
	// Name returns the hook name.
	Name() string

	// HasSpec reports whether a specification is bound.
	HasSpec() bool

	// IsHistoric reports whether the bound specification is historic.
	IsHistoric() bool

	// HookImpls returns a snapshot of the implementations, in execution
	// order.
	HookImpls() []*HookImpl

	// Call invokes all implementations for one logical call. It returns a
	// []any of non-nil results (most recently executed first), or in
	// first-result mode the single winning value.
	Call(args Args) (any, error)

	// CallHistoric invokes all implementations, logs the call, and replays
	// it against implementations attached later. proc, when non-nil, is
	// applied to each implementation's non-nil result.
	CallHistoric(args Args, proc func(any)) error
}

// historicCall is one logged historic invocation.
type historicCall struct {
	args Args
	proc func(any)
}

// HookCaller owns the ordered implementations for one hook name, optionally
// bound to a specification. It is the per-hook handle obtained from
// Manager.Hook.
//
// The implementation list is kept in execution order: the trylast tier
// first, then unmarked implementations, then the tryfirst tier, with
// registration order preserved within each tier. Wrappers nest so the first
// wrapper in that order is outermost.
type HookCaller struct {
	name      string
	hookExec  HookExecFunc
	spec      *HookSpec
	hookImpls []*HookImpl

	// callHistory holds logged calls of a historic hook, in call order.
	callHistory []historicCall
}

// newHookCaller creates a hook caller bound to the given call engine.
func newHookCaller(name string, hookExec HookExecFunc) *HookCaller {
	return &HookCaller{
		name:     name,
		hookExec: hookExec,
	}
}

// Name returns the hook name.
func (h *HookCaller) Name() string {
	return h.name
}

// HasSpec reports whether a specification is bound.
func (h *HookCaller) HasSpec() bool {
	return h.spec != nil
}

// Spec returns the bound specification, or nil.
func (h *HookCaller) Spec() *HookSpec {
	return h.spec
}

// IsHistoric reports whether the bound specification is historic.
func (h *HookCaller) IsHistoric() bool {
	return h.spec != nil && h.spec.Opts.Historic
}

// setSpecification binds the hook's specification. A specification can be
// set exactly once.
func (h *HookCaller) setSpecification(namespace any, def HookSpecDef) error {
	if h.spec != nil {
		return fmt.Errorf("%w: hook %q", ErrSpecAlreadySet, h.name)
	}
	h.spec = newHookSpec(namespace, def)
	return nil
}

// HookImpls returns a snapshot of the implementations, in execution order.
func (h *HookCaller) HookImpls() []*HookImpl {
	impls := make([]*HookImpl, len(h.hookImpls))
	copy(impls, h.hookImpls)
	return impls
}

// addHookImpl inserts an implementation at the end of its ordering tier.
func (h *HookCaller) addHookImpl(impl *HookImpl) {
	var i int
	switch {
	case impl.Opts.TryLast:
		// End of the trylast tier.
		for i < len(h.hookImpls) && h.hookImpls[i].Opts.TryLast {
			i++
		}
	case impl.Opts.TryFirst:
		i = len(h.hookImpls)
	default:
		// End of the unmarked tier, just before the tryfirst tier.
		i = len(h.hookImpls)
		for i > 0 && h.hookImpls[i-1].Opts.TryFirst {
			i--
		}
	}
	h.hookImpls = append(h.hookImpls, nil)
	copy(h.hookImpls[i+1:], h.hookImpls[i:])
	h.hookImpls[i] = impl
}

// removePlugin removes every implementation owned by plugin. It reports
// whether anything was removed.
func (h *HookCaller) removePlugin(plugin any) bool {
	removed := false
	kept := h.hookImpls[:0]
	for _, impl := range h.hookImpls {
		if impl.Plugin == plugin {
			removed = true
			continue
		}
		kept = append(kept, impl)
	}
	h.hookImpls = kept
	return removed
}

// hasPlugin reports whether plugin owns any implementation of this hook.
func (h *HookCaller) hasPlugin(plugin any) bool {
	for _, impl := range h.hookImpls {
		if impl.Plugin == plugin {
			return true
		}
	}
	return false
}

// verifyHook validates an implementation against the bound specification:
// historic hooks refuse old-style wrappers, declared argument names must
// exist in the specification, and wrapper options must match the supplied
// callable's shape.
func (h *HookCaller) verifyHook(impl *HookImpl) error {
	if h.IsHistoric() && impl.Opts.HookWrapper {
		return &ValidationError{
			Plugin:     impl.Plugin,
			PluginName: impl.PluginName,
			HookName:   h.name,
			Reason:     "historic hooks are incompatible with hookwrapper implementations",
		}
	}

	if notInSpec := h.argsNotInSpec(impl); len(notInSpec) > 0 {
		return &ValidationError{
			Plugin:     impl.Plugin,
			PluginName: impl.PluginName,
			HookName:   h.name,
			Reason: fmt.Sprintf("argument(s) %s are declared in the hookimpl but not in the hookspec",
				strings.Join(notInSpec, ", ")),
		}
	}

	if impl.Opts.HookWrapper {
		if _, ok := impl.Function.(HookWrapperFunc); !ok {
			return &ValidationError{
				Plugin:     impl.Plugin,
				PluginName: impl.PluginName,
				HookName:   h.name,
				Reason:     fmt.Sprintf("declared hookwrapper=true but the callable is %T, not a two-phase wrapper", impl.Function),
				Err:        ErrNotCallable,
			}
		}
	}
	if impl.Opts.Wrapper {
		if _, ok := impl.Function.(WrapperFunc); !ok {
			return &ValidationError{
				Plugin:     impl.Plugin,
				PluginName: impl.PluginName,
				HookName:   h.name,
				Reason:     fmt.Sprintf("declared wrapper=true but the callable is %T, not a wrapper", impl.Function),
				Err:        ErrNotCallable,
			}
		}
	}
	return nil
}

// argsNotInSpec returns the implementation's declared argument names that
// the specification does not declare, in declaration order.
func (h *HookCaller) argsNotInSpec(impl *HookImpl) []string {
	specArgs := make(map[string]struct{})
	for _, name := range h.spec.allArgNames() {
		specArgs[name] = struct{}{}
	}
	var missing []string
	for _, name := range impl.declaredArgs() {
		if _, ok := specArgs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Call invokes all implementations for one logical call. Historic hooks
// must use CallHistoric instead.
func (h *HookCaller) Call(args Args) (any, error) {
	return h.callWith(h.hookImpls, args)
}

// callWith runs the engine against an implementation list. Shared with the
// subset view.
func (h *HookCaller) callWith(impls []*HookImpl, args Args) (any, error) {
	if h.IsHistoric() {
		return nil, fmt.Errorf("%w: hook %q is historic, use CallHistoric", ErrHistoricCall, h.name)
	}
	if args == nil {
		args = Args{}
	}
	return h.hookExec(h.name, impls, args, h.spec != nil && h.spec.Opts.FirstResult)
}

// CallHistoric invokes all implementations and logs the call for replay
// against implementations attached afterwards.
func (h *HookCaller) CallHistoric(args Args, proc func(any)) error {
	return h.callHistoricWith(h.hookImpls, args, proc)
}

// callHistoricWith logs and executes a historic call against an
// implementation list. The log always lives on the owning caller, so a
// subset view's calls replay too.
func (h *HookCaller) callHistoricWith(impls []*HookImpl, args Args, proc func(any)) error {
	if !h.IsHistoric() {
		return fmt.Errorf("%w: hook %q is not historic", ErrHistoricCall, h.name)
	}
	if args == nil {
		args = Args{}
	}
	h.callHistory = append(h.callHistory, historicCall{args: args, proc: proc})
	res, err := h.hookExec(h.name, impls, args, false)
	if err != nil {
		return err
	}
	if proc != nil {
		if results, ok := res.([]any); ok {
			for _, v := range results {
				proc(v)
			}
		}
	}
	return nil
}

// maybeApplyHistory replays every logged historic call against a newly
// attached implementation, in original call order.
func (h *HookCaller) maybeApplyHistory(impl *HookImpl) error {
	if !h.IsHistoric() {
		return nil
	}
	for _, call := range h.callHistory {
		res, err := h.hookExec(h.name, []*HookImpl{impl}, call.args, false)
		if err != nil {
			return err
		}
		if call.proc == nil {
			continue
		}
		if results, ok := res.([]any); ok && len(results) > 0 {
			call.proc(results[0])
		}
	}
	return nil
}

// CallExtra invokes the hook with additional one-off implementations mixed
// into the unmarked tier, without mutating the registry.
func (h *HookCaller) CallExtra(args Args, extra ...HookFunc) (any, error) {
	impls := h.HookImpls()
	for _, fn := range extra {
		impl := newHookImpl(nil, "<extra>", fn, ImplOpts{})
		// End of the unmarked tier, matching addHookImpl.
		i := len(impls)
		for i > 0 && impls[i-1].Opts.TryFirst {
			i--
		}
		impls = append(impls, nil)
		copy(impls[i+1:], impls[i:])
		impls[i] = impl
	}
	return h.callWith(impls, args)
}
