package pluggy

// SpecOpts are the declared options of one hook specification.
type SpecOpts struct {
	// FirstResult makes calls return the first non-nil implementation
	// result instead of a list of all results.
	FirstResult bool

	// Historic logs every call for replay against implementations attached
	// afterwards. Historic hooks are incompatible with old-style wrappers.
	Historic bool

	// WarnOnImpl, when non-empty, is a deprecation warning logged whenever
	// an implementation registers for the hook.
	WarnOnImpl string
}

// HookSpecDef declares one hook specification of a namespace: the hook
// name, its argument names, and options.
type HookSpecDef struct {
	Name       string
	ArgNames   []string
	KwargNames []string
	Opts       SpecOpts
}

// SpecSource enumerates the hook specifications a namespace declares.
// Host applications pass a SpecSource to Manager.AddHookSpecs.
type SpecSource interface {
	HookSpecs() []HookSpecDef
}

// HookSpec is the declared contract of one hook: its argument names and
// result-combination policy. A HookCaller holds at most one, set exactly
// once.
type HookSpec struct {
	// Namespace is the declaring value passed to AddHookSpecs.
	Namespace any

	// Name is the hook name.
	Name string

	// ArgNames are the declared argument names, in order.
	ArgNames []string

	// KwargNames are declared keyword-only argument names.
	KwargNames []string

	// Opts are the specification options.
	Opts SpecOpts
}

// newHookSpec builds a specification record from its declaration.
func newHookSpec(namespace any, def HookSpecDef) *HookSpec {
	return &HookSpec{
		Namespace:  namespace,
		Name:       def.Name,
		ArgNames:   def.ArgNames,
		KwargNames: def.KwargNames,
		Opts:       def.Opts,
	}
}

// allArgNames returns the union of positional and keyword-only names.
func (s *HookSpec) allArgNames() []string {
	if len(s.KwargNames) == 0 {
		return s.ArgNames
	}
	names := make([]string, 0, len(s.ArgNames)+len(s.KwargNames))
	names = append(names, s.ArgNames...)
	names = append(names, s.KwargNames...)
	return names
}
