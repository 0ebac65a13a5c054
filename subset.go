package pluggy

// SubsetHookCaller is a read-only view over a HookCaller that excludes the
// implementations of a given set of plugins. It shares the owning caller's
// specification, call engine, and historic log; only the implementation
// list seen by calls differs. Obtained from Manager.SubsetHookCaller.
type SubsetHookCaller struct {
	orig    *HookCaller
	removed map[any]struct{}
}

// newSubsetHookCaller creates a view excluding the given plugins.
func newSubsetHookCaller(orig *HookCaller, remove []any) *SubsetHookCaller {
	removed := make(map[any]struct{}, len(remove))
	for _, p := range remove {
		removed[p] = struct{}{}
	}
	return &SubsetHookCaller{orig: orig, removed: removed}
}

// Name returns the hook name.
func (s *SubsetHookCaller) Name() string {
	return s.orig.name
}

// HasSpec reports whether a specification is bound to the owning caller.
func (s *SubsetHookCaller) HasSpec() bool {
	return s.orig.HasSpec()
}

// IsHistoric reports whether the owning caller's specification is historic.
func (s *SubsetHookCaller) IsHistoric() bool {
	return s.orig.IsHistoric()
}

// HookImpls returns the owning caller's current implementations minus the
// excluded plugins', in execution order.
func (s *SubsetHookCaller) HookImpls() []*HookImpl {
	impls := make([]*HookImpl, 0, len(s.orig.hookImpls))
	for _, impl := range s.orig.hookImpls {
		if _, excluded := s.removed[impl.Plugin]; excluded {
			continue
		}
		impls = append(impls, impl)
	}
	return impls
}

// Call invokes every implementation except the excluded plugins'.
func (s *SubsetHookCaller) Call(args Args) (any, error) {
	return s.orig.callWith(s.HookImpls(), args)
}

// CallHistoric invokes the filtered implementations and logs the call on
// the owning caller.
func (s *SubsetHookCaller) CallHistoric(args Args, proc func(any)) error {
	return s.orig.callHistoricWith(s.HookImpls(), args, proc)
}

var (
	_ Caller = (*HookCaller)(nil)
	_ Caller = (*SubsetHookCaller)(nil)
)
