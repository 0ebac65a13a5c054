package pluggy

import "fmt"

// HookExecFunc executes the ordered implementations of one hook for a
// single logical call. The Manager's inner engine has this shape, as do the
// wrapping engines installed by AddHookcallMonitoring. In collect-all mode
// the returned value is a []any; in first-result mode it is the winning
// value or nil.
type HookExecFunc func(hookName string, impls []*HookImpl, args Args, firstResult bool) (any, error)

// pendingFinish is one entered wrapper awaiting the nested outcome.
type pendingFinish struct {
	impl   *HookImpl
	legacy func(outcome *Result)
	finish func(outcome *Result) (any, error)
}

// multicall executes hook implementations under the wrapper, ordering, and
// first-result rules. impls must already be in execution order: wrappers
// nest like stack frames (the first wrapper in the list is outermost) and
// plain implementations run front to back.
//
// A plain implementation error abandons the remaining plain implementations
// and becomes the outcome delivered to every entered wrapper; each wrapper
// may let it propagate or override it. Collected results are discarded on
// failure. In collect-all mode non-nil results are prepended, so the result
// list is most-recently-executed first.
func multicall(hookName string, impls []*HookImpl, args Args, firstResult bool) (any, error) {
	outcome := NewResult(nil)
	var entered []pendingFinish

	failed := false
	for _, impl := range impls {
		if !impl.IsWrapper() {
			continue
		}
		callArgs, err := impl.filterArgs(args)
		if err == nil {
			err = enterWrapper(hookName, impl, callArgs, &entered)
		}
		if err != nil {
			outcome.ForceError(err)
			failed = true
			break
		}
	}

	if !failed {
		runPlain(hookName, impls, args, firstResult, outcome)
	}

	// Unwind after-phases in reverse entry order: last entered, first
	// exited.
	for i := len(entered) - 1; i >= 0; i-- {
		p := entered[i]
		if p.legacy != nil {
			p.legacy(outcome)
			continue
		}
		v, err := p.finish(outcome)
		if err != nil {
			outcome.ForceError(err)
		} else {
			outcome.ForceResult(v)
		}
	}

	return outcome.Get()
}

// enterWrapper runs a wrapper's before-phase and stacks its finish function.
func enterWrapper(hookName string, impl *HookImpl, callArgs Args, entered *[]pendingFinish) error {
	switch fn := impl.Function.(type) {
	case HookWrapperFunc:
		finish, err := fn(callArgs)
		if err != nil {
			return err
		}
		if finish != nil {
			*entered = append(*entered, pendingFinish{impl: impl, legacy: finish})
		}
		return nil
	case WrapperFunc:
		finish, err := fn(callArgs)
		if err != nil {
			return err
		}
		if finish != nil {
			*entered = append(*entered, pendingFinish{impl: impl, finish: finish})
		}
		return nil
	default:
		return fmt.Errorf("%w: plugin %q declares a wrapper for hook %q but supplied %T",
			ErrNotCallable, impl.PluginName, hookName, impl.Function)
	}
}

// runPlain executes the non-wrapper implementations, writing the combined
// result or the first failure into outcome.
func runPlain(hookName string, impls []*HookImpl, args Args, firstResult bool, outcome *Result) {
	var results []any
	for _, impl := range impls {
		if impl.IsWrapper() {
			continue
		}
		v, err := callPlain(hookName, impl, args)
		if err != nil {
			outcome.ForceError(err)
			return
		}
		if v == nil {
			continue
		}
		if firstResult {
			outcome.ForceResult(v)
			return
		}
		results = append([]any{v}, results...)
	}
	if firstResult {
		return
	}
	if results == nil {
		results = []any{}
	}
	outcome.ForceResult(results)
}

// callPlain invokes one plain implementation with its declared argument
// subset.
func callPlain(hookName string, impl *HookImpl, args Args) (any, error) {
	fn, ok := impl.Function.(HookFunc)
	if !ok {
		return nil, fmt.Errorf("%w: plugin %q supplied %T for hook %q",
			ErrNotCallable, impl.PluginName, impl.Function, hookName)
	}
	callArgs, err := impl.filterArgs(args)
	if err != nil {
		return nil, err
	}
	return fn(callArgs)
}
