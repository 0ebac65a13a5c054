// Package pluggy is an in-process extension-point dispatcher: a registry
// that lets independent plugin components attach implementations to named
// hooks declared by a host application, and a call engine that invokes all
// attached implementations for one logical call, combining their results
// under configurable policies.
//
// # Concepts
//
// A hook is a named call site. A hook specification (HookSpec) declares its
// contract: argument names and the result-combination policy (collect-all,
// first-result, or historic). A hook implementation (HookImpl) is one
// plugin's handler attached to a hook. Calling a hook runs a multicall:
// every attached implementation executes, and the results combine into an
// ordered list, or in first-result mode the first non-nil value wins.
//
// Hosts declare specifications through a SpecSource and register plugins
// whose HookSource enumerates their implementations:
//
//	pm := pluggy.NewManager("myapp")
//	if err := pm.AddHookSpecs(specs); err != nil { ... }
//	name, err := pm.Register(plugin, "")
//	results, err := pm.Hook("setup").Call(pluggy.Args{"config": cfg})
//
// # Ordering
//
// Implementations execute in three tiers: trylast first, then unmarked,
// then tryfirst, with registration order inside each tier. A tryfirst
// implementation therefore sees everyone else's work, and collected
// results are ordered most-recently-executed first.
//
// # Wrappers
//
// Wrapper implementations run code before and after the nested set of
// implementations, nesting like stack frames: the earliest wrapper in
// execution order is outermost, and after-phases unwind in reverse. A
// wrapper's finish function receives the combined outcome as a *Result and
// may let it propagate, or override it.
//
// # Historic hooks
//
// A historic hook logs every call and replays the full log, in order,
// against any implementation attached afterwards, so late-joining plugins
// observe every past call exactly once.
//
// # Concurrency
//
// Hook calling is synchronous, single-threaded, and reentrant: an
// implementation may itself call other hooks. The manager's maps are safe
// for concurrent reads, but registration or unregistration concurrent with
// hook calling must be serialized by the host.
package pluggy
