package pluggy

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registration and hook calling.
var (
	// ErrDuplicateName is returned when a plugin name is already bound to a
	// live plugin.
	ErrDuplicateName = errors.New("plugin name already registered")

	// ErrDuplicatePlugin is returned when the same plugin object is already
	// registered under a different name.
	ErrDuplicatePlugin = errors.New("plugin already registered under a different name")

	// ErrNotRegistered is returned when operations reference a plugin that
	// is not registered.
	ErrNotRegistered = errors.New("plugin is not registered")

	// ErrUnknownHook is returned by CheckPending for implementations attached
	// to no known specification and not marked optional.
	ErrUnknownHook = errors.New("unknown hook")

	// ErrNoSpecsFound is returned by AddHookSpecs when the namespace declares
	// no hook specifications.
	ErrNoSpecsFound = errors.New("no hook specifications found")

	// ErrSpecAlreadySet is returned when a specification is attached to a
	// hook caller that already has one.
	ErrSpecAlreadySet = errors.New("hook specification already set")

	// ErrHookNotFound is returned when a named hook caller does not exist.
	ErrHookNotFound = errors.New("hook not found")

	// ErrHistoricCall is returned when Call is used on a historic hook or
	// CallHistoric on a non-historic one.
	ErrHistoricCall = errors.New("wrong call mode for historic hook")

	// ErrMissingArgument is returned when an implementation declares an
	// argument name absent from the call's argument bag.
	ErrMissingArgument = errors.New("hook call is missing a declared argument")

	// ErrNotCallable is returned when an implementation's function does not
	// have the shape its options declare.
	ErrNotCallable = errors.New("hook implementation is not callable as declared")
)

// ValidationError reports a plugin whose hook implementation failed
// validation against a specification or against its own declared options.
// The offending plugin is attached for diagnostics.
type ValidationError struct {
	// Plugin is the plugin that failed validation.
	Plugin any

	// PluginName is the registered (or canonical) name of the plugin.
	PluginName string

	// HookName is the hook the implementation targets.
	HookName string

	// Reason describes the mismatch.
	Reason string

	// Err is the matching sentinel, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plugin %q", e.PluginName)
	if e.HookName != "" {
		fmt.Fprintf(&b, " for hook %q", e.HookName)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Unwrap returns the sentinel error, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
