package pluggy

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		PluginName: "p",
		HookName:   "h",
		Reason:     "something is off",
	}
	msg := err.Error()
	for _, want := range []string{`"p"`, `"h"`, "something is off"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %s in %q", want, msg)
		}
	}
}

func TestValidationError_NoHookName(t *testing.T) {
	err := &ValidationError{PluginName: "p", Reason: "r"}
	if strings.Contains(err.Error(), "hook") {
		t.Errorf("expected no hook clause, got %q", err.Error())
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := &ValidationError{PluginName: "p", Reason: "r", Err: ErrUnknownHook}
	if !errors.Is(err, ErrUnknownHook) {
		t.Error("expected errors.Is to match the wrapped sentinel")
	}

	bare := &ValidationError{PluginName: "p", Reason: "r"}
	if errors.Is(bare, ErrUnknownHook) {
		t.Error("expected no sentinel match without a wrapped error")
	}
}
