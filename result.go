package pluggy

// Result wraps either a produced value or a captured failure from one hook
// invocation. Wrapper implementations receive the nested call's outcome as a
// *Result and may inspect or override it before it propagates outward.
type Result struct {
	value any
	err   error
}

// NewResult returns a Result holding a value.
func NewResult(value any) *Result {
	return &Result{value: value}
}

// NewErrorResult returns a Result holding a captured failure.
func NewErrorResult(err error) *Result {
	return &Result{err: err}
}

// resultFromCall captures the outcome of f, value or failure.
func resultFromCall(f func() (any, error)) *Result {
	v, err := f()
	if err != nil {
		return NewErrorResult(err)
	}
	return NewResult(v)
}

// Get returns the value, or the captured failure if there is one.
func (r *Result) Get() (any, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.value, nil
}

// GetOrDefault returns the value, or def if the result holds a failure.
func (r *Result) GetOrDefault(def any) any {
	if r.err != nil {
		return def
	}
	return r.value
}

// Err returns the captured failure, if any.
func (r *Result) Err() error {
	return r.err
}

// ForceResult installs value as the result, discarding any captured failure.
func (r *Result) ForceResult(value any) {
	r.value = value
	r.err = nil
}

// ForceError installs err as the outcome, discarding any held value.
func (r *Result) ForceError(err error) {
	r.value = nil
	r.err = err
}
