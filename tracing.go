package pluggy

// BeforeMonitor runs ahead of every hook call with the hook name, the
// implementations about to execute, and the call's argument bag.
type BeforeMonitor func(hookName string, impls []*HookImpl, args Args)

// AfterMonitor runs after every hook call with the call's outcome and the
// same arguments its BeforeMonitor received.
type AfterMonitor func(outcome *Result, hookName string, impls []*HookImpl, args Args)

// AddHookcallMonitoring installs before/after monitoring around all hook
// calls by wrapping the current call engine. Multiple installations nest
// like wrapper implementations: the most recent runs outermost. The
// returned undo function restores the engine this installation captured.
func (m *Manager) AddHookcallMonitoring(before BeforeMonitor, after AfterMonitor) func() {
	m.mu.Lock()
	oldExec := m.innerHookExec
	m.innerHookExec = func(hookName string, impls []*HookImpl, args Args, firstResult bool) (any, error) {
		before(hookName, impls, args)
		outcome := resultFromCall(func() (any, error) {
			return oldExec(hookName, impls, args, firstResult)
		})
		after(outcome, hookName, impls, args)
		return outcome.Get()
	}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.innerHookExec = oldExec
		m.mu.Unlock()
	}
}

// EnableTracing logs every hook call and its outcome at debug level using
// the manager's logger. It returns an undo function removing the tracing.
func (m *Manager) EnableTracing() func() {
	before := func(hookName string, impls []*HookImpl, args Args) {
		m.logger.Debug().
			Str("hook", hookName).
			Int("impls", len(impls)).
			Interface("args", args).
			Msg("hook call")
	}
	after := func(outcome *Result, hookName string, impls []*HookImpl, args Args) {
		evt := m.logger.Debug().Str("hook", hookName)
		if err := outcome.Err(); err != nil {
			evt.Err(err).Msg("hook call failed")
			return
		}
		result, _ := outcome.Get()
		evt.Interface("result", result).Msg("hook call finished")
	}
	return m.AddHookcallMonitoring(before, after)
}
