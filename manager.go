package pluggy

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DistInfo is the distribution metadata attached to an entry-point loaded
// plugin.
type DistInfo struct {
	ProjectName string
	Version     string
}

// EntryPoint is one discoverable plugin: a name, its distribution metadata,
// and a function producing the loaded plugin object.
type EntryPoint struct {
	Name string
	Dist DistInfo
	Load func() (any, error)
}

// Discoverer yields the entry points of a group, optionally filtered by
// name (empty name means all). Discovery is an external collaborator; the
// entrypoint subpackage provides a manifest-based implementation.
type Discoverer interface {
	Discover(group, name string) ([]EntryPoint, error)
}

// PluginDistInfo pairs an entry-point loaded plugin with its distribution
// metadata.
type PluginDistInfo struct {
	Plugin any
	Dist   DistInfo
}

// NamePlugin pairs a registration name with its plugin.
type NamePlugin struct {
	Name   string
	Plugin any
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for deprecation warnings and tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager is the top-level registry: it maps plugin identities to names,
// owns one HookCaller per hook name, and orchestrates registration,
// specification attachment, validation, and call monitoring.
//
// Plugin identities must be comparable values; pointers are the usual
// choice. The name map, hook namespace, and call engine are guarded for
// concurrent reads, but registration concurrent with hook calling requires
// external serialization by the host.
type Manager struct {
	projectName string
	logger      zerolog.Logger

	mu sync.RWMutex

	// nameToPlugin maps registration names to plugins. A nil value is the
	// blocked tombstone installed by SetBlocked.
	nameToPlugin map[string]any

	// distInfo records entry-point loaded plugins with their metadata.
	distInfo []PluginDistInfo

	// hooks is the hook relay namespace, one caller per hook name.
	hooks map[string]*HookCaller

	// innerHookExec is the current call engine, swappable by
	// AddHookcallMonitoring.
	innerHookExec HookExecFunc
}

// NewManager creates a plugin manager for one host application.
func NewManager(projectName string, opts ...Option) *Manager {
	m := &Manager{
		projectName:   projectName,
		logger:        zerolog.Nop(),
		nameToPlugin:  make(map[string]any),
		hooks:         make(map[string]*HookCaller),
		innerHookExec: multicall,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProjectName returns the host application's project name.
func (m *Manager) ProjectName() string {
	return m.projectName
}

// hookExec routes every hook call through the current inner engine. All
// HookCaller instances hold this function, so swapping the inner engine
// affects them uniformly.
func (m *Manager) hookExec(hookName string, impls []*HookImpl, args Args, firstResult bool) (any, error) {
	m.mu.RLock()
	exec := m.innerHookExec
	m.mu.RUnlock()
	return exec(hookName, impls, args, firstResult)
}

// Register registers a plugin under name, scanning it for hook
// implementations and attaching them to the matching hook callers. An
// empty name derives one via CanonicalName.
//
// Registering a blocked name returns ("", nil) without mutating state.
// Validation or historic-replay failures roll back the whole registration
// before returning the error.
func (m *Manager) Register(plugin any, name string) (string, error) {
	pluginName := name
	if pluginName == "" {
		pluginName = m.CanonicalName(plugin)
	}

	m.mu.Lock()
	if existing, ok := m.nameToPlugin[pluginName]; ok {
		m.mu.Unlock()
		if existing == nil {
			return "", nil // blocked name, silently rejected
		}
		return "", fmt.Errorf("%w: %q", ErrDuplicateName, pluginName)
	}
	for _, registered := range m.nameToPlugin {
		if registered == plugin {
			m.mu.Unlock()
			return "", fmt.Errorf("%w: %q", ErrDuplicatePlugin, pluginName)
		}
	}
	m.nameToPlugin[pluginName] = plugin
	m.mu.Unlock()

	if err := m.attachHookImpls(plugin, pluginName); err != nil {
		m.rollbackRegistration(plugin, pluginName)
		return "", err
	}

	m.logger.Debug().Str("plugin", pluginName).Msg("plugin registered")
	return pluginName, nil
}

// attachHookImpls scans a plugin for declared hook implementations and
// attaches each to its hook caller, validating against any bound
// specification and replaying historic calls.
func (m *Manager) attachHookImpls(plugin any, pluginName string) error {
	source, ok := plugin.(HookSource)
	if !ok {
		return nil
	}
	for _, def := range source.HookImpls() {
		if def.Opts.HookWrapper && def.Opts.Wrapper {
			return &ValidationError{
				Plugin:     plugin,
				PluginName: pluginName,
				HookName:   def.Name,
				Reason:     "hookwrapper and wrapper options are mutually exclusive",
			}
		}
		impl := newHookImpl(plugin, pluginName, def.Fn, def.Opts)

		hookName := def.Name
		if def.Opts.SpecName != "" {
			hookName = def.Opts.SpecName
		}

		hc := m.ensureHookCaller(hookName)
		if hc.HasSpec() {
			if err := hc.verifyHook(impl); err != nil {
				return err
			}
			if warn := hc.Spec().Opts.WarnOnImpl; warn != "" {
				m.logger.Warn().
					Str("hook", hookName).
					Str("plugin", pluginName).
					Msg(warn)
			}
			if err := hc.maybeApplyHistory(impl); err != nil {
				return err
			}
		}
		hc.addHookImpl(impl)
	}
	return nil
}

// rollbackRegistration undoes a partially applied Register call.
func (m *Manager) rollbackRegistration(plugin any, pluginName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, hc := range m.hooks {
		hc.removePlugin(plugin)
	}
	if m.nameToPlugin[pluginName] == plugin {
		delete(m.nameToPlugin, pluginName)
	}
}

// ensureHookCaller returns the caller for a hook name, creating it if
// absent.
func (m *Manager) ensureHookCaller(name string) *HookCaller {
	m.mu.Lock()
	defer m.mu.Unlock()

	hc, ok := m.hooks[name]
	if !ok {
		hc = newHookCaller(name, m.hookExec)
		m.hooks[name] = hc
	}
	return hc
}

// Unregister removes a plugin and all of its hook implementations,
// returning the name it was registered under.
func (m *Manager) Unregister(plugin any) (string, error) {
	name, ok := m.PluginName(plugin)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrNotRegistered, plugin)
	}
	if _, err := m.UnregisterName(name); err != nil {
		return "", err
	}
	return name, nil
}

// UnregisterName removes the plugin registered under name, returning it.
// The hook callers persist as reusable namespace slots.
func (m *Manager) UnregisterName(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	plugin, ok := m.nameToPlugin[name]
	if !ok || plugin == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	for _, hc := range m.hooks {
		hc.removePlugin(plugin)
	}
	delete(m.nameToPlugin, name)
	m.logger.Debug().Str("plugin", name).Msg("plugin unregistered")
	return plugin, nil
}

// SetBlocked unregisters the named plugin if present and blocks future
// registrations under that name.
func (m *Manager) SetBlocked(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if plugin, ok := m.nameToPlugin[name]; ok && plugin != nil {
		for _, hc := range m.hooks {
			hc.removePlugin(plugin)
		}
	}
	m.nameToPlugin[name] = nil
}

// IsBlocked reports whether the given plugin name is blocked.
func (m *Manager) IsBlocked(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.nameToPlugin[name]
	return ok && plugin == nil
}

// AddHookSpecs adds the hook specifications declared by namespace, binding
// each to its hook caller. Implementations registered before their
// specification are re-validated against it.
func (m *Manager) AddHookSpecs(namespace any) error {
	source, ok := namespace.(SpecSource)
	if !ok {
		return fmt.Errorf("%w: %T does not implement SpecSource", ErrNoSpecsFound, namespace)
	}
	defs := source.HookSpecs()
	if len(defs) == 0 {
		return fmt.Errorf("%w: no %s hooks in %T", ErrNoSpecsFound, m.projectName, namespace)
	}
	for _, def := range defs {
		hc := m.ensureHookCaller(def.Name)
		if err := hc.setSpecification(namespace, def); err != nil {
			return err
		}
		// Plugins may have registered this hook without knowing the spec.
		for _, impl := range hc.HookImpls() {
			if err := hc.verifyHook(impl); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plugins returns all registered plugin objects.
func (m *Manager) Plugins() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]any, 0, len(m.nameToPlugin))
	for _, plugin := range m.nameToPlugin {
		if plugin != nil {
			plugins = append(plugins, plugin)
		}
	}
	return plugins
}

// IsRegistered reports whether the plugin is registered.
func (m *Manager) IsRegistered(plugin any) bool {
	_, ok := m.PluginName(plugin)
	return ok
}

// CanonicalName returns a canonical name for a plugin object: its explicit
// Namer name when it provides one, otherwise a stable identifier derived
// from the plugin's identity. Note that a plugin may be registered under a
// different name; use PluginName for the registered name.
func (m *Manager) CanonicalName(plugin any) string {
	if namer, ok := plugin.(Namer); ok {
		if name := namer.PluginName(); name != "" {
			return name
		}
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(identityKey(plugin))).String()
}

// identityKey derives a stable per-identity string for anonymous plugins.
func identityKey(plugin any) string {
	rv := reflect.ValueOf(plugin)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Map, reflect.Func:
		return fmt.Sprintf("%T@0x%x", plugin, rv.Pointer())
	default:
		return fmt.Sprintf("%T:%v", plugin, plugin)
	}
}

// Plugin returns the plugin registered under name, or nil.
func (m *Manager) Plugin(name string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nameToPlugin[name]
}

// HasPlugin reports whether a plugin is registered under name.
func (m *Manager) HasPlugin(name string) bool {
	return m.Plugin(name) != nil
}

// PluginName returns the name the plugin is registered under.
func (m *Manager) PluginName(plugin any) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, registered := range m.nameToPlugin {
		if registered == plugin && registered != nil {
			return name, true
		}
	}
	return "", false
}

// CheckPending verifies that every implementation attached to a hook with
// no specification is marked optional, and returns a ValidationError
// wrapping ErrUnknownHook otherwise.
func (m *Manager) CheckPending() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, hc := range m.hooks {
		if hc.HasSpec() {
			continue
		}
		for _, impl := range hc.hookImpls {
			if !impl.Opts.OptionalHook {
				return &ValidationError{
					Plugin:     impl.Plugin,
					PluginName: impl.PluginName,
					HookName:   name,
					Reason:     fmt.Sprintf("unknown hook %q", name),
					Err:        ErrUnknownHook,
				}
			}
		}
	}
	return nil
}

// LoadEntryPoints discovers, loads, and registers the plugins of an entry
// point group, skipping names that are blocked or already registered. It
// returns the number of plugins this call registered.
func (m *Manager) LoadEntryPoints(d Discoverer, group, name string) (int, error) {
	eps, err := d.Discover(group, name)
	if err != nil {
		return 0, fmt.Errorf("discovering entry points for group %q: %w", group, err)
	}
	count := 0
	for _, ep := range eps {
		if m.HasPlugin(ep.Name) || m.IsBlocked(ep.Name) {
			continue
		}
		plugin, err := ep.Load()
		if err != nil {
			return count, fmt.Errorf("loading entry point %q: %w", ep.Name, err)
		}
		if _, err := m.Register(plugin, ep.Name); err != nil {
			return count, err
		}
		m.mu.Lock()
		m.distInfo = append(m.distInfo, PluginDistInfo{Plugin: plugin, Dist: ep.Dist})
		m.mu.Unlock()
		count++
	}
	return count, nil
}

// ListPluginDistInfo returns the (plugin, distinfo) pairs of all
// entry-point loaded plugins.
func (m *Manager) ListPluginDistInfo() []PluginDistInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]PluginDistInfo, len(m.distInfo))
	copy(infos, m.distInfo)
	return infos
}

// ListNamePlugin returns the (name, plugin) pairs of all registered
// plugins, sorted by name. Blocked names are omitted.
func (m *Manager) ListNamePlugin() []NamePlugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pairs := make([]NamePlugin, 0, len(m.nameToPlugin))
	for name, plugin := range m.nameToPlugin {
		if plugin == nil {
			continue
		}
		pairs = append(pairs, NamePlugin{Name: name, Plugin: plugin})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// Hook returns the caller for a hook name, or nil if none exists. This is
// the explicit hook-namespace lookup.
func (m *Manager) Hook(name string) *HookCaller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooks[name]
}

// HookNames returns all hook names in the namespace, sorted.
func (m *Manager) HookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.hooks))
	for name := range m.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HookCallersFor returns the hook callers the plugin contributes
// implementations to, sorted by hook name, or nil if the plugin is not
// registered.
func (m *Manager) HookCallersFor(plugin any) []*HookCaller {
	if !m.IsRegistered(plugin) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	callers := make([]*HookCaller, 0)
	for _, hc := range m.hooks {
		if hc.hasPlugin(plugin) {
			callers = append(callers, hc)
		}
	}
	sort.Slice(callers, func(i, j int) bool { return callers[i].name < callers[j].name })
	return callers
}

// SubsetHookCaller returns a caller for the named hook that excludes the
// implementations of the given plugins. When none of them contribute to
// the hook, the original caller is returned.
func (m *Manager) SubsetHookCaller(name string, remove []any) (Caller, error) {
	hc := m.Hook(name)
	if hc == nil {
		return nil, fmt.Errorf("%w: %q", ErrHookNotFound, name)
	}
	var present []any
	for _, plugin := range remove {
		if hc.hasPlugin(plugin) {
			present = append(present, plugin)
		}
	}
	if len(present) == 0 {
		return hc, nil
	}
	return newSubsetHookCaller(hc, present), nil
}
