// Package entrypoint discovers plugins from the filesystem.
//
// A Discoverer scans its search paths for plugin directories carrying a
// plugin.toml manifest:
//
//	name = "greeter"
//	version = "1.0.0"
//	group = "myapp"
//	main = "init.lua"
//	description = "Adds greeting hooks"
//
// Each valid manifest whose group matches becomes a pluggy.EntryPoint
// whose Load opens the named Lua script as a luaplugin.Plugin. Feed the
// Discoverer to Manager.LoadEntryPoints to register everything a group
// provides:
//
//	d := entrypoint.NewDiscoverer(entrypoint.WithPaths(dirs...))
//	n, err := pm.LoadEntryPoints(d, "myapp", "")
package entrypoint
