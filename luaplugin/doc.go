// Package luaplugin adapts Lua scripts into pluggy plugins.
//
// A script declares its hook implementations in a global "hooks" table
// mapping hook names to either a bare function or a table carrying the
// function and its options:
//
//	hooks = {
//	    on_setup = function(args) return args.x + 1 end,
//	    on_teardown = {
//	        impl = function(args) return "done" end,
//	        tryfirst = true,
//	        args = { "reason" },
//	    },
//	}
//
// Recognized option keys are tryfirst, trylast, optional, specname, and
// args (the declared argument names). Each entry becomes a plain hook
// implementation; the cooperative wrapper kinds do not map onto a Lua
// call and are not supported.
//
// Implementations receive the argument bag as a Lua table and may return
// a single value, converted back to Go. A Lua error becomes the hook
// call's error.
//
// A Plugin holds one Lua state and is not safe for concurrent calls,
// matching the dispatcher's single-threaded call contract.
package luaplugin
