// Package app wires the board's components together and runs the TUI.
//
// Run loads configuration and preferences, redirects the standard logger to
// a file so it does not corrupt the terminal, and builds the components:
//
//	gateway.Client ──> state.Cache ──> ui (feed, header, footer)
//	      │                 ▲
//	      │                 └── mutation.Coordinator (create, toggle)
//	      └──> health.Sampler ──> health.Monitor ──> ui (live indicator)
//
// A background refresher invalidates the cache on an interval and backs off
// exponentially while fetches keep failing, capped at 30 seconds. Failures
// never stop the board; they surface in the UI as the error state and a toast.
//
// Fatal errors returned from Run are limited to startup problems: an
// unreadable config file, an unparsable API URL or session URL, or an
// unknown health strategy.
package app
