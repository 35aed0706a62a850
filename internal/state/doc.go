// Package state provides the query cache that owns the board's question list.
//
// # Overview
//
// Cache is the single authoritative, shared copy of a remote list, keyed by
// an explicit cache key. The view reads it, the mutation coordinator
// invalidates it, and nothing else ever holds the list. After every
// successful fetch the stored list is exactly the server's response; there
// is no client-side merging.
//
// # Fetching
//
//	Callers:                          Cache:
//	┌──────────────────┐             ┌────────────────────────────┐
//	│ Fetch(ctx)       │────────────→│ singleflight on cache key  │
//	│ Fetch(ctx)       │─── joins ──→│  └─> lister.ListQuestions  │
//	│ Invalidate()     │─── dirty ──→│      (one follow-up pass)  │
//	└──────────────────┘             └────────────────────────────┘
//
// Concurrent Fetch calls share one outstanding request. Invalidate never
// blocks: it either starts a background fetch or, when one is already in
// flight, marks the cache dirty so exactly one more pass runs after the
// current one settles. At most one ListQuestions call is ever in flight per
// cache.
//
// There is no refresh on focus or any other implicit trigger. Periodic
// refresh, when configured, is the app package calling Invalidate on a timer.
//
// # Status
//
// Snapshot.Status is one of:
//
//   - StatusLoading: nothing has settled yet
//   - StatusError: the latest fetch failed; older questions are kept in the
//     snapshot but the view must show the error state
//   - StatusReady: the latest fetch succeeded
//
// # Lifetime
//
// NewCache takes a context that bounds the cache and every request it
// issues. Close cancels it; results that arrive afterwards are dropped
// without error or log output.
//
// # Change Notification
//
// Changes returns a channel with room for one pending signal. Signals are
// coalesced, so readers must treat a receive as "re-read Snapshot", never as
// one event per transition.
package state
