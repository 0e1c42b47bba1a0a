// Package store implements the in-memory library state machine.
//
// The state holds the fetched playlist list, the ordered selection set,
// and per-playlist track lists. All transitions go through [Reduce], a
// total pure function over the closed [Action] set: the reducer never
// fails and never performs side effects. Network calls and cache writes
// live in the tasks package, which dispatches follow-up actions here.
//
// [Store] wraps the reducer with a mutex so CLI commands and the TUI can
// share one instance. [UnionTracks] derives the de-duplicated cross-
// playlist track view; [UndoStack] is the bounded mutation history.
package store
