// Package tasks orchestrates playlist state against the remote API and session cache with real-time progress reporting.
//
// # Core Operations
//
// [Engine] bridges the store, the gateway, and the cache:
//
//  1. [Engine.LoadPlaylists] / [Engine.EnsureTracks] : Reads
//     - Session cache is consulted first and trusted for the session
//     - Remote fetches page until complete; the store only ever sees full lists
//     - 401 clears credentials and 403 flips the session into demo mode; transient failures fall back to the sample dataset
//
//  2. [Engine.ToggleTrack] / [Engine.Undo] : Optimistic mutations
//     - Local transition dispatched before the remote call
//     - Remote failure dispatches the inverse transition (guaranteed rollback)
//     - Successful mutations land on a bounded undo stack
//
//  3. [Engine.Merge] / [Engine.Duplicate] : Batched playlist creation
//     - Union or single-source tracks submitted in sequential batches of 100
//     - Best-effort: a failed batch leaves the playlist partial, surfaced in [BatchResult]
//
//  4. [Engine.Export] : Concurrent playlist export via a worker pool
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Modes
//
// The engine runs [Live] against the API or [Demo] against the bundled
// sample dataset. Demo mode simulates mutations locally and never calls
// out; the switch happens once, through one controlled transition.
package tasks
