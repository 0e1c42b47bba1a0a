// Package ui implements the interactive playlist board using bubbletea's Elm architecture.
//
// The TUI provides a two-pane workflow:
//  1. [BoardView] : Browse playlists and toggle them in and out of the selection
//  2. [UnionView] : Inspect the de-duplicated union of the selected playlists
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// All playlist operations go through the sync [tasks.Engine]; the board never talks to the remote API directly,
// so cache hits, demo mode, and the failure fallbacks apply uniformly.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, m, c, u, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
