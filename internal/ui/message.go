package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zayatsoff/spm/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsLoaded MsgKind = iota
	MsgSelectionApplied
	MsgUndoApplied
	MsgBatchComplete
	MsgNotice
)

// playlistsLoadedMsg is the constructor for [MsgPlaylistsLoaded]
func playlistsLoadedMsg(err error) Msg {
	return Msg{kind: MsgPlaylistsLoaded, data: err}
}

// selectionAppliedMsg is the constructor for [MsgSelectionApplied]
func selectionAppliedMsg(playlistID string, err error) Msg {
	return Msg{
		kind: MsgSelectionApplied,
		data: struct {
			playlistID string
			err        error
		}{playlistID, err},
	}
}

// undoAppliedMsg is the constructor for [MsgUndoApplied]
func undoAppliedMsg(err error) Msg {
	return Msg{kind: MsgUndoApplied, data: err}
}

// batchCompleteMsg is the constructor for [MsgBatchComplete]
func batchCompleteMsg(result *tasks.BatchResult, err error) Msg {
	return Msg{
		kind: MsgBatchComplete,
		data: struct {
			result *tasks.BatchResult
			err    error
		}{result, err},
	}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(notice string) Msg {
	return Msg{kind: MsgNotice, data: notice}
}
