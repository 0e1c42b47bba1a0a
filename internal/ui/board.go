package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zayatsoff/spm/internal/store"
	"github.com/zayatsoff/spm/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BoardView ViewState = iota
	UnionView
)

// Model represents the playlist board state. All reads and mutations go
// through the sync engine so the board sees exactly what the store
// holds, fallbacks included.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.Engine

	width  int
	height int

	playlistList list.Model
	unionList    list.Model

	status string
	err    error

	help help.Model
	keys keyMap
}

// NewModel creates a new board model backed by the given engine.
func NewModel(ctx context.Context, engine *tasks.Engine) *Model {
	return &Model{
		ctx:    ctx,
		view:   BoardView,
		engine: engine,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init loads the playlist listing through the engine.
func (m *Model) Init() tea.Cmd {
	return m.loadPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.unionList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BoardView:
			return m.handleBoardKeys(msg)
		case UnionView:
			return m.handleUnionKeys(msg)
		}

	case Msg:
		return m.handleAppMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleAppMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsLoaded:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.rebuildPlaylistList()
		return m, m.drainNotice()

	case MsgSelectionApplied:
		data := msg.data.(struct {
			playlistID string
			err        error
		})
		if data.err != nil {
			m.status = styles.warn.Render(data.err.Error())
		} else {
			m.status = ""
		}
		m.rebuildPlaylistList()
		m.rebuildUnionList()
		return m, m.drainNotice()

	case MsgUndoApplied:
		if err, ok := msg.data.(error); ok && err != nil {
			m.status = styles.warn.Render(err.Error())
		} else {
			m.status = styles.ok.Render("Undone")
		}
		m.rebuildUnionList()
		return m, nil

	case MsgBatchComplete:
		data := msg.data.(struct {
			result *tasks.BatchResult
			err    error
		})
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
		} else if !data.result.Complete() {
			m.status = styles.warn.Render(fmt.Sprintf(
				"Partial: %d/%d tracks in '%s'",
				data.result.TracksAdded, data.result.TracksTotal, data.result.Playlist.Name))
		} else {
			m.status = styles.ok.Render(fmt.Sprintf(
				"Created '%s' with %d tracks", data.result.Playlist.Name, data.result.TracksAdded))
		}
		m.rebuildPlaylistList()
		return m, nil

	case MsgNotice:
		m.status = styles.warn.Render(msg.data.(string))
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BoardView:
		return m.renderBoard()
	case UnionView:
		return m.renderUnion()
	default:
		return ""
	}
}

func (m *Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.toggleSelection(item.playlist.ID)
		}
	case key.Matches(msg, m.keys.union):
		m.rebuildUnionList()
		m.view = UnionView
		return m, nil
	case key.Matches(msg, m.keys.merge):
		return m, m.merge()
	case key.Matches(msg, m.keys.duplicate):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.duplicate(item.playlist.ID)
		}
	case key.Matches(msg, m.keys.undo):
		return m, m.undo()
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleUnionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = BoardView
		return m, nil
	case key.Matches(msg, m.keys.merge):
		return m, m.merge()
	case key.Matches(msg, m.keys.undo):
		return m, m.undo()
	}

	var cmd tea.Cmd
	m.unionList, cmd = m.unionList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BoardView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case UnionView:
		m.unionList, cmd = m.unionList.Update(msg)
	}
	return m, cmd
}

func (m *Model) rebuildPlaylistList() {
	state := m.engine.Store().State()

	items := make([]list.Item, len(state.Playlists))
	for i, pl := range state.Playlists {
		items[i] = playlistItem{playlist: pl, selected: state.IsSelected(pl.ID)}
	}

	index := m.playlistList.Index()
	m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.playlistList.Title = fmt.Sprintf("Playlists (%s)", m.engine.Mode())
	m.playlistList.SetSize(m.width-4, m.height-8)
	if index < len(items) {
		m.playlistList.Select(index)
	}
}

func (m *Model) rebuildUnionList() {
	state := m.engine.Store().State()
	union := store.UnionTracks(state)

	items := make([]list.Item, len(union))
	for i, track := range union {
		items[i] = trackItem{track: track}
	}

	m.unionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.unionList.Title = fmt.Sprintf("Union of %d playlists (%d tracks)", len(state.Selected), len(union))
	m.unionList.SetSize(m.width-4, m.height-8)
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		err := m.engine.LoadPlaylists(m.ctx, nil)
		return playlistsLoadedMsg(err)
	}
}

func (m *Model) toggleSelection(playlistID string) tea.Cmd {
	return func() tea.Msg {
		err := m.engine.SelectPlaylist(m.ctx, playlistID, nil)
		return selectionAppliedMsg(playlistID, err)
	}
}

func (m *Model) merge() tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Merge(m.ctx, "", nil)
		return batchCompleteMsg(result, err)
	}
}

func (m *Model) duplicate(playlistID string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Duplicate(m.ctx, playlistID, nil)
		return batchCompleteMsg(result, err)
	}
}

func (m *Model) undo() tea.Cmd {
	return func() tea.Msg {
		return undoAppliedMsg(m.engine.Undo(m.ctx))
	}
}

// drainNotice surfaces the engine's pending one-time notice, if any.
func (m *Model) drainNotice() tea.Cmd {
	return func() tea.Msg {
		if notice, ok := m.engine.Notice(); ok {
			return noticeMsg(notice)
		}
		return nil
	}
}

func (m *Model) renderBoard() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.union, m.keys.merge, m.keys.duplicate, m.keys.undo, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	out := m.playlistList.View()
	if m.status != "" {
		out += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}

func (m *Model) renderUnion() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.merge, m.keys.undo, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	out := m.unionList.View()
	if m.status != "" {
		out += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}
