// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tui is the terminal front end of the dashboard.

The [Model] owns no dashboard state of its own: every key press is mapped to a
session transition, and the screen is redrawn from [dashboard.Session.Snapshot]
whenever the session signals a change.
*/
package tui

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/export"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/internal/platform/constants"
)

// focus is the widget receiving key presses.
type focus int

const (
	focusTable focus = iota
	focusSearch
	focusFilter
)

// # Messages

// changedMsg reports that the session state changed.
type changedMsg struct{}

// closedMsg reports that the session was closed.
type closedMsg struct{}

// exportedMsg reports the outcome of an export.
type exportedMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	session   *dashboard.Session
	logger    *slog.Logger
	exportDir string

	snap dashboard.Snapshot

	keys   KeyMap
	styles Styles
	help   help.Model

	table  table.Model
	search textinput.Model
	filter textinput.Model
	focus  focus

	// notice is a one-line status message (export result, rejected page).
	notice      string
	noticeError bool

	width  int
	height int
}

// New creates the dashboard model over session. Exports are written to exportDir.
func New(session *dashboard.Session, exportDir string, logger *slog.Logger) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	search := textinput.New()
	search.Placeholder = "Search by name..."
	search.CharLimit = constants.MaxInputLength
	search.Width = 30

	filter := textinput.New()
	filter.Placeholder = "Filter by TV show..."
	filter.CharLimit = constants.MaxInputLength
	filter.Width = 30

	m := Model{
		session:   session,
		logger:    logger,
		exportDir: exportDir,
		keys:      DefaultKeyMap,
		styles:    DefaultStyles(),
		help:      help.New(),
		table:     t,
		search:    search,
		filter:    filter,
	}
	m.refresh()

	return m
}

// columns sizes the table columns for a terminal of the given width.
func columns(width int) []table.Column {
	name := max(20, width/4)
	list := max(16, (width-name-24)/2)

	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "TV Shows", Width: 8},
		{Title: "Video Games", Width: 11},
		{Title: "Allies", Width: list},
		{Title: "Enemies", Width: list},
	}
}

// Init starts listening for session changes.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.session)
}

// waitForChange blocks until the session changes or closes.
func waitForChange(session *dashboard.Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-session.Changes():
			return changedMsg{}
		case <-session.Done():
			return closedMsg{}
		}
	}
}

// # Update

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.refresh()
		return m, waitForChange(m.session)

	case closedMsg:
		return m, tea.Quit

	case exportedMsg:
		if msg.err != nil {
			m.setNotice(apperr.MessageOr(msg.err, "Export failed"), true)
			m.logger.Error("export_failed", slog.Any("error", msg.err))
		} else {
			m.setNotice("Exported to "+msg.path, false)
			m.logger.Info("export_written", slog.String("path", msg.path))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(max(5, msg.Height/2-4))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.focus != focusTable {
			return m.updateInput(msg)
		}
		return m.updateTable(msg)
	}

	return m, nil
}

// updateInput routes keys to the focused text input.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.session.FlushInput()
		m.blur()
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.blur()
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusSearch {
		m.search, cmd = m.search.Update(msg)
		m.session.SearchInput(m.search.Value())
	} else {
		m.filter, cmd = m.filter.Update(msg)
		m.session.FilterInput(m.filter.Value())
	}

	m.refresh()
	return m, cmd
}

// updateTable handles keys while no input is focused.
func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.focus = focusFilter
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Submit):
		if !m.snap.Modal.Open && m.snap.Table.State == dashboard.BodyRows {
			if cursor := m.table.Cursor(); cursor >= 0 && cursor < len(m.snap.Table.Rows) {
				m.session.OpenModal(m.snap.Table.Rows[cursor].ID)
			}
		}

	case key.Matches(msg, m.keys.Cancel):
		m.session.CloseModal()

	case key.Matches(msg, m.keys.PrevPage):
		if m.snap.Pagination.CanPrev {
			m.setPage(m.snap.Query.Page - 1)
		}

	case key.Matches(msg, m.keys.NextPage):
		if m.snap.Pagination.CanNext {
			m.setPage(m.snap.Query.Page + 1)
		}

	case key.Matches(msg, m.keys.Sort):
		m.session.SetSortOrder(m.snap.Query.SortOrder.Toggle())

	case key.Matches(msg, m.keys.Bigger):
		m.cyclePageSize(1)

	case key.Matches(msg, m.keys.Smaller):
		m.cyclePageSize(-1)

	case key.Matches(msg, m.keys.Refresh):
		m.session.Refresh()

	case key.Matches(msg, m.keys.Export):
		if m.snap.Status != dashboard.PhaseSucceeded {
			m.setNotice("Nothing to export until the page has loaded", true)
			return m, nil
		}
		return m, exportCmd(m.exportDir, m.snap)

	default:
		if m.snap.Modal.Open {
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

// exportCmd writes the snapshot's visible rows off the update loop.
func exportCmd(dir string, snap dashboard.Snapshot) tea.Cmd {
	return func() tea.Msg {
		path, err := export.SaveSnapshot(dir, snap)
		return exportedMsg{path: path, err: err}
	}
}

// # Helpers

// refresh redraws from a fresh snapshot.
func (m *Model) refresh() {
	m.snap = m.session.Snapshot()

	rows := make([]table.Row, 0, len(m.snap.Table.Rows))
	for _, row := range m.snap.Table.Rows {
		rows = append(rows, table.Row{
			row.Name,
			strconv.Itoa(row.TVShowCount),
			strconv.Itoa(row.VideoGameCount),
			row.Allies,
			row.Enemies,
		})
	}

	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) setPage(n int) {
	if err := m.session.SetPage(n); err != nil {
		m.setNotice(fmt.Sprintf("Page %d is not available", n), true)
	}
}

// cyclePageSize steps through the offered page sizes, wrapping around.
func (m *Model) cyclePageSize(step int) {
	sizes := constants.PageSizes
	index := slices.Index(sizes, m.snap.Query.PageSize)
	if index < 0 {
		index = slices.Index(sizes, constants.DefaultPageSize)
	}

	next := sizes[(index+step+len(sizes))%len(sizes)]
	if err := m.session.SetPageSize(next); err != nil {
		m.setNotice(apperr.MessageOr(err, "Invalid page size"), true)
	}
}

func (m *Model) blur() {
	m.focus = focusTable
	m.search.Blur()
	m.filter.Blur()
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeError = isError
}
