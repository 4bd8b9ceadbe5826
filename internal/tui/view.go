// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taibuivan/charboard/internal/dashboard"
)

// chartWidth is the length of a full (100%) chart bar.
const chartWidth = 30

// View renders the dashboard.
func (m Model) View() string {
	sections := []string{
		m.viewHeader(),
		m.viewInputs(),
		m.viewBody(),
		m.viewPager(),
		m.viewChart(),
	}

	if m.snap.Modal.Open {
		sections = append(sections, m.viewModal())
	}

	if m.notice != "" {
		style := m.styles.Notice
		if m.noticeError {
			style = m.styles.Error
		}
		sections = append(sections, style.Render(m.notice))
	}

	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	query := m.snap.Query
	order := "A-Z"
	if query.SortOrder == dashboard.SortDescending {
		order = "Z-A"
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Header.Render("Disney Characters"),
		m.styles.Muted.Render(fmt.Sprintf("  %d per page  |  sorted %s  |  %d total", query.PageSize, order, m.snap.Count)),
	)
}

func (m Model) viewInputs() string {
	box := func(input string, focused bool) string {
		if focused {
			return m.styles.Focused.Render(input)
		}
		return m.styles.Input.Render(input)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		box(m.search.View(), m.focus == focusSearch),
		" ",
		box(m.filter.View(), m.focus == focusFilter),
	)
}

// viewBody renders the table, or the single message replacing it.
func (m Model) viewBody() string {
	switch m.snap.Table.State {
	case dashboard.BodyRows:
		return m.table.View()
	case dashboard.BodyError:
		return m.styles.Error.Render(m.snap.Table.Message)
	default:
		return m.styles.Muted.Render(m.snap.Table.Message)
	}
}

func (m Model) viewPager() string {
	pager := m.snap.Pagination

	prev, next := "  ", "  "
	if pager.CanPrev {
		prev = "◀ "
	}
	if pager.CanNext {
		next = " ▶"
	}

	return m.styles.Muted.Render(fmt.Sprintf("%sPage %d of %d%s", prev, pager.Page, pager.TotalPages, next))
}

// viewChart renders the film share of each visible character as bars.
func (m Model) viewChart() string {
	chart := m.snap.Chart
	if m.snap.Table.State == dashboard.BodyLoading {
		return ""
	}

	if chart.NoData {
		return m.styles.Muted.Render(chart.Message)
	}

	nameWidth := 0
	for _, point := range chart.Points {
		nameWidth = max(nameWidth, lipgloss.Width(point.Name))
	}

	var b strings.Builder
	b.WriteString(m.styles.Label.Render(chart.Title))

	for _, point := range chart.Points {
		if point.Y == 0 {
			continue
		}
		bar := strings.Repeat("█", max(1, int(point.Percentage/100*chartWidth)))
		fmt.Fprintf(&b, "\n%-*s %s %5.1f%% (%d)", nameWidth, point.Name, m.styles.Bar.Render(bar), point.Percentage, point.Y)
	}

	return b.String()
}

func (m Model) viewModal() string {
	modal := m.snap.Modal

	var body string
	switch modal.State {
	case dashboard.ModalSkeleton:
		body = m.styles.Muted.Render("Loading details...")
	case dashboard.ModalError:
		body = m.styles.Error.Render("Error: " + modal.Error)
	default:
		lines := []string{
			m.styles.Header.Render(modal.Name),
			m.styles.Muted.Render(modal.ImageURL),
			"",
			m.styles.Label.Render("TV Shows"),
		}
		lines = append(lines, bullets(modal.TVShows)...)
		lines = append(lines, "", m.styles.Label.Render("Video Games"))
		lines = append(lines, bullets(modal.VideoGames)...)
		body = strings.Join(lines, "\n")
	}

	width := 60
	if m.width > 0 {
		width = min(width, m.width-4)
	}

	return m.styles.Modal.Width(width).Render(body)
}

func bullets(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, "  • "+value)
	}
	return out
}
