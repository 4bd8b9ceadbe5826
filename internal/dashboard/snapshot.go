// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import "github.com/taibuivan/charboard/internal/character"

// Snapshot is a consistent, read-only view of a session.
//
// SearchInput and FilterInput are the raw values as typed; Query holds the
// settled values that drive fetching.
type Snapshot struct {
	Query       Query      `json:"query"`
	SearchInput string     `json:"search_input"`
	FilterInput string     `json:"filter_input"`
	Status      Phase      `json:"status"`
	Error       string     `json:"error,omitempty"`
	Count       int        `json:"count"`
	Selection   Selection  `json:"selection"`
	Table       Table      `json:"table"`
	Chart       Chart      `json:"chart"`
	Pagination  Pagination `json:"pagination"`
	Modal       Modal      `json:"modal"`

	// Visible is the current result set in display order.
	Visible []character.Character `json:"-"`
}

// ExportRows returns the spreadsheet rows for the visible characters.
func (snap Snapshot) ExportRows() []ExportRow {
	return ExportRows(snap.Visible)
}

// Snapshot computes every view from the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	query := s.query
	status := s.status
	selection := s.selection
	detail := s.detail
	s.mu.Unlock()

	visible := SortCharacters(status.Characters, query.SortOrder)

	return Snapshot{
		Query:       query,
		SearchInput: s.search.Raw(),
		FilterInput: s.filter.Raw(),
		Status:      status.Phase,
		Error:       status.Error,
		Count:       status.Info.Count,
		Selection:   selection,
		Table:       ProjectTable(status, visible),
		Chart:       ProjectChart(visible),
		Pagination:  ProjectPagination(query.Page, status.Info.TotalPages),
		Modal:       ProjectModal(selection, detail),
		Visible:     visible,
	}
}
