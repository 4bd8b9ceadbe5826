// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/platform/constants"
	"github.com/taibuivan/charboard/pkg/slice"
)

// # Derived Views
//
// Everything in this file is a pure function of session state. Nothing here
// is stored; views are recomputed on every snapshot.

// SortCharacters returns a copy of characters ordered by name.
//
// Names are compared with a case-insensitive English collation so that
// "la Bouff" sorts next to "Lady Tremaine" rather than after "Zurg".
func SortCharacters(characters []character.Character, order SortOrder) []character.Character {
	sorted := slices.Clone(characters)

	// Collators keep internal buffers and are not safe for concurrent use.
	collator := collate.New(language.English, collate.IgnoreCase)

	slices.SortStableFunc(sorted, func(a, b character.Character) int {
		cmp := collator.CompareString(a.Name, b.Name)
		if order == SortDescending {
			return -cmp
		}
		return cmp
	})

	return sorted
}

// ## Table

// BodyState is what the table body shows instead of, or as, its rows.
type BodyState string

const (
	BodyLoading BodyState = "loading"
	BodyError   BodyState = "error"
	BodyEmpty   BodyState = "empty"
	BodyRows    BodyState = "rows"
)

// TableRow is one rendered row of the character table.
type TableRow struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	TVShowCount    int    `json:"tv_show_count"`
	VideoGameCount int    `json:"video_game_count"`
	Allies         string `json:"allies"`
	Enemies        string `json:"enemies"`
}

// Table is the table view.
type Table struct {
	State   BodyState  `json:"state"`
	Message string     `json:"message,omitempty"`
	Rows    []TableRow `json:"rows"`
}

// ProjectTable derives the table from the fetch status and the visible rows.
func ProjectTable(status FetchStatus, visible []character.Character) Table {
	switch {
	case status.Phase == PhaseLoading:
		return Table{State: BodyLoading, Message: constants.TextLoading, Rows: []TableRow{}}
	case status.Phase == PhaseFailed:
		return Table{State: BodyError, Message: "Error: " + status.Error, Rows: []TableRow{}}
	case len(visible) == 0:
		return Table{State: BodyEmpty, Message: constants.TextNoResults, Rows: []TableRow{}}
	}

	return Table{
		State: BodyRows,
		Rows:  slice.Map(visible, toTableRow),
	}
}

func toTableRow(c character.Character) TableRow {
	return TableRow{
		ID:             c.ID,
		Name:           c.Name,
		TVShowCount:    len(c.TVShows),
		VideoGameCount: len(c.VideoGames),
		Allies:         joinOr(c.Allies, constants.TextNone),
		Enemies:        joinOr(c.Enemies, constants.TextNone),
	}
}

// ## Chart

// ChartPoint is one pie slice.
type ChartPoint struct {
	Name       string   `json:"name"`
	Y          int      `json:"y"`
	Percentage float64  `json:"percentage"`
	Films      []string `json:"films"`
}

// Chart is the film-count pie chart view.
//
// NoData is set when there are no characters or none of them has a film;
// a degenerate all-zero pie is never produced.
type Chart struct {
	Title   string       `json:"title"`
	NoData  bool         `json:"no_data"`
	Message string       `json:"message,omitempty"`
	Total   int          `json:"total"`
	Points  []ChartPoint `json:"points"`
}

// ProjectChart derives the chart from the visible characters.
func ProjectChart(visible []character.Character) Chart {
	total := slice.Reduce(visible, 0, func(sum int, c character.Character) int {
		return sum + len(c.Films)
	})

	if total == 0 {
		return Chart{
			Title:   constants.ChartTitle,
			NoData:  true,
			Message: constants.TextNoData,
			Points:  []ChartPoint{},
		}
	}

	points := slice.Map(visible, func(c character.Character) ChartPoint {
		films := c.Films
		if films == nil {
			films = []string{}
		}
		return ChartPoint{
			Name:       c.Name,
			Y:          len(films),
			Percentage: float64(len(films)) * 100 / float64(total),
			Films:      films,
		}
	})

	return Chart{
		Title:  constants.ChartTitle,
		Total:  total,
		Points: points,
	}
}

// ## Export

// ExportRow is one spreadsheet row: Name, Number of Films, Films.
type ExportRow struct {
	Name      string
	FilmCount int
	Films     string
}

// Cells returns the row as spreadsheet cell values.
func (r ExportRow) Cells() []any {
	return []any{r.Name, r.FilmCount, r.Films}
}

// ExportRows derives the spreadsheet rows from the visible characters.
func ExportRows(visible []character.Character) []ExportRow {
	return slice.Map(visible, func(c character.Character) ExportRow {
		return ExportRow{
			Name:      c.Name,
			FilmCount: len(c.Films),
			Films:     joinOr(c.Films, constants.TextNoFilms),
		}
	})
}

// ## Pagination

// Pagination is the pager view.
//
// Page is the displayed page: 0 when the result set has no pages at all.
type Pagination struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	CanPrev    bool `json:"can_prev"`
	CanNext    bool `json:"can_next"`
}

// ProjectPagination derives the pager from the current page and page count.
func ProjectPagination(page, totalPages int) Pagination {
	display := page
	if totalPages == 0 {
		display = 0
	}

	return Pagination{
		Page:       display,
		TotalPages: totalPages,
		CanPrev:    page > 1 && totalPages > 0,
		CanNext:    page < totalPages,
	}
}

// ## Modal

// ModalState is what the detail modal body shows.
type ModalState string

const (
	ModalClosed   ModalState = "closed"
	ModalSkeleton ModalState = "skeleton"
	ModalError    ModalState = "error"
	ModalReady    ModalState = "ready"
)

// Modal is the detail modal view.
type Modal struct {
	Open       bool       `json:"open"`
	State      ModalState `json:"state"`
	ID         int        `json:"id,omitempty"`
	Name       string     `json:"name,omitempty"`
	ImageURL   string     `json:"image_url,omitempty"`
	TVShows    []string   `json:"tv_shows,omitempty"`
	VideoGames []string   `json:"video_games,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ProjectModal derives the modal from the selection and its detail lookup.
func ProjectModal(selection Selection, detail DetailState) Modal {
	if !selection.IsOpen || selection.SelectedID == nil {
		return Modal{State: ModalClosed}
	}

	modal := Modal{Open: true, ID: *selection.SelectedID}

	switch {
	case detail.Character != nil:
		modal.State = ModalReady
		modal.Name = detail.Character.Name
		modal.ImageURL = detail.Character.ImageURL
		modal.TVShows = listOr(detail.Character.TVShows, constants.TextNoTVShows)
		modal.VideoGames = listOr(detail.Character.VideoGames, constants.TextNoVideoGames)
	case detail.Phase == PhaseFailed:
		modal.State = ModalError
		modal.Error = detail.Error
	default:
		modal.State = ModalSkeleton
	}

	return modal
}

// # Helpers

// joinOr comma-joins values, or returns placeholder for an empty list.
func joinOr(values []string, placeholder string) string {
	if len(values) == 0 {
		return placeholder
	}
	return strings.Join(values, ", ")
}

// listOr returns values, or a one-item placeholder list when empty.
func listOr(values []string, placeholder string) []string {
	if len(values) == 0 {
		return []string{placeholder}
	}
	return values
}
