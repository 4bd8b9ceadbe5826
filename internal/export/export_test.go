// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package export_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/export"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		query dashboard.Query
		want  string
	}{
		{"plain", dashboard.NewQuery(50), "characters_films.xlsx"},
		{"search", dashboard.NewQuery(50).WithSearch("Mickey Mouse"), "characters_films-mickey-mouse.xlsx"},
		{"both", dashboard.NewQuery(50).WithSearch("Rémy").WithTVShow("Ratatouille"), "characters_films-remy-ratatouille.xlsx"},
		{"sort_ignored", dashboard.NewQuery(50).WithSort(dashboard.SortDescending), "characters_films.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, export.Filename(tt.query))
		})
	}
}

/*
TestWrite renders two rows and reads the workbook back.
*/
func TestWrite(t *testing.T) {
	rows := dashboard.ExportRows([]character.Character{
		{Name: "Mickey Mouse", Films: []string{"Fantasia", "Steamboat Willie"}},
		{Name: "Gus"},
	})

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())

	got, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Number of Films", "Films"},
		{"Mickey Mouse", "2", "Fantasia, Steamboat Willie"},
		{"Gus", "0", "No Films"},
	}, got)
}

func TestWrite_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	snap := dashboard.Snapshot{
		Query:   dashboard.NewQuery(50).WithTVShow("DuckTales"),
		Visible: []character.Character{{Name: "Scrooge McDuck", Films: []string{"DuckTales the Movie"}}},
	}

	path, err := export.SaveSnapshot(dir, snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "characters_films-ducktales.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(export.SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}
