// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package export writes the visible character page to an XLSX workbook.

The workbook has one sheet, "Characters", with a bold header row followed by
one row per visible character in display order.
*/
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/pkg/slug"
)

// # Workbook Layout

const (
	// SheetName is the only sheet of an export.
	SheetName = "Characters"

	// ContentType is the MIME type of an XLSX workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	baseName  = "characters_films"
	extension = ".xlsx"
)

// Header is the first row of every export.
var Header = []any{"Name", "Number of Films", "Films"}

// Filename names the export of query.
//
// The plain name is used when no search or filter is active; otherwise the
// settled search and filter are appended as a slug.
func Filename(query dashboard.Query) string {
	suffix := slug.Join(query.SearchQuery, query.FilterTVShow)
	if suffix == "" {
		return baseName + extension
	}
	return baseName + "-" + suffix + extension
}

/*
Write renders rows as a workbook and streams it to w.

Parameters:
  - w: io.Writer
  - rows: []dashboard.ExportRow (already in display order)

Returns:
  - error: Failures from building or serializing the workbook
*/
func Write(w io.Writer, rows []dashboard.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	// 1. Rename the default sheet
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	// 2. Header row
	header := Header
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	// 3. Data rows
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}

		cells := row.Cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}

	// 4. Readable column widths
	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 80); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: serialize: %w", err)
	}

	return nil
}

// SaveSnapshot writes the visible page of snap into dir and returns the
// path of the new file.
func SaveSnapshot(dir string, snap dashboard.Snapshot) (string, error) {
	path := filepath.Join(dir, Filename(snap.Query))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}

	if err := Write(file, snap.ExportRows()); err != nil {
		file.Close()
		return "", err
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}

	return path, nil
}
