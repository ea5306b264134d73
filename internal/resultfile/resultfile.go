// Package resultfile reads and writes task result sheets. The first row of a
// spreadsheet or CSV file is a header and is skipped on import.
package resultfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"redops/internal/domain"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported result file format (use .xlsx, .csv or .json)")

// FormatOf picks the format from a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}

// Parse decodes results from r. Blank rows are skipped; TaskID, ID and
// timestamps are left for the caller to assign.
func Parse(name string, r io.Reader) ([]domain.TaskResult, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case FormatJSON:
		var results []domain.TaskResult
		if err := json.NewDecoder(r).Decode(&results); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out := results[:0]
		for _, res := range results {
			if !res.IsBlank() {
				out = append(out, res)
			}
		}
		return out, nil
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err = cr.ReadAll()
	case FormatXLSX:
		rows, err = readSheet(r)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var out []domain.TaskResult
	for i, row := range rows {
		if i == 0 {
			continue
		}
		res := domain.TaskResultFromRow(row)
		if !res.IsBlank() {
			out = append(out, res)
		}
	}
	return out, nil
}

func readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// Write encodes results in format, with a header row for sheets.
func Write(w io.Writer, format Format, results []domain.TaskResult) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(domain.TaskResultColumns); err != nil {
			return err
		}
		for _, res := range results {
			if err := cw.Write(res.Row()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatXLSX:
		return writeSheet(w, results)
	}
	return fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
}

func writeSheet(w io.Writer, results []domain.TaskResult) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := append([]string(nil), domain.TaskResultColumns...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, res := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := res.Row()
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}
