package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a supported tabular file format.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatExcel
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatExcel:
		return "excel"
	}
	return "unknown"
}

// DetectFormat maps a file extension to a Format. Unknown extensions
// are a configuration error.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "xlsx", "xls":
		return FormatExcel, nil
	default:
		return 0, fmt.Errorf("unsupported file extension %q (expected csv, tsv, xlsx or xls)", filepath.Ext(path))
	}
}

// Read loads a tabular file, detecting the format from its extension.
// The first row is taken as the header.
func Read(path string) (*Table, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, 0, err
	}

	var records [][]string
	switch format {
	case FormatExcel:
		records, err = readExcel(path)
	default:
		records, err = readDelimited(path, format)
	}
	if err != nil {
		return nil, 0, err
	}

	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%s: file has no header row", path)
	}

	t := New(records[0])
	for _, rec := range records[1:] {
		t.AppendRow(rec)
	}
	return t, format, nil
}

// Write serializes the table in the given format.
func (t *Table) Write(path string, format Format) error {
	if format == FormatExcel {
		return t.writeExcel(path)
	}
	return t.writeDelimited(path, format)
}

func delimiter(format Format) rune {
	if format == FormatTSV {
		return '\t'
	}
	return ','
}

func readDelimited(path string, format Format) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delimiter(format)
	r.FieldsPerRecord = -1 // ragged rows tolerated, padded on load

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func (t *Table) writeDelimited(path string, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delimiter(format)

	if err := w.Write(t.cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func (t *Table) writeExcel(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]any, len(t.cols))
	for i, c := range t.cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("cell address: %w", err)
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
