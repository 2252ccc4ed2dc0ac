package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawTable is a parsed but untyped delimited table: a header row plus data
// rows as strings. Value coercion happens during reconstruction so that
// row-local failures can be repaired instead of aborting the parse.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1.
func (t *RawTable) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is short.
func (t *RawTable) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// ReadCSV parses a semicolon-separated, UTF-8 encoded table with a header
// row. Rows may be ragged; short rows read as missing values.
func ReadCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty table: missing header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff") // tolerate a UTF-8 BOM
	}

	return &RawTable{Columns: header, Rows: records[1:]}, nil
}

// ReadCSVFile opens and parses a semicolon-separated CSV file.
func ReadCSVFile(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadXLSXFile parses the first sheet of an Excel workbook under the same
// header contract as the CSV format. Some upstream exports ship the raw
// exchange table as a workbook instead of a delimited file.
func ReadXLSXFile(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// Skip leading blank rows; the first populated row is the header.
	start := 0
	for start < len(rows) && isBlankRow(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, fmt.Errorf("empty table: missing header row")
	}

	return &RawTable{Columns: rows[start], Rows: rows[start+1:]}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
