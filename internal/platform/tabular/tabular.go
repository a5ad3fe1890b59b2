// Package tabular turns uploaded CSV or XLSX payroll sheets into header-keyed rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format: expected CSV or XLSX")
	ErrNoHeader          = errors.New("file has no header row")
)

// Row maps a header name to the cell value in that column.
type Row map[string]string

// Parse sniffs the content type and decodes the first sheet or the CSV body.
// Blank lines are skipped.
func Parse(data []byte) ([]Row, error) {
	detected := mimetype.Detect(data)
	if detected.Is(xlsxMIME) {
		return parseXLSX(data)
	}
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return parseCSV(data)
		}
	}
	return nil, fmt.Errorf("%w (detected %s)", ErrUnsupportedFormat, detected.String())
}

func parseCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}
	return buildRows(records)
}

func parseXLSX(data []byte) ([]Row, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return buildRows(records)
}

func buildRows(records [][]string) ([]Row, error) {
	start := -1
	for i, record := range records {
		if !blank(record) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[start]))
	for i, name := range records[start] {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]Row, 0, len(records)-start-1)
	for _, record := range records[start+1:] {
		if blank(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
