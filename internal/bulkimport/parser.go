// Package bulkimport parses candidate spreadsheets (CSV and XLSX) uploaded
// by recruiters. Column detection is fuzzy so exports from common HR tools
// work without a fixed template, in French or English.
package bulkimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Parsing errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported import file format")
	ErrEmptyFile         = errors.New("import file has no data rows")
)

// Header aliases recognized for each field. Matching is case-insensitive
// substring matching, so "Adresse e-mail" resolves to email.
var (
	nameAliases  = []string{"name", "nom"}
	emailAliases = []string{"email", "e-mail", "courriel", "mail"}
	phoneAliases = []string{"phone", "telephone", "tel", "mobile"}
)

// Row is one candidate row from the spreadsheet. Number is the 1-based
// spreadsheet row number (the header is row 1, so the first data row is 2),
// used in error messages recruiters can match against their file.
type Row struct {
	Number int
	Name   string
	Email  string
	Phone  string
}

// Parse reads candidate rows from the file content. The format is chosen by
// the filename extension: .csv, .xlsx or .xls. CSV content is decoded as
// UTF-8, falling back to Latin-1.
func Parse(filename string, content []byte) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(content)
	case ".xlsx", ".xls":
		return parseXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func parseCSV(content []byte) ([]Row, error) {
	if !utf8.Valid(content) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err != nil {
			return nil, fmt.Errorf("decoding CSV content: %w", err)
		}
		content = decoded
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return rowsFromRecords(records)
}

func parseXLSX(content []byte) ([]Row, error) {
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	records, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading workbook rows: %w", err)
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]Row, error) {
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	header := records[0]
	nameCol := detectColumn(header, nameAliases)
	emailCol := detectColumn(header, emailAliases)
	phoneCol := detectColumn(header, phoneAliases)

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		rows = append(rows, Row{
			Number: i + 2,
			Name:   cell(record, nameCol),
			Email:  cell(record, emailCol),
			Phone:  cell(record, phoneCol),
		})
	}
	return rows, nil
}

// detectColumn returns the index of the first header containing one of the
// aliases, or -1 when none matches.
func detectColumn(header []string, aliases []string) int {
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		if normalized == "" {
			continue
		}
		for _, alias := range aliases {
			if strings.Contains(normalized, alias) {
				return i
			}
		}
	}
	return -1
}

func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
