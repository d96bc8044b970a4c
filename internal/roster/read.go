package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	appLog "bespreking/internal/log"
)

// Row is one data row keyed by header cell.
type Row map[string]string

// Format identifies a spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var ErrUnknownFormat = errors.New("roster: unsupported spreadsheet format")

// Sheet is the parsed content of the first worksheet.
type Sheet struct {
	Header []string
	Rows   []Row
}

// FormatFromName picks a Format from a file name extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(name))
	}
}

// ReadFile reads the spreadsheet at path.
func ReadFile(path string) (*Sheet, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, format)
}

// Read parses r according to format. Only the first worksheet of a
// workbook is used, and its first row is the header.
func Read(r io.Reader, format Format) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	sheet := toSheet(records)
	appLog.Debug("roster read completed", "format", format, "columns", len(sheet.Header), "rows", len(sheet.Rows))
	return sheet, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	// Spreadsheet exports often start with a UTF-8 BOM.
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	first, _ := br.Peek(4096)
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.Comma = sniffDelimiter(first)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: parse csv: %w", err)
	}
	return records, nil
}

// sniffDelimiter prefers ';' when the header line uses it and has no ','.
// Dutch-locale spreadsheet programs export CSV with semicolons.
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func toSheet(records [][]string) *Sheet {
	sheet := &Sheet{}
	if len(records) == 0 {
		return sheet
	}
	for _, h := range records[0] {
		sheet.Header = append(sheet.Header, strings.TrimSpace(h))
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(Row, len(sheet.Header))
		for i, h := range sheet.Header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
