// Package importer turns CSV and XLSX contact spreadsheets into people and
// companies: parse, map headers, validate, dedup, and insert in chunks.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crm/internal/model"
)

// ErrLegacyXLS rejects pre-2007 binary workbooks, which the XLSX reader
// cannot open.
var ErrLegacyXLS = eris.New("importer: legacy .xls workbooks are not supported, save the file as .xlsx or .csv")

// ole2Magic starts every legacy binary workbook.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Row is one data row keyed by source header.
type Row map[string]string

// ParseResult holds the parsed headers and rows of an uploaded file.
// Errors carries per-row problems that did not abort the parse.
type ParseResult struct {
	FileType model.FileType `json:"file_type"`
	Headers  []string       `json:"headers"`
	Rows     []Row          `json:"-"`
	Errors   []string       `json:"errors"`
}

// DetectFileType picks the parser from the file extension.
func DetectFileType(name string) model.FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return model.FileXLSX
	default:
		return model.FileCSV
	}
}

// Parse reads r as CSV or XLSX depending on name. A .xls name fails with
// ErrLegacyXLS before anything is read.
func Parse(name string, r io.Reader) (*ParseResult, error) {
	if strings.EqualFold(filepath.Ext(name), ".xls") {
		return nil, ErrLegacyXLS
	}
	if DetectFileType(name) == model.FileXLSX {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

// ParseCSV reads a header row followed by data rows. Blank lines are skipped
// and rows may have fewer or more fields than the header.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	res := &ParseResult{FileType: model.FileCSV}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("importer: csv has no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: csv read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	res.Headers = header

	n := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		n++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", n, perr.Err))
				continue
			}
			return nil, eris.Wrap(err, "importer: csv read row")
		}
		if blank(record) {
			n--
			continue
		}
		res.Rows = append(res.Rows, toRow(header, record))
	}

	return res, nil
}

// ParseXLSX reads the first sheet of a workbook. Cells are read as their
// display strings.
func ParseXLSX(r io.Reader) (*ParseResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, eris.Wrap(err, "importer: xlsx read")
	}
	if bytes.HasPrefix(buf.Bytes(), ole2Magic) {
		return nil, ErrLegacyXLS
	}
	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		return nil, eris.Wrap(err, "importer: xlsx open")
	}

	res := &ParseResult{FileType: model.FileXLSX}
	if len(f.Sheets) == 0 {
		res.Errors = []string{"Empty spreadsheet"}
		return res, nil
	}

	var header []string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if header == nil {
			if blank(cells) {
				continue
			}
			header = cells
			continue
		}
		if blank(cells) {
			continue
		}
		res.Rows = append(res.Rows, toRow(header, cells))
	}

	if len(res.Rows) == 0 {
		res.Errors = []string{"Empty spreadsheet"}
		return res, nil
	}
	res.Headers = header
	return res, nil
}

// toRow zips a record with the header. Missing cells default to "" and
// cells under blank headers are dropped.
func toRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
