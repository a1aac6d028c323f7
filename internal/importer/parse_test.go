package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crm/internal/model"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			cell := row.AddCell()
			cell.SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name string
		want model.FileType
	}{
		{"contacts.csv", model.FileCSV},
		{"contacts.xlsx", model.FileXLSX},
		{"CONTACTS.XLS", model.FileXLSX},
		{"contacts.txt", model.FileCSV},
		{"contacts", model.FileCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType(tt.name))
		})
	}
}

func TestParseCSV_Basic(t *testing.T) {
	input := "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\n\nAlan,Turing,alan@example.com\n"
	res, err := Parse("people.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, model.FileCSV, res.FileType)
	assert.Equal(t, []string{"First Name", "Last Name", "Email"}, res.Headers)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Ada", res.Rows[0]["First Name"])
	assert.Equal(t, "alan@example.com", res.Rows[1]["Email"])
	assert.Empty(t, res.Errors)
}

func TestParseCSV_RaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"
	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, Row{"a": "1", "b": "2", "c": ""}, res.Rows[0])
	assert.Equal(t, Row{"a": "3", "b": "4", "c": "5"}, res.Rows[1])
}

func TestParseCSV_StripsBOMAndBlankRows(t *testing.T) {
	input := "\ufeffname,email\n,\nGrace Hopper,grace@example.com\n"
	res, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "name", res.Headers[0])
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Grace Hopper", res.Rows[0]["name"])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestParseXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"Name", "Company", "Phone"},
		{"Ada Lovelace", "Analytical Engines", "555-0100"},
		{"", "", ""},
		{"Alan Turing", "Bletchley"},
	})
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	res, err := Parse("contacts.xlsx", f)
	require.NoError(t, err)

	assert.Equal(t, model.FileXLSX, res.FileType)
	assert.Equal(t, []string{"Name", "Company", "Phone"}, res.Headers)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Analytical Engines", res.Rows[0]["Company"])
	assert.Equal(t, "", res.Rows[1]["Phone"])
	assert.Empty(t, res.Errors)
}

func TestParseXLSX_HeaderOnly(t *testing.T) {
	path := createTestXLSX(t, [][]string{{"Name", "Email"}})
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	res, err := ParseXLSX(f)
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"Empty spreadsheet"}, res.Errors)
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("not a zip"))
	require.Error(t, err)
}

func TestParse_LegacyXLS(t *testing.T) {
	ole2 := string([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00})
	tests := []struct {
		name string
		file string
		body string
	}{
		{"xls extension", "contacts.xls", "Name,Email\nAda,ada@example.com\n"},
		{"upper case extension", "CONTACTS.XLS", ole2},
		{"binary workbook named xlsx", "contacts.xlsx", ole2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLegacyXLS)
			assert.Contains(t, err.Error(), "save the file as .xlsx")
		})
	}
}
