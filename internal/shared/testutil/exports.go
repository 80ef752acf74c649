package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ExportHeader is the header row of the Film and TV tabs in the column
// order the exports use
var ExportHeader = []interface{}{"Title", "Available Globally?", "Release Date", "Hours Viewed", "Runtime", "Views"}

// EngagementHeader is the header row of the legacy Engagement tab
var EngagementHeader = []interface{}{"Title", "Available Globally?", "Release Date", "Hours Viewed"}

const bannerRows = 5

// Sheet is one tab of a fixture workbook. Rows start below the banner and
// usually begin with a header row.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// Film returns a Film tab with the standard header followed by rows
func Film(rows ...[]interface{}) Sheet {
	return Sheet{Name: "Film", Rows: append([][]interface{}{ExportHeader}, rows...)}
}

// TV returns a TV tab with the standard header followed by rows
func TV(rows ...[]interface{}) Sheet {
	return Sheet{Name: "TV", Rows: append([][]interface{}{ExportHeader}, rows...)}
}

// Engagement returns a legacy Engagement tab
func Engagement(rows ...[]interface{}) Sheet {
	return Sheet{Name: "Engagement", Rows: append([][]interface{}{EngagementHeader}, rows...)}
}

// ExportBytes builds an export workbook in memory. Tabs keep the given
// order, so the first sheet is the one a spreadsheet opens on. Every tab
// gets five banner rows and its data starts in column B.
func ExportBytes(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	f := buildWorkbook(t, sheets)
	defer f.Close()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// WriteExport saves an export workbook at dir/name and returns its path
func WriteExport(t testing.TB, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := buildWorkbook(t, sheets)
	defer f.Close()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, f.SaveAs(path))
	return path
}

func buildWorkbook(t testing.TB, sheets []Sheet) *excelize.File {
	t.Helper()
	require.NotEmpty(t, sheets, "a workbook needs at least one sheet")

	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.Name))
		} else {
			_, err := f.NewSheet(sheet.Name)
			require.NoError(t, err)
		}

		for r := 1; r <= bannerRows; r++ {
			require.NoError(t, f.SetCellValue(sheet.Name, fmt.Sprintf("B%d", r), "What We Watched: A Netflix Engagement Report"))
		}
		for r, row := range sheet.Rows {
			row := row
			require.NoError(t, f.SetSheetRow(sheet.Name, fmt.Sprintf("B%d", bannerRows+1+r), &row))
		}
	}
	return f
}
