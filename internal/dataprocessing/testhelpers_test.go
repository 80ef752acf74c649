package dataprocessing

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"viewership/pkg/contracts/domain"
)

var (
	filmHeader       = []interface{}{"Title", "Available Globally?", "Release Date", "Hours Viewed", "Runtime", "Views"}
	engagementHeader = []interface{}{"Title", "Available Globally?", "Release Date", "Hours Viewed"}
)

// writeExport saves a workbook laid out like a real export: five banner
// rows, the header on row 6 and an empty index column A.
func writeExport(t *testing.T, dir, name string, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, 0, len(sheets))
	for n := range sheets {
		names = append(names, n)
	}
	sort.Strings(names)

	for i, sheet := range names {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r := 1; r <= 5; r++ {
			require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("B%d", r), fmt.Sprintf("What We Watched %d", r)))
		}
		for r, row := range sheets[sheet] {
			row := row
			require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("B%d", 6+r), &row))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func h22023() domain.Window {
	return domain.Window{
		Start: time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func h12023() domain.Window {
	return domain.Window{
		Start: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
}

func master(title string, media domain.MediaType, runtime domain.NullFloat64, hours float64, w domain.Window) domain.MasterRow {
	return domain.MasterRow{
		NormalizedRow: domain.NormalizedRow{
			TitleRecord: domain.TitleRecord{
				Title:       title,
				HoursViewed: domain.Float(hours),
			},
			GroupTitle: GroupTitle(title),
			Window:     w,
		},
		Media:          media,
		RuntimeMinutes: runtime,
	}
}
