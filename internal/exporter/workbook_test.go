package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", WorkbookFile)

	require.NoError(t, NewWorkbookExporter(nil).Export(testCorpus(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Film", "TV"}, f.GetSheetList())

	film, err := f.GetRows("Film")
	require.NoError(t, err)
	require.Len(t, film, 2)
	assert.Equal(t, MasterHeaders, film[0])
	assert.Equal(t, "Glass Onion", film[1][0])

	hours, err := f.GetCellValue("Film", "G2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "2800", hours)

	tv, err := f.GetRows("TV")
	require.NoError(t, err)
	require.Len(t, tv, 2)
	assert.Equal(t, "New Show: Season 1", tv[1][0])

	views, err := f.GetCellValue("TV", "H2")
	require.NoError(t, err)
	assert.Empty(t, views)
}
