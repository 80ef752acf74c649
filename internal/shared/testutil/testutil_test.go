package testutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewTestLogger(t *testing.T) {
	logger, logs := NewTestLogger(t)

	component := logger.With(slog.String("component", "pipeline"))
	component.Info("corpus built", slog.Int("film_rows", 3))
	logger.WithGroup("upload").Warn("upload rejected", slog.String("file", "x.xlsx"))

	require.Len(t, logs.Records(), 2)

	built, ok := logs.Find("corpus built")
	require.True(t, ok)
	assert.Equal(t, "pipeline", built.Attrs["component"])
	assert.Equal(t, int64(3), built.Attrs["film_rows"])

	rejected, ok := logs.Find("rejected")
	require.True(t, ok)
	assert.Equal(t, "x.xlsx", rejected.Attrs["upload.file"])

	assert.Equal(t, 1, logs.Count(slog.LevelWarn))
	assert.Equal(t, 0, logs.Count(slog.LevelError))

	_, ok = logs.Find("never logged")
	assert.False(t, ok)
}

func TestExportBytes(t *testing.T) {
	data := ExportBytes(t,
		TV([]interface{}{"Wednesday: Season 1", "Yes", "2022-11-23", 4000, "6:40", 600}),
		Film(),
	)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"TV", "Film"}, f.GetSheetList())

	rows, err := f.GetRows("TV")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Title", rows[5][1])
	assert.Equal(t, "Wednesday: Season 1", rows[6][1])
}

func TestWriteExport(t *testing.T) {
	dir := t.TempDir()
	path := WriteExport(t, dir, "What_We_Watched_2023Jul-Dec.xlsx", Film(), TV())
	assert.FileExists(t, path)
}
