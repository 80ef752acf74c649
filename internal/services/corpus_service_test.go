package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"viewership/internal/config"
	apperrors "viewership/internal/errors"
	"viewership/internal/files"
	"viewership/internal/validation"
	ws "viewership/internal/websocket"
	"viewership/pkg/contracts/domain"
)

var filmHeader = []interface{}{"Title", "Available Globally?", "Release Date", "Hours Viewed", "Runtime", "Views"}

// exportBytes builds an export workbook: five banner rows, then the rows
// of each sheet from B6
func exportBytes(t *testing.T, sheets map[string][][]interface{}) []byte {
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
			require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("B%d", r), "What We Watched"))
		}
		for r, row := range sheets[sheet] {
			row := row
			require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("B%d", 6+r), &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func h2Export(t *testing.T) []byte {
	return exportBytes(t, map[string][][]interface{}{
		"Film": {
			filmHeader,
			{"Glass Onion", "Yes", "2022-12-23", 2800, "2:20", 1200},
			{"Other Film", "No", nil, 500, "1:40", 300},
		},
		"TV": {
			filmHeader,
			{"Wednesday: Season 1", "Yes", "2022-11-23", 4000, "6:40", 600},
			{"Wednesday: Season 2", "Yes", "2025-08-06", 2000, "6:40", 300},
		},
	})
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

func newTestService(t *testing.T, cacheEnabled bool, b ws.Broadcaster) (*CorpusService, *config.Paths) {
	t.Helper()

	cfg := config.Default()
	cfg.Cache.Enabled = cacheEnabled
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)

	svc, err := NewCorpusService(cfg, paths, b, nil, nil)
	require.NoError(t, err)
	return svc, paths
}

func seed(t *testing.T, paths *config.Paths, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(paths.ExportsDir, 0o755))
	require.NoError(t, os.WriteFile(paths.GetExportPath(name), data, 0o644))
}

func TestCorpusService_CachesByFingerprint(t *testing.T) {
	svc, paths := newTestService(t, true, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))
	ctx := context.Background()

	first, err := svc.Corpus(ctx)
	require.NoError(t, err)
	require.Len(t, first.Film, 2)
	require.Len(t, first.TV, 2)
	assert.NotEmpty(t, first.Fingerprint)

	second, err := svc.Corpus(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	film, tv, ok := svc.CachedRows()
	assert.True(t, ok)
	assert.Equal(t, 2, film)
	assert.Equal(t, 2, tv)

	seed(t, paths, "What_We_Watched_2024Jan-Jun.xlsx", h2Export(t))
	third, err := svc.Corpus(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.Len(t, third.Film, 4)
}

func TestCorpusService_CacheDisabled(t *testing.T) {
	svc, paths := newTestService(t, false, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))

	first, err := svc.Corpus(context.Background())
	require.NoError(t, err)
	second, err := svc.Corpus(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	_, _, ok := svc.CachedRows()
	assert.False(t, ok)
}

func TestCorpusService_ConcurrentReaders(t *testing.T) {
	svc, paths := newTestService(t, true, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			corpus, err := svc.Corpus(context.Background())
			if err == nil && len(corpus.Film) != 2 {
				err = fmt.Errorf("got %d film rows", len(corpus.Film))
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestCorpusService_EmptyExportsDir(t *testing.T) {
	svc, _ := newTestService(t, true, nil)

	corpus, err := svc.Corpus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, corpus.Film)
	assert.Empty(t, corpus.TV)

	list, err := svc.Files(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCorpusService_Files(t *testing.T) {
	svc, paths := newTestService(t, true, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))
	seed(t, paths, "What_We_Watched_2024Jan-Jun.xlsx", h2Export(t))
	seed(t, paths, "~$What_We_Watched_2024Jan-Jun.xlsx", []byte("lock"))

	list, err := svc.Files(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "What_We_Watched_2024Jan-Jun.xlsx", list[0].Name)
	assert.Equal(t, "What_We_Watched_2023Jul-Dec.xlsx", list[1].Name)
}

func TestCorpusService_Top(t *testing.T) {
	svc, paths := newTestService(t, true, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))
	ctx := context.Background()

	film, err := svc.Top(ctx, domain.MediaFilm, domain.TopQuery{N: 10})
	require.NoError(t, err)
	assert.Equal(t, "Title", film.GroupLabel)
	assert.Equal(t, "# of Films", film.CountLabel)
	assert.Equal(t, domain.MetricViews, film.Metric)
	require.Len(t, film.Rows, 1)
	assert.Equal(t, "Glass Onion", film.Rows[0].GroupTitle)

	tv, err := svc.Top(ctx, domain.MediaTV, domain.TopQuery{N: 10, Metric: domain.MetricHoursViewed})
	require.NoError(t, err)
	assert.Equal(t, "Series Title", tv.GroupLabel)
	assert.Equal(t, "# of Seasons", tv.CountLabel)
	require.Len(t, tv.Rows, 1)
	assert.Equal(t, "Wednesday", tv.Rows[0].GroupTitle)
	assert.Equal(t, 2, tv.Rows[0].TitleCount)

	_, err = svc.Top(ctx, domain.MediaFilm, domain.TopQuery{N: 0})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCorpusService_FiscalHalves(t *testing.T) {
	svc, paths := newTestService(t, true, nil)
	seed(t, paths, "What_We_Watched_2023Jul-Dec.xlsx", h2Export(t))

	buckets, err := svc.FiscalHalves(context.Background(), domain.DimensionMedia)
	require.NoError(t, err)
	require.NotEmpty(t, buckets)
	for _, b := range buckets {
		assert.Equal(t, "H2 2023", b.FiscalHalf)
	}

	_, err = svc.FiscalHalves(context.Background(), domain.Dimension("Genre"))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCorpusService_Upload(t *testing.T) {
	b := &mockBroadcaster{}
	b.On("Broadcast", ws.TypeUpload, mock.Anything).Once()
	b.On("Broadcast", ws.TypeCorpusRefresh, mock.Anything).Once()

	svc, paths := newTestService(t, true, b)
	ctx := context.Background()

	before, err := svc.Corpus(ctx)
	require.NoError(t, err)
	assert.Empty(t, before.Film)

	name := "What_We_Watched_2023Jul-Dec.xlsx"
	data := h2Export(t)

	result, err := svc.Upload(ctx, name, data)
	require.NoError(t, err)
	assert.Equal(t, "File What_We_Watched_2023Jul-Dec.xlsx has been uploaded successfully!", result.Message)
	assert.Equal(t, int64(len(data)), result.Size)
	assert.FileExists(t, paths.GetExportPath(name))

	_, _, cached := svc.CachedRows()
	assert.False(t, cached)

	after, err := svc.Corpus(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Film, 2)

	_, err = svc.Upload(ctx, name, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, files.ErrExportExists))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))
	assert.Equal(t, "The file What_We_Watched_2023Jul-Dec.xlsx is already included in the dashboard.", validation.Message(err))

	b.AssertExpectations(t)
}

func TestCorpusService_UploadRejected(t *testing.T) {
	b := &mockBroadcaster{}
	svc, paths := newTestService(t, true, b)
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		data    []byte
		message string
	}{
		{
			name:    "bad name",
			file:    "What_We_Watched.xlsx",
			data:    h2Export(t),
			message: validation.InvalidNameMessage,
		},
		{
			name: "missing TV sheet",
			file: "What_We_Watched_2024Jan-Jun.xlsx",
			data: exportBytes(t, map[string][][]interface{}{
				"Film": {filmHeader},
			}),
			message: "Missing sheets: TV",
		},
		{
			name: "missing columns",
			file: "What_We_Watched_2024Jan-Jun.xlsx",
			data: exportBytes(t, map[string][][]interface{}{
				"Film": {{"Title", "Release Date", "Hours Viewed", "Available Globally?"}},
				"TV":   {filmHeader},
			}),
			message: "Missing columns: Runtime, Views",
		},
		{
			name:    "windows path",
			file:    `C:\Users\me\What_We_Watched_2024Jan-Jun.xlsx`,
			data:    h2Export(t),
			message: `The file name C:\Users\me\What_We_Watched_2024Jan-Jun.xlsx must not contain a path.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.file, tt.data)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			assert.Equal(t, tt.message, validation.Message(err))
			assert.NoFileExists(t, paths.GetExportPath(tt.file))
		})
	}

	b.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}
