package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"viewership/internal/config"
	"viewership/internal/files"
	"viewership/internal/infrastructure"
	"viewership/pkg/contracts/domain"
)

// Pipeline rebuilds the Film and TV master tables from a set of exports.
// Files are read one after another; a file that cannot be dated or read is
// skipped and recorded on the corpus.
type Pipeline struct {
	periods      *PeriodParser
	legacyPeriod string
	reader       *SheetReader
	ext          string
	tempPrefix   string
	metrics      *infrastructure.PipelineMetrics
	logger       *slog.Logger
}

// NewPipeline creates a pipeline for the given configuration. metrics may be nil.
func NewPipeline(cfg config.PipelineConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pattern := cfg.PeriodPattern
	if pattern == "" {
		pattern = config.PeriodPattern
	}
	periods, err := NewPeriodParser(pattern)
	if err != nil {
		return nil, err
	}
	legacy := cfg.LegacyPeriod
	if legacy == "" {
		legacy = config.DefaultLegacyPeriod
	}

	return &Pipeline{
		periods:      periods,
		legacyPeriod: legacy,
		reader:       NewSheetReader(logger, cfg.BannerRows),
		ext:          cfg.ExportExt,
		tempPrefix:   cfg.SkipTempPrefix,
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Run builds a corpus from sources. The context is checked between files;
// a sheet being read is never interrupted.
func (p *Pipeline) Run(ctx context.Context, sources []files.FileInfo) (*domain.Corpus, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("files", len(sources))))
	defer span.End()

	start := time.Now()
	p.logger.InfoContext(ctx, "building corpus", slog.Int("files", len(sources)))

	var (
		skipped    []domain.SkippedFile
		dated      []domain.SourceFile
		film, tv   []domain.MasterRow
		engagement []domain.EngagementRow
	)

	for _, f := range sources {
		src := f.Source()
		window, err := p.periods.Extract(src.Name)
		if err != nil {
			p.logger.WarnContext(ctx, "skipping file without reporting period",
				slog.String("file", src.Name),
				slog.String("error", err.Error()))
			skipped = append(skipped, domain.SkippedFile{Name: src.Name, Reason: err.Error()})
			p.metrics.RecordFile(ctx, "skipped")
			continue
		}
		src.Window = window
		token, _ := p.periods.Token(src.Name)
		src.Legacy = token == p.legacyPeriod
		dated = append(dated, src)
	}

	// chronological order makes "first occurrence" deterministic
	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Window.Start.Equal(dated[j].Window.Start) {
			return dated[i].Window.Start.Before(dated[j].Window.Start)
		}
		return dated[i].Name < dated[j].Name
	})

	var read []domain.SourceFile
	for _, src := range dated {
		if err := ctx.Err(); err != nil {
			infrastructure.RecordError(ctx, err)
			p.metrics.RecordRun(ctx, time.Since(start), 0, 0, err)
			return nil, err
		}

		rows, failures := p.readFile(ctx, src)
		skipped = append(skipped, failures...)
		if len(failures) > 0 {
			p.metrics.RecordFile(ctx, "failed")
		} else {
			p.metrics.RecordFile(ctx, "read")
		}
		read = append(read, src)

		for _, row := range rows {
			switch r := row.(type) {
			case domain.FilmRow:
				m, _ := ToMaster(r)
				film = append(film, m)
			case domain.TVRow:
				m, _ := ToMaster(r)
				tv = append(tv, m)
			case domain.EngagementRow:
				engagement = append(engagement, r)
			}
		}
	}

	helper := make([]domain.MasterRow, 0, len(film)+len(tv))
	helper = append(helper, film...)
	helper = append(helper, tv...)
	reconciled := Reconcile(engagement, helper)

	corpus := Assemble(film, tv, reconciled)
	corpus.Files = read
	corpus.Skipped = skipped
	corpus.BuiltAt = time.Now().UTC()

	span.SetAttributes(
		attribute.Int("film_rows", len(corpus.Film)),
		attribute.Int("tv_rows", len(corpus.TV)),
		attribute.Int("backfilled_rows", len(reconciled)),
		attribute.Int("skipped", len(skipped)),
	)
	p.metrics.RecordRun(ctx, time.Since(start), len(corpus.Film), len(corpus.TV), nil)

	p.logger.InfoContext(ctx, "corpus built",
		slog.Int("film_rows", len(corpus.Film)),
		slog.Int("tv_rows", len(corpus.TV)),
		slog.Int("backfilled_rows", len(reconciled)),
		slog.Int("skipped", len(skipped)),
		slog.Duration("duration", time.Since(start)))

	return &corpus, nil
}

// readFile reads the Engagement tab of the legacy export, and the Film and
// TV tabs of every other export
func (p *Pipeline) readFile(ctx context.Context, src domain.SourceFile) ([]domain.SheetRow, []domain.SkippedFile) {
	ctx, span := infrastructure.Tracer().Start(ctx, "pipeline.file",
		trace.WithAttributes(
			attribute.String("file", src.Name),
			attribute.Bool("legacy", src.Legacy),
		))
	defer span.End()

	kinds := []domain.SheetKind{domain.SheetFilm, domain.SheetTV}
	if src.Legacy {
		kinds = []domain.SheetKind{domain.SheetEngagement}
	}

	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		var failures []domain.SkippedFile
		for _, kind := range kinds {
			failures = append(failures, domain.SkippedFile{
				Name:   src.Name,
				Reason: p.reader.fail(ctx, src.Path, kind, err).Error(),
			})
		}
		infrastructure.RecordError(ctx, err)
		return nil, failures
	}
	defer f.Close()

	var (
		rows     []domain.SheetRow
		failures []domain.SkippedFile
	)
	for _, kind := range kinds {
		sheetRows, err := p.reader.ReadSheet(ctx, f, src.Path, kind, src.Window)
		if err != nil {
			failures = append(failures, domain.SkippedFile{Name: src.Name, Reason: err.Error()})
			infrastructure.RecordError(ctx, err)
			continue
		}
		rows = append(rows, sheetRows...)
	}
	return rows, failures
}

// RunDir builds a corpus from every export in dir
func (p *Pipeline) RunDir(ctx context.Context, dir string) (*domain.Corpus, error) {
	discovery := files.NewDiscovery(dir)
	if p.ext != "" {
		discovery = discovery.WithFilter(p.ext, p.tempPrefix)
	}
	sources, err := discovery.FindExportFiles()
	if err != nil {
		return nil, err
	}
	corpus, err := p.Run(ctx, sources)
	if err != nil {
		return nil, err
	}
	corpus.Fingerprint = files.Fingerprint(sources)
	return corpus, nil
}
