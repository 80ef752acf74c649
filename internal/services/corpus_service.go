package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"viewership/internal/config"
	"viewership/internal/dataprocessing"
	apperrors "viewership/internal/errors"
	"viewership/internal/files"
	"viewership/internal/infrastructure"
	"viewership/internal/validation"
	ws "viewership/internal/websocket"
	"viewership/pkg/contracts/domain"
)

// UploadedMessage is shown after an export was stored
const UploadedMessage = "File %s has been uploaded successfully!"

// ExistsMessage is shown when an export with the same name is stored already
const ExistsMessage = "The file %s is already included in the dashboard."

// InvalidNameMessage is shown when an upload name is a path rather than a
// plain file name
const InvalidNameMessage = "The file name %s must not contain a path."

// UploadResult describes an accepted upload
type UploadResult struct {
	File    string `json:"file"`
	Path    string `json:"-"`
	Size    int64  `json:"size_bytes"`
	Message string `json:"message"`
}

// TopTable is a ranked top-N table with its display headers
type TopTable struct {
	Media      domain.MediaType     `json:"media"`
	Metric     domain.Metric        `json:"metric"`
	GroupLabel string               `json:"group_label"`
	CountLabel string               `json:"count_label"`
	Rows       []domain.RankedGroup `json:"rows"`
}

// CorpusService builds, caches and serves the master tables
type CorpusService struct {
	pipeline    *dataprocessing.Pipeline
	manager     *files.Manager
	discovery   *files.Discovery
	validator   *validation.UploadValidator
	broadcaster ws.Broadcaster
	metrics     *infrastructure.PipelineMetrics
	logger      *slog.Logger

	cacheEnabled bool
	mu           sync.RWMutex
	cached       *domain.Corpus
	group        singleflight.Group
}

// NewCorpusService wires a service over the configured exports directory.
// broadcaster and metrics may be nil.
func NewCorpusService(cfg *config.Config, paths *config.Paths, broadcaster ws.Broadcaster, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*CorpusService, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	pipeline, err := dataprocessing.NewPipeline(cfg.Pipeline, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	validator, err := validation.NewUploadValidator(cfg.Pipeline, logger)
	if err != nil {
		return nil, err
	}
	manager := files.NewManager(paths, logger)

	logger.Info("CorpusService initialized",
		slog.String("exports_dir", paths.ExportsDir),
		slog.String("legacy_period", cfg.Pipeline.LegacyPeriod),
		slog.Bool("cache_enabled", cfg.Cache.Enabled))

	return &CorpusService{
		pipeline:     pipeline,
		manager:      manager,
		discovery:    manager.Discovery().WithFilter(cfg.Pipeline.ExportExt, cfg.Pipeline.SkipTempPrefix),
		validator:    validator,
		broadcaster:  broadcaster,
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "corpus_service")),
		cacheEnabled: cfg.Cache.Enabled,
	}, nil
}

// Files lists the export files, newest period first
func (s *CorpusService) Files(ctx context.Context) ([]files.FileInfo, error) {
	list, err := s.discovery.FindExportFiles()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list exports", err)
	}
	return files.SortForDisplay(list), nil
}

// Corpus returns the master tables for the current exports directory. The
// cached corpus is reused while the directory listing is unchanged.
func (s *CorpusService) Corpus(ctx context.Context) (*domain.Corpus, error) {
	sources, err := s.discovery.FindExportFiles()
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list exports", err)
	}
	fingerprint := files.Fingerprint(sources)

	if corpus := s.lookup(fingerprint); corpus != nil {
		s.metrics.RecordCache(ctx, true)
		s.logger.DebugContext(ctx, "corpus cache hit", slog.String("fingerprint", fingerprint))
		return corpus, nil
	}
	s.metrics.RecordCache(ctx, false)

	// the build outlives a cancelled caller so others waiting on it still get a result
	buildCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fingerprint, func() (interface{}, error) {
		corpus, err := s.pipeline.Run(buildCtx, sources)
		if err != nil {
			return nil, err
		}
		corpus.Fingerprint = fingerprint
		s.store(corpus)
		return corpus, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Corpus), nil
	}
}

func (s *CorpusService) lookup(fingerprint string) *domain.Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached != nil && s.cached.Fingerprint == fingerprint {
		return s.cached
	}
	return nil
}

func (s *CorpusService) store(corpus *domain.Corpus) {
	if !s.cacheEnabled {
		return
	}
	s.mu.Lock()
	s.cached = corpus
	s.mu.Unlock()
}

// Invalidate drops the cached corpus
func (s *CorpusService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Top ranks the groups of one master table
func (s *CorpusService) Top(ctx context.Context, media domain.MediaType, q domain.TopQuery) (*TopTable, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	if q.Metric == "" {
		q.Metric = domain.MetricViews
	}

	rows, err := dataprocessing.TopN(dataprocessing.GroupTable(corpus.Table(media)), q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	groupLabel, countLabel := domain.TopLabels(media)
	return &TopTable{
		Media:      media,
		Metric:     q.Metric,
		GroupLabel: groupLabel,
		CountLabel: countLabel,
		Rows:       rows,
	}, nil
}

// FiscalHalves sums views per fiscal half split by dim
func (s *CorpusService) FiscalHalves(ctx context.Context, dim domain.Dimension) ([]domain.FiscalHalfBucket, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := dataprocessing.FiscalHalfSummary(corpus.Film, corpus.TV, dim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return buckets, nil
}

// Upload validates an export and stores it under name. A rejected file
// returns a VALIDATION AppError, an existing name a CONFLICT AppError
// wrapping files.ErrExportExists; both messages are meant for the uploader.
func (s *CorpusService) Upload(ctx context.Context, name string, data []byte) (*UploadResult, error) {
	if err := s.validator.ValidateBytes(ctx, name, data); err != nil {
		s.metrics.RecordUpload(ctx, "rejected")
		return nil, err
	}

	path, err := s.manager.SaveExport(ctx, name, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, files.ErrExportExists) {
			s.metrics.RecordUpload(ctx, "exists")
			s.logger.WarnContext(ctx, "upload already stored", slog.String("file", name))
			return nil, apperrors.NewAppError(apperrors.ErrTypeConflict, fmt.Sprintf(ExistsMessage, name), err).
				WithContext("filename", name)
		}
		if errors.Is(err, files.ErrInvalidName) {
			s.metrics.RecordUpload(ctx, "rejected")
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf(InvalidNameMessage, name), err).
				WithContext("filename", name)
		}
		s.metrics.RecordUpload(ctx, "failed")
		return nil, apperrors.NewStorageError("failed to store upload", err).WithContext("filename", name)
	}

	s.metrics.RecordUpload(ctx, "accepted")
	s.Invalidate()

	result := &UploadResult{
		File:    name,
		Path:    path,
		Size:    int64(len(data)),
		Message: fmt.Sprintf(UploadedMessage, name),
	}
	s.logger.InfoContext(ctx, "upload accepted",
		slog.String("file", name),
		slog.Int64("size_bytes", result.Size))

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ws.TypeUpload, map[string]interface{}{
			"file":      name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		s.broadcaster.Broadcast(ws.TypeCorpusRefresh, map[string]interface{}{
			"source": "upload",
			"file":   name,
		})
	}

	return result, nil
}

// CachedRows returns the row counts of the cached corpus, or false when
// nothing is cached
func (s *CorpusService) CachedRows() (film, tv int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil {
		return 0, 0, false
	}
	return len(s.cached.Film), len(s.cached.TV), true
}
