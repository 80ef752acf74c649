package http

import (
	"context"

	"viewership/internal/files"
	"viewership/internal/services"
	"viewership/pkg/contracts/domain"
)

// CorpusServiceInterface defines the corpus operations the data routes use
type CorpusServiceInterface interface {
	Files(ctx context.Context) ([]files.FileInfo, error)
	Corpus(ctx context.Context) (*domain.Corpus, error)
	Top(ctx context.Context, media domain.MediaType, q domain.TopQuery) (*services.TopTable, error)
	FiscalHalves(ctx context.Context, dim domain.Dimension) ([]domain.FiscalHalfBucket, error)
	Upload(ctx context.Context, name string, data []byte) (*services.UploadResult, error)
}
