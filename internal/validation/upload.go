package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"viewership/internal/config"
	apperrors "viewership/internal/errors"
)

// InvalidNameMessage is shown for uploads whose name carries no period
const InvalidNameMessage = `Invalid file name format. The file name must end with "_YYYYJan-Jun" or "_YYYYJul-Dec".`

// UploadValidator checks a candidate export before it is stored. Checks
// run in order and stop at the first failure: the file name, the Film and
// TV tabs, the Film header, then the header of the first tab.
type UploadValidator struct {
	pattern    *regexp.Regexp
	ext        string
	bannerRows int
	logger     *slog.Logger
}

// NewUploadValidator creates a validator from the pipeline configuration
func NewUploadValidator(cfg config.PipelineConfig, logger *slog.Logger) (*UploadValidator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pattern := cfg.UploadPattern
	if pattern == "" {
		pattern = config.UploadPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid upload pattern", err)
	}
	ext := cfg.ExportExt
	if ext == "" {
		ext = config.ExportExtension
	}
	return &UploadValidator{
		pattern:    re,
		ext:        ext,
		bannerRows: cfg.BannerRows,
		logger:     logger.With(slog.String("component", "upload_validator")),
	}, nil
}

// ValidateName checks the upload file name
func (v *UploadValidator) ValidateName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), v.ext) || !v.pattern.MatchString(name) {
		return apperrors.NewAppValidationError(InvalidNameMessage).WithContext("filename", name)
	}
	return nil
}

// Validate reads the whole upload from r and checks it. The returned error
// is a VALIDATION AppError whose message is meant for the uploader.
func (v *UploadValidator) Validate(ctx context.Context, name string, r io.Reader) error {
	if err := v.ValidateName(name); err != nil {
		v.reject(ctx, name, err)
		return err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		err := apperrors.NewAppValidationError(fmt.Sprintf("Error validating file: %v", err)).
			WithContext("filename", name)
		v.reject(ctx, name, err)
		return err
	}
	defer f.Close()

	if err := v.validateWorkbook(f, name); err != nil {
		v.reject(ctx, name, err)
		return err
	}

	v.logger.InfoContext(ctx, "upload validated", slog.String("file", name))
	return nil
}

// ValidateBytes is Validate over an in-memory upload
func (v *UploadValidator) ValidateBytes(ctx context.Context, name string, data []byte) error {
	return v.Validate(ctx, name, bytes.NewReader(data))
}

func (v *UploadValidator) validateWorkbook(f *excelize.File, name string) error {
	sheets := f.GetSheetList()

	var missingSheets []string
	for _, required := range config.RequiredSheets() {
		if !contains(sheets, required) {
			missingSheets = append(missingSheets, required)
		}
	}
	if len(missingSheets) > 0 {
		return apperrors.NewAppValidationError("Missing sheets: "+strings.Join(missingSheets, ", ")).
			WithContext("filename", name)
	}

	missing, err := v.missingColumns(f, config.SheetFilm)
	if err != nil {
		return apperrors.NewAppValidationError(fmt.Sprintf("Error validating file: %v", err)).
			WithContext("filename", name)
	}
	if len(missing) > 0 {
		return apperrors.NewAppValidationError("Missing columns: "+strings.Join(missing, ", ")).
			WithContext("filename", name)
	}

	// the first tab is checked too; exports normally open on Film
	if len(sheets) > 0 && sheets[0] != config.SheetFilm {
		missing, err := v.missingColumns(f, sheets[0])
		if err != nil {
			return apperrors.NewAppValidationError(fmt.Sprintf("Error reading file: %v", err)).
				WithContext("filename", name)
		}
		if len(missing) > 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf(
				"File %s is missing required columns. Missing columns: %s", name, strings.Join(missing, ", "))).
				WithContext("filename", name)
		}
	}

	return nil
}

// missingColumns lists the required headers absent from the row below the
// banner of sheet
func (v *UploadValidator) missingColumns(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	var header []string
	if len(rows) > v.bannerRows {
		header = rows[v.bannerRows]
	}
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = struct{}{}
	}

	var missing []string
	for _, col := range config.RequiredColumns() {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

func (v *UploadValidator) reject(ctx context.Context, name string, err error) {
	v.logger.WarnContext(ctx, "upload rejected",
		slog.String("file", name),
		slog.String("error", err.Error()))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Message returns the uploader-facing text of a validation error
func Message(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
