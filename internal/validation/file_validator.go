package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"viewership/internal/config"
)

// FileValidator checks local paths handed to the CLI before they are read
// or written
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger.With(slog.String("component", "file_validator"))}
}

// ValidateOutputDirectory creates dir if needed and proves it is writable
// by creating and removing a probe file
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return v.fail("cannot create output directory", dir, fmt.Errorf("failed to create output directory %s: %w", dir, err))
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return v.fail("output directory is not writable", dir, fmt.Errorf("output directory %s is not writable: %w", dir, err))
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("output directory ready", slog.String("path", dir))
	return nil
}

// ValidateFile checks that path names a readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return v.fail("file not found", path, fmt.Errorf("file %s does not exist", path))
	case err != nil:
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	case info.IsDir():
		return v.fail("path is a directory", path, fmt.Errorf("%s is a directory, not a file", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return v.fail("file not readable", path, fmt.Errorf("file %s is not readable: %w", path, err))
	}
	f.Close()
	return nil
}

// ValidateExcelFile checks that path is a readable workbook and not a lock
// file left by a spreadsheet editor
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != config.ExportExtension {
		return v.fail("not an Excel workbook", path, fmt.Errorf("file %s is not an Excel workbook (extension: %s)", path, ext))
	}
	if strings.HasPrefix(filepath.Base(path), config.TempFilePrefix) {
		return v.fail("temporary Excel file", path, fmt.Errorf("file %s is a temporary Excel file", path))
	}
	return nil
}

func (v *FileValidator) fail(msg, path string, err error) error {
	v.logger.Warn(msg, slog.String("path", path), slog.String("error", err.Error()))
	return err
}
