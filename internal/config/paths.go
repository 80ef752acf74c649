package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute locations the application uses
type Paths struct {
	BaseDir    string
	ExportsDir string
	ReportsDir string
	LogsDir    string
	LockFile   string
}

// NewPaths resolves every relative entry of pc against pc.BaseDir. The lock
// file lives inside the exports directory unless given as an absolute path.
func NewPaths(pc PathsConfig) (*Paths, error) {
	base := pc.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir, def string) string {
		if dir == "" {
			dir = def
		}
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	exports := resolve(pc.ExportsDir, DefaultExportsDir)
	lock := pc.LockFile
	if lock == "" {
		lock = DefaultLockFile
	}
	if !filepath.IsAbs(lock) {
		lock = filepath.Join(exports, lock)
	}

	return &Paths{
		BaseDir:    base,
		ExportsDir: exports,
		ReportsDir: resolve(pc.ReportsDir, DefaultReportsDir),
		LogsDir:    resolve(pc.LogsDir, DefaultLogsDir),
		LockFile:   lock,
	}, nil
}

// GetPaths resolves the configured paths
func (c *Config) GetPaths() (*Paths, error) {
	return NewPaths(c.Paths)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportsDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetExportPath returns the path of an export file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("exports", p.ExportsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("lock_file", p.LockFile),
		slog.Bool("exports_exist", FileExists(p.ExportsDir)),
	)
}
