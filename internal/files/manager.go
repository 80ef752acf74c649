package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"viewership/internal/config"
)

var (
	// ErrExportExists is returned when an upload would replace an export
	ErrExportExists = errors.New("export file already exists")

	// ErrInvalidName is returned for names that are not a plain file name
	ErrInvalidName = errors.New("invalid export file name")

	// ErrLocked is returned when another process holds the exports lock
	ErrLocked = errors.New("exports directory is locked by another process")
)

const lockRetryDelay = 100 * time.Millisecond

// Manager owns writes to the exports directory
type Manager struct {
	paths  *config.Paths
	lock   *flock.Flock
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		paths:  paths,
		lock:   flock.New(paths.LockFile),
		logger: logger.With(slog.String("component", "file_manager")),
	}
}

// Discovery returns a discovery over the exports directory
func (m *Manager) Discovery() *Discovery {
	return NewDiscovery(m.paths.ExportsDir)
}

// ExportPath returns the absolute path an export named name is stored at
func (m *Manager) ExportPath(name string) string {
	return m.paths.GetExportPath(name)
}

// ExportExists checks whether an export with this name is already stored
func (m *Manager) ExportExists(name string) bool {
	_, err := os.Stat(m.ExportPath(name))
	return err == nil
}

// SaveExport writes r to the exports directory under name. It never
// replaces an existing file and holds the exports lock while writing.
func (m *Manager) SaveExport(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.paths.ExportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}

	unlock, err := m.Lock(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	path := m.ExportPath(name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExportExists, name)
		}
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	written, err := io.Copy(file, r)
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	m.logger.InfoContext(ctx, "export saved",
		slog.String("file", name),
		slog.String("path", path),
		slog.Int64("size_bytes", written))

	return path, nil
}

// Lock takes the exports directory lock, waiting until ctx is done
func (m *Manager) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(m.paths.LockFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := m.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, ctx.Err())
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("failed to release exports lock", slog.String("error", err.Error()))
		}
	}, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
