package files

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"viewership/internal/config"
	"viewership/pkg/contracts/domain"
)

// FileInfo represents information about a discovered export file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Source converts the file into the record a corpus build reports
func (f FileInfo) Source() domain.SourceFile {
	return domain.SourceFile{
		Name:    f.Name,
		Path:    f.Path,
		Size:    f.Size,
		ModTime: f.ModTime,
	}
}

// Discovery lists the export files of one directory
type Discovery struct {
	dir        string
	ext        string
	tempPrefix string
}

// NewDiscovery creates a discovery for dir that accepts .xlsx files and
// ignores editor lock files (~$name.xlsx)
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir, ext: config.ExportExtension, tempPrefix: config.TempFilePrefix}
}

// WithFilter overrides the accepted extension and ignored prefix
func (d *Discovery) WithFilter(ext, tempPrefix string) *Discovery {
	if ext != "" {
		d.ext = ext
	}
	d.tempPrefix = tempPrefix
	return d
}

// Dir returns the directory being listed
func (d *Discovery) Dir() string {
	return d.dir
}

// IsExportFile reports whether name would be picked up by discovery
func (d *Discovery) IsExportFile(name string) bool {
	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(d.ext)) {
		return false
	}
	return d.tempPrefix == "" || !strings.HasPrefix(name, d.tempPrefix)
}

// FindExportFiles returns the export files sorted by name. A missing
// directory yields no files.
func (d *Discovery) FindExportFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", d.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !d.IsExportFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(d.dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// SortForDisplay orders files newest period first, which for the
// <prefix>_YYYYJan-Jun naming means reverse name order
func SortForDisplay(files []FileInfo) []FileInfo {
	out := append([]FileInfo(nil), files...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name > out[j].Name
	})
	return out
}

// Fingerprint digests the (name, size, mod time) of every file. The
// result does not depend on the order of files.
func Fingerprint(files []FileInfo) string {
	sorted := append([]FileInfo(nil), files...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	h, _ := blake2b.New256(nil)
	for _, f := range sorted {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(f.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(f.ModTime.UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
