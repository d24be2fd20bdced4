package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// Scanner discovers model files under a directory.
type Scanner struct {
	ext string
}

// NewGGUFScanner returns a Scanner that matches *.gguf files.
func NewGGUFScanner() *Scanner { return &Scanner{ext: ".gguf"} }

// Scan builds a registry from the directory contents. ID is the full file
// name including extension; Path is absolute. The scan is not recursive.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), s.ext) {
			continue
		}
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      name,
			Path:      filepath.Join(abs, name),
			SizeBytes: size,
		})
	}
	return models, nil
}

// LoadDir is a convenience wrapper around the default GGUF scanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewGGUFScanner().Scan(dir)
}
