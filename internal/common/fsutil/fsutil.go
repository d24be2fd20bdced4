// Package fsutil has small filesystem helpers shared by the registry and CLI.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome rewrites a leading "~" or "~/..." to the user's home directory.
// Other paths pass through unchanged.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest), nil
	}
	// "~user" style paths are not supported.
	return path, nil
}

// PathExists reports whether path exists. Stat errors other than
// "not exist" count as existing so callers do not mask permission issues.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
