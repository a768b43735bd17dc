package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned by WithinRoot for paths that escape the root.
var ErrOutsideRoot = errors.New("pathutil: path escapes root directory")

// WithinRoot resolves rel against root and returns the cleaned absolute path.
// Absolute inputs are accepted only when they already lie inside root.
func WithinRoot(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("pathutil: cannot resolve root directory: %w", err)
	}
	target := rel
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	absTarget, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return "", fmt.Errorf("pathutil: cannot resolve path: %w", err)
	}

	// filepath.Rel errors when paths are on different volumes.
	relPath, err := filepath.Rel(absRoot, absTarget)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return absTarget, nil
}

// SanitizeOutputPath validates and cleans an output file path.
// It resolves ".." components via filepath.Clean + filepath.Abs and
// rejects paths that resolve to symlinks. New files in existing
// directories are accepted. Returns the cleaned absolute path.
func SanitizeOutputPath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pathutil: cannot resolve absolute path: %w", err)
	}

	info, err := os.Lstat(abs)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("pathutil: refusing to write to symlink: %s", abs)
		}
	case os.IsNotExist(err):
	default:
		return "", fmt.Errorf("pathutil: cannot stat path: %w", err)
	}

	return abs, nil
}
