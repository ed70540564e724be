// Package safepath resolves site-relative paths against a site root without
// letting them escape it.
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path would resolve outside the site root.
var ErrOutsideRoot = errors.New("path is outside site root")

// Join resolves a slash-separated, site-relative reference (for example
// "data/fic.json" or "./data/fic.json") under root. Absolute references,
// traversal out of root, and symlink components inside root are rejected.
func Join(root, ref string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("site root is required")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.HasPrefix(ref, "/") || filepath.IsAbs(ref) {
		return "", fmt.Errorf("%w: %s is absolute", ErrOutsideRoot, ref)
	}

	cleaned := path.Clean(ref)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, ref)
	}

	rootAbs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("resolve root path %s: %w", root, err)
	}
	rootReal, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return "", fmt.Errorf("resolve root symlinks %s: %w", root, err)
	}

	target := filepath.Join(rootReal, filepath.FromSlash(cleaned))
	if err := ensureNoSymlinkComponents(rootReal, target); err != nil {
		return "", err
	}
	return target, nil
}

// ensureNoSymlinkComponents walks from target up to root and fails on the
// first symlink. Components that do not exist yet are allowed.
func ensureNoSymlinkComponents(root, target string) error {
	current := filepath.Clean(target)
	for current != root {
		info, err := os.Lstat(current)
		if err == nil {
			if info.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path contains symlink component: %s", current)
			}
		} else if !os.IsNotExist(err) {
			return err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return fmt.Errorf("%w: %s", ErrOutsideRoot, target)
		}
		current = parent
	}
	return nil
}
