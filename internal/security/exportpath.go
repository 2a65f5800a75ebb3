// Package security confines mesh export files to known directories.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when an export path resolves outside every
// allowed directory.
var ErrPathEscape = errors.New("path escapes allowed directories")

// canonical returns the absolute form of path with symlinks resolved on the
// longest prefix that exists. Components below that prefix are kept as is,
// so a file that has not been written yet still resolves through a
// symlinked parent.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	existing, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// Within reports whether path lies inside dir once both are resolved.
func Within(path, dir string) (bool, error) {
	p, err := canonical(path)
	if err != nil {
		return false, err
	}
	d, err := canonical(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return false, nil
	}
	return true, nil
}

// DefaultExportDirs returns the working directory and the temp directory.
func DefaultExportDirs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	return []string{cwd, os.TempDir()}, nil
}

// CheckExportPath returns an error wrapping ErrPathEscape unless path lies
// inside one of dirs. With no dirs the DefaultExportDirs apply.
func CheckExportPath(path string, dirs ...string) error {
	if len(dirs) == 0 {
		var err error
		if dirs, err = DefaultExportDirs(); err != nil {
			return err
		}
	}
	for _, dir := range dirs {
		ok, err := Within(path, dir)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not in %v", ErrPathEscape, path, dirs)
}

// maxNameLen bounds SanitizeFilename output.
const maxNameLen = 128

// SanitizeFilename maps s onto ASCII letters, digits, '.', '_' and '-'.
// Runs of other characters become one underscore, leading and trailing
// dots and underscores are dropped, and an empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			pending = false
		case !pending:
			b.WriteByte('_')
			pending = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// MeshFileName names an export of the mesh with the given key, for example
// MeshFileName("3f2a", "png") is "mesh-3f2a.png".
func MeshFileName(key, ext string) string {
	return "mesh-" + SanitizeFilename(key) + "." + strings.TrimPrefix(ext, ".")
}
