package include

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Resolver computes the file an include path refers to.
type Resolver interface {
	Resolve(includePath, baseDir string) (string, error)
}

// FileResolver resolves include paths against the local filesystem.
type FileResolver struct{}

// Resolve returns the canonical path of includePath. Absolute paths are used
// as-is, relative ones are joined with baseDir. The only error it returns is a
// *PathNotFoundError.
func (FileResolver) Resolve(includePath, baseDir string) (string, error) {
	if includePath == "" {
		return "", &PathNotFoundError{IncludePath: includePath, Err: errors.New("path cannot be empty")}
	}

	candidate := filepath.FromSlash(includePath)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}

	resolved, err := Canonicalize(candidate)
	if err != nil {
		return "", &PathNotFoundError{IncludePath: includePath, Resolved: candidate, Err: err}
	}

	if _, err := os.Stat(resolved); err != nil {
		return "", &PathNotFoundError{IncludePath: includePath, Resolved: resolved, Err: err}
	}

	return resolved, nil
}

// Canonicalize returns an absolute, cleaned path with symlinks evaluated.
// Paths that do not exist are returned cleaned but unevaluated.
func Canonicalize(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return resolveSymlinks(filepath.Clean(absPath)), nil
}

func resolveSymlinks(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

// BaseDirFunc returns the directory relative includes of includingFile resolve against.
type BaseDirFunc func(includingFile string) string

// RelativeToIncluder resolves includes against the including file's own directory.
func RelativeToIncluder(includingFile string) string {
	return filepath.Dir(includingFile)
}

// FixedRoot resolves every include against root regardless of the including file.
func FixedRoot(root string) BaseDirFunc {
	return func(string) string {
		return root
	}
}
