package vcs

import "os"

// ContentReader is a function that reads file content given a file path.
// This allows the caller to control how files are read (filesystem, in-memory fixtures, etc.)
type ContentReader func(filePath string) ([]byte, error)

// FilesystemContentReader reads files from the local filesystem.
func FilesystemContentReader() ContentReader {
	return os.ReadFile
}
