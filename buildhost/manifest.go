package buildhost

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/LegacyCodeHQ/shaderinc/vcs"
	"github.com/cespare/xxhash/v2"
)

// Manifest records every registered dependency together with a digest of its
// content, so a build cache can key the expansion on what it actually read.
type Manifest struct {
	Entry string          `json:"entry"`
	Files []ManifestEntry `json:"files"`

	reader vcs.ContentReader
	seen   map[string]bool
}

// ManifestEntry is one dependency and its xxhash64 content digest.
type ManifestEntry struct {
	Path   string `json:"path"`
	Digest string `json:"xxh64"`
}

// NewManifest creates an empty manifest for entry. Files are read through
// reader, or from the filesystem when reader is nil.
func NewManifest(entry string, reader vcs.ContentReader) *Manifest {
	if reader == nil {
		reader = vcs.FilesystemContentReader()
	}
	return &Manifest{
		Entry:  entry,
		Files:  []ManifestEntry{},
		reader: reader,
		seen:   make(map[string]bool),
	}
}

func (m *Manifest) Register(path string) error {
	if m.seen[path] {
		return nil
	}

	content, err := m.reader(path)
	if err != nil {
		return fmt.Errorf("failed to digest %s: %w", path, err)
	}

	m.seen[path] = true
	m.Files = append(m.Files, ManifestEntry{
		Path:   path,
		Digest: fmt.Sprintf("%016x", xxhash.Sum64(content)),
	})
	return nil
}

// Fingerprint combines every path and digest, in order, into one key.
func (m *Manifest) Fingerprint() string {
	h := xxhash.New()
	for _, f := range m.Files {
		_, _ = h.WriteString(f.Path)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(f.Digest)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

type manifestJSON struct {
	Entry       string          `json:"entry"`
	Fingerprint string          `json:"fingerprint"`
	Files       []ManifestEntry `json:"files"`
}

// WriteJSON writes the manifest with its fingerprint as indented JSON.
func (m *Manifest) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifestJSON{
		Entry:       m.Entry,
		Fingerprint: m.Fingerprint(),
		Files:       m.Files,
	})
}
