// Package buildhost connects include expansion to a host build system.
//
// A host build system learns about the files an expansion read through a
// Registrar, one Register call per dependency. Registration only happens when
// Config.TrackDependencies is enabled. Without it the flattened output is
// still correct after every clean rebuild, but a build that caches the
// expansion step may miss edits to included files because nothing tells it
// those files matter.
package buildhost

import (
	"context"
	"fmt"

	"github.com/LegacyCodeHQ/shaderinc/include"
	"github.com/charmbracelet/log"
)

// Config holds the host integration toggles. Both toggles default to off.
type Config struct {
	// Root is the build-time root relative entry paths resolve against,
	// conventionally the directory of the build description.
	Root string
	// RelativePath resolves includes against the including file's directory
	// instead of always against Root.
	RelativePath bool
	// TrackDependencies registers every dependency with the Registrar.
	TrackDependencies bool
}

// NewExpander builds an expander honoring cfg.
func NewExpander(cfg Config, logger *log.Logger) (*include.Expander, error) {
	root, err := include.Canonicalize(rootOrDefault(cfg.Root))
	if err != nil {
		return nil, err
	}

	baseDir := include.FixedRoot(root)
	if cfg.RelativePath {
		baseDir = include.RelativeToIncluder
	}

	return include.NewExpander(include.Options{
		Root:    root,
		BaseDir: baseDir,
		Logger:  logger,
	})
}

// Expand flattens entry and, when tracking is enabled, registers its
// dependencies with registrar. Nothing is registered for a failed expansion.
func Expand(ctx context.Context, cfg Config, entry string, registrar Registrar, logger *log.Logger) (*include.Result, error) {
	expander, err := NewExpander(cfg, logger)
	if err != nil {
		return nil, err
	}

	result, err := expander.Expand(ctx, entry)
	if err != nil {
		return nil, err
	}

	if err := RegisterDependencies(cfg, result.Dependencies, registrar); err != nil {
		return nil, err
	}

	return result, nil
}

// IncludeShader returns the flattened text of entry.
func IncludeShader(ctx context.Context, cfg Config, entry string, registrar Registrar) (string, error) {
	result, err := Expand(ctx, cfg, entry, registrar, nil)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// RegisterDependencies passes every path to registrar, in order. It is a no-op
// unless cfg.TrackDependencies is set.
func RegisterDependencies(cfg Config, paths []string, registrar Registrar) error {
	if !cfg.TrackDependencies || registrar == nil {
		return nil
	}

	for _, path := range paths {
		if err := registrar.Register(path); err != nil {
			return fmt.Errorf("failed to register dependency %s: %w", path, err)
		}
	}
	return nil
}

func rootOrDefault(root string) string {
	if root == "" {
		return "."
	}
	return root
}
