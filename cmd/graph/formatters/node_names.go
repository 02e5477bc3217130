package formatters

import (
	"path/filepath"
	"strings"
)

// BuildNodeNames returns display names for file paths: each path relative to
// the deepest directory all paths share, with forward slashes. A single file
// is named by its base name.
func BuildNodeNames(paths []string) map[string]string {
	names := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return names
	}

	prefix := commonDir(paths)
	if prefix == "" && filepath.IsAbs(paths[0]) {
		prefix = string(filepath.Separator)
	}
	for _, path := range paths {
		rel, err := filepath.Rel(prefix, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(path)
		}
		names[path] = filepath.ToSlash(rel)
	}
	return names
}

func commonDir(paths []string) string {
	common := splitDir(filepath.Dir(paths[0]))
	for _, path := range paths[1:] {
		parts := splitDir(filepath.Dir(path))
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	return strings.Join(common, string(filepath.Separator))
}

func splitDir(dir string) []string {
	return strings.Split(filepath.Clean(dir), string(filepath.Separator))
}
