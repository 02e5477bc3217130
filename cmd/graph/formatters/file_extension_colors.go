package formatters

import (
	"path/filepath"
	"sort"
)

var availableColors = []string{
	"lightyellow", "mistyrose", "lavender", "peachpuff",
	"powderblue", "khaki", "thistle", "palegoldenrod",
}

// ExtensionColors assigns a fill color to every extension that is not the
// most common one, so shader stages (.vert, .frag, .comp) stand out from the
// shared library files. Files of the majority extension get no entry.
func ExtensionColors(files []string) map[string]string {
	counts := make(map[string]int)
	for _, file := range files {
		counts[filepath.Ext(file)]++
	}

	extensions := make([]string, 0, len(counts))
	for ext := range counts {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)

	majority, maxCount := "", 0
	for _, ext := range extensions {
		if counts[ext] > maxCount {
			majority, maxCount = ext, counts[ext]
		}
	}

	colors := make(map[string]string)
	i := 0
	for _, ext := range extensions {
		if ext == majority || ext == "" {
			continue
		}
		colors[ext] = availableColors[i%len(availableColors)]
		i++
	}
	return colors
}
