package formatters

import "strings"

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatMermaid OutputFormat = "mermaid"
	OutputFormatJSON    OutputFormat = "json"
)

var outputFormats = []OutputFormat{OutputFormatDOT, OutputFormatMermaid, OutputFormatJSON}

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat returns the OutputFormat named s.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	for _, f := range outputFormats {
		if strings.EqualFold(string(f), s) {
			return f, true
		}
	}
	return "", false
}

// SupportedFormats lists the accepted format names, comma separated.
func SupportedFormats() string {
	names := make([]string, len(outputFormats))
	for i, f := range outputFormats {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}
