package include

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectives(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Directive
	}{
		{
			name: "no directives",
			text: "void main() {}\n",
			want: nil,
		},
		{
			name: "single directive",
			text: "#include \"a.glsl\"\n",
			want: []Directive{{Path: "a.glsl", Line: 1, Start: 0, End: 17}},
		},
		{
			name: "leading whitespace",
			text: "x\n\t  #include \"lib/b.glsl\"\n",
			want: []Directive{{Path: "lib/b.glsl", Line: 2, Start: 2, End: 26}},
		},
		{
			name: "several spaces and trailing whitespace",
			text: "#include    \"a.glsl\"  \t\n",
			want: []Directive{{Path: "a.glsl", Line: 1, Start: 0, End: 23}},
		},
		{
			name: "crlf terminator is excluded from the span",
			text: "#include \"a.glsl\"\r\nnext\r\n",
			want: []Directive{{Path: "a.glsl", Line: 1, Start: 0, End: 17}},
		},
		{
			name: "no trailing newline",
			text: "a\n#include \"b.glsl\"",
			want: []Directive{{Path: "b.glsl", Line: 2, Start: 2, End: 19}},
		},
		{
			name: "absolute path",
			text: "#include \"/usr/share/shaders/common.glsl\"\n",
			want: []Directive{{Path: "/usr/share/shaders/common.glsl", Line: 1, Start: 0, End: 41}},
		},
		{
			name: "byte order mark before first line",
			text: "\xef\xbb\xbf#include \"a.glsl\"\nvoid main() {}\n",
			want: []Directive{{Path: "a.glsl", Line: 1, Start: 3, End: 20}},
		},
		{
			name: "byte order mark only counts at the start",
			text: "x\n\xef\xbb\xbf#include \"a.glsl\"\n",
			want: nil,
		},
		{
			name: "other directives are plain text",
			text: "#version 300 es\n#define X 1\n#include_next \"a\"\n#includes\n",
			want: nil,
		},
		{
			name: "directive not at line start after code is plain text",
			text: "int a; #include \"a.glsl\"\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanDirectives([]byte(tt.text))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanDirectives_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		line   int
		reason string
	}{
		{"missing quotes", "#include util.glsl\n", 1, "include path must be enclosed in double quotes"},
		{"angle brackets", "#include <util.glsl>\n", 1, "include path must be enclosed in double quotes"},
		{"missing path", "ok\n#include\n", 2, "missing include path"},
		{"only whitespace after keyword", "#include   \n", 1, "missing include path"},
		{"missing closing quote", "#include \"util.glsl\n", 1, "missing closing quote"},
		{"empty path", "#include \"\"\n", 1, "empty include path"},
		{"no whitespace after keyword", "#include\"util.glsl\"\n", 1, "expected whitespace after #include"},
		{"trailing text", "#include \"a.glsl\" // helpers\n", 1, "unexpected text after include path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanDirectives([]byte(tt.text))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDirective))

			var malformed *MalformedDirectiveError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.line, malformed.Line)
			assert.Equal(t, tt.reason, malformed.Reason)
		})
	}
}

func TestScanDirectives_SpanCoversLineContent(t *testing.T) {
	text := []byte("a\n  #include \"b.glsl\"\r\nc\n")

	directives, err := ScanDirectives(text)

	require.NoError(t, err)
	require.Len(t, directives, 1)
	d := directives[0]
	assert.Equal(t, "  #include \"b.glsl\"", string(text[d.Start:d.End]))
	assert.Equal(t, "\r\nc\n", string(text[d.End:]))
}
