package include

import (
	"bytes"
	"unicode"
)

const directiveKeyword = "#include"

var byteOrderMark = []byte("\xef\xbb\xbf")

// Directive is one `#include "path"` line found in a file's text.
type Directive struct {
	// Path is the literal include path between the quotes.
	Path string
	// Line is the 1-based line number of the directive.
	Line int
	// Start and End delimit the directive line's content in the scanned text.
	// End stops before the line terminator, which is left in place.
	Start int
	End   int
}

// ScanDirectives returns the include directives of text in source order.
//
// Recognition is line-oriented: a directive inside what the shader language
// would treat as a comment or a string literal is still a directive.
// A leading UTF-8 byte order mark is not part of the first line; it stays in
// the text ahead of the first directive's span.
// A malformed directive fails with a *MalformedDirectiveError whose File is empty.
func ScanDirectives(text []byte) ([]Directive, error) {
	var directives []Directive

	start := 0
	if bytes.HasPrefix(text, byteOrderMark) {
		start = len(byteOrderMark)
	}

	lineNumber := 0
	for start < len(text) {
		lineNumber++

		end := len(text)
		next := len(text)
		if i := bytes.IndexByte(text[start:], '\n'); i >= 0 {
			end = start + i
			next = end + 1
		}
		if end > start && text[end-1] == '\r' {
			end--
		}

		line := text[start:end]
		if path, isDirective, reason := parseDirectiveLine(line); isDirective {
			if reason != "" {
				return nil, &MalformedDirectiveError{
					Line:   lineNumber,
					Text:   string(bytes.TrimSpace(line)),
					Reason: reason,
				}
			}
			directives = append(directives, Directive{
				Path:  path,
				Line:  lineNumber,
				Start: start,
				End:   end,
			})
		}

		start = next
	}

	return directives, nil
}

// parseDirectiveLine reports whether line is directive-like and, if so, either
// the include path or the reason it is malformed.
func parseDirectiveLine(line []byte) (path string, isDirective bool, reason string) {
	trimmed := bytes.TrimLeftFunc(line, unicode.IsSpace)
	if !bytes.HasPrefix(trimmed, []byte(directiveKeyword)) {
		return "", false, ""
	}

	rest := trimmed[len(directiveKeyword):]
	if len(rest) > 0 && isIdentifierByte(rest[0]) {
		// #include_next, #includes and friends are not ours.
		return "", false, ""
	}

	if len(bytes.TrimSpace(rest)) == 0 {
		return "", true, "missing include path"
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", true, "expected whitespace after #include"
	}

	rest = bytes.TrimLeft(rest, " \t")
	if rest[0] != '"' {
		return "", true, "include path must be enclosed in double quotes"
	}

	closing := bytes.IndexByte(rest[1:], '"')
	if closing < 0 {
		return "", true, "missing closing quote"
	}

	path = string(rest[1 : 1+closing])
	if path == "" {
		return "", true, "empty include path"
	}

	if trailing := bytes.TrimSpace(rest[closing+2:]); len(trailing) > 0 {
		return "", true, "unexpected text after include path"
	}

	return path, true, ""
}

func isIdentifierByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
