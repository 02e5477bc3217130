package include

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds of an expansion. Every error returned by
// the expander matches exactly one of them with errors.Is.
var (
	ErrPathNotFound       = errors.New("include path not found")
	ErrRead               = errors.New("include file could not be read")
	ErrMalformedDirective = errors.New("malformed include directive")
	ErrCyclicInclude      = errors.New("cyclic include")
)

// PathNotFoundError reports an include path that does not resolve to an existing file.
type PathNotFoundError struct {
	// IncludePath is the literal path as written in the directive (or the entry path).
	IncludePath string
	// Resolved is the canonical path the resolver looked for.
	Resolved string
	// File and Line locate the directive. Both are empty for the entry file.
	File string
	Line int
	Err  error
}

func (e *PathNotFoundError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s:%d: ", e.File, e.Line))
	}
	sb.WriteString(fmt.Sprintf("include %q not found", e.IncludePath))
	if e.Resolved != "" && e.Resolved != e.IncludePath {
		sb.WriteString(fmt.Sprintf(" (resolved to %s)", e.Resolved))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

func (e *PathNotFoundError) Unwrap() error {
	return e.Err
}

// ReadError reports a file that exists but whose content could not be loaded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// MalformedDirectiveError reports a line that starts like an include directive
// but does not follow the `#include "path"` grammar.
type MalformedDirectiveError struct {
	File   string
	Line   int
	Text   string
	Reason string
}

func (e *MalformedDirectiveError) Error() string {
	location := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		location = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	return fmt.Sprintf("%s: malformed include directive %q: %s", location, e.Text, e.Reason)
}

func (e *MalformedDirectiveError) Is(target error) bool {
	return target == ErrMalformedDirective
}

// CyclicIncludeError reports a file that transitively includes itself.
// Cycle starts and ends with the same path.
type CyclicIncludeError struct {
	Cycle []string
}

func (e *CyclicIncludeError) Error() string {
	return fmt.Sprintf("cyclic include: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicIncludeError) Is(target error) bool {
	return target == ErrCyclicInclude
}
