// Package include flattens `#include "path"` directives of shader sources into
// a single text and records every file the result depends on.
package include

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/LegacyCodeHQ/shaderinc/vcs"
	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for expansion spans.
const TracerName = "github.com/LegacyCodeHQ/shaderinc/include"

// Options configures an Expander. Zero values select the defaults.
type Options struct {
	// Root is the directory relative entry paths resolve against.
	// Defaults to the process working directory.
	Root string
	// BaseDir selects the directory a file's relative includes resolve
	// against. Defaults to RelativeToIncluder.
	BaseDir BaseDirFunc
	// Resolver defaults to FileResolver.
	Resolver Resolver
	// Reader defaults to vcs.FilesystemContentReader.
	Reader vcs.ContentReader
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Logger
	// Tracer defaults to the global OpenTelemetry tracer.
	Tracer trace.Tracer
}

// Expander flattens include trees. It holds no per-run state, so one Expander
// may serve any number of sequential or concurrent Expand calls.
type Expander struct {
	root     string
	baseDir  BaseDirFunc
	resolver Resolver
	reader   vcs.ContentReader
	logger   *log.Logger
	tracer   trace.Tracer
}

// Result is the outcome of one expansion.
type Result struct {
	// Entry is the canonical path of the entry file.
	Entry string
	// Text is the flattened source.
	Text string
	// Dependencies lists every visited file in first-visit order, entry first.
	Dependencies []string
	// Graph holds the include edges followed during expansion.
	Graph *Graph
}

// NewExpander creates an Expander from opts.
func NewExpander(opts Options) (*Expander, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	canonicalRoot, err := Canonicalize(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	e := &Expander{
		root:     canonicalRoot,
		baseDir:  opts.BaseDir,
		resolver: opts.Resolver,
		reader:   opts.Reader,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
	}
	if e.baseDir == nil {
		e.baseDir = RelativeToIncluder
	}
	if e.resolver == nil {
		e.resolver = FileResolver{}
	}
	if e.reader == nil {
		e.reader = vcs.FilesystemContentReader()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(TracerName)
	}

	return e, nil
}

// Root returns the canonical directory entry paths resolve against.
func (e *Expander) Root() string {
	return e.root
}

// Expand flattens the include tree of entryPath.
func (e *Expander) Expand(ctx context.Context, entryPath string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "include.Expand", trace.WithAttributes(
		attribute.String("include.entry", entryPath),
	))
	defer span.End()

	entry, err := e.resolver.Resolve(entryPath, e.root)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	run := newExpansion(e, entry)
	text, err := run.expandFile(ctx, entry)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("include.dependencies", run.deps.Len()))
	e.logger.Debug("expanded", "entry", entry, "files", run.deps.Len(), "bytes", len(text))

	return &Result{
		Entry:        entry,
		Text:         text,
		Dependencies: run.deps.Paths(),
		Graph:        run.graph,
	}, nil
}

// Scan walks the include tree of entryPath without splicing and returns its
// graph. Unlike Expand it tolerates cycles; use Graph.Cycles to find them.
func (e *Expander) Scan(ctx context.Context, entryPath string) (*Graph, error) {
	_, span := e.tracer.Start(ctx, "include.Scan", trace.WithAttributes(
		attribute.String("include.entry", entryPath),
	))
	defer span.End()

	entry, err := e.resolver.Resolve(entryPath, e.root)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	run := newExpansion(e, entry)
	if err := run.scanFile(entry); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	return run.graph, nil
}

// expansion is the state of a single Expand or Scan call.
type expansion struct {
	e        *Expander
	cache    map[string][]byte
	visiting []string
	deps     *DependencySet
	graph    *Graph
}

func newExpansion(e *Expander, entry string) *expansion {
	return &expansion{
		e:     e,
		cache: make(map[string][]byte),
		deps:  NewDependencySet(),
		graph: NewGraph(entry),
	}
}

func (x *expansion) expandFile(ctx context.Context, path string) (string, error) {
	if i := indexOf(x.visiting, path); i >= 0 {
		cycle := append(append([]string(nil), x.visiting[i:]...), path)
		return "", &CyclicIncludeError{Cycle: cycle}
	}

	ctx, span := x.e.tracer.Start(ctx, "include.expandFile", trace.WithAttributes(
		attribute.String("include.path", path),
		attribute.Int("include.depth", len(x.visiting)),
	))
	defer span.End()

	x.visiting = append(x.visiting, path)
	defer func() {
		x.visiting = x.visiting[:len(x.visiting)-1]
	}()

	x.deps.Add(path)
	if err := x.graph.AddFile(path); err != nil {
		return "", err
	}

	content, err := x.load(path)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	directives, err := scanFileDirectives(path, content)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}
	if len(directives) == 0 {
		return string(content), nil
	}

	baseDir := x.e.baseDir(path)

	var sb strings.Builder
	last := 0
	for _, d := range directives {
		sb.Write(content[last:d.Start])

		target, err := x.resolve(d, path, baseDir)
		if err != nil {
			recordSpanError(span, err)
			return "", err
		}

		x.e.logger.Debug("include", "file", path, "line", d.Line, "path", d.Path, "resolved", target)
		if err := x.graph.AddInclude(path, target); err != nil {
			return "", err
		}

		included, err := x.expandFile(ctx, target)
		if err != nil {
			return "", err
		}
		sb.WriteString(included)

		last = d.End
	}
	sb.Write(content[last:])

	return sb.String(), nil
}

func (x *expansion) scanFile(path string) error {
	x.deps.Add(path)
	if err := x.graph.AddFile(path); err != nil {
		return err
	}

	content, err := x.load(path)
	if err != nil {
		return err
	}

	directives, err := scanFileDirectives(path, content)
	if err != nil {
		return err
	}

	baseDir := x.e.baseDir(path)
	for _, d := range directives {
		target, err := x.resolve(d, path, baseDir)
		if err != nil {
			return err
		}
		if err := x.graph.AddInclude(path, target); err != nil {
			return err
		}
		if x.deps.Contains(target) {
			continue
		}
		if err := x.scanFile(target); err != nil {
			return err
		}
	}

	return nil
}

func (x *expansion) load(path string) ([]byte, error) {
	if content, ok := x.cache[path]; ok {
		return content, nil
	}

	content, err := x.e.reader(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	x.cache[path] = content
	return content, nil
}

func (x *expansion) resolve(d Directive, includingFile, baseDir string) (string, error) {
	target, err := x.e.resolver.Resolve(d.Path, baseDir)
	if err == nil {
		return target, nil
	}

	var notFound *PathNotFoundError
	if errors.As(err, &notFound) {
		located := *notFound
		located.File = includingFile
		located.Line = d.Line
		return "", &located
	}

	return "", &PathNotFoundError{
		IncludePath: d.Path,
		File:        includingFile,
		Line:        d.Line,
		Err:         err,
	}
}

func scanFileDirectives(path string, content []byte) ([]Directive, error) {
	directives, err := ScanDirectives(content)
	if err != nil {
		var malformed *MalformedDirectiveError
		if errors.As(err, &malformed) {
			malformed.File = path
		}
		return nil, err
	}
	return directives, nil
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
