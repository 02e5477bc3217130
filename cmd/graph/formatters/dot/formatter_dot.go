package dot

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/shaderinc/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/shaderinc/include"
)

// Formatter formats include graphs as Graphviz DOT.
type Formatter struct{}

// Format converts the include graph to Graphviz DOT format. The entry file is
// drawn with a bold border; files and includes on a cycle are drawn in red.
func (f *Formatter) Format(g *include.Graph, opts formatters.RenderOptions) (string, error) {
	view, err := formatters.NewView(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("digraph includes {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n")

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  labeljust=l;\n")
		sb.WriteString("  fontsize=10;\n")
		sb.WriteString("  fontname=Courier;\n")
	}

	for i, cycle := range view.Cycles {
		sb.WriteString(fmt.Sprintf("  // C%d: %s\n", i+1, view.CycleLabel(cycle)))
	}
	sb.WriteString("\n")

	extensionColors := formatters.ExtensionColors(view.Files)
	for _, file := range view.Files {
		color, ok := extensionColors[filepath.Ext(file)]
		if !ok {
			color = "white"
		}

		attrs := []string{"style=filled", "fillcolor=" + color}
		if file == view.Entry {
			attrs = append(attrs, "penwidth=2")
		}
		if view.InCycle(file) {
			attrs = append(attrs, "color=red")
		}
		sb.WriteString(fmt.Sprintf("  %q [%s];\n", view.Names[file], strings.Join(attrs, ", ")))
	}

	hasEdges := false
	for _, file := range view.Files {
		for _, target := range view.Adjacency[file] {
			if !hasEdges {
				sb.WriteString("\n")
				hasEdges = true
			}
			edge := fmt.Sprintf("  %q -> %q", view.Names[file], view.Names[target])
			if view.EdgeInCycle(file, target) {
				edge += " [color=red, style=dashed]"
			}
			sb.WriteString(edge + ";\n")
		}
	}

	sb.WriteString("}")
	return sb.String(), nil
}

// GenerateURL creates a GraphvizOnline URL with the DOT graph embedded.
func (f *Formatter) GenerateURL(output string) (string, bool) {
	encoded := url.PathEscape(output)
	return fmt.Sprintf("https://dreampuf.github.io/GraphvizOnline/?engine=dot#%s", encoded), true
}
