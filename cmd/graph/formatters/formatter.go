package formatters

import (
	"github.com/LegacyCodeHQ/shaderinc/include"
)

// RenderOptions contains optional parameters for rendering include graphs.
type RenderOptions struct {
	// Label is an optional title or label for the graph
	Label string
}

// Formatter is the interface that all graph formatters must implement.
type Formatter interface {
	// Format converts an include graph to a formatted string representation.
	Format(g *include.Graph, opts RenderOptions) (string, error)
}

// URLGenerator is implemented by formatters whose output can be opened in an
// online viewer.
type URLGenerator interface {
	GenerateURL(output string) (string, bool)
}

// View is the render-ready form of an include graph shared by all formatters.
type View struct {
	Entry     string
	Files     []string
	Adjacency map[string][]string
	Names     map[string]string
	Cycles    [][]string

	cycleNodes map[string]bool
	cycleEdges map[[2]string]bool
}

// NewView computes file names, sorted adjacency and cycles of g.
func NewView(g *include.Graph) (*View, error) {
	adjacency, err := g.Adjacency()
	if err != nil {
		return nil, err
	}
	files, err := g.Files()
	if err != nil {
		return nil, err
	}
	cycles, err := g.Cycles()
	if err != nil {
		return nil, err
	}

	cycleNodes := make(map[string]bool)
	for _, cycle := range cycles {
		for _, file := range cycle {
			cycleNodes[file] = true
		}
	}

	return &View{
		Entry:      g.Entry(),
		Files:      files,
		Adjacency:  adjacency,
		Names:      BuildNodeNames(files),
		Cycles:     cycles,
		cycleNodes: cycleNodes,
		cycleEdges: include.CycleEdges(cycles),
	}, nil
}

// InCycle reports whether file lies on a reported cycle.
func (v *View) InCycle(file string) bool {
	return v.cycleNodes[file]
}

// EdgeInCycle reports whether the include from -> to lies on a reported cycle.
func (v *View) EdgeInCycle(from, to string) bool {
	return v.cycleEdges[[2]string{from, to}]
}

// CycleLabel renders a cycle with display names, e.g. "a.glsl -> b.glsl -> a.glsl".
func (v *View) CycleLabel(cycle []string) string {
	label := ""
	for i, file := range cycle {
		if i > 0 {
			label += " -> "
		}
		label += v.Names[file]
	}
	return label
}
