package include

import (
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Graph records which file includes which. Edges point from the including file
// to the included file.
type Graph struct {
	entry string
	g     graphlib.Graph[string, string]
}

// NewGraph creates an empty include graph rooted at entry.
func NewGraph(entry string) *Graph {
	return &Graph{
		entry: entry,
		g:     graphlib.New(graphlib.StringHash, graphlib.Directed()),
	}
}

// Entry returns the file the graph was built from.
func (g *Graph) Entry() string {
	return g.entry
}

// AddFile adds a file node. Adding an existing file is a no-op.
func (g *Graph) AddFile(path string) error {
	if err := g.g.AddVertex(path); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add %s to include graph: %w", path, err)
	}
	return nil
}

// AddInclude adds an edge from the including file to the included file,
// creating both nodes as needed.
func (g *Graph) AddInclude(from, to string) error {
	if err := g.AddFile(from); err != nil {
		return err
	}
	if err := g.AddFile(to); err != nil {
		return err
	}
	if err := g.g.AddEdge(from, to); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add include %s -> %s: %w", from, to, err)
	}
	return nil
}

// Adjacency returns every file mapped to the files it includes, sorted.
func (g *Graph) Adjacency() (map[string][]string, error) {
	adjacencyMap, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]string, len(adjacencyMap))
	for source, targets := range adjacencyMap {
		deps := make([]string, 0, len(targets))
		for target := range targets {
			deps = append(deps, target)
		}
		sort.Strings(deps)
		adjacency[source] = deps
	}
	return adjacency, nil
}

// Files returns every file in the graph, sorted.
func (g *Graph) Files() ([]string, error) {
	adjacency, err := g.Adjacency()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(adjacency))
	for file := range adjacency {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

// Cycles returns one include cycle per strongly connected component of the
// graph. Each cycle starts and ends with the same file, the smallest path of
// its component, and follows the shortest route back to it.
func (g *Graph) Cycles() ([][]string, error) {
	adjacency, err := g.Adjacency()
	if err != nil {
		return nil, err
	}

	components, err := graphlib.StronglyConnectedComponents(g.g)
	if err != nil {
		return nil, fmt.Errorf("failed to find strongly connected components: %w", err)
	}

	var cycles [][]string
	for _, component := range components {
		members := make(map[string]bool, len(component))
		for _, file := range component {
			members[file] = true
		}

		sorted := append([]string(nil), component...)
		sort.Strings(sorted)
		start := sorted[0]

		if len(component) == 1 && !containsString(adjacency[start], start) {
			continue
		}

		if cycle := shortestCycle(adjacency, members, start); cycle != nil {
			cycles = append(cycles, cycle)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})

	return cycles, nil
}

// shortestCycle walks breadth-first from start, staying inside members, until
// an edge leads back to start.
func shortestCycle(adjacency map[string][]string, members map[string]bool, start string) []string {
	predecessors := make(map[string]string)
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[current] {
			if !members[next] {
				continue
			}
			if next == start {
				return reconstructCycle(predecessors, start, current)
			}
			if !visited[next] {
				visited[next] = true
				predecessors[next] = current
				queue = append(queue, next)
			}
		}
	}

	return nil
}

func reconstructCycle(predecessors map[string]string, start, last string) []string {
	path := []string{last}
	for crawl := last; crawl != start; {
		crawl = predecessors[crawl]
		path = append(path, crawl)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return append(path, start)
}

// CycleEdges returns the set of edges that lie on one of the given cycles.
func CycleEdges(cycles [][]string) map[[2]string]bool {
	edges := make(map[[2]string]bool)
	for _, cycle := range cycles {
		for i := 0; i+1 < len(cycle); i++ {
			edges[[2]string{cycle[i], cycle[i+1]}] = true
		}
	}
	return edges
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
