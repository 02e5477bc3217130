package include

// DependencySet is an insertion-ordered set of canonical file paths.
type DependencySet struct {
	paths []string
	seen  map[string]bool
}

// NewDependencySet creates an empty set.
func NewDependencySet() *DependencySet {
	return &DependencySet{seen: make(map[string]bool)}
}

// Add inserts path if it is not present yet and reports whether it was added.
// Re-adding a path does not change its position.
func (s *DependencySet) Add(path string) bool {
	if s.seen[path] {
		return false
	}
	s.seen[path] = true
	s.paths = append(s.paths, path)
	return true
}

func (s *DependencySet) Contains(path string) bool {
	return s.seen[path]
}

func (s *DependencySet) Len() int {
	return len(s.paths)
}

// Paths returns the paths in first-visit order.
func (s *DependencySet) Paths() []string {
	return append([]string(nil), s.paths...)
}
