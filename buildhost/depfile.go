package buildhost

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Depfile collects registrations into a Make/Ninja style depfile:
//
//	<target>: \
//	  <dep> \
//	  <dep>
//
// Make and Ninja both re-run the rule producing target when any listed
// dependency changes.
type Depfile struct {
	Target string
	deps   []string
	seen   map[string]bool
}

// NewDepfile creates an empty depfile for target.
func NewDepfile(target string) *Depfile {
	return &Depfile{Target: target, seen: make(map[string]bool)}
}

func (d *Depfile) Register(path string) error {
	if d.seen[path] {
		return nil
	}
	d.seen[path] = true
	d.deps = append(d.deps, path)
	return nil
}

// Dependencies returns the registered paths in registration order.
func (d *Depfile) Dependencies() []string {
	return append([]string(nil), d.deps...)
}

// WriteTo writes the depfile contents to w.
func (d *Depfile) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(escapeDepfilePath(d.Target))
	buf.WriteString(":")
	for _, dep := range d.deps {
		buf.WriteString(" \\\n  ")
		buf.WriteString(escapeDepfilePath(dep))
	}
	buf.WriteString("\n")

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// WriteFile writes the depfile to path.
func (d *Depfile) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create depfile: %w", err)
	}
	if _, err := d.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write depfile: %w", err)
	}
	return f.Close()
}

var depfileEscaper = strings.NewReplacer(
	" ", `\ `,
	"#", `\#`,
	"$", "$$",
)

func escapeDepfilePath(path string) string {
	return depfileEscaper.Replace(path)
}
