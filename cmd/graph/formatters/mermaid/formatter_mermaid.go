package mermaid

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/LegacyCodeHQ/shaderinc/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/shaderinc/include"
)

// Formatter formats include graphs as Mermaid.js flowcharts.
type Formatter struct{}

// Format converts the include graph to Mermaid.js flowchart format.
func (f *Formatter) Format(g *include.Graph, opts formatters.RenderOptions) (string, error) {
	view, err := formatters.NewView(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}

	sb.WriteString("flowchart LR\n")

	for i, cycle := range view.Cycles {
		sb.WriteString(fmt.Sprintf("%%%% C%d: %s\n", i+1, view.CycleLabel(cycle)))
	}

	// Mermaid node IDs can't have dots or slashes.
	nodeIDs := make(map[string]string, len(view.Files))
	for i, file := range view.Files {
		nodeIDs[file] = fmt.Sprintf("n%d", i)
	}

	for _, file := range view.Files {
		label := strings.ReplaceAll(view.Names[file], "\"", "#quot;")
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeIDs[file], label))
	}

	var edgesSB strings.Builder
	edgeIndex := 0
	var cycleEdgeIndices []int
	for _, file := range view.Files {
		for _, target := range view.Adjacency[file] {
			edgesSB.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[file], nodeIDs[target]))
			if view.EdgeInCycle(file, target) {
				cycleEdgeIndices = append(cycleEdgeIndices, edgeIndex)
			}
			edgeIndex++
		}
	}
	if edgeIndex > 0 {
		sb.WriteString("\n")
		sb.WriteString(edgesSB.String())
	}

	var stylesSB strings.Builder
	if id, ok := nodeIDs[view.Entry]; ok {
		stylesSB.WriteString("    classDef entry stroke-width:3px\n")
		stylesSB.WriteString(fmt.Sprintf("    class %s entry\n", id))
	}
	for _, file := range view.Files {
		if view.InCycle(file) {
			stylesSB.WriteString(fmt.Sprintf("    style %s stroke:#d62728,stroke-width:3px\n", nodeIDs[file]))
		}
	}
	for _, idx := range cycleEdgeIndices {
		stylesSB.WriteString(fmt.Sprintf("    linkStyle %d stroke:#d62728,stroke-width:3px,stroke-dasharray: 5 5\n", idx))
	}
	if stylesSB.Len() > 0 {
		sb.WriteString("\n")
		sb.WriteString(stylesSB.String())
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// GenerateURL creates a mermaid.live URL with the diagram embedded.
func (f *Formatter) GenerateURL(output string) (string, bool) {
	payload := map[string]interface{}{
		"code": output,
		"mermaid": map[string]interface{}{
			"theme": "default",
		},
		"autoSync":      true,
		"updateDiagram": true,
	}

	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("https://mermaid.live/edit#%s", url.PathEscape(output)), true
	}

	encoded := base64.URLEncoding.EncodeToString(jsonBytes)
	return fmt.Sprintf("https://mermaid.live/edit#base64:%s", encoded), true
}
