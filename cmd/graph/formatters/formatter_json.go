package formatters

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/shaderinc/include"
)

// JSONFormatter formats include graphs as JSON.
type JSONFormatter struct{}

type jsonGraph struct {
	Entry    string              `json:"entry"`
	Includes map[string][]string `json:"includes"`
	Cycles   [][]string          `json:"cycles"`
}

// Format converts the include graph to JSON. The opts parameter is accepted
// for interface compatibility but not used.
func (f *JSONFormatter) Format(g *include.Graph, opts RenderOptions) (string, error) {
	view, err := NewView(g)
	if err != nil {
		return "", err
	}

	cycles := view.Cycles
	if cycles == nil {
		cycles = [][]string{}
	}

	data, err := json.MarshalIndent(jsonGraph{
		Entry:    view.Entry,
		Includes: view.Adjacency,
		Cycles:   cycles,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateURL returns false as JSON format does not support URL generation.
func (f *JSONFormatter) GenerateURL(output string) (string, bool) {
	return "", false
}
