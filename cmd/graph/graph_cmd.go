package graph

import (
	"fmt"
	"path/filepath"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/LegacyCodeHQ/shaderinc/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/LegacyCodeHQ/shaderinc/internal/observability"
	"github.com/spf13/cobra"
)

type graphOptions struct {
	format      string
	generateURL bool
	strict      bool
}

// NewCommand returns a new graph command instance.
func NewCommand() *cobra.Command {
	opts := &graphOptions{format: formatters.OutputFormatDOT.String()}

	cmd := &cobra.Command{
		Use:   "graph <entry>",
		Short: "Render the include graph of a shader entry",
		Long: `Render the include graph of a shader entry.

Unlike expand, graph does not stop at a cyclic include: every cycle is drawn
in red so it can be located and broken. Use --strict to fail instead.

Examples:
  shaderinc graph main.frag                  # Graphviz DOT
  shaderinc graph main.frag -f mermaid       # Mermaid flowchart
  shaderinc graph main.frag -u               # visualization URL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format,
		fmt.Sprintf("Output format (%s)", formatters.SupportedFormats()))
	cmd.Flags().BoolVarP(&opts.generateURL, "url", "u", false, "Generate visualization URL (supported formats: dot, mermaid)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when the include graph has a cycle")

	return cmd
}

func runGraph(cmd *cobra.Command, entry string, opts *graphOptions) error {
	formatter, err := NewFormatter(opts.format)
	if err != nil {
		return err
	}

	env := app.FromContext(cmd.Context())
	ctx, span := observability.StartCommandSpan(cmd.Context(), "graph", entry)
	defer span.End()

	expander, err := buildhost.NewExpander(env.Config.Host(), env.Logger)
	if err != nil {
		return err
	}

	g, err := expander.Scan(ctx, entry)
	if err != nil {
		return err
	}

	cycles, err := g.Cycles()
	if err != nil {
		return err
	}
	for _, cycle := range cycles {
		env.Logger.Warn("cyclic include", "cycle", cycle)
	}
	if opts.strict && len(cycles) > 0 {
		return fmt.Errorf("include graph of %s has %d cycle(s)", entry, len(cycles))
	}

	files, err := g.Files()
	if err != nil {
		return err
	}
	label := filepath.Base(g.Entry())
	if len(files) == 1 {
		label += " • 1 file"
	} else {
		label += fmt.Sprintf(" • %d files", len(files))
	}

	output, err := formatter.Format(g, formatters.RenderOptions{Label: label})
	if err != nil {
		return fmt.Errorf("failed to format graph: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.generateURL {
		if generator, ok := formatter.(formatters.URLGenerator); ok {
			if urlStr, ok := generator.GenerateURL(output); ok {
				fmt.Fprintln(out, urlStr)
				return nil
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: URL generation is not supported for %s format\n\n", opts.format)
	}

	fmt.Fprintln(out, output)
	return nil
}
