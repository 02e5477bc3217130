package deps

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/LegacyCodeHQ/shaderinc/include"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/LegacyCodeHQ/shaderinc/internal/observability"
	"github.com/spf13/cobra"
)

// Format selects how the dependency set is printed.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMake     Format = "make"
	FormatManifest Format = "manifest"
)

var supportedFormats = []Format{FormatText, FormatJSON, FormatMake, FormatManifest}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, bool) {
	for _, f := range supportedFormats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// SupportedFormats returns the accepted --format values, comma separated.
func SupportedFormats() string {
	names := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

type depsOptions struct {
	format string
	target string
}

// NewCommand returns a new deps command instance.
func NewCommand() *cobra.Command {
	opts := &depsOptions{format: string(FormatText)}

	cmd := &cobra.Command{
		Use:   "deps <entry>",
		Short: "List every file an entry's expansion depends on",
		Long: `List every file the expansion of an entry reads, entry first, in the order
the files are first visited. Each file is listed once.

Examples:
  shaderinc deps main.frag                          # one path per line
  shaderinc deps main.frag -f json                  # JSON document
  shaderinc deps main.frag -f make -t main.spv      # depfile for main.spv
  shaderinc deps main.frag -f manifest              # paths with content digests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, fmt.Sprintf("Output format (%s)", SupportedFormats()))
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Depfile target for --format make (default: the entry)")

	return cmd
}

func runDeps(cmd *cobra.Command, entry string, opts *depsOptions) error {
	format, ok := ParseFormat(opts.format)
	if !ok {
		return fmt.Errorf("unknown format: %s (valid options: %s)", opts.format, SupportedFormats())
	}

	env := app.FromContext(cmd.Context())
	ctx, span := observability.StartCommandSpan(cmd.Context(), "deps", entry)
	defer span.End()

	expander, err := buildhost.NewExpander(env.Config.Host(), env.Logger)
	if err != nil {
		return err
	}
	result, err := expander.Expand(ctx, entry)
	if err != nil {
		return err
	}

	return Write(cmd.OutOrStdout(), format, result, opts.target)
}

// Write prints the dependencies of result in format.
func Write(w io.Writer, format Format, result *include.Result, target string) error {
	switch format {
	case FormatText:
		for _, dep := range result.Dependencies {
			if _, err := fmt.Fprintln(w, dep); err != nil {
				return err
			}
		}
		return nil

	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Entry        string   `json:"entry"`
			Dependencies []string `json:"dependencies"`
		}{result.Entry, result.Dependencies})

	case FormatMake:
		if target == "" {
			target = result.Entry
		}
		depfile := buildhost.NewDepfile(target)
		if err := register(depfile, result.Dependencies); err != nil {
			return err
		}
		_, err := depfile.WriteTo(w)
		return err

	case FormatManifest:
		manifest := buildhost.NewManifest(result.Entry, nil)
		if err := register(manifest, result.Dependencies); err != nil {
			return err
		}
		return manifest.WriteJSON(w)

	default:
		return fmt.Errorf("unknown format: %s (valid options: %s)", format, SupportedFormats())
	}
}

// register feeds paths to r regardless of the tracking toggle.
func register(r buildhost.Registrar, paths []string) error {
	return buildhost.RegisterDependencies(buildhost.Config{TrackDependencies: true}, paths, r)
}
