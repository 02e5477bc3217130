package expand

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/LegacyCodeHQ/shaderinc/internal/observability"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type expandOptions struct {
	output   string
	outDir   string
	depfile  string
	manifest string
	jobs     int
}

// NewCommand returns a new expand command instance.
func NewCommand() *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand <entry>...",
		Short: "Flatten the includes of one or more shader entries",
		Long: `Flatten the #include directives of shader entries.

A single entry is printed to stdout unless -o is given. Several entries are
expanded concurrently into --out-dir, each under its base name.

Examples:
  shaderinc expand main.frag                               # print to stdout
  shaderinc expand main.frag -o build/main.frag            # write a file
  shaderinc expand --track-deps main.frag -o out.frag \
      --depfile out.frag.d                                 # with a depfile
  shaderinc expand --out-dir build a.frag b.vert           # several entries`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the expanded entry to this file")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "Write each expanded entry into this directory")
	cmd.Flags().StringVar(&opts.depfile, "depfile", "", "Write a Make/Ninja depfile (requires --track-deps)")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Write a JSON dependency manifest with content digests (requires --track-deps)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Maximum concurrent expansions with --out-dir (default: unlimited)")

	return cmd
}

func validate(args []string, opts *expandOptions, host buildhost.Config) error {
	if opts.output != "" && opts.outDir != "" {
		return errors.New("--output cannot be used with --out-dir")
	}
	if len(args) > 1 {
		if opts.outDir == "" {
			return errors.New("expanding several entries requires --out-dir")
		}
		if opts.depfile != "" || opts.manifest != "" {
			return errors.New("--depfile and --manifest accept a single entry")
		}
	}
	if (opts.depfile != "" || opts.manifest != "") && !host.TrackDependencies {
		return errors.New("--depfile and --manifest require --track-deps")
	}
	if opts.depfile != "" && opts.output == "" && opts.outDir == "" {
		return errors.New("--depfile requires an output file (-o or --out-dir)")
	}
	return nil
}

func runExpand(cmd *cobra.Command, args []string, opts *expandOptions) error {
	env := app.FromContext(cmd.Context())
	host := env.Config.Host()

	if err := validate(args, opts, host); err != nil {
		return err
	}

	ctx, span := observability.StartCommandSpan(cmd.Context(), "expand", args...)
	defer span.End()

	if opts.outDir != "" {
		targets, err := outputTargets(opts.outDir, args)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if len(args) > 1 {
			return expandAll(ctx, env, targets, opts.jobs)
		}
		opts.output = targets[0].output
	}

	entry := args[0]

	var registrars buildhost.MultiRegistrar
	var depfile *buildhost.Depfile
	var manifest *buildhost.Manifest
	if opts.depfile != "" {
		depfile = buildhost.NewDepfile(opts.output)
		registrars = append(registrars, depfile)
	}
	if opts.manifest != "" {
		manifest = buildhost.NewManifest(entry, nil)
		registrars = append(registrars, manifest)
	}

	result, err := buildhost.Expand(ctx, host, entry, registrars, env.Logger)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), result.Text)
		return err
	}

	if err := buildhost.WriteOutput(opts.output, result.Text); err != nil {
		return err
	}
	env.Logger.Info("expanded", "entry", result.Entry, "output", opts.output, "dependencies", len(result.Dependencies))

	if depfile != nil {
		if err := depfile.WriteFile(opts.depfile); err != nil {
			return err
		}
	}
	if manifest != nil {
		manifest.Entry = result.Entry
		if err := writeManifest(opts.manifest, manifest); err != nil {
			return err
		}
	}

	return nil
}

type target struct {
	entry  string
	output string
}

func outputTargets(outDir string, entries []string) ([]target, error) {
	targets := make([]target, 0, len(entries))
	claimed := make(map[string]string, len(entries))
	for _, entry := range entries {
		output := filepath.Join(outDir, filepath.Base(entry))
		if previous, ok := claimed[output]; ok {
			return nil, fmt.Errorf("entries %s and %s would both be written to %s", previous, entry, output)
		}
		claimed[output] = entry
		targets = append(targets, target{entry: entry, output: output})
	}
	return targets, nil
}

func expandAll(ctx context.Context, env *app.Env, targets []target, jobs int) error {
	host := env.Config.Host()

	expander, err := buildhost.NewExpander(host, env.Logger)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		eg.SetLimit(jobs)
	}
	for _, t := range targets {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := expander.Expand(ctx, t.entry)
			if err != nil {
				return fmt.Errorf("%s: %w", t.entry, err)
			}
			if err := buildhost.WriteOutput(t.output, result.Text); err != nil {
				return err
			}
			env.Logger.Info("expanded", "entry", result.Entry, "output", t.output, "dependencies", len(result.Dependencies))
			return nil
		})
	}
	return eg.Wait()
}


func writeManifest(path string, manifest *buildhost.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if err := manifest.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return f.Close()
}
