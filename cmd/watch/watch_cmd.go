package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	output   string
	interval time.Duration
}

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &watchOptions{interval: debounceInterval}

	cmd := &cobra.Command{
		Use:   "watch <entry> -o <output>",
		Short: "Re-expand an entry whenever one of its dependencies changes",
		Long: `Expand an entry into an output file, then watch every file the expansion
depended on and expand again after each change.

Dependencies are only known when --track-deps is enabled. Without it only the
entry itself is watched, so edits to included files go unnoticed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the expanded entry to this file")
	cmd.Flags().DurationVar(&opts.interval, "debounce", opts.interval, "Wait this long after the last change before rebuilding")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, entry string, opts *watchOptions) error {
	env := app.FromContext(cmd.Context())
	host := env.Config.Host()
	if !host.TrackDependencies {
		env.Logger.Warn("dependency tracking is off, only the entry is watched")
	}

	w, err := newWatcher(env.Logger, opts.interval)
	if err != nil {
		return err
	}
	defer w.Close()

	rebuild := func(ctx context.Context) error {
		var registered []string
		registrar := buildhost.RegistrarFunc(func(path string) error {
			registered = append(registered, path)
			return nil
		})

		result, err := buildhost.Expand(ctx, host, entry, registrar, env.Logger)
		if err != nil {
			return err
		}
		if err := buildhost.WriteOutput(opts.output, result.Text); err != nil {
			return err
		}
		if !host.TrackDependencies {
			registered = []string{result.Entry}
		}
		if err := w.track(registered); err != nil {
			return err
		}

		env.Logger.Info("expanded", "entry", result.Entry, "output", opts.output, "watching", len(registered))
		return nil
	}

	if err := rebuild(ctx); err != nil {
		return fmt.Errorf("initial expansion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d file(s) for %s\n", len(w.watchedFiles()), entry)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return w.run(ctx, rebuild)
}
