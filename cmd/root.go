package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/LegacyCodeHQ/shaderinc/cmd/deps"
	"github.com/LegacyCodeHQ/shaderinc/cmd/expand"
	"github.com/LegacyCodeHQ/shaderinc/cmd/graph"
	"github.com/LegacyCodeHQ/shaderinc/cmd/watch"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCommand()

// NewRootCommand returns a new root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	var configPath string
	var env *app.Env

	cmd := &cobra.Command{
		Use:   "shaderinc",
		Short: "Flatten #include directives in shader sources",
		Long: `shaderinc expands #include "path" directives in shader sources into a
single text and reports every file the result depends on.

Includes resolve against --root by default, or against the including file's
directory with --relative-path. With --track-deps every dependency is
registered with the build (depfile, manifest, watch).

Use 'shaderinc <command> --help' for detailed information about a command.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var err error
			env, err = app.Setup(ctx, configPath, cmd.Flags(), cmd.ErrOrStderr(), version)
			if err != nil {
				return err
			}
			cmd.SetContext(app.WithEnv(ctx, env))
			return nil
		},
	}

	cmd.AddCommand(expand.NewCommand())
	cmd.AddCommand(deps.NewCommand())
	cmd.AddCommand(graph.NewCommand())
	cmd.AddCommand(watch.NewCommand())

	// Post-run hooks are skipped when RunE fails, so the env is closed from
	// each subcommand's RunE instead.
	for _, sub := range cmd.Commands() {
		closeEnvAfterRun(sub, func() *app.Env { return env })
	}

	// Initialize annotations for version template
	cmd.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: .shaderinc.yaml in the working directory)")
	flags.String("root", ".", "Directory entry paths and non-relative includes resolve against")
	flags.Bool("relative-path", false, "Resolve includes against the including file's directory")
	flags.Bool("track-deps", false, "Register every dependency with the build")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("trace-endpoint", "", "OTLP gRPC endpoint for traces (disabled when empty)")

	return cmd
}

// closeEnv flushes the env of a finished command.
var closeEnv = func(ctx context.Context, env *app.Env) error {
	return env.Close(ctx)
}

// closeEnvAfterRun wraps the RunE of cmd so the env set up for it is closed
// whether or not the command succeeded.
func closeEnvAfterRun(cmd *cobra.Command, current func() *app.Env) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		runErr := run(cmd, args)
		if err := closeEnv(context.Background(), current()); err != nil {
			return errors.Join(runErr, fmt.Errorf("failed to flush traces: %w", err))
		}
		return runErr
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
