// Package app holds the state shared by every command of one CLI invocation.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/LegacyCodeHQ/shaderinc/internal/clilog"
	"github.com/LegacyCodeHQ/shaderinc/internal/config"
	"github.com/LegacyCodeHQ/shaderinc/internal/observability"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// Env is the configured environment of a command.
type Env struct {
	Config  *config.Config
	Logger  *log.Logger
	Tracing *observability.TracerProvider
}

type envKey struct{}

// Setup loads configuration, builds the logger writing to stderr and starts
// tracing. Close must be called when the command finishes.
func Setup(ctx context.Context, configPath string, flags *pflag.FlagSet, stderr io.Writer, version string) (*Env, error) {
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, err
	}

	logger, err := clilog.New(stderr, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}
	for _, warning := range cfg.Validate() {
		logger.Warn(warning)
	}

	tracing, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    "shaderinc",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Trace.Endpoint,
		SampleRate:     cfg.Trace.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	if tracing.Enabled() {
		logger.Debug("tracing enabled", "endpoint", cfg.Trace.Endpoint)
	}

	return &Env{Config: cfg, Logger: logger, Tracing: tracing}, nil
}

// Close flushes pending spans.
func (e *Env) Close(ctx context.Context) error {
	if e == nil || e.Tracing == nil {
		return nil
	}
	return e.Tracing.Shutdown(ctx)
}

// WithEnv returns a copy of ctx carrying env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// FromContext returns the Env stored in ctx, or a default environment with
// a discarding logger when there is none.
func FromContext(ctx context.Context) *Env {
	if ctx != nil {
		if env, ok := ctx.Value(envKey{}).(*Env); ok && env != nil {
			return env
		}
	}
	return &Env{
		Config: &config.Config{
			Root:  ".",
			Log:   config.LogConfig{Level: "warn"},
			Trace: config.TraceConfig{SampleRate: 1},
		},
		Logger: clilog.Discard(),
	}
}
