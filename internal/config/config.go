package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHADERINC_ROOT.
const EnvPrefix = "SHADERINC"

// DefaultConfigName is the config file looked up in the working directory
// when --config is not given.
const DefaultConfigName = ".shaderinc"

// Config holds all application configuration.
type Config struct {
	Root              string      `mapstructure:"root"`
	RelativePath      bool        `mapstructure:"relative_path"`
	TrackDependencies bool        `mapstructure:"track_dependencies"`
	Log               LogConfig   `mapstructure:"log"`
	Trace             TraceConfig `mapstructure:"trace"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TraceConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"root":           "root",
	"relative-path":  "relative_path",
	"track-deps":     "track_dependencies",
	"log-level":      "log.level",
	"trace-endpoint": "trace.endpoint",
}

// Host returns the build host toggles.
func (c *Config) Host() buildhost.Config {
	return buildhost.Config{
		Root:              c.Root,
		RelativePath:      c.RelativePath,
		TrackDependencies: c.TrackDependencies,
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("trace sample_rate %.2f is outside [0.0, 1.0] and will be clamped", c.Trace.SampleRate))
	}
	if c.Trace.Endpoint == "" && c.Trace.SampleRate != 1 {
		warnings = append(warnings, "trace sample_rate is set but trace endpoint is empty, tracing stays disabled")
	}

	return warnings
}

// Load reads configuration from defaults, an optional config file, the
// environment and flags, in increasing order of precedence. An empty path
// looks for .shaderinc.yaml in the working directory and tolerates its
// absence; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("root", ".")
	v.SetDefault("relative_path", false)
	v.SetDefault("track_dependencies", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("trace.endpoint", "")
	v.SetDefault("trace.sample_rate", 1.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// A relative root in a config file names a directory next to that file.
	if cfg.File != "" && !filepath.IsAbs(cfg.Root) && !rootOverridden(flags) && v.InConfig("root") {
		cfg.Root = filepath.Join(filepath.Dir(cfg.File), cfg.Root)
	}

	return &cfg, nil
}

func rootOverridden(flags *pflag.FlagSet) bool {
	if _, ok := os.LookupEnv(EnvPrefix + "_ROOT"); ok {
		return true
	}
	if flags == nil {
		return false
	}
	flag := flags.Lookup("root")
	return flag != nil && flag.Changed
}
